package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Contains(t, cfg.Database.DSN, "@tcp(localhost:3306)/medivault")
	assert.Equal(t, 5*time.Second, cfg.Chat.PollInterval)
	assert.Equal(t, 500, cfg.Chat.HistoryLimit)
	assert.Equal(t, 100, cfg.Mailer.QueueSize)
	assert.Equal(t, time.Minute, cfg.Scheduling.FinishSweepInterval)
	assert.Equal(t, "UTC", cfg.Scheduling.Location.String())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("CHAT_POLL_INTERVAL_SECONDS", "2")
	t.Setenv("CHAT_HISTORY_LIMIT", "50")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 2*time.Second, cfg.Chat.PollInterval)
	assert.Equal(t, 50, cfg.Chat.HistoryLimit)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non numeric poll interval", "CHAT_POLL_INTERVAL_SECONDS", "soon"},
		{"zero history limit", "CHAT_HISTORY_LIMIT", "0"},
		{"unknown driver", "DB_DRIVER", "sqlite"},
		{"unknown timezone", "TIMEZONE", "Mars/Olympus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
