package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	Port                 string
	Origin               string
	Environment          string
	LogLevel             string
	JWTSecret            string
	JWTExpirationMinutes int
	Database             DatabaseConfig
	Mailer               MailerConfig
	Chat                 ChatConfig
	Scheduling           SchedulingConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver   string // "mysql" or "memory"
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// MailerConfig holds email service configuration.
// An empty Transport logs outgoing mail instead of sending it.
type MailerConfig struct {
	Transport   string
	DefaultFrom string
	QueueSize   int
}

// ChatConfig holds conversation polling and retention settings
type ChatConfig struct {
	PollInterval time.Duration
	HistoryLimit int
}

// SchedulingConfig holds appointment lifecycle settings
type SchedulingConfig struct {
	Location            *time.Location
	FinishSweepInterval time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	dbConfig := DatabaseConfig{
		Driver:   getEnv("DB_DRIVER", "mysql"),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "medivault"),
	}
	if dbConfig.Driver != "mysql" && dbConfig.Driver != "memory" {
		return nil, fmt.Errorf("invalid DB_DRIVER %q: expected mysql or memory", dbConfig.Driver)
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	jwtExpMinutes, err := getEnvInt("JWT_EXPIRATION_MINUTES", 15)
	if err != nil {
		return nil, err
	}

	queueSize, err := getEnvInt("NOTIFICATION_QUEUE_SIZE", 100)
	if err != nil {
		return nil, err
	}

	pollSeconds, err := getEnvInt("CHAT_POLL_INTERVAL_SECONDS", 5)
	if err != nil {
		return nil, err
	}

	historyLimit, err := getEnvInt("CHAT_HISTORY_LIMIT", 500)
	if err != nil {
		return nil, err
	}

	sweepSeconds, err := getEnvInt("FINISH_SWEEP_INTERVAL_SECONDS", 60)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	return &Config{
		Port:                 getEnv("PORT", "3001"),
		Origin:               getEnv("ORIGIN", "http://localhost:5173"),
		Environment:          getEnv("NODE_ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		JWTSecret:            getEnv("JWT_SECRET", "default_jwt_secret"),
		JWTExpirationMinutes: jwtExpMinutes,
		Database:             dbConfig,
		Mailer: MailerConfig{
			Transport:   getEnv("MAILER_TRANSPORT", ""),
			DefaultFrom: getEnv("MAILER_DEFAULT_FROM", "no-reply@medivault.local"),
			QueueSize:   queueSize,
		},
		Chat: ChatConfig{
			PollInterval: time.Duration(pollSeconds) * time.Second,
			HistoryLimit: historyLimit,
		},
		Scheduling: SchedulingConfig{
			Location:            loc,
			FinishSweepInterval: time.Duration(sweepSeconds) * time.Second,
		},
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt parses a positive integer environment variable.
func getEnvInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, strconv.Itoa(defaultValue))
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %d", key, value)
	}
	return value, nil
}
