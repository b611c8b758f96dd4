package services

import (
	"context"
	"testing"
	"time"

	"medivault-server/internal/models"
	"medivault-server/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type chatFixture struct {
	service  *ChatService
	messages *repositories.MemoryMessageRepository
	clock    time.Time
}

func newChatFixture(t *testing.T, historyLimit int) *chatFixture {
	t.Helper()
	f := &chatFixture{
		messages: repositories.NewMemoryMessageRepository(),
		clock:    testNow,
	}
	users := repositories.NewMemoryUserRepository(testPatient, testOtherPatient, testDoctor, testOtherDoctor)
	f.service = NewChatService(f.messages, users, historyLimit, zaptest.NewLogger(t)).
		WithClock(func() time.Time { return f.clock })
	return f
}

func (f *chatFixture) send(t *testing.T, from, to, body string) *models.Message {
	t.Helper()
	f.clock = f.clock.Add(time.Second)
	message, err := f.service.SendMessage(context.Background(), from, to, body)
	require.NoError(t, err)
	return message
}

func TestChat_UnreadScenario(t *testing.T) {
	f := newChatFixture(t, 500)
	ctx := context.Background()

	f.send(t, testDoctor.ID, testPatient.ID, "Your results are in")
	f.send(t, testDoctor.ID, testPatient.ID, "Everything looks fine")
	f.send(t, testDoctor.ID, testPatient.ID, "See you next month")

	unread, err := f.service.GetUnreadCount(ctx, testPatient.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	history, err := f.service.GetHistory(ctx, testPatient.ID, testDoctor.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "Your results are in", history[0].Body)
	assert.Equal(t, "See you next month", history[2].Body)

	f.clock = f.clock.Add(time.Second)
	require.NoError(t, f.service.MarkRead(ctx, testDoctor.ID, testPatient.ID))

	unread, err = f.service.GetUnreadCount(ctx, testPatient.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)

	// The sender's own view is unaffected by their outgoing messages.
	unread, err = f.service.GetUnreadCount(ctx, testDoctor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestChat_MarkReadCutoff(t *testing.T) {
	f := newChatFixture(t, 500)
	ctx := context.Background()

	early := f.send(t, testDoctor.ID, testPatient.ID, "before")
	markAt := f.clock.Add(time.Second)

	// Delivered with a timestamp after the reader's mark time.
	late := &models.Message{
		SenderID:   testDoctor.ID,
		ReceiverID: testPatient.ID,
		Body:       "after",
		Timestamp:  markAt.Add(time.Second),
	}
	require.NoError(t, f.messages.Create(ctx, late))

	f.clock = markAt
	require.NoError(t, f.service.MarkRead(ctx, testDoctor.ID, testPatient.ID))

	history, err := f.service.GetHistory(ctx, testPatient.ID, testDoctor.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, early.ID, history[0].ID)
	require.NotNil(t, history[0].ReadAt)
	assert.True(t, history[0].ReadAt.Equal(markAt))
	assert.Nil(t, history[1].ReadAt)

	unread, err := f.service.GetUnreadCount(ctx, testPatient.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	// Marking again later keeps the first readAt.
	f.clock = markAt.Add(time.Hour)
	require.NoError(t, f.service.MarkRead(ctx, testDoctor.ID, testPatient.ID))
	history, err = f.service.GetHistory(ctx, testPatient.ID, testDoctor.ID)
	require.NoError(t, err)
	assert.True(t, history[0].ReadAt.Equal(markAt))
	require.NotNil(t, history[1].ReadAt)
}

func TestChat_SendMessageErrors(t *testing.T) {
	tests := []struct {
		name     string
		sender   string
		receiver string
		body     string
		wantErr  error
	}{
		{"empty body", testPatient.ID, testDoctor.ID, "  ", ErrInvalidInput},
		{"to self", testPatient.ID, testPatient.ID, "hello", ErrInvalidInput},
		{"unknown receiver", testPatient.ID, "nobody", "hello", ErrNotFound},
		{"patient to patient", testPatient.ID, testOtherPatient.ID, "hello", ErrForbidden},
		{"doctor to doctor", testDoctor.ID, testOtherDoctor.ID, "hello", ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture(t, 500)
			_, err := f.service.SendMessage(context.Background(), tt.sender, tt.receiver, tt.body)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestChat_HistoryLimitKeepsMostRecent(t *testing.T) {
	f := newChatFixture(t, 2)
	ctx := context.Background()

	f.send(t, testPatient.ID, testDoctor.ID, "one")
	f.send(t, testDoctor.ID, testPatient.ID, "two")
	f.send(t, testPatient.ID, testDoctor.ID, "three")

	history, err := f.service.GetHistory(ctx, testDoctor.ID, testPatient.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "two", history[0].Body)
	assert.Equal(t, "three", history[1].Body)

	empty, err := f.service.GetHistory(ctx, testDoctor.ID, testOtherPatient.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestChat_ListPartners(t *testing.T) {
	f := newChatFixture(t, 500)
	ctx := context.Background()

	f.send(t, testPatient.ID, testDoctor.ID, "hi doctor")
	f.send(t, testOtherPatient.ID, testDoctor.ID, "question")
	f.send(t, testOtherPatient.ID, testDoctor.ID, "another question")

	previews, err := f.service.ListPartners(ctx, testDoctor.ID)
	require.NoError(t, err)
	require.Len(t, previews, 2)

	assert.Equal(t, testOtherPatient.ID, previews[0].Partner.ID)
	assert.Equal(t, int64(2), previews[0].UnreadCount)
	require.NotNil(t, previews[0].LastMessage)
	assert.Equal(t, "another question", previews[0].LastMessage.Body)

	assert.Equal(t, testPatient.ID, previews[1].Partner.ID)
	assert.Equal(t, int64(1), previews[1].UnreadCount)

	none, err := f.service.ListPartners(ctx, testOtherDoctor.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
