package convsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"medivault-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var errOffline = errors.New("network error: connection refused")

// fakeChat is an in-memory ChatAPI that can be switched offline.
type fakeChat struct {
	mu        sync.Mutex
	messages  []models.Message
	offline   bool
	fetches   int
	markReads int
	seq       int
	now       time.Time
}

func newFakeChat() *fakeChat {
	return &fakeChat{now: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeChat) GetHistory(_ context.Context, userA, userB string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.offline {
		return nil, errOffline
	}
	var result []models.Message
	// Returned newest first to exercise the session's own ordering.
	for i := len(f.messages) - 1; i >= 0; i-- {
		m := f.messages[i]
		if (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA) {
			result = append(result, m)
		}
	}
	return result, nil
}

func (f *fakeChat) MarkRead(_ context.Context, senderID, receiverID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return errOffline
	}
	f.markReads++
	for i := range f.messages {
		m := &f.messages[i]
		if m.SenderID == senderID && m.ReceiverID == receiverID && m.ReadAt == nil {
			readAt := f.now
			m.ReadAt = &readAt
		}
	}
	return nil
}

func (f *fakeChat) SendMessage(_ context.Context, senderID, receiverID, body string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return nil, errOffline
	}
	f.seq++
	f.now = f.now.Add(time.Second)
	message := models.Message{
		BaseModel:  models.BaseModel{ID: string(rune('a' + f.seq))},
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		Timestamp:  f.now,
	}
	f.messages = append(f.messages, message)
	return &message, nil
}

func (f *fakeChat) GetUnreadCount(_ context.Context, viewerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return 0, errOffline
	}
	var count int64
	for i := range f.messages {
		if f.messages[i].IsUnreadFor(viewerID) {
			count++
		}
	}
	return count, nil
}

func (f *fakeChat) setOffline(offline bool) {
	f.mu.Lock()
	f.offline = offline
	f.mu.Unlock()
}

func (f *fakeChat) counts() (fetches, markReads int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches, f.markReads
}

func TestOpen_FetchesImmediatelyAndMarksRead(t *testing.T) {
	api := newFakeChat()
	ctx := context.Background()
	_, err := api.SendMessage(ctx, "doctor", "patient", "first")
	require.NoError(t, err)
	_, err = api.SendMessage(ctx, "doctor", "patient", "second")
	require.NoError(t, err)

	unread, err := api.GetUnreadCount(ctx, "patient")
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	session := Open(ctx, api, "patient", "doctor", time.Hour, zaptest.NewLogger(t))
	defer session.Close()

	messages := session.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Body)
	assert.Equal(t, "second", messages[1].Body)
	assert.NoError(t, session.LastError())

	unread, err = session.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestOpen_EmptyConversationSkipsMarkRead(t *testing.T) {
	api := newFakeChat()
	session := Open(context.Background(), api, "patient", "doctor", time.Hour, zaptest.NewLogger(t))
	defer session.Close()

	assert.Empty(t, session.Messages())
	assert.NotNil(t, session.Messages())
	_, markReads := api.counts()
	assert.Zero(t, markReads)
}

func TestSession_PollsOnInterval(t *testing.T) {
	api := newFakeChat()
	session := Open(context.Background(), api, "patient", "doctor", 10*time.Millisecond, zaptest.NewLogger(t))
	defer session.Close()

	_, err := api.SendMessage(context.Background(), "doctor", "patient", "new result")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(session.Messages()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSession_SendTriggersRefresh(t *testing.T) {
	api := newFakeChat()
	session := Open(context.Background(), api, "patient", "doctor", time.Hour, zaptest.NewLogger(t))
	defer session.Close()

	message, err := session.Send(context.Background(), "hello doctor")
	require.NoError(t, err)
	assert.Equal(t, "hello doctor", message.Body)

	assert.Eventually(t, func() bool {
		messages := session.Messages()
		return len(messages) == 1 && messages[0].ID == message.ID
	}, time.Second, 5*time.Millisecond)
}

func TestSession_FailedPollKeepsLastSnapshotAndRecovers(t *testing.T) {
	api := newFakeChat()
	ctx := context.Background()
	_, err := api.SendMessage(ctx, "doctor", "patient", "kept")
	require.NoError(t, err)

	session := Open(ctx, api, "patient", "doctor", 10*time.Millisecond, zaptest.NewLogger(t))
	defer session.Close()
	require.Len(t, session.Messages(), 1)

	api.setOffline(true)
	assert.Eventually(t, func() bool {
		return errors.Is(session.LastError(), errOffline)
	}, time.Second, 5*time.Millisecond)
	assert.Len(t, session.Messages(), 1)

	_, err = session.Send(ctx, "while offline")
	assert.ErrorIs(t, err, errOffline)

	api.setOffline(false)
	assert.Eventually(t, func() bool {
		return session.LastError() == nil
	}, time.Second, 5*time.Millisecond)
}

func TestSession_CloseStopsPolling(t *testing.T) {
	api := newFakeChat()
	session := Open(context.Background(), api, "patient", "doctor", 5*time.Millisecond, zaptest.NewLogger(t))

	assert.Eventually(t, func() bool {
		fetches, _ := api.counts()
		return fetches >= 3
	}, time.Second, time.Millisecond)

	session.Close()
	session.Close()

	stopped, _ := api.counts()
	time.Sleep(30 * time.Millisecond)
	after, _ := api.counts()
	assert.Equal(t, stopped, after)
}
