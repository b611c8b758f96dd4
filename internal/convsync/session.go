// Package convsync keeps a local copy of one two-party conversation in step
// with the server by polling.
package convsync

import (
	"context"
	"sync"
	"time"

	"medivault-server/internal/metrics"
	"medivault-server/internal/models"

	"go.uber.org/zap"
)

// DefaultInterval is the refresh period used when Open is given a non-positive interval.
const DefaultInterval = 5 * time.Second

// ChatAPI is the subset of the chat operations a session needs. It is
// implemented in-process by services.ChatService and remotely by client.ChatClient.
type ChatAPI interface {
	GetHistory(ctx context.Context, userA, userB string) ([]models.Message, error)
	MarkRead(ctx context.Context, senderID, receiverID string) error
	SendMessage(ctx context.Context, senderID, receiverID, body string) (*models.Message, error)
	GetUnreadCount(ctx context.Context, viewerID string) (int64, error)
}

// Session is an open conversation between a viewer and a peer. It re-fetches
// the full history on every tick, replaces its local copy, and marks the
// peer's messages read whenever the fetched history is non-empty.
//
// Failed polls are logged and retried on the next tick. Close is the only
// way to stop the session.
type Session struct {
	api      ChatAPI
	viewerID string
	peerID   string
	interval time.Duration
	log      *zap.Logger

	mu       sync.RWMutex
	messages []models.Message
	lastErr  error

	refresh   chan struct{}
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// Open fetches the conversation once and starts polling every interval until
// Close is called or ctx is cancelled.
func Open(ctx context.Context, api ChatAPI, viewerID, peerID string, interval time.Duration, log *zap.Logger) *Session {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(ctx)

	s := &Session{
		api:      api,
		viewerID: viewerID,
		peerID:   peerID,
		interval: interval,
		log:      log.With(zap.String("viewer_id", viewerID), zap.String("peer_id", peerID)),
		messages: []models.Message{},
		refresh:  make(chan struct{}, 1),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	s.poll(ctx)
	go s.run(ctx)
	return s
}

// Messages returns a snapshot of the conversation ordered by (timestamp, id).
func (s *Session) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]models.Message, len(s.messages))
	copy(snapshot, s.messages)
	return snapshot
}

// LastError returns the error of the most recent poll, or nil if it succeeded.
func (s *Session) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Send posts a message to the peer. It returns as soon as the server accepts
// the message and schedules an immediate refresh instead of waiting for the next tick.
func (s *Session) Send(ctx context.Context, body string) (*models.Message, error) {
	message, err := s.api.SendMessage(ctx, s.viewerID, s.peerID, body)
	if err != nil {
		return nil, err
	}
	s.Refresh()
	return message, nil
}

// Refresh requests an out-of-band poll. It never blocks.
func (s *Session) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// UnreadCount returns the viewer's unread messages across all peers.
func (s *Session) UnreadCount(ctx context.Context) (int64, error) {
	return s.api.GetUnreadCount(ctx, s.viewerID)
}

// Close stops polling and waits for an in-flight poll to finish.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
	})
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.refresh:
		}
		s.poll(ctx)
	}
}

func (s *Session) poll(ctx context.Context) {
	messages, err := s.api.GetHistory(ctx, s.viewerID, s.peerID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.ConversationPollFailures.Inc()
		s.log.Warn("conversation poll failed", zap.Error(err))
		s.setError(err)
		return
	}

	models.SortConversation(messages)
	s.mu.Lock()
	if messages == nil {
		messages = []models.Message{}
	}
	s.messages = messages
	s.lastErr = nil
	s.mu.Unlock()

	if len(messages) == 0 {
		return
	}
	if err := s.api.MarkRead(ctx, s.peerID, s.viewerID); err != nil && ctx.Err() == nil {
		metrics.ConversationPollFailures.Inc()
		s.log.Warn("marking conversation read failed", zap.Error(err))
		s.setError(err)
	}
}

func (s *Session) setError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
