package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"medivault-server/internal/metrics"
	"medivault-server/internal/models"
	"medivault-server/internal/repositories"

	"go.uber.org/zap"
)

// ChatService stores and reads two-party conversations between a patient and a doctor.
type ChatService struct {
	messages     repositories.MessageRepository
	users        repositories.UserRepository
	historyLimit int
	log          *zap.Logger
	now          func() time.Time
}

// NewChatService creates a new ChatService. historyLimit bounds the number of
// most recent messages returned by GetHistory.
func NewChatService(messages repositories.MessageRepository, users repositories.UserRepository, historyLimit int, log *zap.Logger) *ChatService {
	return &ChatService{
		messages:     messages,
		users:        users,
		historyLimit: historyLimit,
		log:          log,
		now:          time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *ChatService) WithClock(now func() time.Time) *ChatService {
	s.now = now
	return s
}

// SendMessage appends a message from senderID to receiverID.
func (s *ChatService) SendMessage(ctx context.Context, senderID, receiverID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: message body is required", ErrInvalidInput)
	}
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: cannot send a message to yourself", ErrInvalidInput)
	}

	sender, err := s.findUser(ctx, senderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.findUser(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if sender.Role == receiver.Role {
		return nil, fmt.Errorf("%w: messages are only exchanged between a patient and a doctor", ErrForbidden)
	}

	message := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		Timestamp:  s.now(),
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}

	metrics.MessagesSent.Inc()
	s.log.Debug("message sent",
		zap.String("message_id", message.ID),
		zap.String("sender_id", senderID),
		zap.String("receiver_id", receiverID),
	)
	return message, nil
}

// GetHistory returns the conversation between userA and userB, ordered by
// (timestamp, id). Only the most recent messages up to the history limit are returned.
func (s *ChatService) GetHistory(ctx context.Context, userA, userB string) ([]models.Message, error) {
	if userA == userB {
		return nil, fmt.Errorf("%w: a conversation needs two participants", ErrInvalidInput)
	}
	messages, err := s.messages.ListConversation(ctx, userA, userB, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if messages == nil {
		messages = []models.Message{}
	}
	models.SortConversation(messages)
	return messages, nil
}

// MarkRead stamps every unread message from senderID to receiverID sent up to
// now. Messages that arrive afterwards stay unread.
func (s *ChatService) MarkRead(ctx context.Context, senderID, receiverID string) error {
	updated, err := s.messages.MarkRead(ctx, senderID, receiverID, s.now())
	if err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	if updated > 0 {
		metrics.MessagesMarkedRead.Add(float64(updated))
	}
	return nil
}

// GetUnreadCount returns the number of unread messages addressed to viewerID across all peers.
func (s *ChatService) GetUnreadCount(ctx context.Context, viewerID string) (int64, error) {
	count, err := s.messages.CountUnread(ctx, viewerID)
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return count, nil
}

// ListPartners returns one preview per conversation partner, most recent conversation first.
func (s *ChatService) ListPartners(ctx context.Context, userID string) ([]models.ConversationPreview, error) {
	partnerIDs, err := s.messages.ListPartnerIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversation partners: %w", err)
	}
	partners, err := s.users.FindByIDs(ctx, partnerIDs)
	if err != nil {
		return nil, fmt.Errorf("load conversation partners: %w", err)
	}

	previews := make([]models.ConversationPreview, 0, len(partners))
	for i := range partners {
		partner := &partners[i]

		last, err := s.messages.LastMessage(ctx, userID, partner.ID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("load last message: %w", err)
		}
		unread, err := s.messages.CountUnreadFrom(ctx, partner.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("count unread messages: %w", err)
		}

		previews = append(previews, models.ConversationPreview{
			Partner:     partner.Sanitize(),
			LastMessage: last,
			UnreadCount: unread,
		})
	}

	sortPreviews(previews)
	return previews, nil
}

func (s *ChatService) findUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
		return nil, err
	}
	return user, nil
}

func sortPreviews(previews []models.ConversationPreview) {
	lastAt := func(p models.ConversationPreview) time.Time {
		if p.LastMessage == nil {
			return time.Time{}
		}
		return p.LastMessage.Timestamp
	}
	sort.SliceStable(previews, func(i, j int) bool {
		return lastAt(previews[i]).After(lastAt(previews[j]))
	})
}
