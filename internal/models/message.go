package models

import (
	"sort"
	"time"
)

// Message represents a chat message between two users
type Message struct {
	BaseModel
	SenderID   string     `gorm:"size:36;index:idx_messages_pair,priority:1;not null" json:"senderId"`
	ReceiverID string     `gorm:"size:36;index:idx_messages_pair,priority:2;index;not null" json:"receiverId"`
	Body       string     `gorm:"type:text;not null" json:"body"`
	Timestamp  time.Time  `gorm:"column:sent_at;index;not null" json:"timestamp"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
}

// IsUnreadFor reports whether the message is addressed to viewerID and not yet read.
func (m *Message) IsUnreadFor(viewerID string) bool {
	return m.ReceiverID == viewerID && m.ReadAt == nil
}

// SortConversation orders messages by timestamp, breaking ties by ID.
func SortConversation(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if !messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].Timestamp.Before(messages[j].Timestamp)
		}
		return messages[i].ID < messages[j].ID
	})
}

// ConversationPreview summarises a conversation with one partner.
type ConversationPreview struct {
	Partner     UserSanitized `json:"partner"`
	LastMessage *Message      `json:"lastMessage,omitempty"`
	UnreadCount int64         `json:"unreadCount"`
}
