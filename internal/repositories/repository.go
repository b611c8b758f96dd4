package repositories

import (
	"context"
	"errors"
	"time"

	"medivault-server/internal/models"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// AppointmentRepository owns appointment records. Every status-changing method
// is a single conditional write, so callers get check-and-set semantics per
// appointment without holding locks across calls.
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	// ListForParticipant returns the appointments where userID takes the given
	// role, ordered by appointment time.
	ListForParticipant(ctx context.Context, userID string, role models.Role, filter models.AppointmentFilter) ([]models.Appointment, error)
	// TransitionFromPending sets status (and rejection reason) only if the
	// appointment is still PENDING. It reports whether the write happened.
	TransitionFromPending(ctx context.Context, id string, to models.AppointmentStatus, rejectionReason *string) (bool, error)
	// Reschedule moves a PENDING appointment owned by patientID.
	Reschedule(ctx context.Context, id, patientID string, newTime time.Time) (bool, error)
	// DeleteTerminal removes the appointment only if it is REJECTED or FINISHED.
	DeleteTerminal(ctx context.Context, id string) (bool, error)
	// FinishElapsed moves APPROVED appointments scheduled at or before now to FINISHED.
	FinishElapsed(ctx context.Context, now time.Time) (int64, error)
}

// MessageRepository owns chat messages.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	// ListConversation returns the most recent limit messages exchanged between
	// userA and userB, sorted ascending. A limit <= 0 returns everything.
	ListConversation(ctx context.Context, userA, userB string, limit int) ([]models.Message, error)
	LastMessage(ctx context.Context, userA, userB string) (*models.Message, error)
	// MarkRead stamps readAt on unread messages from senderID to receiverID sent
	// at or before readAt. Already-read messages are left untouched.
	MarkRead(ctx context.Context, senderID, receiverID string, readAt time.Time) (int64, error)
	CountUnread(ctx context.Context, receiverID string) (int64, error)
	CountUnreadFrom(ctx context.Context, senderID, receiverID string) (int64, error)
	ListPartnerIDs(ctx context.Context, userID string) ([]string, error)
}

// UserRepository reads portal accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
}

var terminalStatuses = []models.AppointmentStatus{models.StatusRejected, models.StatusFinished}
