package repositories

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"medivault-server/internal/models"
)

// MemoryAppointmentRepository keeps appointments in process memory. It is used
// for local runs (DB_DRIVER=memory) and by service tests.
type MemoryAppointmentRepository struct {
	mu    sync.Mutex
	items map[string]models.Appointment
	now   func() time.Time
}

// NewMemoryAppointmentRepository creates an empty MemoryAppointmentRepository.
func NewMemoryAppointmentRepository() *MemoryAppointmentRepository {
	return &MemoryAppointmentRepository{items: make(map[string]models.Appointment), now: time.Now}
}

func (r *MemoryAppointmentRepository) Create(_ context.Context, appointment *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appointment.EnsureID()
	if _, exists := r.items[appointment.ID]; exists {
		return errors.New("duplicate appointment id " + appointment.ID)
	}
	now := r.now()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now
	r.items[appointment.ID] = detachAppointment(*appointment)
	return nil
}

func (r *MemoryAppointmentRepository) FindByID(_ context.Context, id string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appointment, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	appointment = detachAppointment(appointment)
	return &appointment, nil
}

func (r *MemoryAppointmentRepository) ListForParticipant(_ context.Context, userID string, role models.Role, filter models.AppointmentFilter) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []models.Appointment
	for _, appointment := range r.items {
		switch role {
		case models.RoleDoctor:
			if appointment.DoctorID != userID {
				continue
			}
		case models.RolePatient:
			if appointment.PatientID != userID {
				continue
			}
		default:
			return nil, errors.New("unsupported role for appointment listing: " + string(role))
		}
		if !filter.Matches(&appointment) {
			continue
		}
		result = append(result, detachAppointment(appointment))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].AppointmentTime.Equal(result[j].AppointmentTime) {
			return result[i].AppointmentTime.Before(result[j].AppointmentTime)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *MemoryAppointmentRepository) TransitionFromPending(_ context.Context, id string, to models.AppointmentStatus, rejectionReason *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appointment, ok := r.items[id]
	if !ok || appointment.Status != models.StatusPending {
		return false, nil
	}
	appointment.Status = to
	appointment.RejectionReason = copyString(rejectionReason)
	appointment.UpdatedAt = r.now()
	r.items[id] = appointment
	return true, nil
}

func (r *MemoryAppointmentRepository) Reschedule(_ context.Context, id, patientID string, newTime time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appointment, ok := r.items[id]
	if !ok || appointment.PatientID != patientID || appointment.Status != models.StatusPending {
		return false, nil
	}
	appointment.AppointmentTime = newTime
	appointment.UpdatedAt = r.now()
	r.items[id] = appointment
	return true, nil
}

func (r *MemoryAppointmentRepository) DeleteTerminal(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appointment, ok := r.items[id]
	if !ok || !appointment.Status.IsTerminal() {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

func (r *MemoryAppointmentRepository) FinishElapsed(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var finished int64
	for id, appointment := range r.items {
		if appointment.Status == models.StatusApproved && !appointment.AppointmentTime.After(now) {
			appointment.Status = models.StatusFinished
			appointment.UpdatedAt = r.now()
			r.items[id] = appointment
			finished++
		}
	}
	return finished, nil
}

// MemoryMessageRepository keeps chat messages in process memory.
type MemoryMessageRepository struct {
	mu       sync.Mutex
	messages []models.Message
}

// NewMemoryMessageRepository creates an empty MemoryMessageRepository.
func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{}
}

func (r *MemoryMessageRepository) Create(_ context.Context, message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	message.EnsureID()
	message.CreatedAt = message.Timestamp
	message.UpdatedAt = message.Timestamp
	r.messages = append(r.messages, detachMessage(*message))
	return nil
}

func (r *MemoryMessageRepository) ListConversation(_ context.Context, userA, userB string, limit int) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := r.conversationLocked(userA, userB)
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

func (r *MemoryMessageRepository) LastMessage(_ context.Context, userA, userB string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conversation := r.conversationLocked(userA, userB)
	if len(conversation) == 0 {
		return nil, ErrNotFound
	}
	last := conversation[len(conversation)-1]
	return &last, nil
}

func (r *MemoryMessageRepository) MarkRead(_ context.Context, senderID, receiverID string, readAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated int64
	for i := range r.messages {
		m := &r.messages[i]
		if m.SenderID == senderID && m.ReceiverID == receiverID && m.ReadAt == nil && !m.Timestamp.After(readAt) {
			stamp := readAt
			m.ReadAt = &stamp
			updated++
		}
	}
	return updated, nil
}

func (r *MemoryMessageRepository) CountUnread(_ context.Context, receiverID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for i := range r.messages {
		if r.messages[i].IsUnreadFor(receiverID) {
			count++
		}
	}
	return count, nil
}

func (r *MemoryMessageRepository) CountUnreadFrom(_ context.Context, senderID, receiverID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for i := range r.messages {
		if r.messages[i].SenderID == senderID && r.messages[i].IsUnreadFor(receiverID) {
			count++
		}
	}
	return count, nil
}

func (r *MemoryMessageRepository) ListPartnerIDs(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool)
	var partners []string
	for _, m := range r.messages {
		var partner string
		switch userID {
		case m.SenderID:
			partner = m.ReceiverID
		case m.ReceiverID:
			partner = m.SenderID
		default:
			continue
		}
		if !seen[partner] {
			seen[partner] = true
			partners = append(partners, partner)
		}
	}
	return partners, nil
}

func (r *MemoryMessageRepository) conversationLocked(userA, userB string) []models.Message {
	var result []models.Message
	for _, m := range r.messages {
		if (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA) {
			result = append(result, detachMessage(m))
		}
	}
	models.SortConversation(result)
	return result
}

// MemoryUserRepository keeps accounts in process memory.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewMemoryUserRepository creates a MemoryUserRepository seeded with users.
func NewMemoryUserRepository(users ...models.User) *MemoryUserRepository {
	r := &MemoryUserRepository{users: make(map[string]models.User)}
	for _, u := range users {
		u.EnsureID()
		r.users[u.ID] = u
	}
	return r
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.EnsureID()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
		user.UpdatedAt = user.CreatedAt
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) FindByIDs(_ context.Context, ids []string) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []models.User
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			users = append(users, user)
		}
	}
	sortUsers(users)
	return users, nil
}

func (r *MemoryUserRepository) ListByRole(_ context.Context, role models.Role) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []models.User
	for _, user := range r.users {
		if user.Role == role {
			users = append(users, user)
		}
	}
	sortUsers(users)
	return users, nil
}

func sortUsers(users []models.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].LastName != users[j].LastName {
			return users[i].LastName < users[j].LastName
		}
		if users[i].FirstName != users[j].FirstName {
			return users[i].FirstName < users[j].FirstName
		}
		return users[i].ID < users[j].ID
	})
}

// detachAppointment copies pointer fields so callers cannot mutate stored state.
func detachAppointment(a models.Appointment) models.Appointment {
	a.RejectionReason = copyString(a.RejectionReason)
	a.Patient = nil
	a.Doctor = nil
	return a
}

func detachMessage(m models.Message) models.Message {
	if m.ReadAt != nil {
		readAt := *m.ReadAt
		m.ReadAt = &readAt
	}
	return m
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
