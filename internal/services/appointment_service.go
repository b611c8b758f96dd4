package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medivault-server/internal/metrics"
	"medivault-server/internal/models"
	"medivault-server/internal/repositories"

	"go.uber.org/zap"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID   string
	Role models.Role
}

// CreateAppointmentInput holds the patient-supplied fields of a new appointment.
type CreateAppointmentInput struct {
	DoctorID        string
	AppointmentTime time.Time
	Reason          string
	Notes           string
}

// AppointmentService enforces the appointment state machine:
//
//	PENDING --doctor--> APPROVED --time--> FINISHED --participant--> (deleted)
//	PENDING --doctor, reason--> REJECTED --participant--> (deleted)
//
// Every write is a conditional update in the repository, so concurrent
// decisions on the same appointment cannot both commit.
type AppointmentService struct {
	appointments repositories.AppointmentRepository
	users        repositories.UserRepository
	relay        NotificationRelay
	log          *zap.Logger
	now          func() time.Time
}

// NewAppointmentService creates a new AppointmentService.
func NewAppointmentService(
	appointments repositories.AppointmentRepository,
	users repositories.UserRepository,
	relay NotificationRelay,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		appointments: appointments,
		users:        users,
		relay:        relay,
		log:          log,
		now:          time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *AppointmentService) WithClock(now func() time.Time) *AppointmentService {
	s.now = now
	return s
}

// CreateAppointment books a PENDING appointment for the acting patient.
func (s *AppointmentService) CreateAppointment(ctx context.Context, actor Actor, in CreateAppointmentInput) (*models.Appointment, error) {
	if actor.Role != models.RolePatient {
		return nil, fmt.Errorf("%w: only patients can schedule appointments", ErrForbidden)
	}
	if in.DoctorID == "" {
		return nil, fmt.Errorf("%w: doctorId is required", ErrInvalidInput)
	}
	if !in.AppointmentTime.After(s.now()) {
		return nil, fmt.Errorf("%w: appointment time must be in the future", ErrInvalidInput)
	}

	doctor, err := s.users.FindByID(ctx, in.DoctorID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: doctor %s", ErrNotFound, in.DoctorID)
		}
		return nil, err
	}
	if doctor.Role != models.RoleDoctor {
		return nil, fmt.Errorf("%w: user %s is not a doctor", ErrNotFound, in.DoctorID)
	}

	appointment := &models.Appointment{
		PatientID:       actor.ID,
		DoctorID:        doctor.ID,
		AppointmentTime: in.AppointmentTime,
		Status:          models.StatusPending,
		Reason:          strings.TrimSpace(in.Reason),
		Notes:           strings.TrimSpace(in.Notes),
	}
	if err := s.appointments.Create(ctx, appointment); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.log.Info("appointment scheduled",
		zap.String("appointment_id", appointment.ID),
		zap.String("patient_id", appointment.PatientID),
		zap.String("doctor_id", appointment.DoctorID),
		zap.Time("appointment_time", appointment.AppointmentTime),
	)
	return appointment, nil
}

// GetAppointment returns one appointment to one of its participants.
func (s *AppointmentService) GetAppointment(ctx context.Context, actor Actor, id string) (*models.Appointment, error) {
	appointment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appointment.IsParticipant(actor.ID) {
		return nil, fmt.Errorf("%w: not a participant of appointment %s", ErrForbidden, id)
	}
	return appointment, nil
}

// ListAppointments returns the actor's appointments ordered by time.
func (s *AppointmentService) ListAppointments(ctx context.Context, actor Actor, filter models.AppointmentFilter) ([]models.Appointment, error) {
	if actor.Role != models.RolePatient && actor.Role != models.RoleDoctor {
		return nil, fmt.Errorf("%w: role %q cannot list appointments", ErrForbidden, actor.Role)
	}
	return s.appointments.ListForParticipant(ctx, actor.ID, actor.Role, filter)
}

// ListUpcoming returns the actor's appointments scheduled from now on.
func (s *AppointmentService) ListUpcoming(ctx context.Context, actor Actor) ([]models.Appointment, error) {
	from := s.now()
	return s.ListAppointments(ctx, actor, models.AppointmentFilter{From: &from})
}

// RequestTransition applies a doctor's decision to a PENDING appointment.
// A REJECTED decision requires a non-blank reason and notifies the patient;
// notification failures never affect the committed status.
func (s *AppointmentService) RequestTransition(ctx context.Context, actor Actor, id string, target models.AppointmentStatus, reason string) (*models.Appointment, error) {
	appointment, err := s.requestTransition(ctx, actor, id, target, reason)
	metrics.AppointmentTransitions.WithLabelValues(string(target), resultLabel(err)).Inc()
	if err != nil {
		s.log.Debug("appointment transition refused",
			zap.String("appointment_id", id),
			zap.String("actor_id", actor.ID),
			zap.String("target", string(target)),
			zap.Error(err),
		)
	}
	return appointment, err
}

func (s *AppointmentService) requestTransition(ctx context.Context, actor Actor, id string, target models.AppointmentStatus, reason string) (*models.Appointment, error) {
	appointment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appointment.IsParticipant(actor.ID) {
		return nil, fmt.Errorf("%w: not a participant of appointment %s", ErrForbidden, id)
	}
	if appointment.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: appointment is %s", ErrInvalidTransition, appointment.Status)
	}
	if actor.Role != models.RoleDoctor || actor.ID != appointment.DoctorID {
		return nil, fmt.Errorf("%w: only the assigned doctor can change the status", ErrForbidden)
	}
	if target != models.StatusApproved && target != models.StatusRejected {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, appointment.Status, target)
	}

	var rejectionReason *string
	reason = strings.TrimSpace(reason)
	if target == models.StatusRejected {
		if reason == "" {
			return nil, ErrMissingReason
		}
		rejectionReason = &reason
	}

	applied, err := s.appointments.TransitionFromPending(ctx, id, target, rejectionReason)
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	if !applied {
		// Lost the race: another decision committed first.
		return nil, fmt.Errorf("%w: appointment is no longer %s", ErrInvalidTransition, models.StatusPending)
	}

	appointment.Status = target
	appointment.RejectionReason = rejectionReason
	appointment.UpdatedAt = s.now()

	s.log.Info("appointment status changed",
		zap.String("appointment_id", id),
		zap.String("doctor_id", actor.ID),
		zap.String("status", string(target)),
	)

	notice := StatusNotice{
		AppointmentID:   appointment.ID,
		PatientID:       appointment.PatientID,
		DoctorID:        appointment.DoctorID,
		AppointmentTime: appointment.AppointmentTime,
		Reason:          reason,
	}
	if target == models.StatusRejected {
		s.relay.NotifyRejection(notice)
	} else {
		s.relay.NotifyApproval(notice)
	}
	return appointment, nil
}

// DeleteAppointment permanently removes a REJECTED or FINISHED appointment.
// A second delete of the same id returns ErrNotFound.
func (s *AppointmentService) DeleteAppointment(ctx context.Context, actor Actor, id string) error {
	appointment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !appointment.IsParticipant(actor.ID) {
		return fmt.Errorf("%w: not a participant of appointment %s", ErrForbidden, id)
	}
	if !appointment.Status.IsTerminal() {
		return fmt.Errorf("%w: only rejected or finished appointments can be deleted, appointment is %s", ErrInvalidState, appointment.Status)
	}

	deleted, err := s.appointments.DeleteTerminal(ctx, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if !deleted {
		// Terminal appointments only leave that state by deletion.
		return fmt.Errorf("%w: appointment %s", ErrNotFound, id)
	}

	s.log.Info("appointment deleted", zap.String("appointment_id", id), zap.String("actor_id", actor.ID))
	return nil
}

// RescheduleAppointment moves the time of a PENDING appointment. Only its patient may do so.
func (s *AppointmentService) RescheduleAppointment(ctx context.Context, actor Actor, id string, newTime time.Time) (*models.Appointment, error) {
	appointment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appointment.IsParticipant(actor.ID) {
		return nil, fmt.Errorf("%w: not a participant of appointment %s", ErrForbidden, id)
	}
	if actor.Role != models.RolePatient || actor.ID != appointment.PatientID {
		return nil, fmt.Errorf("%w: only the patient can reschedule", ErrForbidden)
	}
	if appointment.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: appointment is %s", ErrInvalidState, appointment.Status)
	}
	if !newTime.After(s.now()) {
		return nil, fmt.Errorf("%w: new appointment time must be in the future", ErrInvalidInput)
	}

	applied, err := s.appointments.Reschedule(ctx, id, actor.ID, newTime)
	if err != nil {
		return nil, fmt.Errorf("reschedule appointment: %w", err)
	}
	if !applied {
		return nil, fmt.Errorf("%w: appointment is no longer %s", ErrInvalidState, models.StatusPending)
	}

	appointment.AppointmentTime = newTime
	appointment.UpdatedAt = s.now()
	s.log.Info("appointment rescheduled", zap.String("appointment_id", id), zap.Time("appointment_time", newTime))
	return appointment, nil
}

// FinishElapsed moves every APPROVED appointment whose time has passed to FINISHED.
func (s *AppointmentService) FinishElapsed(ctx context.Context) (int64, error) {
	finished, err := s.appointments.FinishElapsed(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("finish elapsed appointments: %w", err)
	}
	if finished > 0 {
		metrics.AppointmentsFinished.Add(float64(finished))
		s.log.Info("appointments finished", zap.Int64("count", finished))
	}
	return finished, nil
}

// ListDoctors returns the doctor directory.
func (s *AppointmentService) ListDoctors(ctx context.Context) ([]models.UserSanitized, error) {
	doctors, err := s.users.ListByRole(ctx, models.RoleDoctor)
	if err != nil {
		return nil, err
	}
	return sanitizeUsers(doctors), nil
}

// ListPatientsForDoctor returns the distinct patients that have booked with the acting doctor.
func (s *AppointmentService) ListPatientsForDoctor(ctx context.Context, actor Actor) ([]models.UserSanitized, error) {
	if actor.Role != models.RoleDoctor {
		return nil, fmt.Errorf("%w: only doctors have a patient list", ErrForbidden)
	}

	appointments, err := s.appointments.ListForParticipant(ctx, actor.ID, models.RoleDoctor, models.AppointmentFilter{})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var patientIDs []string
	for _, a := range appointments {
		if !seen[a.PatientID] {
			seen[a.PatientID] = true
			patientIDs = append(patientIDs, a.PatientID)
		}
	}

	patients, err := s.users.FindByIDs(ctx, patientIDs)
	if err != nil {
		return nil, err
	}
	return sanitizeUsers(patients), nil
}

func (s *AppointmentService) load(ctx context.Context, id string) (*models.Appointment, error) {
	appointment, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: appointment %s", ErrNotFound, id)
		}
		return nil, err
	}
	return appointment, nil
}

func sanitizeUsers(users []models.User) []models.UserSanitized {
	result := make([]models.UserSanitized, 0, len(users))
	for i := range users {
		result = append(result, users[i].Sanitize())
	}
	return result
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrMissingReason):
		return "missing_reason"
	default:
		return "error"
	}
}
