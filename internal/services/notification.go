package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medivault-server/internal/mailer"
	"medivault-server/internal/metrics"
	"medivault-server/internal/models"
	"medivault-server/internal/repositories"

	"go.uber.org/zap"
)

// StatusNotice tells a patient that a doctor decided on their appointment.
type StatusNotice struct {
	AppointmentID   string
	PatientID       string
	DoctorID        string
	AppointmentTime time.Time
	Status          models.AppointmentStatus
	Reason          string
}

// NotificationRelay accepts status notices for best-effort delivery.
// Implementations must not block the caller and never report failures back.
type NotificationRelay interface {
	NotifyRejection(notice StatusNotice)
	NotifyApproval(notice StatusNotice)
}

// Notifier performs the actual delivery of one notice.
type Notifier interface {
	Deliver(ctx context.Context, notice StatusNotice) error
}

// AsyncRelay queues notices and delivers them from a single worker goroutine.
// A full queue drops the notice; delivery errors are logged and counted.
type AsyncRelay struct {
	notifier Notifier
	log      *zap.Logger
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan StatusNotice
	wg     sync.WaitGroup
}

// NewAsyncRelay creates an AsyncRelay and starts its worker.
func NewAsyncRelay(notifier Notifier, queueSize int, log *zap.Logger) *AsyncRelay {
	if queueSize <= 0 {
		queueSize = 1
	}
	r := &AsyncRelay{
		notifier: notifier,
		log:      log,
		timeout:  30 * time.Second,
		queue:    make(chan StatusNotice, queueSize),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

func (r *AsyncRelay) NotifyRejection(notice StatusNotice) {
	notice.Status = models.StatusRejected
	r.enqueue(notice)
}

func (r *AsyncRelay) NotifyApproval(notice StatusNotice) {
	notice.Status = models.StatusApproved
	r.enqueue(notice)
}

// Close stops accepting notices and waits for queued ones to be delivered.
func (r *AsyncRelay) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *AsyncRelay) enqueue(notice StatusNotice) {
	kind := notificationKind(notice.Status)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		metrics.Notifications.WithLabelValues(kind, "dropped").Inc()
		r.log.Warn("notification relay closed, dropping notice",
			zap.String("appointment_id", notice.AppointmentID),
			zap.String("status", string(notice.Status)),
		)
		return
	}

	select {
	case r.queue <- notice:
		metrics.Notifications.WithLabelValues(kind, "queued").Inc()
	default:
		metrics.Notifications.WithLabelValues(kind, "dropped").Inc()
		r.log.Warn("notification queue full, dropping notice",
			zap.String("appointment_id", notice.AppointmentID),
			zap.String("status", string(notice.Status)),
		)
	}
}

func (r *AsyncRelay) run() {
	defer r.wg.Done()
	for notice := range r.queue {
		r.deliver(notice)
	}
}

func (r *AsyncRelay) deliver(notice StatusNotice) {
	kind := notificationKind(notice.Status)
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			metrics.Notifications.WithLabelValues(kind, "failed").Inc()
			r.log.Error("notifier panicked", zap.Any("panic", p), zap.String("appointment_id", notice.AppointmentID))
		}
	}()

	if err := r.notifier.Deliver(ctx, notice); err != nil {
		metrics.Notifications.WithLabelValues(kind, "failed").Inc()
		r.log.Error("failed to deliver appointment notice",
			zap.String("appointment_id", notice.AppointmentID),
			zap.String("patient_id", notice.PatientID),
			zap.String("status", string(notice.Status)),
			zap.Error(err),
		)
		return
	}
	metrics.Notifications.WithLabelValues(kind, "delivered").Inc()
}

func notificationKind(status models.AppointmentStatus) string {
	switch status {
	case models.StatusRejected:
		return "rejection"
	case models.StatusApproved:
		return "approval"
	default:
		return "other"
	}
}

// EmailNotifier emails the patient about the decision on their appointment.
type EmailNotifier struct {
	users  repositories.UserRepository
	sender mailer.Sender
	from   string
}

// NewEmailNotifier creates a new EmailNotifier.
func NewEmailNotifier(users repositories.UserRepository, sender mailer.Sender, from string) *EmailNotifier {
	return &EmailNotifier{users: users, sender: sender, from: from}
}

func (n *EmailNotifier) Deliver(ctx context.Context, notice StatusNotice) error {
	patient, err := n.users.FindByID(ctx, notice.PatientID)
	if err != nil {
		return fmt.Errorf("look up patient %s: %w", notice.PatientID, err)
	}
	if patient.Email == "" {
		return fmt.Errorf("patient %s has no email address", notice.PatientID)
	}

	doctorName := "your doctor"
	if doctor, err := n.users.FindByID(ctx, notice.DoctorID); err == nil && doctor.FullName() != "" {
		doctorName = "Dr. " + doctor.FullName()
	}

	return n.sender.Send(ctx, mailer.Mail{
		From:    n.from,
		To:      patient.Email,
		Subject: "Appointment Status Update",
		Body:    noticeBody(patient, doctorName, notice),
	})
}

func noticeBody(patient *models.User, doctorName string, notice StatusNotice) string {
	when := notice.AppointmentTime.Format("January 2, 2006 at 3:04 PM")
	greeting := fmt.Sprintf("Dear %s,\n\n", patient.FullName())

	switch notice.Status {
	case models.StatusApproved:
		return greeting + fmt.Sprintf("Your appointment with %s on %s has been APPROVED.", doctorName, when)
	case models.StatusRejected:
		return greeting + fmt.Sprintf("Your appointment with %s on %s has been REJECTED.\nReason: %s", doctorName, when, notice.Reason)
	default:
		return greeting + fmt.Sprintf("Your appointment status has been updated to: %s.", notice.Status)
	}
}
