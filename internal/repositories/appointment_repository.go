package repositories

import (
	"context"
	"errors"
	"time"

	"medivault-server/internal/models"

	"gorm.io/gorm"
)

// GormAppointmentRepository implements AppointmentRepository on gorm.
type GormAppointmentRepository struct {
	db *gorm.DB
}

// NewGormAppointmentRepository creates a new GormAppointmentRepository.
func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

func (r *GormAppointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	return r.db.WithContext(ctx).Omit("Patient", "Doctor").Create(appointment).Error
}

func (r *GormAppointmentRepository) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	var appointment models.Appointment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *GormAppointmentRepository) ListForParticipant(ctx context.Context, userID string, role models.Role, filter models.AppointmentFilter) ([]models.Appointment, error) {
	query := r.db.WithContext(ctx).Preload("Patient").Preload("Doctor").Order("appointment_time asc, id asc")

	switch role {
	case models.RoleDoctor:
		query = query.Where("doctor_id = ?", userID)
	case models.RolePatient:
		query = query.Where("patient_id = ?", userID)
	default:
		return nil, errors.New("unsupported role for appointment listing: " + string(role))
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		query = query.Where("appointment_time >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("appointment_time < ?", *filter.To)
	}

	var appointments []models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *GormAppointmentRepository) TransitionFromPending(ctx context.Context, id string, to models.AppointmentStatus, rejectionReason *string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":           to,
			"rejection_reason": rejectionReason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormAppointmentRepository) Reschedule(ctx context.Context, id, patientID string, newTime time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND patient_id = ? AND status = ?", id, patientID, models.StatusPending).
		Update("appointment_time", newTime)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormAppointmentRepository) DeleteTerminal(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status IN ?", id, terminalStatuses).
		Delete(&models.Appointment{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormAppointmentRepository) FinishElapsed(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("status = ? AND appointment_time <= ?", models.StatusApproved, now).
		Update("status", models.StatusFinished)
	return res.RowsAffected, res.Error
}
