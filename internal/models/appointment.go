package models

import (
	"strings"
	"time"
)

// AppointmentStatus represents the status of an appointment.
// The string values are exchanged verbatim with API clients.
type AppointmentStatus string

const (
	StatusPending  AppointmentStatus = "PENDING"
	StatusApproved AppointmentStatus = "APPROVED"
	StatusRejected AppointmentStatus = "REJECTED"
	StatusFinished AppointmentStatus = "FINISHED"
)

var appointmentStatuses = map[AppointmentStatus]bool{
	StatusPending:  true,
	StatusApproved: true,
	StatusRejected: true,
	StatusFinished: true,
}

// ParseAppointmentStatus accepts the four lifecycle values, case-insensitively.
// "CONFIRMED" is deliberately not accepted: APPROVED is the only confirmed state.
func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	status := AppointmentStatus(strings.ToUpper(strings.TrimSpace(s)))
	return status, appointmentStatuses[status]
}

// IsTerminal reports whether no further status change is possible.
// Terminal appointments may only be deleted.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusFinished
}

// Appointment represents a scheduled medical appointment
type Appointment struct {
	BaseModel
	PatientID       string            `gorm:"size:36;index;not null" json:"patientId"`
	DoctorID        string            `gorm:"size:36;index;not null" json:"doctorId"`
	AppointmentTime time.Time         `gorm:"index;not null" json:"appointmentTime"`
	Status          AppointmentStatus `gorm:"size:20;index;not null;default:'PENDING'" json:"status"`
	RejectionReason *string           `gorm:"type:text" json:"rejectionReason,omitempty"`
	Reason          string            `gorm:"size:255" json:"reason"`
	Notes           string            `gorm:"type:text" json:"notes"`

	// Relations (only populated by queries that preload them)
	Patient *User `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  *User `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

// IsParticipant reports whether userID is the patient or the doctor.
func (a *Appointment) IsParticipant(userID string) bool {
	return userID != "" && (a.PatientID == userID || a.DoctorID == userID)
}

// AppointmentFilter narrows an appointment listing. Zero values mean "any".
type AppointmentFilter struct {
	Status *AppointmentStatus
	// From and To bound AppointmentTime as [From, To).
	From *time.Time
	To   *time.Time
}

// Matches applies the filter to a single appointment.
func (f AppointmentFilter) Matches(a *Appointment) bool {
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	if f.From != nil && a.AppointmentTime.Before(*f.From) {
		return false
	}
	if f.To != nil && !a.AppointmentTime.Before(*f.To) {
		return false
	}
	return true
}
