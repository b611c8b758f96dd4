package models

import (
	"strings"
	"time"
)

// Role enum
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// ParseRole normalises a role claim. Only patients and doctors act in this service.
func ParseRole(s string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	return role, role == RoleDoctor || role == RolePatient
}

// User represents a portal account. Accounts and credentials are provisioned by
// the identity service; this service only reads them.
type User struct {
	BaseModel
	Email       string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FirstName   string `gorm:"size:100" json:"firstName"`
	LastName    string `gorm:"size:100" json:"lastName"`
	Role        Role   `gorm:"size:20;index;not null" json:"role"`
	PhoneNumber string `gorm:"size:20" json:"phoneNumber,omitempty"`
	Specialty   string `gorm:"size:100" json:"specialty,omitempty"`
	ClinicName  string `gorm:"size:100" json:"clinicName,omitempty"`
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Role       Role      `json:"role"`
	Specialty  string    `json:"specialty,omitempty"`
	ClinicName string    `json:"clinicName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Sanitize creates a UserSanitized struct from a User model, omitting the phone number.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role,
		Specialty:  u.Specialty,
		ClinicName: u.ClinicName,
		CreatedAt:  u.CreatedAt,
	}
}
