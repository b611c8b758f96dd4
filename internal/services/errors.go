package services

// ServiceError is a classification error returned by the service layer.
// Callers wrap it with context and test for it with errors.Is.
type ServiceError string

func (e ServiceError) Error() string { return string(e) }

const (
	ErrNotFound          ServiceError = "not found"
	ErrForbidden         ServiceError = "forbidden"
	ErrInvalidTransition ServiceError = "invalid status transition"
	ErrInvalidState      ServiceError = "operation not allowed in current state"
	ErrMissingReason     ServiceError = "rejection reason is required"
	ErrInvalidInput      ServiceError = "invalid input"
	ErrNetwork           ServiceError = "network error"
)
