package handlers

import (
	"fmt"
	"strconv"
	"time"

	"medivault-server/internal/models"
	"medivault-server/internal/services"
	"medivault-server/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	Service  *services.AppointmentService
	Location *time.Location
	log      *zap.Logger
}

// NewAppointmentHandler creates a new AppointmentHandler. Calendar dates in
// query parameters are interpreted in loc.
func NewAppointmentHandler(service *services.AppointmentService, loc *time.Location, log *zap.Logger) *AppointmentHandler {
	if loc == nil {
		loc = time.Local
	}
	return &AppointmentHandler{Service: service, Location: loc, log: log}
}

// CreateAppointmentRequest represents the request body for creating an appointment.
type CreateAppointmentRequest struct {
	DoctorID        string    `json:"doctorId" binding:"required"`
	AppointmentTime time.Time `json:"appointmentTime" binding:"required"`
	Reason          string    `json:"reason" validate:"max=1000"`
	Notes           string    `json:"notes" validate:"max=2000"`
}

// CreateAppointment handles booking a new appointment for the authenticated patient.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appointment, err := h.Service.CreateAppointment(c.Request.Context(), actor, services.CreateAppointmentInput{
		DoctorID:        req.DoctorID,
		AppointmentTime: req.AppointmentTime,
		Reason:          req.Reason,
		Notes:           req.Notes,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	utils.Created(c, "Appointment created successfully", appointment)
}

// GetAppointmentsForUser handles fetching the logged-in user's appointments.
// Optional query parameters: status, date (YYYY-MM-DD) and upcoming (bool).
func (h *AppointmentHandler) GetAppointmentsForUser(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	filter, err := h.parseFilter(c)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	appointments, err := h.Service.ListAppointments(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if appointments == nil {
		appointments = []models.Appointment{}
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

func (h *AppointmentHandler) parseFilter(c *gin.Context) (models.AppointmentFilter, error) {
	var filter models.AppointmentFilter

	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseAppointmentStatus(raw)
		if !ok {
			return filter, fmt.Errorf("unknown appointment status %q", raw)
		}
		filter.Status = &status
	}

	if raw := c.Query("date"); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, h.Location)
		if err != nil {
			return filter, fmt.Errorf("date must be formatted as YYYY-MM-DD")
		}
		next := day.AddDate(0, 0, 1)
		filter.From = &day
		filter.To = &next
	}

	if raw := c.Query("upcoming"); raw != "" {
		upcoming, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, fmt.Errorf("upcoming must be a boolean")
		}
		if upcoming {
			now := time.Now()
			if filter.From == nil || filter.From.Before(now) {
				filter.From = &now
			}
		}
	}

	return filter, nil
}

// GetAppointmentByID handles fetching a single appointment by its ID.
// Accessible by the involved patient or doctor.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	appointment, err := h.Service.GetAppointment(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	utils.Success(c, "Appointment fetched successfully", appointment)
}

// UpdateAppointmentStatusRequest represents the request body for a doctor's decision.
type UpdateAppointmentStatusRequest struct {
	Status          string `json:"status" binding:"required"`
	RejectionReason string `json:"rejectionReason" validate:"max=1000"`
}

// UpdateAppointmentStatus handles approving or rejecting a pending appointment.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	status, ok := models.ParseAppointmentStatus(req.Status)
	if !ok {
		respondError(c, h.log, fmt.Errorf("%w: unknown status %q", services.ErrInvalidTransition, req.Status))
		return
	}

	appointment, err := h.Service.RequestTransition(c.Request.Context(), actor, c.Param("id"), status, req.RejectionReason)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	utils.Success(c, "Appointment status updated successfully", appointment)
}

// RescheduleAppointmentRequest represents the request body for rescheduling an appointment.
type RescheduleAppointmentRequest struct {
	AppointmentTime time.Time `json:"appointmentTime" binding:"required"`
}

// RescheduleAppointment handles moving a pending appointment to a new time.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req RescheduleAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appointment, err := h.Service.RescheduleAppointment(c.Request.Context(), actor, c.Param("id"), req.AppointmentTime)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	utils.Success(c, "Appointment rescheduled successfully", appointment)
}

// DeleteAppointment handles removing a rejected or finished appointment.
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.Service.DeleteAppointment(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}

	utils.Success(c, "Appointment deleted successfully", nil)
}
