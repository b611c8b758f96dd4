package handlers

import (
	"medivault-server/internal/services"
	"medivault-server/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler handles directory lookups.
type UserHandler struct {
	Service *services.AppointmentService
	log     *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.AppointmentService, log *zap.Logger) *UserHandler {
	return &UserHandler{Service: service, log: log}
}

// GetDoctors handles fetching all users with the doctor role.
// This endpoint will be accessible to patients for booking appointments.
func (h *UserHandler) GetDoctors(c *gin.Context) {
	doctors, err := h.Service.ListDoctors(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	utils.Success(c, "Doctors fetched successfully", doctors)
}

// GetDoctorPatients handles fetching the patients who booked with the logged-in doctor.
func (h *UserHandler) GetDoctorPatients(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	patients, err := h.Service.ListPatientsForDoctor(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	utils.Success(c, "Patients fetched successfully", patients)
}
