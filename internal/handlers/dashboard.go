package handlers

import (
	"medivault-server/internal/services"
	"medivault-server/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DashboardHandler serves the landing-page summary.
type DashboardHandler struct {
	Service *services.DashboardService
	log     *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(service *services.DashboardService, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{Service: service, log: log}
}

// GetDashboard handles fetching today's appointments, pending requests and unread messages.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	summary, err := h.Service.Summary(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	utils.Success(c, "Dashboard fetched successfully", summary)
}
