package handlers

import (
	"errors"

	"medivault-server/internal/middleware"
	"medivault-server/internal/services"
	"medivault-server/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError translates a service error into the matching HTTP response.
// Unclassified errors are logged and reported as 500 without detail.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		utils.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrInvalidState):
		utils.Conflict(c, err.Error())
	case errors.Is(err, services.ErrMissingReason):
		utils.UnprocessableEntity(c, err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNetwork):
		utils.BadGateway(c, err.Error())
	default:
		_ = c.Error(err)
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		utils.InternalServerError(c, "Internal server error")
	}
}

// requireActor returns the authenticated actor or writes a 401.
func requireActor(c *gin.Context) (services.Actor, bool) {
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
	}
	return actor, ok
}
