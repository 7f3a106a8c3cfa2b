package handler

import (
	"errors"
	"net/http"

	"abricot/internal/api"
	"abricot/internal/kanban"
	"abricot/internal/model"
	"abricot/internal/service"
	"abricot/internal/session"
	"abricot/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Responses use the backend's envelope so the browser front end decodes both
// the same way.

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "message": "", "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message, "data": nil})
}

func badRequest(c *gin.Context) {
	fail(c, http.StatusBadRequest, "Requête invalide")
}

// respondError maps an error to its status. Backend errors keep their status
// and message; transport failures become 502.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var validation *model.ValidationError
	var reqErr *api.RequestError

	switch {
	case errors.As(err, &validation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
			"data":    gin.H{"errors": validation.Fields},
		})
	case errors.As(err, &reqErr):
		status := reqErr.Status
		if status == 0 {
			status = http.StatusBadGateway
		}
		fail(c, status, reqErr.Message)
	case errors.Is(err, service.ErrOwnerImmutable):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrNotAuthenticated):
		fail(c, http.StatusUnauthorized, "Non authentifié")
	case errors.Is(err, kanban.ErrUnknownColumn):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		logger.WithTrace(c.Request.Context(), log).Error("Unhandled error", zap.Error(err))
		fail(c, http.StatusInternalServerError, api.DefaultErrorMessage)
	}
}
