package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/roster-api/internal/middleware"
	"github.com/noah-isme/roster-api/internal/service"
	appErrors "github.com/noah-isme/roster-api/pkg/errors"
	"github.com/noah-isme/roster-api/pkg/response"
)

// SessionHandler tears down roster sessions on sign-out.
type SessionHandler struct {
	roster *service.RosterService
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(roster *service.RosterService) *SessionHandler {
	return &SessionHandler{roster: roster}
}

// SignOut godoc
// @Summary Close the roster session
// @Tags Session
// @Produce json
// @Success 204
// @Router /session [delete]
func (h *SessionHandler) SignOut(c *gin.Context) {
	if !h.roster.SignOut(middleware.TeacherID(c)) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "no live session"))
		return
	}
	response.NoContent(c)
}
