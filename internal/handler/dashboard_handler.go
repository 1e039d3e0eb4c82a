package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/roster-api/internal/middleware"
	"github.com/noah-isme/roster-api/internal/service"
	"github.com/noah-isme/roster-api/pkg/response"
)

// DashboardHandler exposes roster counters and course suggestions.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary godoc
// @Summary Roster counters
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context(), middleware.TeacherID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}

// Courses godoc
// @Summary Course suggestions
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *DashboardHandler) Courses(c *gin.Context) {
	courses, err := h.dashboard.Courses(c.Request.Context(), middleware.TeacherID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses)
}
