package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/roster-api/internal/middleware"
	"github.com/noah-isme/roster-api/internal/service"
	"github.com/noah-isme/roster-api/internal/view"
	appErrors "github.com/noah-isme/roster-api/pkg/errors"
	"github.com/noah-isme/roster-api/pkg/response"
)

// StudentHandler exposes roster endpoints.
type StudentHandler struct {
	roster    *service.RosterService
	reminders *service.ReminderService
	metrics   *service.MetricsService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(roster *service.RosterService, reminders *service.ReminderService, metrics *service.MetricsService) *StudentHandler {
	return &StudentHandler{roster: roster, reminders: reminders, metrics: metrics}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param q query string false "Match name or roll number"
// @Param overdue query bool false "Only unpaid students past their due date"
// @Param sort query string false "Sort key: name, roll or date"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	q := view.Query{
		Text:        strings.TrimSpace(c.Query("q")),
		OverdueOnly: c.Query("overdue") == "true",
		Sort:        view.ParseSortKey(c.Query("sort")),
	}

	rosterView, err := h.roster.List(c.Request.Context(), middleware.TeacherID(c), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	meta := map[string]interface{}{
		"roster_size": rosterView.RosterSize,
		"matched":     len(rosterView.Students),
	}
	if rosterView.SyncDegraded {
		meta["sync"] = "degraded"
	}
	response.JSON(c, http.StatusOK, rosterView.Students, meta)
}

// Get godoc
// @Summary Get one student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.roster.Get(c.Request.Context(), middleware.TeacherID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Create godoc
// @Summary Add student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 202 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	err := h.roster.Create(c.Request.Context(), middleware.TeacherID(c), req)
	h.metrics.ObserveWrite("create", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	// The id is assigned by the store and arrives with the next
	// snapshot, so there is no created resource to echo back yet.
	response.JSON(c, http.StatusAccepted, gin.H{"status": "saved"})
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.UpdateStudentRequest true "Partial student payload"
// @Success 202 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	err := h.roster.Update(c.Request.Context(), middleware.TeacherID(c), c.Param("id"), req)
	h.metrics.ObserveWrite("update", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"status": "updated"})
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Param confirm query bool true "Must be true; unconfirmed deletes never reach the store"
// @Success 204
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	confirmed := c.Query("confirm") == "true"
	err := h.roster.Delete(c.Request.Context(), middleware.TeacherID(c), c.Param("id"), confirmed)
	if confirmed {
		h.metrics.ObserveWrite("delete", err)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Remind godoc
// @Summary Compose WhatsApp fee reminder
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/reminder [post]
func (h *StudentHandler) Remind(c *gin.Context) {
	link, err := h.reminders.Compose(c.Request.Context(), middleware.TeacherID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link)
}
