package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/roster-api/internal/middleware"
	"github.com/noah-isme/roster-api/internal/service"
	"github.com/noah-isme/roster-api/pkg/response"
)

// ExportHandler streams roster exports.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Download godoc
// @Summary Export the roster
// @Tags Export
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200
// @Router /students/export [get]
func (h *ExportHandler) Download(c *gin.Context) {
	format := service.ParseExportFormat(c.Query("format"))

	result, err := h.exports.Generate(c.Request.Context(), middleware.TeacherID(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
