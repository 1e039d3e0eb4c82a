package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/roster-api/internal/models"
	appErrors "github.com/noah-isme/roster-api/pkg/errors"
	"github.com/noah-isme/roster-api/pkg/export"
)

// ExportFormat names a supported export rendering.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ParseExportFormat maps a raw query value; unknown values default to CSV.
func ParseExportFormat(raw string) ExportFormat {
	if strings.EqualFold(strings.TrimSpace(raw), string(ExportFormatPDF)) {
		return ExportFormatPDF
	}
	return ExportFormatCSV
}

// exportColumns is the fixed tabular order of the roster export.
var exportColumns = []string{"Name", "Course", "Roll No", "Phone", "Joining Date", "Fee", "Paid", "Address"}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered roster ready to stream to the client.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService flattens the canonical roster into downloadable files.
type ExportService struct {
	engines engineProvider
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(engines engineProvider, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{engines: engines, csv: csv, pdf: pdf, logger: logger}
}

// Generate renders the teacher's full roster, one row per student, in
// canonical order. An empty roster is a named failure, not an empty file.
func (s *ExportService) Generate(ctx context.Context, teacherID string, format ExportFormat) (*ExportResult, error) {
	eng, err := s.engines.Acquire(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	students := eng.Snapshot()
	if len(students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyExport, "no data to export")
	}

	dataset := buildRosterDataset(students)
	stamp := time.Now().Format("20060102")

	switch format {
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, "Student Roster")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("student_data_%s.pdf", stamp),
			ContentType: "application/pdf",
			Payload:     payload,
		}, nil
	default:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("student_data_%s.csv", stamp),
			ContentType: "text/csv; charset=utf-8",
			Payload:     payload,
		}, nil
	}
}

func buildRosterDataset(students []models.Student) export.Dataset {
	rows := make([][]string, 0, len(students))
	for _, st := range students {
		paid := "No"
		if st.FeePaid {
			paid = "Yes"
		}
		rows = append(rows, []string{
			st.Name,
			st.Course,
			st.RollNumber,
			st.Phone,
			st.JoiningDate,
			strconv.FormatFloat(st.Fee, 'f', -1, 64),
			paid,
			st.Address,
		})
	}
	return export.Dataset{Headers: exportColumns, Rows: rows}
}
