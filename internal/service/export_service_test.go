package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roster-api/internal/models"
	appErrors "github.com/noah-isme/roster-api/pkg/errors"
)

func TestParseExportFormat(t *testing.T) {
	assert.Equal(t, ExportFormatCSV, ParseExportFormat(""))
	assert.Equal(t, ExportFormatCSV, ParseExportFormat("csv"))
	assert.Equal(t, ExportFormatCSV, ParseExportFormat("xlsx"))
	assert.Equal(t, ExportFormatPDF, ParseExportFormat("pdf"))
	assert.Equal(t, ExportFormatPDF, ParseExportFormat(" PDF "))
}

func TestExportEmptyRosterFails(t *testing.T) {
	reg, _ := newWarmRegistry(t, nil)
	svc := NewExportService(reg, nil, nil, nil)

	_, err := svc.Generate(context.Background(), "t1", ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmptyExport.Code, appErrors.FromError(err).Code)
}

func TestExportCSVColumnsAndOrder(t *testing.T) {
	reg, _ := newWarmRegistry(t, []models.Student{
		{ID: "a", Name: "Amit", Course: "Math", RollNumber: "S1", Phone: "9876543210",
			JoiningDate: "2025-01-10", Fee: 1500, FeePaid: true, Address: "12 MG Road"},
		{ID: "b", Name: "Neha", Course: "Physics", RollNumber: "S2", Phone: "9123456780",
			JoiningDate: "2025-02-01", Fee: 1250.50},
	})
	svc := NewExportService(reg, nil, nil, nil)

	result, err := svc.Generate(context.Background(), "t1", ExportFormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "text/csv; charset=utf-8", result.ContentType)
	assert.True(t, strings.HasPrefix(result.Filename, "student_data_"), result.Filename)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"), result.Filename)

	lines := strings.Split(strings.TrimSpace(string(result.Payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,Course,Roll No,Phone,Joining Date,Fee,Paid,Address", strings.TrimSpace(lines[0]))
	assert.Equal(t, "Amit,Math,S1,9876543210,2025-01-10,1500,Yes,12 MG Road", strings.TrimSpace(lines[1]))
	assert.Equal(t, "Neha,Physics,S2,9123456780,2025-02-01,1250.5,No,", strings.TrimSpace(lines[2]))
}

func TestExportPDF(t *testing.T) {
	reg, _ := newWarmRegistry(t, []models.Student{
		{ID: "a", Name: "Amit", Course: "Math", RollNumber: "S1", Phone: "9876543210",
			JoiningDate: "2025-01-10", Fee: 1500},
	})
	svc := NewExportService(reg, nil, nil, nil)

	result, err := svc.Generate(context.Background(), "t1", ExportFormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"), result.Filename)
	assert.True(t, strings.HasPrefix(string(result.Payload), "%PDF"), "payload must be a pdf document")
}
