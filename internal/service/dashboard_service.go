package service

import (
	"context"
	"time"

	"github.com/noah-isme/roster-api/internal/dto"
	"github.com/noah-isme/roster-api/internal/models"
)

// DashboardService derives the roster counters and course suggestions.
// Both are pure functions of the canonical list, recomputed on demand;
// rosters are small enough that caching would only add staleness.
type DashboardService struct {
	engines engineProvider
	now     func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(engines engineProvider) *DashboardService {
	return &DashboardService{engines: engines, now: time.Now}
}

// Summary returns the total count and the unpaid-overdue count.
func (s *DashboardService) Summary(ctx context.Context, teacherID string) (*dto.DashboardSummary, error) {
	eng, err := s.engines.Acquire(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	return summarize(eng.Snapshot(), s.now()), nil
}

// Courses returns distinct non-empty course values in first-seen
// canonical order, for form autocomplete.
func (s *DashboardService) Courses(ctx context.Context, teacherID string) ([]string, error) {
	eng, err := s.engines.Acquire(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	return courseSuggestions(eng.Snapshot()), nil
}

func summarize(students []models.Student, now time.Time) *dto.DashboardSummary {
	summary := &dto.DashboardSummary{TotalStudents: len(students)}
	for _, st := range students {
		if st.FeeOverdue(now) {
			summary.FeesDue++
		}
	}
	return summary
}

func courseSuggestions(students []models.Student) []string {
	seen := make(map[string]struct{}, len(students))
	courses := make([]string, 0, len(students))
	for _, st := range students {
		if st.Course == "" {
			continue
		}
		if _, ok := seen[st.Course]; ok {
			continue
		}
		seen[st.Course] = struct{}{}
		courses = append(courses, st.Course)
	}
	return courses
}
