package dto

// DashboardSummary carries the two roster counters shown on the
// dashboard cards.
type DashboardSummary struct {
	TotalStudents int `json:"total_students"`
	FeesDue       int `json:"fees_due"`
}
