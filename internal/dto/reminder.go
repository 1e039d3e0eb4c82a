package dto

// ReminderLink is a composed WhatsApp fee-reminder deep link. The client
// opens URL; Message is the plain text for preview purposes.
type ReminderLink struct {
	StudentID string `json:"student_id"`
	Phone     string `json:"phone"`
	URL       string `json:"url"`
	Message   string `json:"message"`
}
