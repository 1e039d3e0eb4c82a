package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/noah-isme/roster-api/internal/dto"
	"github.com/noah-isme/roster-api/internal/models"
	"github.com/noah-isme/roster-api/pkg/config"
	appErrors "github.com/noah-isme/roster-api/pkg/errors"
)

// ReminderService composes WhatsApp fee-reminder deep links and logs the
// dispatch on the student record.
type ReminderService struct {
	engines engineProvider
	cfg     config.ReminderConfig
	now     func() time.Time
	logger  *zap.Logger
}

// NewReminderService constructs a ReminderService.
func NewReminderService(engines engineProvider, cfg config.ReminderConfig, logger *zap.Logger) *ReminderService {
	if cfg.DefaultCountryCode == "" {
		cfg.DefaultCountryCode = "91"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{engines: engines, cfg: cfg, now: time.Now, logger: logger}
}

// Compose builds the reminder link for one student and stamps
// last_reminded. The stamp is best-effort: the link already exists, so a
// failed stamp is logged, never surfaced.
func (s *ReminderService) Compose(ctx context.Context, teacherID, id string) (*dto.ReminderLink, error) {
	eng, err := s.engines.Acquire(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	var student *models.Student
	for _, st := range eng.Snapshot() {
		if st.ID == id {
			student = &st
			break
		}
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	message := s.composeMessage(*student)
	phone := s.normalizePhone(student.Phone)
	link := fmt.Sprintf("https://wa.me/%s?text=%s", phone, url.QueryEscape(message))

	eng.RemindSent(ctx, id)

	return &dto.ReminderLink{
		StudentID: id,
		Phone:     phone,
		URL:       link,
		Message:   message,
	}, nil
}

func (s *ReminderService) composeMessage(student models.Student) string {
	greeting := greetingFor(s.now().Hour())

	dueText := "now"
	if due, ok := student.FeeDueAt(); ok {
		dueText = due.Format("2 Jan")
	}

	fee := strconv.FormatFloat(student.Fee, 'f', -1, 64)
	return fmt.Sprintf(
		"*Fee Reminder from Student Manager* \U0001F393\n\n%s %s,\n\n"+
			"This is a gentle reminder that your fee of *₹%s* for course *%s* is due since *%s*.\n\n"+
			"Please pay at the earliest to avoid late charges.\n\nThank you!",
		greeting, student.Name, fee, student.Course, dueText)
}

func greetingFor(hour int) string {
	switch {
	case hour < 12:
		return "Good morning"
	case hour < 17:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

// normalizePhone strips the number to digits; bare 10-digit numbers get
// the configured country calling code prepended.
func (s *ReminderService) normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 10 {
		return s.cfg.DefaultCountryCode + digits
	}
	return digits
}
