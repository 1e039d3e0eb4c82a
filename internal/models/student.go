package models

import "time"

// DateLayout is the calendar-date form joining dates are stored in.
const DateLayout = "2006-01-02"

// Student represents one roster entry owned by a single teacher.
type Student struct {
	ID           string     `db:"id" json:"id"`
	TeacherID    string     `db:"teacher_id" json:"teacher_id"`
	Name         string     `db:"name" json:"name"`
	RollNumber   string     `db:"roll_number" json:"roll_number"`
	Course       string     `db:"course" json:"course"`
	Fee          float64    `db:"fee" json:"fee"`
	JoiningDate  string     `db:"joining_date" json:"joining_date"`
	Phone        string     `db:"phone" json:"phone"`
	Address      string     `db:"address" json:"address,omitempty"`
	Note         string     `db:"note" json:"note,omitempty"`
	FeePaid      bool       `db:"fee_paid" json:"fee_paid"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastReminded *time.Time `db:"last_reminded" json:"last_reminded,omitempty"`
}

// JoinedAt parses the joining date. The second return is false when the
// stored value is missing or malformed.
func (s Student) JoinedAt() (time.Time, bool) {
	if s.JoiningDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s.JoiningDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FeeDueAt returns the fee due date: one calendar month after joining.
func (s Student) FeeDueAt() (time.Time, bool) {
	joined, ok := s.JoinedAt()
	if !ok {
		return time.Time{}, false
	}
	return joined.AddDate(0, 1, 0), true
}

// FeeOverdue reports whether the fee is unpaid and now is strictly past
// the due date. The due-date instant itself is not overdue. Records with
// a missing or malformed joining date are never overdue.
func (s Student) FeeOverdue(now time.Time) bool {
	if s.FeePaid {
		return false
	}
	due, ok := s.FeeDueAt()
	if !ok {
		return false
	}
	return now.After(due)
}

// StudentFields carries the writable fields of a roster entry. Identity,
// ownership and server timestamps are stamped by the store, never by the
// caller.
type StudentFields struct {
	Name        string  `json:"name"`
	RollNumber  string  `json:"roll_number"`
	Course      string  `json:"course"`
	Fee         float64 `json:"fee"`
	JoiningDate string  `json:"joining_date"`
	Phone       string  `json:"phone"`
	Address     string  `json:"address"`
	Note        string  `json:"note"`
	FeePaid     bool    `json:"fee_paid"`
}

// StudentPatch is a partial-field update merged into an existing record.
// Nil fields are left untouched.
type StudentPatch struct {
	Name        *string  `json:"name,omitempty"`
	RollNumber  *string  `json:"roll_number,omitempty"`
	Course      *string  `json:"course,omitempty"`
	Fee         *float64 `json:"fee,omitempty"`
	JoiningDate *string  `json:"joining_date,omitempty"`
	Phone       *string  `json:"phone,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Note        *string  `json:"note,omitempty"`
	FeePaid     *bool    `json:"fee_paid,omitempty"`
}

// IsZero reports whether the patch carries no fields at all.
func (p StudentPatch) IsZero() bool {
	return p.Name == nil && p.RollNumber == nil && p.Course == nil &&
		p.Fee == nil && p.JoiningDate == nil && p.Phone == nil &&
		p.Address == nil && p.Note == nil && p.FeePaid == nil
}

// Apply merges the patch into a copy of the student.
func (p StudentPatch) Apply(s Student) Student {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.RollNumber != nil {
		s.RollNumber = *p.RollNumber
	}
	if p.Course != nil {
		s.Course = *p.Course
	}
	if p.Fee != nil {
		s.Fee = *p.Fee
	}
	if p.JoiningDate != nil {
		s.JoiningDate = *p.JoiningDate
	}
	if p.Phone != nil {
		s.Phone = *p.Phone
	}
	if p.Address != nil {
		s.Address = *p.Address
	}
	if p.Note != nil {
		s.Note = *p.Note
	}
	if p.FeePaid != nil {
		s.FeePaid = *p.FeePaid
	}
	return s
}
