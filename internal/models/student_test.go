package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeOverdue(t *testing.T) {
	joined := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	s := Student{JoiningDate: joined.Format(DateLayout), FeePaid: false}

	due := joined.AddDate(0, 1, 0)

	assert.False(t, s.FeeOverdue(joined), "not overdue on joining day")
	assert.False(t, s.FeeOverdue(due), "exact due instant is not overdue")
	assert.True(t, s.FeeOverdue(due.Add(time.Second)), "strictly past due is overdue")
	assert.True(t, s.FeeOverdue(due.AddDate(0, 0, 10)))
}

func TestFeeOverduePaid(t *testing.T) {
	s := Student{JoiningDate: "2020-01-01", FeePaid: true}
	assert.False(t, s.FeeOverdue(time.Now()))
}

func TestFeeOverdueMalformedDate(t *testing.T) {
	for _, raw := range []string{"", "yesterday", "2024-13-40"} {
		s := Student{JoiningDate: raw, FeePaid: false}
		assert.False(t, s.FeeOverdue(time.Now()), "date %q must never be overdue", raw)
	}
}

func TestFeeDueAt(t *testing.T) {
	s := Student{JoiningDate: "2024-01-31"}
	due, ok := s.FeeDueAt()
	require.True(t, ok)
	// Month arithmetic normalises: Jan 31 + 1 month rolls into March.
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), due)

	_, ok = Student{}.FeeDueAt()
	assert.False(t, ok)
}

func TestStudentPatchApply(t *testing.T) {
	name := "Neha"
	paid := true
	s := Student{ID: "s1", Name: "Amit", Fee: 1500, FeePaid: false}

	patched := StudentPatch{Name: &name, FeePaid: &paid}.Apply(s)

	assert.Equal(t, "Neha", patched.Name)
	assert.True(t, patched.FeePaid)
	assert.Equal(t, 1500.0, patched.Fee, "unset fields untouched")
	assert.Equal(t, "Amit", s.Name, "original untouched")
}

func TestStudentPatchIsZero(t *testing.T) {
	assert.True(t, StudentPatch{}.IsZero())
	fee := 100.0
	assert.False(t, StudentPatch{Fee: &fee}.IsZero())
}
