package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roster-api/internal/models"
	"github.com/noah-isme/roster-api/internal/view"
	appErrors "github.com/noah-isme/roster-api/pkg/errors"
)

func testRoster() []models.Student {
	return []models.Student{
		{ID: "a", TeacherID: "t1", Name: "Amit Kumar", RollNumber: "S1", Course: "Math", JoiningDate: "2025-01-10"},
		{ID: "b", TeacherID: "t1", Name: "Neha Singh", RollNumber: "S2", Course: "Physics", JoiningDate: "2025-02-01"},
	}
}

func TestRosterServiceListProjectsAndCounts(t *testing.T) {
	reg, _ := newWarmRegistry(t, testRoster())
	svc := NewRosterService(reg, view.NewProjector("en"), nil, nil)

	got, err := svc.List(context.Background(), "t1", view.Query{Text: "neha"})
	require.NoError(t, err)
	require.Len(t, got.Students, 1)
	assert.Equal(t, "b", got.Students[0].ID)
	assert.Equal(t, 2, got.RosterSize, "roster size reflects the full list, not the match")
	assert.False(t, got.SyncDegraded)
}

func TestRosterServiceListNoMatchKeepsRosterSize(t *testing.T) {
	reg, _ := newWarmRegistry(t, testRoster())
	svc := NewRosterService(reg, view.NewProjector("en"), nil, nil)

	got, err := svc.List(context.Background(), "t1", view.Query{Text: "zzz"})
	require.NoError(t, err)
	assert.Empty(t, got.Students)
	assert.Equal(t, 2, got.RosterSize)
}

func TestRosterServiceGet(t *testing.T) {
	reg, _ := newWarmRegistry(t, testRoster())
	svc := NewRosterService(reg, view.NewProjector("en"), nil, nil)

	st, err := svc.Get(context.Background(), "t1", "a")
	require.NoError(t, err)
	assert.Equal(t, "Amit Kumar", st.Name)

	_, err = svc.Get(context.Background(), "t1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRosterServiceCreateValidation(t *testing.T) {
	reg, st := newWarmRegistry(t, nil)
	svc := NewRosterService(reg, view.NewProjector("en"), nil, nil)

	cases := map[string]CreateStudentRequest{
		"missing name":  {RollNumber: "S1", Course: "Math", Phone: "9876543210", JoiningDate: "2025-01-10"},
		"negative fee":  {Name: "Amit", RollNumber: "S1", Course: "Math", Phone: "9876543210", JoiningDate: "2025-01-10", Fee: -5},
		"bad date":      {Name: "Amit", RollNumber: "S1", Course: "Math", Phone: "9876543210", JoiningDate: "10/01/2025"},
		"missing phone": {Name: "Amit", RollNumber: "S1", Course: "Math", JoiningDate: "2025-01-10"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			err := svc.Create(context.Background(), "t1", req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
	assert.Empty(t, st.created, "invalid payloads never reach the store")
}

func TestRosterServiceCreatePassesFieldsThrough(t *testing.T) {
	reg, st := newWarmRegistry(t, nil)
	svc := NewRosterService(reg, view.NewProjector("en"), nil, nil)

	err := svc.Create(context.Background(), "t1", CreateStudentRequest{
		Name: "Amit", RollNumber: "S1", Course: "Math", Fee: 1500,
		JoiningDate: "2025-01-10", Phone: "9876543210", Note: "evening batch",
	})
	require.NoError(t, err)
	require.Len(t, st.created, 1)
	assert.Equal(t, "Amit", st.created[0].Name)
	assert.Equal(t, "evening batch", st.created[0].Note)
	assert.False(t, st.created[0].FeePaid, "new students start unpaid unless stated")
}

func TestRosterServiceUpdateRejectsEmptyPatch(t *testing.T) {
	reg, st := newWarmRegistry(t, testRoster())
	svc := NewRosterService(reg, view.NewProjector("en"), nil, nil)

	err := svc.Update(context.Background(), "t1", "a", UpdateStudentRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, st.updated)
}

func TestRosterServiceUpdatePartialPatch(t *testing.T) {
	reg, st := newWarmRegistry(t, testRoster())
	svc := NewRosterService(reg, view.NewProjector("en"), nil, nil)

	paid := true
	err := svc.Update(context.Background(), "t1", "a", UpdateStudentRequest{FeePaid: &paid})
	require.NoError(t, err)
	require.Len(t, st.updated, 1)
	assert.Nil(t, st.updated[0].Name, "untouched fields stay nil")
	require.NotNil(t, st.updated[0].FeePaid)
	assert.True(t, *st.updated[0].FeePaid)
}

func TestRosterServiceDeleteRequiresConfirmation(t *testing.T) {
	reg, st := newWarmRegistry(t, testRoster())
	svc := NewRosterService(reg, view.NewProjector("en"), nil, nil)

	err := svc.Delete(context.Background(), "t1", "a", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConfirmationRequired.Code, appErrors.FromError(err).Code)
	assert.Empty(t, st.deleted, "unconfirmed delete must not reach the store")

	require.NoError(t, svc.Delete(context.Background(), "t1", "a", true))
	assert.Equal(t, []string{"a"}, st.deleted)
}

func TestRosterServiceSignOut(t *testing.T) {
	reg, _ := newWarmRegistry(t, testRoster())
	svc := NewRosterService(reg, view.NewProjector("en"), nil, nil)

	assert.True(t, svc.SignOut("t1"))
	assert.False(t, svc.SignOut("t1"), "second sign-out finds no session")
}
