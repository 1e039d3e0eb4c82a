package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roster-api/internal/models"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func testProjector() *Projector {
	p := NewProjector("en")
	p.now = fixedNow
	return p
}

func daysAgo(n int) string {
	return fixedNow().AddDate(0, 0, -n).Format(models.DateLayout)
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, SortByName, ParseSortKey("name"))
	assert.Equal(t, SortByRoll, ParseSortKey(" Roll "))
	assert.Equal(t, SortByDate, ParseSortKey("date"))
	assert.Equal(t, SortByDate, ParseSortKey(""))
	assert.Equal(t, SortByDate, ParseSortKey("bogus"))
}

func TestProjectTextFilter(t *testing.T) {
	p := testProjector()
	list := []models.Student{
		{ID: "1", Name: "Amit Kumar", RollNumber: "S1"},
		{ID: "2", Name: "Neha Sharma", RollNumber: "S2"},
		{ID: "3", Name: "Rahul", RollNumber: "AMIT-7"},
	}

	out := p.Project(list, Query{Text: "amit"})
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].ID, "matched by name")
	assert.Equal(t, "3", out[1].ID, "matched by roll number")

	assert.Len(t, p.Project(list, Query{Text: ""}), 3, "empty query matches all")
	assert.Empty(t, p.Project(list, Query{Text: "zzz"}), "no match is a valid empty output")
}

func TestProjectOverdueOnly(t *testing.T) {
	p := testProjector()
	list := []models.Student{
		{ID: "amit", Name: "Amit", RollNumber: "1", JoiningDate: daysAgo(40), FeePaid: false},
		{ID: "neha", Name: "Neha", RollNumber: "2", JoiningDate: daysAgo(5), FeePaid: false},
		{ID: "paid", Name: "Paid", RollNumber: "3", JoiningDate: daysAgo(90), FeePaid: true},
	}

	out := p.Project(list, Query{OverdueOnly: true})
	require.Len(t, out, 1)
	assert.Equal(t, "amit", out[0].ID)
}

func TestProjectSortByRollNaturally(t *testing.T) {
	p := testProjector()
	list := []models.Student{
		{ID: "a", RollNumber: "S2"},
		{ID: "b", RollNumber: "S10"},
		{ID: "c", RollNumber: "S1"},
	}

	out := p.Project(list, Query{Sort: SortByRoll})
	rolls := []string{out[0].RollNumber, out[1].RollNumber, out[2].RollNumber}
	assert.Equal(t, []string{"S1", "S2", "S10"}, rolls)
}

func TestProjectSortByName(t *testing.T) {
	p := testProjector()
	list := []models.Student{
		{ID: "1", Name: "charlie"},
		{ID: "2", Name: "Alice"},
		{ID: "3", Name: "bob"},
	}

	out := p.Project(list, Query{Sort: SortByName})
	assert.Equal(t, "Alice", out[0].Name)
	assert.Equal(t, "bob", out[1].Name)
	assert.Equal(t, "charlie", out[2].Name)
}

func TestProjectSortByDateMostRecentFirst(t *testing.T) {
	p := testProjector()
	list := []models.Student{
		{ID: "old", JoiningDate: daysAgo(100)},
		{ID: "new", JoiningDate: daysAgo(1)},
		{ID: "broken", JoiningDate: "not-a-date"},
		{ID: "mid", JoiningDate: daysAgo(50)},
	}

	out := p.Project(list, Query{Sort: SortByDate})
	require.Len(t, out, 4)
	assert.Equal(t, "new", out[0].ID)
	assert.Equal(t, "mid", out[1].ID)
	assert.Equal(t, "old", out[2].ID)
	assert.Equal(t, "broken", out[3].ID, "malformed dates sink to the end, never abort projection")
}

func TestProjectStableOnTies(t *testing.T) {
	p := testProjector()
	date := daysAgo(10)
	list := []models.Student{
		{ID: "first", JoiningDate: date},
		{ID: "second", JoiningDate: date},
		{ID: "third", JoiningDate: date},
	}

	out := p.Project(list, Query{Sort: SortByDate})
	assert.Equal(t, "first", out[0].ID)
	assert.Equal(t, "second", out[1].ID)
	assert.Equal(t, "third", out[2].ID)
}

func TestProjectIdempotentAndSubset(t *testing.T) {
	p := testProjector()
	list := []models.Student{
		{ID: "1", Name: "Amit", RollNumber: "S3", JoiningDate: daysAgo(40)},
		{ID: "2", Name: "Neha", RollNumber: "S1", JoiningDate: daysAgo(5)},
		{ID: "3", Name: "Ravi", RollNumber: "S2", JoiningDate: daysAgo(70)},
	}
	q := Query{Text: "s", Sort: SortByRoll}

	first := p.Project(list, q)
	second := p.Project(list, q)
	assert.Equal(t, first, second, "projection is idempotent")

	ids := make(map[string]bool, len(list))
	for _, s := range list {
		ids[s.ID] = true
	}
	for _, s := range first {
		assert.True(t, ids[s.ID], "output is a subset of the canonical list")
	}
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	p := testProjector()
	list := []models.Student{
		{ID: "b", RollNumber: "2"},
		{ID: "a", RollNumber: "1"},
	}

	_ = p.Project(list, Query{Sort: SortByRoll})
	assert.Equal(t, "b", list[0].ID, "canonical order untouched")
}

func TestProjectEmptyList(t *testing.T) {
	p := testProjector()
	out := p.Project(nil, Query{Text: "anything", OverdueOnly: true, Sort: SortByName})
	assert.Empty(t, out)
}

func TestNaturalLess(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"S1", "S2", true},
		{"S2", "S10", true},
		{"S10", "S2", false},
		{"9", "10", true},
		{"a1b2", "a1b10", true},
		{"abc", "abd", true},
		{"A1", "a2", true},
		{"S1", "S1", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, naturalLess(tc.a, tc.b), "%q < %q", tc.a, tc.b)
	}
}
