package view

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/noah-isme/roster-api/internal/models"
)

// SortKey selects the projection ordering.
type SortKey string

const (
	SortByName SortKey = "name"
	SortByRoll SortKey = "roll"
	SortByDate SortKey = "date"
)

// ParseSortKey maps a raw query value to a sort key. Unknown values fall
// back to the most-recently-joined ordering.
func ParseSortKey(raw string) SortKey {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "name":
		return SortByName
	case "roll":
		return SortByRoll
	default:
		return SortByDate
	}
}

// Query carries the UI state a projection depends on.
type Query struct {
	Text        string
	OverdueOnly bool
	Sort        SortKey
}

// Projector derives the displayed sequence from a canonical list. It is
// stateless apart from the collation locale; projecting the same inputs
// twice yields the same sequence.
type Projector struct {
	locale language.Tag
	now    func() time.Time
}

// NewProjector builds a projector. Invalid locale tags fall back to
// English collation.
func NewProjector(locale string) *Projector {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Projector{locale: tag, now: time.Now}
}

// Project filters and sorts a copy of the canonical list. The input is
// never mutated; ties keep their canonical relative order.
func (p *Projector) Project(students []models.Student, q Query) []models.Student {
	now := p.now()
	needle := strings.ToLower(strings.TrimSpace(q.Text))

	filtered := make([]models.Student, 0, len(students))
	for _, s := range students {
		if needle != "" &&
			!strings.Contains(strings.ToLower(s.Name), needle) &&
			!strings.Contains(strings.ToLower(s.RollNumber), needle) {
			continue
		}
		if q.OverdueOnly && !s.FeeOverdue(now) {
			continue
		}
		filtered = append(filtered, s)
	}

	switch q.Sort {
	case SortByName:
		// Collators carry internal buffers, so build one per call
		// rather than sharing across requests.
		cl := collate.New(p.locale, collate.IgnoreCase)
		sort.SliceStable(filtered, func(i, j int) bool {
			return cl.CompareString(filtered[i].Name, filtered[j].Name) < 0
		})
	case SortByRoll:
		sort.SliceStable(filtered, func(i, j int) bool {
			return naturalLess(filtered[i].RollNumber, filtered[j].RollNumber)
		})
	case SortByDate:
		sort.SliceStable(filtered, func(i, j int) bool {
			return joinedOrZero(filtered[i]).After(joinedOrZero(filtered[j]))
		})
	}
	return filtered
}

// joinedOrZero treats missing or malformed dates as the earliest
// possible time, sinking them to the end of most-recent-first order.
func joinedOrZero(s models.Student) time.Time {
	t, ok := s.JoinedAt()
	if !ok {
		return time.Time{}
	}
	return t
}

// naturalLess orders strings case-insensitively with embedded digit runs
// compared by numeric value, so "S9" sorts before "S10".
func naturalLess(a, b string) bool {
	ar := []rune(strings.ToLower(a))
	br := []rune(strings.ToLower(b))
	i, j := 0, 0
	for i < len(ar) && j < len(br) {
		if unicode.IsDigit(ar[i]) && unicode.IsDigit(br[j]) {
			si, sj := i, j
			for i < len(ar) && unicode.IsDigit(ar[i]) {
				i++
			}
			for j < len(br) && unicode.IsDigit(br[j]) {
				j++
			}
			na := strings.TrimLeft(string(ar[si:i]), "0")
			nb := strings.TrimLeft(string(br[sj:j]), "0")
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if na != nb {
				return na < nb
			}
			continue
		}
		if ar[i] != br[j] {
			return ar[i] < br[j]
		}
		i++
		j++
	}
	return len(ar)-i < len(br)-j
}
