package analytics

import (
	"strings"

	"pet/internal/core"
)

// Filter narrows a record list for search. Zero fields do not constrain.
type Filter struct {
	// Text is a case-insensitive substring of the description. Surrounding
	// spaces are significant.
	Text     string
	Category core.Category
	From     core.Date
	To       core.Date
}

func (f Filter) IsZero() bool {
	return f.Text == "" && f.Category == "" && f.From.IsZero() && f.To.IsZero()
}

// Match reports whether e satisfies every set criterion.
func (f Filter) Match(e core.Expense) bool {
	if text := strings.ToLower(f.Text); text != "" {
		if !strings.Contains(strings.ToLower(e.Description), text) {
			return false
		}
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if !f.From.IsZero() && e.Date.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && e.Date.After(f.To.Time) {
		return false
	}
	return true
}

// ApplyFilter returns the matching records in input order. With no criteria
// set the input is returned as is.
func ApplyFilter(records []core.Expense, f Filter) []core.Expense {
	if f.IsZero() {
		return records
	}
	out := make([]core.Expense, 0, len(records))
	for _, e := range records {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}
