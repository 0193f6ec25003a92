package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date form used for storage, export and comparisons.
const DateLayout = "2006-01-02"

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Utilities     Category = "Utilities"
	Entertainment Category = "Entertainment"
	Healthcare    Category = "Healthcare"
	Shopping      Category = "Shopping"
	Education     Category = "Education"
	Other         Category = "Other"
)

// Categories lists the fixed categories in display order.
var Categories = []Category{Food, Transport, Utilities, Entertainment, Healthcare, Shopping, Education, Other}

type (
	Category string

	// Date is a calendar date without time of day, held at UTC midnight.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Expense struct {
		ID          int64     `json:"id"`
		Amount      Money     `json:"amount"`
		Category    Category  `json:"category"`
		Date        Date      `json:"date"`
		Payment     string    `json:"payment"`
		Description string    `json:"description"`
		Timestamp   time.Time `json:"timestamp"`
	}

	// Budget holds the monthly limits. A zero limit means no limit for that bucket.
	Budget struct {
		Food          Money `json:"food"`
		Transport     Money `json:"transport"`
		Entertainment Money `json:"entertainment"`
		Total         Money `json:"total"`
	}
)

var (
	// ErrValidation is wrapped by every record and budget validation failure.
	ErrValidation    = errors.New("validation failed")
	ErrInvalidAmount = fmt.Errorf("%w: amount must be greater than 0", ErrValidation)
	ErrEmptyCategory = fmt.Errorf("%w: category is required", ErrValidation)
	ErrInvalidDate   = fmt.Errorf("%w: date must be a calendar date (YYYY-MM-DD)", ErrValidation)
	ErrNegativeLimit = fmt.Errorf("%w: budget limits cannot be negative", ErrValidation)

	// ErrMissingRange is returned when a custom period lacks one of its bounds.
	ErrMissingRange = errors.New("custom period requires both from and to dates")
)

// Known reports whether c is one of the fixed categories.
func (c Category) Known() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// ParseCategory trims s and maps it onto a fixed category when it matches
// one case-insensitively. Unknown names are returned trimmed.
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	for _, k := range Categories {
		if strings.EqualFold(s, string(k)) {
			return k
		}
	}
	return Category(s)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays shifts the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// DaysInMonth returns the number of days in the date's calendar month.
func (d Date) DaysInMonth() int {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SameMonth reports whether both dates fall in the same calendar month and year.
func (d Date) SameMonth(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(string(e.Category)) == "" {
		return ErrEmptyCategory
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return nil
}

func (b Budget) Validate() error {
	for _, m := range []Money{b.Food, b.Transport, b.Entertainment, b.Total} {
		if m.Cents < 0 {
			return ErrNegativeLimit
		}
	}
	return nil
}

// IsZero reports whether no bucket has a limit.
func (b Budget) IsZero() bool {
	return b.Food.Cents == 0 && b.Transport.Cents == 0 && b.Entertainment.Cents == 0 && b.Total.Cents == 0
}
