package analytics

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"pet/internal/core"
)

const (
	Weekly  PeriodKind = "weekly"
	Monthly PeriodKind = "monthly"
	Yearly  PeriodKind = "yearly"
	Custom  PeriodKind = "custom"
)

var ErrUnknownPeriod = errors.New("unknown report period")

type PeriodKind string

// Period selects a report window. Weekly, Monthly and Yearly are rolling
// windows ending today; Custom uses From and To, inclusive on both ends.
// A zero From or To means the bound was not supplied.
type Period struct {
	Kind PeriodKind `json:"kind"`
	From core.Date  `json:"from,omitempty"`
	To   core.Date  `json:"to,omitempty"`
}

// ParsePeriod builds a Period from request text. Empty bounds are left zero
// so that the missing-range check happens at selection time.
func ParsePeriod(kind, from, to string) (Period, error) {
	p := Period{Kind: PeriodKind(strings.ToLower(strings.TrimSpace(kind)))}
	switch p.Kind {
	case Weekly, Monthly, Yearly, Custom:
	default:
		return Period{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, kind)
	}
	var err error
	if strings.TrimSpace(from) != "" {
		if p.From, err = core.ParseDate(from); err != nil {
			return Period{}, err
		}
	}
	if strings.TrimSpace(to) != "" {
		if p.To, err = core.ParseDate(to); err != nil {
			return Period{}, err
		}
	}
	return p, nil
}

// CustomPeriod is a convenience constructor for an inclusive date range.
func CustomPeriod(from, to core.Date) Period {
	return Period{Kind: Custom, From: from, To: to}
}

func (p Period) Validate() error {
	switch p.Kind {
	case Weekly, Monthly, Yearly:
		return nil
	case Custom:
		if p.From.IsZero() || p.To.IsZero() {
			return core.ErrMissingRange
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPeriod, p.Kind)
	}
}

// Window returns the first and last date the period covers as of now.
// Rolling windows start at today shifted back by a week, a calendar month
// or a calendar year; month and year shifts roll over like time.AddDate.
func (p Period) Window(now time.Time) (from, to core.Date, err error) {
	if err := p.Validate(); err != nil {
		return core.Date{}, core.Date{}, err
	}
	today := core.DateOf(now)
	switch p.Kind {
	case Weekly:
		return today.AddDays(-7), today, nil
	case Monthly:
		return core.Date{Time: today.AddDate(0, -1, 0)}, today, nil
	case Yearly:
		return core.Date{Time: today.AddDate(-1, 0, 0)}, today, nil
	default:
		return p.From, p.To, nil
	}
}

// Days is the divisor used for per-day averages: 7, 30 and 365 for the
// rolling windows, and the span in days (at least 1) for a custom range.
// Monthly is a fixed 30 whatever the actual month length.
func (p Period) Days() (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	switch p.Kind {
	case Weekly:
		return 7, nil
	case Monthly:
		return 30, nil
	case Yearly:
		return 365, nil
	default:
		span := math.Ceil(p.To.Sub(p.From.Time).Hours() / 24)
		return int(math.Max(1, span)), nil
	}
}

// SelectPeriod returns the records falling inside the period, in input order.
// Rolling windows have no upper bound; a custom range with From after To
// selects nothing.
func SelectPeriod(records []core.Expense, p Period, now time.Time) ([]core.Expense, error) {
	from, to, err := p.Window(now)
	if err != nil {
		return nil, err
	}
	out := make([]core.Expense, 0, len(records))
	for _, e := range records {
		if e.Date.Before(from.Time) {
			continue
		}
		if p.Kind == Custom && e.Date.After(to.Time) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
