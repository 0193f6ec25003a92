package analytics

import (
	"errors"
	"testing"
	"time"

	"pet/internal/core"
)

func TestReport_Weekly(t *testing.T) {
	now := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	records := []core.Expense{
		rec(70, core.Food, 2026, 1, 4),       // 6 days prior
		rec(500, core.Shopping, 2025, 12, 30), // 11 days prior
	}
	r, err := Report(records, Period{Kind: Weekly}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Count != 1 || r.Total.Cents != 7000 || r.Max.Cents != 7000 {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.Days != 7 {
		t.Fatalf("days = %d", r.Days)
	}
	approx(t, "average", r.Average, 10.0)
	if r.From.String() != "2026-01-03" || r.To.String() != "2026-01-10" {
		t.Fatalf("window = %s..%s", r.From, r.To)
	}
	if r.TopCategory != "Food" || len(r.CategoryTotals) != 1 || len(r.DailyTotals) != 1 {
		t.Fatalf("unexpected breakdown %+v", r)
	}
}

func TestReport_MonthlyUsesThirtyDayDivisor(t *testing.T) {
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	r, err := Report([]core.Expense{rec(310, core.Utilities, 2026, 3, 10)}, Period{Kind: Monthly}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approx(t, "average", r.Average, 310.0/30)
}

func TestReport_Custom(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	records := []core.Expense{
		rec(100, core.Food, 2026, 1, 1),
		rec(300, core.Education, 2026, 1, 5),
		rec(900, core.Food, 2026, 2, 1),
	}
	r, err := Report(records, CustomPeriod(core.NewDate(2026, 1, 1), core.NewDate(2026, 1, 5)), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Total.Cents != 40000 || r.Days != 4 || r.Max.Cents != 30000 {
		t.Fatalf("unexpected report %+v", r)
	}
	approx(t, "average", r.Average, 100.0)
}

func TestReport_EmptyAndMissingRange(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	r, err := Report(nil, Period{Kind: Yearly}, now)
	if err != nil {
		t.Fatalf("empty input must not fail: %v", err)
	}
	if r.Total.Cents != 0 || r.Max.Cents != 0 || r.Count != 0 || r.Average != 0 || r.TopCategory != NoCategory {
		t.Fatalf("expected zero report, got %+v", r)
	}

	if _, err := Report(nil, Period{Kind: Custom, From: core.NewDate(2026, 1, 1)}, now); !errors.Is(err, core.ErrMissingRange) {
		t.Fatalf("expected ErrMissingRange, got %v", err)
	}
}
