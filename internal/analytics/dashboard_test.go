package analytics

import (
	"testing"
	"time"

	"pet/internal/core"
)

func TestDashboard(t *testing.T) {
	now := time.Date(2026, 2, 10, 20, 0, 0, 0, time.UTC)
	records := []core.Expense{
		rec(280, core.Food, 2026, 2, 1),
		rec(140, core.Transport, 2026, 2, 9),
		rec(1000, core.Shopping, 2026, 1, 30),
		rec(5, core.Other, 2025, 2, 5), // same month, previous year
	}
	d := Dashboard(records, now)

	if d.Month != "2026-02" {
		t.Fatalf("month = %q", d.Month)
	}
	if d.TotalThisMonth.Cents != 42000 {
		t.Fatalf("total this month = %d", d.TotalThisMonth.Cents)
	}
	// February 2026 has 28 days.
	approx(t, "avg daily", d.AvgDailyThisMonth, 420.0/28)

	if d.TransactionCount != 4 {
		t.Fatalf("transaction count covers all records, got %d", d.TransactionCount)
	}
	if d.TopCategory != "Shopping" {
		t.Fatalf("top category covers all records, got %q", d.TopCategory)
	}
	if len(d.CategoryBreakdown) != 4 {
		t.Fatalf("breakdown covers all records, got %v", d.CategoryBreakdown)
	}

	if len(d.DailyTrend) != TrendDays {
		t.Fatalf("trend length = %d", len(d.DailyTrend))
	}
	if first := d.DailyTrend[0].Date.String(); first != "2026-01-12" {
		t.Fatalf("trend starts at %s", first)
	}
	if last := d.DailyTrend[TrendDays-1].Date.String(); last != "2026-02-10" {
		t.Fatalf("trend ends at %s", last)
	}
	var trendSum int64
	for _, day := range d.DailyTrend {
		trendSum += day.Amount.Cents
	}
	if trendSum != 142000 {
		t.Fatalf("trend sum = %d", trendSum)
	}

	if len(d.Recent) != 4 || d.Recent[0].Date.String() != "2026-02-09" || d.Recent[3].Date.String() != "2025-02-05" {
		t.Fatalf("recent not ordered newest first: %v", dates(d.Recent))
	}
}

func TestDashboard_Empty(t *testing.T) {
	d := Dashboard(nil, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	if d.TotalThisMonth.Cents != 0 || d.TransactionCount != 0 || d.AvgDailyThisMonth != 0 {
		t.Fatalf("expected zero dashboard, got %+v", d)
	}
	if d.TopCategory != NoCategory {
		t.Fatalf("top category = %q", d.TopCategory)
	}
	if len(d.DailyTrend) != TrendDays {
		t.Fatalf("trend must be zero-filled, got %d entries", len(d.DailyTrend))
	}
	if len(d.Recent) != 0 {
		t.Fatalf("expected no recent records")
	}
}

func TestRecent_LimitAndStability(t *testing.T) {
	var records []core.Expense
	for i := 1; i <= 7; i++ {
		r := rec(int64(i), core.Food, 2026, 1, 1)
		r.ID = int64(i)
		records = append(records, r)
	}
	got := Recent(records, RecentLimit)
	if len(got) != RecentLimit {
		t.Fatalf("got %d records", len(got))
	}
	for i, r := range got {
		if r.ID != int64(i+1) {
			t.Fatalf("equal dates must keep input order, got ids %v", got)
		}
	}
	if records[0].ID != 1 {
		t.Fatalf("input must not be reordered")
	}
}
