package analytics

import (
	"testing"
	"time"

	"pet/internal/core"
)

func TestProgress(t *testing.T) {
	now := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	records := []core.Expense{
		rec(70, core.Food, 2026, 1, 3),
		rec(50, core.Food, 2026, 1, 15),
		rec(30, core.Shopping, 2026, 1, 16),
		rec(999, core.Food, 2025, 12, 31), // previous month
	}
	budget := core.Budget{Food: core.Money{Cents: 10000}, Total: core.Money{Cents: 50000}}

	p := Progress(records, budget, now)
	if !p.Configured {
		t.Fatalf("expected configured budget")
	}
	if len(p.Lines) != 2 {
		t.Fatalf("expected lines for food and total only, got %+v", p.Lines)
	}

	food := p.Lines[0]
	if food.Bucket != BucketFood || food.Spent.Cents != 12000 {
		t.Fatalf("unexpected food line %+v", food)
	}
	if !food.OverBudget {
		t.Fatalf("food should be over budget")
	}
	approx(t, "food percentage", food.Percentage, 120.0)
	approx(t, "food fill", food.Fill, 100.0)

	total := p.Lines[1]
	if total.Bucket != BucketTotal || total.Spent.Cents != 15000 || total.OverBudget {
		t.Fatalf("unexpected total line %+v", total)
	}
	approx(t, "total percentage", total.Percentage, 30.0)
}

func TestProgress_ExactlyAtLimit(t *testing.T) {
	now := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	p := Progress([]core.Expense{rec(100, core.Transport, 2026, 1, 2)},
		core.Budget{Transport: core.Money{Cents: 10000}}, now)
	if len(p.Lines) != 1 || p.Lines[0].OverBudget {
		t.Fatalf("100%% is not over budget: %+v", p.Lines)
	}
}

func TestProgress_Unset(t *testing.T) {
	now := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	p := Progress([]core.Expense{rec(10, core.Food, 2026, 1, 2)}, core.Budget{}, now)
	if p.Configured {
		t.Fatalf("empty budget must report unset")
	}
	if p.Lines == nil || len(p.Lines) != 0 {
		t.Fatalf("expected empty line list, got %v", p.Lines)
	}

	// Configured with nothing spent is distinct from unset.
	p = Progress(nil, core.Budget{Entertainment: core.Money{Cents: 100}}, now)
	if !p.Configured || len(p.Lines) != 1 || p.Lines[0].Spent.Cents != 0 {
		t.Fatalf("unexpected progress %+v", p)
	}
}
