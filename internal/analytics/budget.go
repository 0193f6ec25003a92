package analytics

import (
	"math"
	"time"

	"pet/internal/core"
)

type Bucket string

const (
	BucketFood          Bucket = "food"
	BucketTransport     Bucket = "transport"
	BucketEntertainment Bucket = "entertainment"
	BucketTotal         Bucket = "total"
)

// BudgetLine is the progress of one budget bucket in the current month.
type BudgetLine struct {
	Bucket     Bucket     `json:"bucket"`
	Label      string     `json:"label"`
	Spent      core.Money `json:"spent"`
	Limit      core.Money `json:"limit"`
	Percentage float64    `json:"percentage"`
	// Fill is Percentage capped at 100, for progress bars.
	Fill       float64 `json:"fill"`
	OverBudget bool    `json:"overBudget"`
}

// BudgetProgress holds one line per bucket with a positive limit.
// Configured is false when no bucket has a limit.
type BudgetProgress struct {
	Configured bool         `json:"configured"`
	Lines      []BudgetLine `json:"lines"`
}

// Progress compares current-month spending against the budget limits.
func Progress(records []core.Expense, budget core.Budget, now time.Time) BudgetProgress {
	today := core.DateOf(now)
	var spent = map[Bucket]core.Money{}
	for _, e := range records {
		if !e.Date.SameMonth(today) {
			continue
		}
		spent[BucketTotal] = spent[BucketTotal].Add(e.Amount)
		switch e.Category {
		case core.Food:
			spent[BucketFood] = spent[BucketFood].Add(e.Amount)
		case core.Transport:
			spent[BucketTransport] = spent[BucketTransport].Add(e.Amount)
		case core.Entertainment:
			spent[BucketEntertainment] = spent[BucketEntertainment].Add(e.Amount)
		}
	}

	buckets := []struct {
		bucket Bucket
		label  string
		limit  core.Money
	}{
		{BucketFood, "Food", budget.Food},
		{BucketTransport, "Transport", budget.Transport},
		{BucketEntertainment, "Entertainment", budget.Entertainment},
		{BucketTotal, "Total", budget.Total},
	}

	p := BudgetProgress{Lines: []BudgetLine{}}
	for _, b := range buckets {
		if b.limit.Cents <= 0 {
			continue
		}
		used := spent[b.bucket]
		pct := float64(used.Cents) * 100 / float64(b.limit.Cents)
		p.Lines = append(p.Lines, BudgetLine{
			Bucket:     b.bucket,
			Label:      b.label,
			Spent:      used,
			Limit:      b.limit,
			Percentage: pct,
			Fill:       math.Min(pct, 100),
			OverBudget: pct > 100,
		})
	}
	p.Configured = len(p.Lines) > 0
	return p
}
