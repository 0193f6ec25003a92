package analytics

import (
	"time"

	"pet/internal/core"
)

// ReportResult summarizes the records selected by a period.
type ReportResult struct {
	Period         PeriodKind            `json:"period"`
	From           core.Date             `json:"from"`
	To             core.Date             `json:"to"`
	Days           int                   `json:"days"`
	Total          core.Money            `json:"total"`
	Average        float64               `json:"averageDaily"`
	Max            core.Money            `json:"maxExpense"`
	Count          int                   `json:"count"`
	TopCategory    string                `json:"topCategory"`
	CategoryTotals []core.CategoryAmount `json:"categoryTotals"`
	DailyTotals    []core.DailyAmount    `json:"dailyTotals"`
}

// Report selects records for p as of now and aggregates them. The average is
// the period total divided by the period's day count.
func Report(records []core.Expense, p Period, now time.Time) (ReportResult, error) {
	selected, err := SelectPeriod(records, p, now)
	if err != nil {
		return ReportResult{}, err
	}
	days, err := p.Days()
	if err != nil {
		return ReportResult{}, err
	}
	from, to, err := p.Window(now)
	if err != nil {
		return ReportResult{}, err
	}

	s := Summarize(selected)
	return ReportResult{
		Period:         p.Kind,
		From:           from,
		To:             to,
		Days:           days,
		Total:          s.Total,
		Average:        s.Total.Units() / float64(days),
		Max:            s.Max,
		Count:          s.Count,
		TopCategory:    s.TopCategory,
		CategoryTotals: s.Breakdown(),
		DailyTotals:    s.Days(),
	}, nil
}
