package analytics

import (
	"sort"
	"time"

	"pet/internal/core"
)

const (
	// TrendDays is the length of the dashboard spending trend, ending today.
	TrendDays = 30
	// RecentLimit caps the recent transactions list.
	RecentLimit = 5
)

// DashboardSummary is the home view. Only the month total and the daily
// average are restricted to the current calendar month; count, top category
// and breakdown cover every record.
type DashboardSummary struct {
	Month             string                `json:"month"`
	TotalThisMonth    core.Money            `json:"totalThisMonth"`
	TransactionCount  int                   `json:"transactionCount"`
	TopCategory       string                `json:"topCategory"`
	AvgDailyThisMonth float64               `json:"avgDailyThisMonth"`
	CategoryBreakdown []core.CategoryAmount `json:"categoryBreakdown"`
	DailyTrend        []core.DailyAmount    `json:"dailyTrend"`
	Recent            []core.Expense        `json:"recent"`
}

// Dashboard builds the home view as of now. "This month" is the calendar
// month of now, not a rolling window.
func Dashboard(records []core.Expense, now time.Time) DashboardSummary {
	today := core.DateOf(now)

	var month core.Money
	for _, e := range records {
		if e.Date.SameMonth(today) {
			month = month.Add(e.Amount)
		}
	}
	all := Summarize(records)

	return DashboardSummary{
		Month:             today.Format("2006-01"),
		TotalThisMonth:    month,
		TransactionCount:  all.Count,
		TopCategory:       all.TopCategory,
		AvgDailyThisMonth: month.Units() / float64(today.DaysInMonth()),
		CategoryBreakdown: all.Breakdown(),
		DailyTrend:        Trend(records, today, TrendDays),
		Recent:            Recent(records, RecentLimit),
	}
}

// Trend returns one entry per calendar day for the n days ending at last,
// oldest first. Days without records carry a zero amount.
func Trend(records []core.Expense, last core.Date, n int) []core.DailyAmount {
	if n <= 0 {
		return []core.DailyAmount{}
	}
	first := last.AddDays(-(n - 1))
	byDay := make(map[string]core.Money, n)
	for _, e := range records {
		if e.Date.Before(first.Time) || e.Date.After(last.Time) {
			continue
		}
		key := e.Date.String()
		byDay[key] = byDay[key].Add(e.Amount)
	}
	out := make([]core.DailyAmount, 0, n)
	for i := 0; i < n; i++ {
		d := first.AddDays(i)
		out = append(out, core.DailyAmount{Date: d, Amount: byDay[d.String()]})
	}
	return out
}

// Recent returns up to n records, newest date first. Records sharing a date
// keep their input order.
func Recent(records []core.Expense, n int) []core.Expense {
	sorted := SortByDateDesc(records)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// SortByDateDesc returns a copy of records ordered by date, newest first.
func SortByDateDesc(records []core.Expense) []core.Expense {
	out := make([]core.Expense, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out
}
