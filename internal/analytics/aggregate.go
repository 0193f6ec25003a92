// Package analytics turns a flat list of expense records into dashboard,
// budget and report views.
//
// Every function here is pure: it reads the records it is given, never
// mutates them, never keeps references to them, and degrades to zero values
// on empty input instead of failing.
package analytics

import (
	"sort"

	"pet/internal/core"
)

// NoCategory is reported as the top category when there are no records.
const NoCategory = "N/A"

// Summary is the aggregate of an arbitrary set of records.
type Summary struct {
	CategoryTotals map[core.Category]core.Money `json:"categoryTotals"`
	CategoryCounts map[core.Category]int        `json:"categoryCounts"`
	// DailyTotals is keyed by the record's YYYY-MM-DD date.
	DailyTotals map[string]core.Money `json:"dailyTotals"`
	Total       core.Money            `json:"total"`
	Count       int                   `json:"count"`
	Max         core.Money            `json:"max"`
	TopCategory string                `json:"topCategory"`
}

// Summarize aggregates records by category and by day.
//
// Ties for the top category go to the category encountered first; callers
// should only rely on the winner having a maximal total.
func Summarize(records []core.Expense) Summary {
	s := Summary{
		CategoryTotals: make(map[core.Category]core.Money),
		CategoryCounts: make(map[core.Category]int),
		DailyTotals:    make(map[string]core.Money),
		TopCategory:    NoCategory,
	}
	order := make([]core.Category, 0, len(core.Categories))
	for _, e := range records {
		if _, seen := s.CategoryTotals[e.Category]; !seen {
			order = append(order, e.Category)
		}
		s.CategoryTotals[e.Category] = s.CategoryTotals[e.Category].Add(e.Amount)
		s.CategoryCounts[e.Category]++

		day := e.Date.String()
		s.DailyTotals[day] = s.DailyTotals[day].Add(e.Amount)

		if s.Count == 0 || e.Amount.Cents > s.Max.Cents {
			s.Max = e.Amount
		}
		s.Total = s.Total.Add(e.Amount)
		s.Count++
	}

	var best core.Money
	for i, c := range order {
		if total := s.CategoryTotals[c]; i == 0 || total.Cents > best.Cents {
			best = total
			s.TopCategory = string(c)
		}
	}
	return s
}

// Breakdown returns the category totals as a list: fixed categories first in
// display order, then any other category names alphabetically.
func (s Summary) Breakdown() []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(s.CategoryTotals))
	for _, c := range core.Categories {
		if total, ok := s.CategoryTotals[c]; ok {
			out = append(out, core.CategoryAmount{Category: c, Amount: total, Count: s.CategoryCounts[c]})
		}
	}
	var extra []core.Category
	for c := range s.CategoryTotals {
		if !c.Known() {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, c := range extra {
		out = append(out, core.CategoryAmount{Category: c, Amount: s.CategoryTotals[c], Count: s.CategoryCounts[c]})
	}
	return out
}

// Days returns the daily totals ordered oldest to newest.
func (s Summary) Days() []core.DailyAmount {
	out := make([]core.DailyAmount, 0, len(s.DailyTotals))
	for day, total := range s.DailyTotals {
		d, err := core.ParseDate(day)
		if err != nil {
			continue
		}
		out = append(out, core.DailyAmount{Date: d, Amount: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out
}

// CategoryView totals every fixed category over all records, including
// categories with no records.
func CategoryView(records []core.Expense) []core.CategoryAmount {
	s := Summarize(records)
	out := make([]core.CategoryAmount, 0, len(core.Categories))
	for _, c := range core.Categories {
		out = append(out, core.CategoryAmount{Category: c, Amount: s.CategoryTotals[c], Count: s.CategoryCounts[c]})
	}
	return out
}
