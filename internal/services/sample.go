package services

import (
	"time"

	"pet/internal/core"
)

// SampleExpenses returns a demo ledger of eight records covering most
// categories, stamped with ids and timestamps derived from now.
func SampleExpenses(now time.Time) []core.Expense {
	rows := []struct {
		units       int64
		category    core.Category
		date        core.Date
		payment     string
		description string
	}{
		{1500, core.Food, core.NewDate(2026, 1, 5), "Cash", "Monthly grocery shopping"},
		{800, core.Transport, core.NewDate(2026, 1, 4), "Card", "Fuel for car"},
		{2000, core.Entertainment, core.NewDate(2026, 1, 3), "Online", "Movie tickets and dinner"},
		{3500, core.Utilities, core.NewDate(2026, 1, 2), "Card", "Electricity and water bills"},
		{1200, core.Healthcare, core.NewDate(2026, 1, 1), "Cash", "Medical checkup and medicines"},
		{2500, core.Shopping, core.NewDate(2025, 12, 30), "Card", "Clothing and accessories"},
		{5000, core.Education, core.NewDate(2025, 12, 28), "Online", "Course enrollment fee"},
		{600, core.Food, core.NewDate(2025, 12, 27), "Cash", "Restaurant dinner"},
	}
	base := now.UnixMilli()
	out := make([]core.Expense, 0, len(rows))
	for i, r := range rows {
		out = append(out, core.Expense{
			ID:          base + int64(i) + 1,
			Amount:      core.Money{Cents: r.units * 100},
			Category:    r.category,
			Date:        r.date,
			Payment:     r.payment,
			Description: r.description,
			Timestamp:   now.UTC(),
		})
	}
	return out
}
