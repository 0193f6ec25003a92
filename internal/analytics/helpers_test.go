package analytics

import (
	"math"
	"testing"

	"pet/internal/core"
)

func rec(units int64, cat core.Category, y, m, d int) core.Expense {
	return core.Expense{
		Amount:   core.Money{Cents: units * 100},
		Category: cat,
		Date:     core.NewDate(y, m, d),
		Payment:  "Cash",
	}
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}
