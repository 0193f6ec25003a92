package transfer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"pet/internal/core"
)

func sampleRecords() []core.Expense {
	return []core.Expense{
		{ID: 1, Amount: core.Money{Cents: 15050}, Category: core.Food, Date: core.NewDate(2026, 1, 5), Payment: "Card", Description: "Lunch, with client"},
		{ID: 2, Amount: core.Money{Cents: 80000}, Category: core.Transport, Date: core.NewDate(2026, 1, 4), Payment: "Cash", Description: `Fuel "premium"`},
		{ID: 3, Amount: core.Money{Cents: 1}, Category: "Pets", Date: core.NewDate(2025, 12, 31), Payment: "Online"},
	}
}

func sameRecords(t *testing.T, got, want []core.Expense) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.Amount != w.Amount || g.Category != w.Category || g.Date.String() != w.Date.String() ||
			g.Payment != w.Payment || g.Description != w.Description {
			t.Fatalf("record %d:\n got %+v\nwant %+v", i, g, w)
		}
	}
}

func TestFormatFromFilename(t *testing.T) {
	tests := []struct {
		name string
		want Format
		err  bool
	}{
		{"expenses.csv", FormatCSV, false},
		{"Backup.JSON", FormatJSON, false},
		{"report.xlsx", FormatXLSX, false},
		{"legacy.xls", "", true},
		{"notes.txt", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatFromFilename(tt.name)
			if tt.err {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("got %q (err=%v), want %q", got, err, tt.want)
			}
		})
	}
}

func TestImport_UnsupportedFormat(t *testing.T) {
	if _, err := Import("data.pdf", strings.NewReader("x")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFilenames(t *testing.T) {
	now := time.Date(2026, 1, 10, 23, 0, 0, 0, time.UTC)
	if got := ExportFilename(FormatCSV, now); got != "PET_Expenses_2026-01-10.csv" {
		t.Errorf("export filename = %q", got)
	}
	if got := BackupFilename(now); got != "PET_Backup_2026-01-10.json" {
		t.Errorf("backup filename = %q", got)
	}
}
