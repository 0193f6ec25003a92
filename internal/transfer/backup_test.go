package transfer

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"pet/internal/core"
)

func TestBackup_RoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	budget := core.Budget{Food: core.Money{Cents: 500000}, Total: core.Money{Cents: 2000000}}

	var buf bytes.Buffer
	if err := WriteBackup(&buf, NewBackup(sampleRecords(), budget, now)); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, key := range []string{`"expenses"`, `"budget"`, `"exportDate": "2026-01-10T08:00:00Z"`, `"version": "2.0"`} {
		if !strings.Contains(buf.String(), key) {
			t.Fatalf("backup missing %s:\n%s", key, buf.String())
		}
	}

	b, skipped, err := ReadBackup(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if skipped != 0 || b.Budget != budget || b.Version != BackupVersion || !b.ExportDate.Equal(now) {
		t.Fatalf("unexpected backup %+v (skipped=%d)", b, skipped)
	}
	sameRecords(t, b.Expenses, sampleRecords())
	if b.Expenses[0].ID != 1 {
		t.Fatalf("backup must keep record ids")
	}
}

func TestReadBackup_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"not json", `nope`, ErrInvalidBackup},
		{"array", `[]`, ErrInvalidBackup},
		{"missing expenses", `{"budget":{}}`, ErrInvalidBackup},
		{"negative budget", `{"expenses":[],"budget":{"food":-1}}`, core.ErrNegativeLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ReadBackup(strings.NewReader(tt.in)); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
