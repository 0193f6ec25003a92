package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet/internal/amqp"
	"pet/internal/core"
	"pet/internal/storage"
	sheetmem "pet/internal/sheets/memory"
	kvmem "pet/internal/storage/memory"
)

func seededStore(t *testing.T, records []core.Expense) *storage.Store {
	t.Helper()
	store := storage.NewStore(kvmem.New())
	if err := store.SaveRecords(context.Background(), records); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func ledger() []core.Expense {
	return []core.Expense{
		{ID: 1, Amount: core.Money{Cents: 15050}, Category: core.Food, Date: core.NewDate(2026, 1, 5), Payment: "Card", Description: "Lunch, with client", Timestamp: time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)},
		{ID: 2, Amount: core.Money{Cents: 5000}, Category: core.Transport, Date: core.NewDate(2026, 1, 6), Payment: "Cash", Timestamp: time.Date(2026, 1, 6, 9, 0, 0, 0, time.UTC)},
	}
}

type failingSheet struct{}

func (failingSheet) ReplaceExpenses(context.Context, []core.Expense) error {
	return errors.New("quota exceeded")
}

func TestSyncWorker_HandleLedgerEvent(t *testing.T) {
	store := seededStore(t, ledger())
	sheet := sheetmem.New()
	w := NewSyncWorker(store, sheet)

	if err := w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent(amqp.EventExpenseAdded, 1)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	rows := sheet.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "2026-01-05" || rows[2][1] != "Transport" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if w.Syncs() != 1 {
		t.Fatalf("expected 1 sync, got %d", w.Syncs())
	}
}

func TestSyncWorker_ReflectsLatestState(t *testing.T) {
	store := seededStore(t, ledger())
	sheet := sheetmem.New()
	w := NewSyncWorker(store, sheet)
	ctx := context.Background()

	if err := w.StartupSync(ctx); err != nil {
		t.Fatalf("startup: %v", err)
	}
	if err := store.SaveRecords(ctx, ledger()[:1]); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := w.HandleLedgerEvent(ctx, amqp.NewLedgerEvent(amqp.EventExpenseDeleted, 2)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	res, err := sheet.ReadExpenses(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].Amount.Cents != 15050 {
		t.Fatalf("sheet should hold the latest ledger, got %+v", res.Records)
	}
}

func TestSyncWorker_SheetFailure(t *testing.T) {
	w := NewSyncWorker(seededStore(t, ledger()), failingSheet{})
	err := w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent(amqp.EventCleared, 3))
	if err == nil {
		t.Fatalf("expected error")
	}
	if w.Syncs() != 0 {
		t.Fatalf("failed sync must not be counted")
	}
}
