package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"pet/internal/amqp"
	"pet/internal/sheets"
	"pet/internal/storage"
)

// SyncWorker mirrors the persisted ledger to a spreadsheet. Every event
// triggers a full rewrite, so lost or reordered events only delay the
// mirror until the next one arrives.
type SyncWorker struct {
	store *storage.Store
	sheet sheets.LedgerWriter

	mu    sync.Mutex
	syncs int
}

func NewSyncWorker(store *storage.Store, sheet sheets.LedgerWriter) *SyncWorker {
	return &SyncWorker{store: store, sheet: sheet}
}

// HandleLedgerEvent processes a single change event from AMQP.
func (w *SyncWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"event_id", ev.EventID,
		"kind", ev.Kind,
		"version", ev.Version)

	if err := w.Sync(ctx); err != nil {
		return fmt.Errorf("handle %s: %w", ev.Kind, err)
	}
	return nil
}

// StartupSync mirrors the ledger once, covering changes made while the
// worker was down.
func (w *SyncWorker) StartupSync(ctx context.Context) error {
	slog.InfoContext(ctx, "Running startup sheet sync")
	return w.Sync(ctx)
}

// Sync reloads the records from storage and rewrites the sheet. Calls are
// serialized so two rewrites never interleave.
func (w *SyncWorker) Sync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	records, err := w.store.LoadRecords(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	if err := w.sheet.ReplaceExpenses(ctx, records); err != nil {
		return fmt.Errorf("replace sheet: %w", err)
	}
	w.syncs++
	slog.InfoContext(ctx, "Successfully synced ledger", "records", len(records))
	return nil
}

// Syncs counts completed rewrites.
func (w *SyncWorker) Syncs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.syncs
}
