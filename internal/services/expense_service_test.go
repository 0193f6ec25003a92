package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pet/internal/amqp"
	"pet/internal/core"
	"pet/internal/storage"
	"pet/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) kinds() []amqp.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventKind, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Kind
	}
	return out
}

// flakyKV wraps the memory backend and fails writes on demand.
type flakyKV struct {
	*memory.Store
	failPut bool
	failGet bool
	// failKey fails writes to a single key when set.
	failKey string
}

func (f *flakyKV) Put(ctx context.Context, key string, value []byte) error {
	if f.failPut || key == f.failKey {
		return errors.New("disk full")
	}
	return f.Store.Put(ctx, key, value)
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGet {
		return nil, errors.New("io error")
	}
	return f.Store.Get(ctx, key)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestService(t *testing.T) (*ExpenseService, *flakyKV, *recordingPublisher) {
	t.Helper()
	kv := &flakyKV{Store: memory.New()}
	pub := &recordingPublisher{}
	now := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	svc := NewExpenseService(storage.NewStore(kv), pub, WithClock(fixedClock(now)))
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return svc, kv, pub
}

func lunch() ExpenseInput {
	return ExpenseInput{
		Amount:      core.Money{Cents: 15050},
		Category:    "food",
		Date:        core.NewDate(2026, 1, 5),
		Payment:     "Card",
		Description: "Lunch, with client",
	}
}

func TestExpenseService_AddAndPersist(t *testing.T) {
	ctx := context.Background()
	svc, kv, pub := newTestService(t)

	e, err := svc.Add(ctx, lunch())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if e.Category != core.Food {
		t.Errorf("category should be normalized, got %q", e.Category)
	}
	if e.ID != time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC).UnixMilli() {
		t.Errorf("id should be the creation instant in ms, got %d", e.ID)
	}

	second, err := svc.Add(ctx, lunch())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if second.ID <= e.ID {
		t.Fatalf("ids must be strictly increasing: %d then %d", e.ID, second.ID)
	}

	reloaded := NewExpenseService(storage.NewStore(kv), nil)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.List(); len(got) != 2 || got[0].Description != "Lunch, with client" {
		t.Fatalf("unexpected persisted records %+v", got)
	}

	if kinds := pub.kinds(); len(kinds) != 2 || kinds[0] != amqp.EventExpenseAdded {
		t.Fatalf("unexpected events %v", kinds)
	}
	if pub.events[0].ExpenseID != e.ID {
		t.Errorf("event should carry the expense id")
	}
}

func TestExpenseService_AddValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)

	tests := []struct {
		name string
		in   ExpenseInput
		want error
	}{
		{"zero amount", ExpenseInput{Category: core.Food, Date: core.NewDate(2026, 1, 1)}, core.ErrInvalidAmount},
		{"missing category", ExpenseInput{Amount: core.Money{Cents: 1}, Date: core.NewDate(2026, 1, 1)}, core.ErrEmptyCategory},
		{"missing date", ExpenseInput{Amount: core.Money{Cents: 1}, Category: core.Food}, core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Add(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if len(svc.List()) != 0 || len(pub.kinds()) != 0 {
		t.Fatalf("rejected records must not enter the ledger")
	}
}

func TestExpenseService_SaveFailureIsAtomic(t *testing.T) {
	ctx := context.Background()
	svc, kv, pub := newTestService(t)
	if _, err := svc.Add(ctx, lunch()); err != nil {
		t.Fatalf("add: %v", err)
	}
	version := svc.Version()

	kv.failPut = true
	if _, err := svc.Add(ctx, lunch()); !errors.Is(err, storage.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if err := svc.Delete(ctx, svc.List()[0].ID); !errors.Is(err, storage.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if len(svc.List()) != 1 || svc.Version() != version {
		t.Fatalf("failed saves must leave the ledger untouched")
	}
	if len(pub.kinds()) != 1 {
		t.Fatalf("failed saves must not publish, got %v", pub.kinds())
	}
}

func TestExpenseService_UpdateDeleteGet(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)
	e, err := svc.Add(ctx, lunch())
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	in := lunch()
	in.Amount = core.Money{Cents: 9900}
	in.Category = core.Entertainment
	updated, err := svc.Update(ctx, e.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != e.ID || !updated.Timestamp.Equal(e.Timestamp) {
		t.Fatalf("update must keep id and timestamp")
	}
	got, err := svc.Get(e.ID)
	if err != nil || got.Amount.Cents != 9900 || got.Category != core.Entertainment {
		t.Fatalf("unexpected record after update %+v (err=%v)", got, err)
	}

	if _, err := svc.Update(ctx, 42, in); !errors.Is(err, ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound, got %v", err)
	}
	in.Amount = core.Money{}
	if _, err := svc.Update(ctx, e.ID, in); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if err := svc.Delete(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(e.ID); !errors.Is(err, ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, e.ID); !errors.Is(err, ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound on second delete, got %v", err)
	}

	want := []amqp.EventKind{amqp.EventExpenseAdded, amqp.EventExpenseUpdated, amqp.EventExpenseDeleted}
	kinds := pub.kinds()
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("events = %v, want %v", kinds, want)
		}
	}
}

func TestExpenseService_Budget(t *testing.T) {
	ctx := context.Background()
	svc, kv, _ := newTestService(t)

	if err := svc.SetBudget(ctx, core.Budget{Food: core.Money{Cents: -1}}); !errors.Is(err, core.ErrNegativeLimit) {
		t.Fatalf("expected ErrNegativeLimit, got %v", err)
	}
	b := core.Budget{Food: core.Money{Cents: 500000}, Total: core.Money{Cents: 2000000}}
	if err := svc.SetBudget(ctx, b); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	if svc.Budget() != b {
		t.Fatalf("budget = %+v", svc.Budget())
	}

	reloaded := NewExpenseService(storage.NewStore(kv), nil)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Budget() != b {
		t.Fatalf("budget not persisted: %+v", reloaded.Budget())
	}
}

func TestExpenseService_ImportRestoreClear(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)
	if _, err := svc.Add(ctx, lunch()); err != nil {
		t.Fatalf("add: %v", err)
	}

	incoming := []core.Expense{
		{Amount: core.Money{Cents: 100}, Category: core.Food, Date: core.NewDate(2026, 1, 1)},
		{Amount: core.Money{Cents: 0}, Category: core.Food, Date: core.NewDate(2026, 1, 1)},
		{Amount: core.Money{Cents: 200}, Category: "transport", Date: core.NewDate(2026, 1, 2)},
	}
	n, err := svc.Import(ctx, incoming)
	if err != nil || n != 2 {
		t.Fatalf("import = %d (err=%v), want 2", n, err)
	}
	ids := map[int64]bool{}
	for _, e := range svc.List() {
		if ids[e.ID] {
			t.Fatalf("duplicate id %d after import", e.ID)
		}
		ids[e.ID] = true
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 records, got %d", len(ids))
	}

	backup := []core.Expense{
		{ID: 7, Amount: core.Money{Cents: 300}, Category: core.Other, Date: core.NewDate(2025, 5, 5)},
		{Amount: core.Money{Cents: 400}, Category: core.Other, Date: core.NewDate(2025, 5, 6)},
	}
	if err := svc.Restore(ctx, backup, core.Budget{Total: core.Money{Cents: 100}}); err != nil {
		t.Fatalf("restore: %v", err)
	}
	restored := svc.List()
	if len(restored) != 2 || restored[0].ID != 7 || restored[1].ID == 0 {
		t.Fatalf("unexpected restored ledger %+v", restored)
	}
	if svc.Budget().Total.Cents != 100 {
		t.Fatalf("budget not restored")
	}

	if err := svc.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(svc.List()) != 0 || !svc.Budget().IsZero() {
		t.Fatalf("clear must drop records and budget")
	}

	kinds := pub.kinds()
	if last := kinds[len(kinds)-1]; last != amqp.EventCleared {
		t.Fatalf("last event = %s", last)
	}
}

func TestExpenseService_RestoreIsAtomic(t *testing.T) {
	ctx := context.Background()
	backup := []core.Expense{
		{ID: 3, Amount: core.Money{Cents: 300}, Category: core.Other, Date: core.NewDate(2025, 5, 5)},
	}
	budget := core.Budget{Total: core.Money{Cents: 5000}}

	for _, key := range []string{storage.KeyExpenses, storage.KeyBudget} {
		t.Run(key, func(t *testing.T) {
			svc, kv, _ := newTestService(t)
			if _, err := svc.Add(ctx, lunch()); err != nil {
				t.Fatalf("add: %v", err)
			}
			before := svc.Version()

			kv.failKey = key
			if err := svc.Restore(ctx, backup, budget); !errors.Is(err, storage.ErrStorage) {
				t.Fatalf("expected storage error, got %v", err)
			}
			kv.failKey = ""

			if got := svc.List(); len(got) != 1 || got[0].Description != lunch().Description {
				t.Errorf("in-memory records changed: %+v", got)
			}
			if !svc.Budget().IsZero() {
				t.Errorf("in-memory budget changed: %+v", svc.Budget())
			}
			if svc.Version() != before {
				t.Errorf("version moved from %d to %d", before, svc.Version())
			}

			store := storage.NewStore(kv)
			saved, err := store.LoadRecords(ctx)
			if err != nil || len(saved) != 1 {
				t.Errorf("saved records = %+v (err=%v), want the previous single record", saved, err)
			}
			savedBudget, err := store.LoadBudget(ctx)
			if err != nil || !savedBudget.IsZero() {
				t.Errorf("saved budget = %+v (err=%v), want unset", savedBudget, err)
			}
		})
	}
}

func TestExpenseService_LoadFallback(t *testing.T) {
	kv := &flakyKV{Store: memory.New(), failGet: true}
	svc := NewExpenseService(storage.NewStore(kv), nil)
	err := svc.Load(context.Background())
	if !errors.Is(err, storage.ErrStorage) {
		t.Fatalf("expected storage error to be reported, got %v", err)
	}
	if svc.List() == nil || len(svc.List()) != 0 || !svc.Budget().IsZero() {
		t.Fatalf("expected empty ledger after failed load")
	}
}

func TestExpenseService_PublishFailureDoesNotFailWrite(t *testing.T) {
	svc, _, pub := newTestService(t)
	pub.err = errors.New("broker down")
	if _, err := svc.Add(context.Background(), lunch()); err != nil {
		t.Fatalf("publish errors must not fail the write: %v", err)
	}
	if len(svc.List()) != 1 {
		t.Fatalf("record should be stored")
	}
}

func TestExpenseService_LoadSample(t *testing.T) {
	svc, _, _ := newTestService(t)
	n, err := svc.LoadSample(context.Background())
	if err != nil || n != 8 {
		t.Fatalf("sample = %d (err=%v)", n, err)
	}
	var total int64
	for _, e := range svc.List() {
		total += e.Amount.Cents
	}
	if total != 1710000 {
		t.Fatalf("sample total = %d", total)
	}
}

func TestExpenseService_Concurrent(t *testing.T) {
	svc, _, _ := newTestService(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Add(context.Background(), lunch()); err != nil {
				t.Errorf("add: %v", err)
			}
			_ = svc.List()
		}()
	}
	wg.Wait()
	records := svc.List()
	if len(records) != 20 {
		t.Fatalf("expected 20 records, got %d", len(records))
	}
	seen := map[int64]bool{}
	for _, e := range records {
		if seen[e.ID] {
			t.Fatalf("duplicate id %d", e.ID)
		}
		seen[e.ID] = true
	}
}
