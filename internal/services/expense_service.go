package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pet/internal/amqp"
	"pet/internal/core"
	"pet/internal/storage"
)

var ErrExpenseNotFound = errors.New("expense not found")

// Publisher receives a notification after every committed ledger change.
type Publisher interface {
	Publish(ctx context.Context, ev *amqp.LedgerEvent) error
}

// ExpenseInput holds the user-editable fields of a record.
type ExpenseInput struct {
	Amount      core.Money    `json:"amount"`
	Category    core.Category `json:"category"`
	Date        core.Date     `json:"date"`
	Payment     string        `json:"payment"`
	Description string        `json:"description"`
}

func (in ExpenseInput) expense() core.Expense {
	return core.Expense{
		Amount:      in.Amount,
		Category:    core.ParseCategory(string(in.Category)),
		Date:        in.Date,
		Payment:     in.Payment,
		Description: in.Description,
	}
}

type Option func(*ExpenseService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

// ExpenseService owns the ledger. All reads and writes go through one lock,
// and a change only becomes visible after the store accepted it.
type ExpenseService struct {
	store     *storage.Store
	publisher Publisher
	now       func() time.Time

	mu      sync.RWMutex
	records []core.Expense
	budget  core.Budget
	version int64
	lastID  int64
}

func NewExpenseService(store *storage.Store, publisher Publisher, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
		records:   []core.Expense{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the ledger from storage. On a storage failure the service keeps
// an empty ledger and the error is returned for the caller to report.
func (s *ExpenseService) Load(ctx context.Context) error {
	records, recErr := s.store.LoadRecords(ctx)
	if recErr != nil {
		slog.ErrorContext(ctx, "Failed to load records, starting empty", "error", recErr)
		records = []core.Expense{}
	}
	budget, budErr := s.store.LoadBudget(ctx)
	if budErr != nil {
		slog.ErrorContext(ctx, "Failed to load budget, starting unset", "error", budErr)
		budget = core.Budget{}
	}

	s.mu.Lock()
	s.records = records
	s.budget = budget
	s.lastID = maxID(records)
	s.version++
	s.mu.Unlock()

	slog.InfoContext(ctx, "Ledger loaded", "records", len(records), "budget_set", !budget.IsZero())
	return errors.Join(recErr, budErr)
}

// Version increases on every committed change.
func (s *ExpenseService) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// List returns a copy of all records in insertion order.
func (s *ExpenseService) List() []core.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Expense(nil), s.records...)
}

// Snapshot returns records, budget and version read under one lock.
func (s *ExpenseService) Snapshot() ([]core.Expense, core.Budget, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Expense(nil), s.records...), s.budget, s.version
}

func (s *ExpenseService) Get(id int64) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.records[i], nil
	}
	return core.Expense{}, fmt.Errorf("%w: %d", ErrExpenseNotFound, id)
}

func (s *ExpenseService) Add(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	e := in.expense()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	now := s.now()
	e.ID = s.nextIDLocked(now)
	e.Timestamp = now.UTC()
	next := append(append(make([]core.Expense, 0, len(s.records)+1), s.records...), e)
	if err := s.commitRecordsLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}
	version := s.version
	s.mu.Unlock()

	slog.InfoContext(ctx, "Expense added", "id", e.ID, "category", e.Category, "amount", e.Amount.String())
	s.publish(ctx, amqp.EventExpenseAdded, version, e.ID, 1)
	return e, nil
}

// Update replaces every field except id and timestamp.
func (s *ExpenseService) Update(ctx context.Context, id int64, in ExpenseInput) (core.Expense, error) {
	e := in.expense()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return core.Expense{}, fmt.Errorf("%w: %d", ErrExpenseNotFound, id)
	}
	e.ID = id
	e.Timestamp = s.records[i].Timestamp
	next := append([]core.Expense(nil), s.records...)
	next[i] = e
	if err := s.commitRecordsLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	version := s.version
	s.mu.Unlock()

	slog.InfoContext(ctx, "Expense updated", "id", id)
	s.publish(ctx, amqp.EventExpenseUpdated, version, id, 1)
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrExpenseNotFound, id)
	}
	next := make([]core.Expense, 0, len(s.records)-1)
	next = append(next, s.records[:i]...)
	next = append(next, s.records[i+1:]...)
	if err := s.commitRecordsLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("delete expense: %w", err)
	}
	version := s.version
	s.mu.Unlock()

	slog.InfoContext(ctx, "Expense deleted", "id", id)
	s.publish(ctx, amqp.EventExpenseDeleted, version, id, 1)
	return nil
}

func (s *ExpenseService) Budget() core.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.budget
}

func (s *ExpenseService) SetBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.store.SaveBudget(ctx, b); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("set budget: %w", err)
	}
	s.budget = b
	s.version++
	version := s.version
	s.mu.Unlock()

	slog.InfoContext(ctx, "Budget updated", "food", b.Food.String(), "total", b.Total.String())
	s.publish(ctx, amqp.EventBudgetUpdated, version, 0, 0)
	return nil
}

// Import appends records, giving each a fresh id and timestamp. Records that
// fail validation are skipped; the number appended is returned.
func (s *ExpenseService) Import(ctx context.Context, records []core.Expense) (int, error) {
	s.mu.Lock()
	now := s.now()
	next := append(make([]core.Expense, 0, len(s.records)+len(records)), s.records...)
	added := 0
	lastID := s.lastID
	for _, e := range records {
		e.Category = core.ParseCategory(string(e.Category))
		if err := e.Validate(); err != nil {
			continue
		}
		lastID = nextID(lastID, now)
		e.ID = lastID
		e.Timestamp = now.UTC()
		next = append(next, e)
		added++
	}
	if added == 0 {
		s.mu.Unlock()
		return 0, nil
	}
	if err := s.commitRecordsLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return 0, fmt.Errorf("import expenses: %w", err)
	}
	s.lastID = lastID
	version := s.version
	s.mu.Unlock()

	slog.InfoContext(ctx, "Expenses imported", "count", added)
	s.publish(ctx, amqp.EventImported, version, 0, added)
	return added, nil
}

// Restore replaces the whole ledger with records and budget, keeping the
// records' ids. Records without an id get one.
func (s *ExpenseService) Restore(ctx context.Context, records []core.Expense, budget core.Budget) error {
	if err := budget.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	now := s.now()
	lastID := max(s.lastID, maxID(records))
	next := make([]core.Expense, 0, len(records))
	seen := make(map[int64]bool, len(records))
	for _, e := range records {
		e.Category = core.ParseCategory(string(e.Category))
		if err := e.Validate(); err != nil {
			continue
		}
		if e.ID == 0 || seen[e.ID] {
			lastID = nextID(lastID, now)
			e.ID = lastID
		}
		seen[e.ID] = true
		if e.Timestamp.IsZero() {
			e.Timestamp = now.UTC()
		}
		next = append(next, e)
	}
	if err := s.store.SaveRecords(ctx, next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("restore records: %w", err)
	}
	if err := s.store.SaveBudget(ctx, budget); err != nil {
		if rbErr := s.store.SaveRecords(ctx, s.records); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("roll back records: %w", rbErr))
		}
		s.mu.Unlock()
		return fmt.Errorf("restore budget: %w", err)
	}
	s.records = next
	s.budget = budget
	s.lastID = lastID
	s.version++
	version := s.version
	s.mu.Unlock()

	slog.InfoContext(ctx, "Ledger restored", "records", len(next))
	s.publish(ctx, amqp.EventRestored, version, 0, len(next))
	return nil
}

// LoadSample replaces the records with the sample set. The budget is kept.
func (s *ExpenseService) LoadSample(ctx context.Context) (int, error) {
	s.mu.Lock()
	now := s.now()
	sample := SampleExpenses(now)
	if err := s.commitRecordsLocked(ctx, sample); err != nil {
		s.mu.Unlock()
		return 0, fmt.Errorf("load sample data: %w", err)
	}
	s.lastID = max(s.lastID, maxID(sample))
	version := s.version
	s.mu.Unlock()

	s.publish(ctx, amqp.EventSeeded, version, 0, len(sample))
	return len(sample), nil
}

// ClearAll deletes every record and the budget.
func (s *ExpenseService) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	if err := s.store.Clear(ctx); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("clear ledger: %w", err)
	}
	n := len(s.records)
	s.records = []core.Expense{}
	s.budget = core.Budget{}
	s.version++
	version := s.version
	s.mu.Unlock()

	slog.WarnContext(ctx, "Ledger cleared", "records", n)
	s.publish(ctx, amqp.EventCleared, version, 0, n)
	return nil
}

// Ping reports whether the store is reachable.
func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close releases the store.
func (s *ExpenseService) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close expense service: %w", err)
	}
	return nil
}

func (s *ExpenseService) commitRecordsLocked(ctx context.Context, next []core.Expense) error {
	if err := s.store.SaveRecords(ctx, next); err != nil {
		return err
	}
	s.records = next
	s.version++
	return nil
}

func (s *ExpenseService) indexLocked(id int64) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *ExpenseService) nextIDLocked(now time.Time) int64 {
	s.lastID = nextID(s.lastID, now)
	return s.lastID
}

// nextID returns the creation instant in milliseconds, bumped past last so
// ids stay strictly increasing within a millisecond.
func nextID(last int64, now time.Time) int64 {
	id := now.UnixMilli()
	if id <= last {
		id = last + 1
	}
	return id
}

func maxID(records []core.Expense) int64 {
	var m int64
	for _, e := range records {
		m = max(m, e.ID)
	}
	return m
}

func (s *ExpenseService) publish(ctx context.Context, kind amqp.EventKind, version, expenseID int64, count int) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping ledger event", "kind", kind)
		return
	}
	ev := amqp.NewLedgerEvent(kind, version)
	ev.ExpenseID = expenseID
	ev.Count = count
	if err := s.publisher.Publish(ctx, ev); err != nil {
		// The change is already persisted.
		slog.ErrorContext(ctx, "Failed to publish ledger event", "kind", kind, "error", err)
	}
}
