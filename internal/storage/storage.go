// Package storage is the persistence boundary for the ledger.
//
// Records and the budget are kept as JSON documents under two fixed keys in
// a KV backend. Records are validated here on the way in so the rest of the
// program never sees a malformed one.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"pet/internal/core"
)

const (
	KeyExpenses = "petExpenses"
	KeyBudget   = "petBudget"
)

var (
	// ErrNotFound is returned by KV.Get for a key that was never written.
	ErrNotFound = errors.New("key not found")
	// ErrStorage matches every *Error via errors.Is.
	ErrStorage = errors.New("storage failure")
)

// Error reports a failed read or write against the backend.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrStorage }

// KV is a string-keyed document store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Pinger is implemented by backends that can check their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store loads and saves the ledger through a KV backend.
type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// LoadRecords returns the saved records. A missing key yields an empty
// list. Entries that do not decode or validate are dropped with a warning.
func (s *Store) LoadRecords(ctx context.Context) ([]core.Expense, error) {
	data, err := s.kv.Get(ctx, KeyExpenses)
	if errors.Is(err, ErrNotFound) {
		return []core.Expense{}, nil
	}
	if err != nil {
		return nil, &Error{Op: "load records", Err: err}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Op: "decode records", Err: err}
	}
	records := make([]core.Expense, 0, len(raw))
	for i, item := range raw {
		var e core.Expense
		if err := json.Unmarshal(item, &e); err != nil {
			slog.WarnContext(ctx, "Dropping undecodable stored record", "index", i, "error", err)
			continue
		}
		e.Category = core.ParseCategory(string(e.Category))
		if err := e.Validate(); err != nil {
			slog.WarnContext(ctx, "Dropping invalid stored record", "index", i, "id", e.ID, "error", err)
			continue
		}
		records = append(records, e)
	}
	return records, nil
}

func (s *Store) SaveRecords(ctx context.Context, records []core.Expense) error {
	if records == nil {
		records = []core.Expense{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return &Error{Op: "encode records", Err: err}
	}
	if err := s.kv.Put(ctx, KeyExpenses, data); err != nil {
		return &Error{Op: "save records", Err: err}
	}
	return nil
}

// LoadBudget returns the saved budget, or the zero budget when none was saved.
func (s *Store) LoadBudget(ctx context.Context) (core.Budget, error) {
	data, err := s.kv.Get(ctx, KeyBudget)
	if errors.Is(err, ErrNotFound) {
		return core.Budget{}, nil
	}
	if err != nil {
		return core.Budget{}, &Error{Op: "load budget", Err: err}
	}
	var b core.Budget
	if err := json.Unmarshal(data, &b); err != nil {
		return core.Budget{}, &Error{Op: "decode budget", Err: err}
	}
	return b, nil
}

func (s *Store) SaveBudget(ctx context.Context, b core.Budget) error {
	data, err := json.Marshal(b)
	if err != nil {
		return &Error{Op: "encode budget", Err: err}
	}
	if err := s.kv.Put(ctx, KeyBudget, data); err != nil {
		return &Error{Op: "save budget", Err: err}
	}
	return nil
}

// Clear removes both keys.
func (s *Store) Clear(ctx context.Context) error {
	for _, key := range []string{KeyExpenses, KeyBudget} {
		if err := s.kv.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
			return &Error{Op: "clear " + key, Err: err}
		}
	}
	return nil
}

// Ping checks the backend when it supports it.
func (s *Store) Ping(ctx context.Context) error {
	p, ok := s.kv.(Pinger)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return &Error{Op: "ping", Err: err}
	}
	return nil
}

func (s *Store) Close() error {
	return s.kv.Close()
}
