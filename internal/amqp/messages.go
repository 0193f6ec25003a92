package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventKind names a change to the ledger.
type EventKind string

const (
	EventExpenseAdded   EventKind = "expense.added"
	EventExpenseUpdated EventKind = "expense.updated"
	EventExpenseDeleted EventKind = "expense.deleted"
	EventBudgetUpdated  EventKind = "budget.updated"
	EventImported       EventKind = "ledger.imported"
	EventRestored       EventKind = "ledger.restored"
	EventCleared        EventKind = "ledger.cleared"
	EventSeeded         EventKind = "ledger.seeded"
)

// LedgerEvent is a lightweight change notification. It carries no record
// data; consumers reload the ledger from storage.
type LedgerEvent struct {
	EventID   string    `json:"event_id"`
	Kind      EventKind `json:"kind"`
	ExpenseID int64     `json:"expense_id,omitempty"`
	// Count is the number of records affected by bulk operations.
	Count     int       `json:"count,omitempty"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(kind EventKind, version int64) *LedgerEvent {
	return &LedgerEvent{
		EventID:   uuid.NewString(),
		Kind:      kind,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
