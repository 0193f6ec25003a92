package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"pet/internal/core"
)

// BackupVersion is written into every backup document.
const BackupVersion = "2.0"

var ErrInvalidBackup = errors.New("invalid backup document")

// Backup is the full-ledger snapshot document.
type Backup struct {
	Expenses   []core.Expense `json:"expenses"`
	Budget     core.Budget    `json:"budget"`
	ExportDate time.Time      `json:"exportDate"`
	Version    string         `json:"version"`
}

func NewBackup(records []core.Expense, budget core.Budget, now time.Time) Backup {
	if records == nil {
		records = []core.Expense{}
	}
	return Backup{Expenses: records, Budget: budget, ExportDate: now.UTC(), Version: BackupVersion}
}

// BackupFilename returns e.g. PET_Backup_2026-01-10.json.
func BackupFilename(now time.Time) string {
	return fmt.Sprintf("PET_Backup_%s.json", now.UTC().Format(core.DateLayout))
}

func WriteBackup(w io.Writer, b Backup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// ReadBackup decodes a backup document. Invalid records are dropped and
// counted in skipped; a document without an expenses list is rejected.
func ReadBackup(r io.Reader) (b Backup, skipped int, err error) {
	var doc struct {
		Expenses   []json.RawMessage `json:"expenses"`
		Budget     core.Budget       `json:"budget"`
		ExportDate time.Time         `json:"exportDate"`
		Version    string            `json:"version"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Backup{}, 0, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if doc.Expenses == nil {
		return Backup{}, 0, fmt.Errorf("%w: missing expenses", ErrInvalidBackup)
	}
	if err := doc.Budget.Validate(); err != nil {
		return Backup{}, 0, err
	}
	res := decodeRecords(doc.Expenses)
	return Backup{
		Expenses:   res.Records,
		Budget:     doc.Budget,
		ExportDate: doc.ExportDate,
		Version:    doc.Version,
	}, res.Skipped, nil
}
