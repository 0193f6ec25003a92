package backend

import (
	"context"

	"pet/internal/amqp"
	"pet/internal/sheets"
	"pet/internal/storage"
)

// CleanupFunc releases everything a factory opened.
type CleanupFunc func() error

// BackendResult holds the opened storage and the optional integrations.
// Events is nil when AMQP is not configured or unreachable.
type BackendResult struct {
	Store   *storage.Store
	Events  *amqp.Client
	Cleanup CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateMirror returns the Google Sheets mirror when a spreadsheet is
	// configured and an in-memory one otherwise.
	CreateMirror(ctx context.Context, config Config) (sheets.Mirror, error)
}

type Config struct {
	Type BackendType

	DataFile     string
	SQLiteDBPath string
	PostgresDSN  string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	FileBackend     BackendType = "file"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// Shared reports whether another process can see the backend's writes.
func (bt BackendType) Shared() bool {
	return bt != MemoryBackend
}
