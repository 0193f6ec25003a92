package sheets

import (
	"context"

	"pet/internal/core"
	"pet/internal/transfer"
)

// Ports for outbound spreadsheet adapters.
type (
	// LedgerWriter replaces the mirrored sheet with the header row and one
	// row per record.
	LedgerWriter interface {
		ReplaceExpenses(ctx context.Context, records []core.Expense) error
	}

	// LedgerReader decodes the mirrored sheet back into records. Rows that do
	// not decode are counted in Skipped.
	LedgerReader interface {
		ReadExpenses(ctx context.Context) (transfer.ImportResult, error)
	}

	Mirror interface {
		LedgerWriter
		LedgerReader
	}
)

// Table renders records as the mirrored sheet: header first.
func Table(records []core.Expense) [][]interface{} {
	out := make([][]interface{}, 0, len(records)+1)
	header := make([]interface{}, len(transfer.SheetHeader))
	for i, h := range transfer.SheetHeader {
		header[i] = h
	}
	out = append(out, header)
	for _, e := range records {
		out = append(out, transfer.SheetRow(e))
	}
	return out
}
