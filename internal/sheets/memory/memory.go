// Package memory is an in-process sheet mirror used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"pet/internal/core"
	"pet/internal/sheets"
	"pet/internal/transfer"
)

var _ sheets.Mirror = (*Sheet)(nil)

type Sheet struct {
	mu     sync.Mutex
	rows   [][]string
	writes int
}

func New() *Sheet {
	return &Sheet{}
}

// NewWithRows seeds the sheet with raw cell text, header included.
func NewWithRows(rows [][]string) *Sheet {
	s := &Sheet{}
	s.rows = copyRows(rows)
	return s
}

// ReplaceExpenses overwrites the sheet contents.
func (s *Sheet) ReplaceExpenses(ctx context.Context, records []core.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	table := sheets.Table(records)
	rows := make([][]string, len(table))
	for i, r := range table {
		rows[i] = make([]string, len(r))
		for j, v := range r {
			rows[i][j] = cellText(v)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	s.writes++
	return nil
}

func (s *Sheet) ReadExpenses(ctx context.Context) (transfer.ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return transfer.ImportResult{}, err
	}
	s.mu.Lock()
	rows := copyRows(s.rows)
	s.mu.Unlock()
	return transfer.DecodeTable(rows), nil
}

// Rows returns a copy of the current cell text.
func (s *Sheet) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRows(s.rows)
}

// Writes counts successful ReplaceExpenses calls.
func (s *Sheet) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func cellText(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func copyRows(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, r := range in {
		out[i] = append([]string(nil), r...)
	}
	return out
}
