// Package transfer converts the ledger to and from files: CSV, JSON,
// spreadsheet (.xlsx) and the full backup document.
//
// Decoding is lenient per row: a row that does not yield a valid record is
// counted in ImportResult.Skipped and never aborts the import. Only an
// unreadable file or an unknown format fails the whole operation.
package transfer

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"pet/internal/core"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrMalformedFile reports a file whose container cannot be decoded at all.
	ErrMalformedFile = errors.New("malformed file")
)

// Column headers shared by the CSV and spreadsheet exports.
const (
	HeaderDate        = "Date"
	HeaderCategory    = "Category"
	HeaderAmount      = "Amount"
	HeaderAmountRs    = "Amount (Rs.)"
	HeaderPayment     = "Payment Method"
	HeaderDescription = "Description"
)

// DefaultPayment is used when an imported row has no payment method.
const DefaultPayment = "Cash"

// ImportResult holds the decoded records and the number of rows dropped.
type ImportResult struct {
	Records []core.Expense `json:"-"`
	Skipped int            `json:"skipped"`
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatFromFilename picks the format from the file extension. Legacy .xls
// workbooks are not readable and are rejected.
func FormatFromFilename(name string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, name)
	}
	return ParseFormat(ext)
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// ExportFilename returns e.g. PET_Expenses_2026-01-10.csv.
func ExportFilename(f Format, now time.Time) string {
	return fmt.Sprintf("PET_Expenses_%s.%s", now.UTC().Format(core.DateLayout), f)
}

// Export writes records in format f.
func Export(w io.Writer, f Format, records []core.Expense) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatJSON:
		return WriteJSON(w, records)
	case FormatXLSX:
		return WriteXLSX(w, records)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// Import decodes r according to the extension of name.
func Import(name string, r io.Reader) (ImportResult, error) {
	f, err := FormatFromFilename(name)
	if err != nil {
		return ImportResult{}, err
	}
	switch f {
	case FormatCSV:
		return ReadCSV(r)
	case FormatJSON:
		return ReadJSON(r)
	default:
		return ReadXLSX(r)
	}
}
