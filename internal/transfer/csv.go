package transfer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"pet/internal/core"
)

var csvHeader = []string{HeaderDate, HeaderCategory, HeaderAmount, HeaderPayment, HeaderDescription}

// WriteCSV writes one line per record under the standard header. The
// description column is always double-quoted; other columns are quoted only
// when they need it.
func WriteCSV(w io.Writer, records []core.Expense) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(csvHeader, ",") + "\n"); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range records {
		line := strings.Join([]string{
			csvField(e.Date.String(), false),
			csvField(string(e.Category), false),
			e.Amount.Decimal().String(),
			csvField(e.Payment, false),
			csvField(e.Description, true),
		}, ",")
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func csvField(s string, force bool) string {
	if force || strings.ContainsAny(s, ",\"\r\n") || strings.TrimSpace(s) != s {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// ReadCSV parses a CSV export. The first line is a header: when it names
// the date, category and amount columns they are located by name, otherwise
// the export's column order is assumed. Rows with fewer than three fields
// or with malformed quoting are skipped.
func ReadCSV(r io.Reader) (ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	res := ImportResult{Records: []core.Expense{}}
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return res, nil
	}
	if err != nil && !isParseError(err) {
		return ImportResult{}, fmt.Errorf("read csv header: %w", err)
	}
	idx, named := columnIndex(header)
	if !named {
		idx = positional
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if isParseError(err) {
				res.Skipped++
				continue
			}
			return ImportResult{}, fmt.Errorf("read csv: %w", err)
		}
		if blank(row) {
			continue
		}
		if len(row) < 3 {
			res.Skipped++
			continue
		}
		e, ok := decodeRow(row, idx)
		if !ok {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, e)
	}
	return res, nil
}

func isParseError(err error) bool {
	var pe *csv.ParseError
	return errors.As(err, &pe)
}

func blank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
