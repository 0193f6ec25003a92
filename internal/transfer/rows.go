package transfer

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"pet/internal/core"
)

type field int

const (
	fieldDate field = iota
	fieldCategory
	fieldAmount
	fieldPayment
	fieldDescription
	fieldCount
)

// headerAliases lists the accepted header spellings per field, compared
// case-insensitively after trimming.
var headerAliases = map[field][]string{
	fieldDate:        {"date"},
	fieldCategory:    {"category"},
	fieldAmount:      {"amount (rs.)", "amount"},
	fieldPayment:     {"payment method", "payment"},
	fieldDescription: {"description"},
}

// columnIndex maps each field to its column in header, or -1 when absent.
// ok is false unless date, category and amount were all found.
func columnIndex(header []string) (idx [fieldCount]int, ok bool) {
	for i := range idx {
		idx[i] = -1
	}
	for f, aliases := range headerAliases {
		for _, alias := range aliases {
			for col, h := range header {
				if idx[f] < 0 && strings.EqualFold(strings.TrimSpace(h), alias) {
					idx[f] = col
				}
			}
		}
	}
	return idx, idx[fieldDate] >= 0 && idx[fieldCategory] >= 0 && idx[fieldAmount] >= 0
}

// positional is the column order written by the CSV export.
var positional = [fieldCount]int{0, 1, 2, 3, 4}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// decodeRow turns one table row into a record. It reports false when the
// row lacks a parseable date, a category or a positive amount.
func decodeRow(row []string, idx [fieldCount]int) (core.Expense, bool) {
	date, err := parseCellDate(cell(row, idx[fieldDate]))
	if err != nil {
		return core.Expense{}, false
	}
	amount, err := core.ParseAmount(cell(row, idx[fieldAmount]))
	if err != nil {
		return core.Expense{}, false
	}
	e := core.Expense{
		Amount:      amount,
		Category:    core.ParseCategory(cell(row, idx[fieldCategory])),
		Date:        date,
		Payment:     cell(row, idx[fieldPayment]),
		Description: cell(row, idx[fieldDescription]),
	}
	if e.Payment == "" {
		e.Payment = DefaultPayment
	}
	if e.Validate() != nil {
		return core.Expense{}, false
	}
	return e, true
}

// parseCellDate accepts ISO dates and spreadsheet serial day numbers.
func parseCellDate(s string) (core.Date, error) {
	d, err := core.ParseDate(s)
	if err == nil {
		return d, nil
	}
	if serial, convErr := strconv.ParseFloat(s, 64); convErr == nil && serial > 0 {
		t, convErr := excelize.ExcelDateToTime(serial, false)
		if convErr == nil {
			return core.DateOf(t), nil
		}
	}
	if t, convErr := time.Parse(time.RFC3339, s); convErr == nil {
		return core.DateOf(t), nil
	}
	return core.Date{}, err
}
