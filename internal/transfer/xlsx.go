package transfer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"pet/internal/core"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Expenses"

// SheetHeader is the header row of spreadsheet exports and of the mirrored
// Google Sheet.
var SheetHeader = []string{HeaderDate, HeaderCategory, HeaderAmountRs, HeaderPayment, HeaderDescription}

// SheetRow renders a record as a spreadsheet row. Amount is a number.
func SheetRow(e core.Expense) []interface{} {
	return []interface{}{e.Date.String(), string(e.Category), e.Amount.Units(), e.Payment, e.Description}
}

func WriteXLSX(w io.Writer, records []core.Expense) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	header := make([]interface{}, len(SheetHeader))
	for i, h := range SheetHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, e := range records {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := SheetRow(e)
		if err := f.SetSheetRow(SheetName, cellRef, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReadXLSX reads the first worksheet. Its first row must name the date,
// category and amount columns.
func ReadXLSX(r io.Reader) (ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: cannot open workbook: %v", ErrMalformedFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ImportResult{Records: []core.Expense{}}, nil
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: cannot read sheet %q: %v", ErrMalformedFile, sheets[0], err)
	}
	return DecodeTable(rows), nil
}

// DecodeTable decodes a header row followed by data rows, as returned by
// spreadsheet APIs. Without a recognizable header every data row is skipped.
func DecodeTable(rows [][]string) ImportResult {
	res := ImportResult{Records: []core.Expense{}}
	if len(rows) == 0 {
		return res
	}
	idx, ok := columnIndex(rows[0])
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		if !ok {
			res.Skipped++
			continue
		}
		e, valid := decodeRow(row, idx)
		if !valid {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, e)
	}
	return res
}
