package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"pet/internal/core"
)

// WriteJSON writes records as a pretty-printed JSON array.
func WriteJSON(w io.Writer, records []core.Expense) error {
	if records == nil {
		records = []core.Expense{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// ReadJSON accepts either a JSON array of records or a backup document.
func ReadJSON(r io.Reader) (ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("read json: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var doc struct {
			Expenses []json.RawMessage `json:"expenses"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return ImportResult{}, fmt.Errorf("%w: invalid json: %v", ErrMalformedFile, err)
		}
		return decodeRecords(doc.Expenses), nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return ImportResult{}, fmt.Errorf("%w: invalid json: %v", ErrMalformedFile, err)
	}
	return decodeRecords(raw), nil
}

func decodeRecords(raw []json.RawMessage) ImportResult {
	res := ImportResult{Records: make([]core.Expense, 0, len(raw))}
	for _, item := range raw {
		var e core.Expense
		if err := json.Unmarshal(item, &e); err != nil {
			res.Skipped++
			continue
		}
		e.Category = core.ParseCategory(string(e.Category))
		if e.Payment == "" {
			e.Payment = DefaultPayment
		}
		if e.Validate() != nil {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, e)
	}
	return res
}
