// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents so that sums over many records stay exact.
// Conversion to and from decimal text goes through shopspring/decimal.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyPrefix is prepended to every displayed amount.
const CurrencyPrefix = "Rs."

var hundred = decimal.NewFromInt(100)

// ParseAmount converts decimal text such as "150.5" or "Rs. 1,500.25" into Money.
//
// Thousands separators and the currency prefix are tolerated, the value is
// rounded half-up to whole cents, and only positive results are accepted.
//
// Examples:
//
//	ParseAmount("12.34")   -> 1234 cents
//	ParseAmount("12.345")  -> 1235 cents (rounds up)
//	ParseAmount("Rs. 100") -> 10000 cents
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, CurrencyPrefix))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	m := MoneyFromDecimal(d)
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// MoneyFromDecimal rounds d to whole cents.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Mul(hundred).Round(0).IntPart()}
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Units returns the amount in currency units as a float64 for ratio math.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// String renders the amount with the currency prefix and two decimals, e.g. "Rs. 150.50".
func (m Money) String() string {
	return CurrencyPrefix + " " + m.Decimal().StringFixed(2)
}

// MarshalJSON writes the amount as a plain JSON number in currency units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*m = Money{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	*m = MoneyFromDecimal(d)
	return nil
}
