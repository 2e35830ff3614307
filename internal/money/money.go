// Package money provides an exact fixed-point currency type.
//
// Amounts are always normalized to two fractional digits. All ledger
// arithmetic goes through this type so that stored and summed values stay
// exact to the cent; binary floats never touch an amount.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when an expense total is zero or negative.
var ErrInvalidAmount = errors.New("amount must be greater than zero")

// Money is a currency amount with exactly two fractional digits.
// The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

// Zero is the 0.00 amount.
var Zero = Money{}

// FromCents builds a Money from a whole number of cents.
func FromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -2)}
}

// FromDecimal builds a Money from an arbitrary-precision decimal,
// banker's-rounding it to the cent.
func FromDecimal(d decimal.Decimal) Money {
	return Money{d: d.RoundBank(2)}
}

// Parse builds a Money from a decimal string such as "12.34",
// banker's-rounding to the cent.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// Cents returns the amount as a whole number of cents.
func (m Money) Cents() int64 {
	return m.d.Shift(2).IntPart()
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.d
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{d: m.d.Sub(o.d)}
}

// Equal reports whether two amounts are the same value.
func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

// Cmp compares m and o, returning -1, 0 or 1.
func (m Money) Cmp(o Money) int {
	return m.d.Cmp(o.d)
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.d.IsPositive()
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.d.IsZero()
}

// Percent returns the exact, unrounded decimal value of m * p / 100.
// Callers that need a Money must round and reconcile the results so the
// parts still sum to the original amount.
func (m Money) Percent(p decimal.Decimal) decimal.Decimal {
	return m.d.Mul(p).Div(decimal.NewFromInt(100))
}

// SplitEven divides the amount into n parts that sum to m exactly.
// Every part gets the floor-to-cent share; the leftover cents (always
// fewer than n for a positive amount) go one each to the leading parts.
// Returns nil when n <= 0.
func (m Money) SplitEven(n int) []Money {
	if n <= 0 {
		return nil
	}
	total := m.Cents()
	base := total / int64(n)
	rem := total - base*int64(n)
	parts := make([]Money, n)
	for i := range parts {
		c := base
		if int64(i) < rem {
			c++
		}
		parts[i] = FromCents(c)
	}
	return parts
}

// String renders the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.d.StringFixed(2)
}

// MarshalJSON renders the amount as a fixed two-digit decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts a JSON number or decimal string and rounds it to
// the cent.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}
	*m = FromDecimal(d)
	return nil
}
