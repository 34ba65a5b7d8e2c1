package domain

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor currency units (cents). Balances and transaction
// amounts never pass through binary floating point.
type Money int64

// MaxMoney is the largest magnitude a NUMERIC(15,2) column holds:
// 9999999999999.99.
const MaxMoney Money = 999_999_999_999_999

const moneyScale = 2

var hundred = decimal.NewFromInt(100)

func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("ParseMoney: %q: %w", s, ErrInvalidAmount)
	}
	return MoneyFromDecimal(d)
}

func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if !d.Equal(d.Truncate(moneyScale)) {
		return 0, fmt.Errorf("MoneyFromDecimal: more than %d fraction digits: %w", moneyScale, ErrInvalidAmount)
	}
	cents := d.Mul(hundred)
	if !cents.IsInteger() || cents.Abs().GreaterThan(decimal.NewFromInt(int64(MaxMoney))) {
		return 0, fmt.Errorf("MoneyFromDecimal: out of range: %w", ErrInvalidAmount)
	}
	return Money(cents.IntPart()), nil
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -moneyScale)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(moneyScale)
}

func (m Money) IsPositive() bool { return m > 0 }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both "12.50" and 12.50.
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("Money.UnmarshalJSON: %w", ErrInvalidAmount)
	}
	v, err := MoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Value stores Money as a NUMERIC(15,2) literal.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

func (m *Money) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("Money.Scan: %w", err)
	}
	v, err := MoneyFromDecimal(d)
	if err != nil {
		return fmt.Errorf("Money.Scan: %w", err)
	}
	*m = v
	return nil
}
