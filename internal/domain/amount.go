package domain

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a decimal money value in major units (19.99). It decodes from a JSON
// number or a numeric string and always encodes as a bare JSON number.
type Amount decimal.Decimal

// NewAmount parses s ("19.99") into an Amount.
func NewAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount(d), nil
}

// MustAmount is NewAmount for literals known to be valid.
func MustAmount(s string) Amount {
	a, err := NewAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AmountFromMinor converts minor units (cents) to an Amount.
func AmountFromMinor(minor int64) Amount {
	return Amount(decimal.New(minor, -2))
}

func (a Amount) Decimal() decimal.Decimal { return decimal.Decimal(a) }

func (a Amount) Add(b Amount) Amount { return Amount(a.Decimal().Add(b.Decimal())) }

func (a Amount) MulInt(n int) Amount {
	return Amount(a.Decimal().Mul(decimal.NewFromInt(int64(n))))
}

func (a Amount) IsZero() bool { return a.Decimal().IsZero() }

func (a Amount) IsNegative() bool { return a.Decimal().IsNegative() }

func (a Amount) Equal(b Amount) bool { return a.Decimal().Equal(b.Decimal()) }

func (a Amount) String() string { return a.Decimal().String() }

// MinorUnits rounds half away from zero to two decimals and returns cents.
func (a Amount) MinorUnits() int64 {
	return a.Decimal().Round(2).Shift(2).IntPart()
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal().String()), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("amount: null")
	}
	if bytes.Equal(trimmed, []byte(`""`)) {
		return fmt.Errorf("amount: empty string")
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(trimmed); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = Amount(d)
	return nil
}
