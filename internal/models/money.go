package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is a monetary amount in integer cents. All persisted money columns
// use this type; fractional cents never exist in stored state.
type Cents int64

// Decimal returns the amount in major units (dollars) as a decimal.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(c)).Div(decimal.NewFromInt(100))
}

// String formats the amount in major units with two decimals.
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// MarshalJSON emits the raw cent count.
func (c Cents) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(c))
}

// UnmarshalJSON accepts a cent count.
func (c *Cents) UnmarshalJSON(b []byte) error {
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("cents must be an integer: %w", err)
	}
	*c = Cents(v)
	return nil
}

// ApplyPercent computes ratePercent% of base, rounding half up to a whole
// cent. Each commission record rounds independently with this single rule.
func ApplyPercent(base Cents, ratePercent decimal.Decimal) Cents {
	amount := decimal.NewFromInt(int64(base)).
		Mul(ratePercent).
		Div(decimal.NewFromInt(100)).
		Round(0)
	return Cents(amount.IntPart())
}

// VolumeCents converts a volume point total to cents at the configured point
// value, then applies ratePercent with half-up rounding.
func VolumeCents(volume int, pointValueCents int64, ratePercent decimal.Decimal) Cents {
	base := decimal.NewFromInt(int64(volume)).Mul(decimal.NewFromInt(pointValueCents))
	amount := base.Mul(ratePercent).Div(decimal.NewFromInt(100)).Round(0)
	return Cents(amount.IntPart())
}
