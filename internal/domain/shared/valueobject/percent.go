package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Percent is a value object representing a percentage on the 0-100 scale,
// the scale deal and split percentages are entered on. A missing (nil or
// NULL) percentage is treated as zero rather than an error; that policy
// holds through every derivation in the pipeline.
type Percent struct {
	value decimal.Decimal
}

// NewPercent creates a Percent from a 0-100 scale decimal
func NewPercent(value decimal.Decimal) Percent {
	return Percent{value: value}
}

// NewPercentFromFloat creates a Percent from a 0-100 scale float
func NewPercentFromFloat(value float64) Percent {
	return Percent{value: decimal.NewFromFloat(value)}
}

// NewPercentFromPtr creates a Percent from an optional decimal, mapping
// nil to zero
func NewPercentFromPtr(value *decimal.Decimal) Percent {
	if value == nil {
		return ZeroPercent()
	}
	return Percent{value: *value}
}

// ZeroPercent returns a zero Percent
func ZeroPercent() Percent {
	return Percent{value: decimal.Zero}
}

// HundredPercent returns a 100% Percent
func HundredPercent() Percent {
	return Percent{value: decimal.NewFromInt(100)}
}

// Value100 returns the percentage on the 0-100 scale
func (p Percent) Value100() decimal.Decimal {
	return p.value
}

// Fraction returns the percentage as a 0-1 scale multiplier
func (p Percent) Fraction() decimal.Decimal {
	return p.value.Div(decimal.NewFromInt(100))
}

// Complement returns 100% minus this percentage
func (p Percent) Complement() Percent {
	return Percent{value: decimal.NewFromInt(100).Sub(p.value)}
}

// Add returns the sum of two percentages
func (p Percent) Add(other Percent) Percent {
	return Percent{value: p.value.Add(other.value)}
}

// IsZero returns true if the percentage is zero
func (p Percent) IsZero() bool {
	return p.value.IsZero()
}

// LessThan returns true if this percentage is smaller than the other
func (p Percent) LessThan(other Percent) bool {
	return p.value.LessThan(other.value)
}

// Equals returns true if both percentages are equal
func (p Percent) Equals(other Percent) bool {
	return p.value.Equal(other.value)
}

// InRange returns true if the percentage lies on the 0-100 scale
func (p Percent) InRange() bool {
	return !p.value.IsNegative() && p.value.LessThanOrEqual(decimal.NewFromInt(100))
}

// String returns the percentage as a string on the 0-100 scale
func (p Percent) String() string {
	return p.value.String() + "%"
}

// Float64 returns the 0-100 scale value as a float64
func (p Percent) Float64() float64 {
	f, _ := p.value.Float64()
	return f
}

// MarshalJSON implements json.Marshaler
func (p Percent) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (p *Percent) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("invalid percent: %w", err)
	}
	p.value = d
	return nil
}

// Value implements driver.Valuer for database storage
func (p Percent) Value() (driver.Value, error) {
	return p.value.String(), nil
}

// Scan implements sql.Scanner for database retrieval. NULL scans to zero.
func (p *Percent) Scan(value any) error {
	if value == nil {
		p.value = decimal.Zero
		return nil
	}

	var strVal string
	switch v := value.(type) {
	case string:
		strVal = v
	case []byte:
		strVal = string(v)
	case float64:
		p.value = decimal.NewFromFloat(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Percent", value)
	}

	val, err := decimal.NewFromString(strVal)
	if err != nil {
		return fmt.Errorf("invalid decimal value: %w", err)
	}
	p.value = val
	return nil
}
