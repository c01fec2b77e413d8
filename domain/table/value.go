package table

import (
	"fmt"
	"math"
	"strconv"

	"transitvet/domain/core"
)

// Unit tags the scale a numeric value is in. The magnitude transform moves
// a value from UnitNatural to UnitLog10 exactly once; the tag travels with
// the number so a second application is visible at the type level instead
// of silently producing a wrong distribution.
type Unit string

const (
	UnitNatural Unit = "natural"
	UnitLog10   Unit = "log10"
)

// Kind defines the storage type for cell values
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindText    Kind = "text"
	KindMissing Kind = "missing"
)

// Value represents a single typed cell: a numeric observation, a text
// field (identity, label), or an absence marker.
type Value struct {
	Kind Kind    `json:"kind"`
	Num  float64 `json:"num,omitempty"`
	Text string  `json:"text,omitempty"`
	Unit Unit    `json:"unit,omitempty"`
}

// NewNumericValue creates a natural-unit numeric value
func NewNumericValue(n float64) Value {
	if math.IsNaN(n) {
		return NewMissingValue()
	}
	return Value{Kind: KindNumeric, Num: n, Unit: UnitNatural}
}

// NewLogValue creates a numeric value already in log10 units
func NewLogValue(n float64) Value {
	if math.IsNaN(n) {
		return NewMissingValue()
	}
	return Value{Kind: KindNumeric, Num: n, Unit: UnitLog10}
}

// NewTextValue creates a text value
func NewTextValue(s string) Value {
	if s == "" {
		return NewMissingValue()
	}
	return Value{Kind: KindText, Text: s}
}

// NewMissingValue creates a missing value
func NewMissingValue() Value {
	return Value{Kind: KindMissing}
}

// IsMissing returns true if the cell holds no value
func (v Value) IsMissing() bool { return v.Kind == KindMissing }

// IsNumeric returns true if the cell holds a number
func (v Value) IsNumeric() bool { return v.Kind == KindNumeric }

// IsText returns true if the cell holds text
func (v Value) IsText() bool { return v.Kind == KindText }

// Float returns the numeric value, or NaN when the cell is not numeric
func (v Value) Float() float64 {
	if v.Kind != KindNumeric {
		return math.NaN()
	}
	return v.Num
}

// AsText returns the text value, or empty string if not text
func (v Value) AsText() string {
	if v.Kind != KindText {
		return ""
	}
	return v.Text
}

// LogScale applies the base-10 logarithm once. Strictly positive values
// come back tagged UnitLog10; non-positive values become missing rather
// than zero or an error. Applying it to a value that already carries the
// log tag is refused.
func (v Value) LogScale() (Value, error) {
	if v.Kind != KindNumeric {
		return v, nil
	}
	if v.Unit == UnitLog10 {
		return v, core.ErrAlreadyLogScaled
	}
	if v.Num <= 0 {
		return NewMissingValue(), nil
	}
	return Value{Kind: KindNumeric, Num: math.Log10(v.Num), Unit: UnitLog10}, nil
}

// String returns the display representation of the value
func (v Value) String() string {
	switch v.Kind {
	case KindNumeric:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindText:
		return v.Text
	case KindMissing:
		return "<missing>"
	}
	return fmt.Sprintf("<invalid kind %q>", string(v.Kind))
}
