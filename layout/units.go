package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// This file defines unit-aware lengths used by the markup (widths, padding, font sizes).
// Cell based backends use unit-less numbers; vector backends work in millimeters.

// Unit represents the original unit of a length value as written in the markup.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers, cells for terminal backends
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

var unitSuffixes = []struct {
	suffix string
	unit   Unit
}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}}

// String returns the short suffix for u.
func (u Unit) String() string {
	for _, s := range unitSuffixes {
		if s.unit == u {
			return s.suffix
		}
	}
	return ""
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// ToMM converts l to millimeters. Unit-less values are returned as-is.
func (l Length) ToMM() float64 {
	switch l.Unit {
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * 25.4
	case UnitPT:
		return l.Value * PtToMm
	default:
		return l.Value
	}
}

// ToPT converts l to points. Unit-less values are treated as millimeters.
func (l Length) ToPT() float64 {
	if l.Unit == UnitPT {
		return l.Value
	}
	return l.ToMM() * MmToPt
}

// ParseLength parses strings like "12pt", "4mm", "1.5in" or "40".
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("长度为空")
	}
	unit := UnitNone
	for _, s := range unitSuffixes {
		if strings.HasSuffix(v, s.suffix) {
			unit = s.unit
			v = strings.TrimSpace(strings.TrimSuffix(v, s.suffix))
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Length{}, fmt.Errorf("长度 %s 无法解析: %w", value, err)
	}
	return Length{Value: f, Unit: unit}, nil
}

// parseLength is the lenient form used by the builder: invalid input yields 0.
func parseLength(value string) float64 {
	l, err := ParseLength(value)
	if err != nil {
		return 0
	}
	return l.ToMM()
}
