package dataprocessing

import (
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Normalize converts a cell value from a Takas or Hacim export into a decimal.
//
// Numeric values pass through unchanged. Strings are read in Turkish locale
// format: every "." is a thousands separator and is dropped, every "," is the
// decimal marker. Missing and unparsable values become zero without error;
// upstream exports are allowed to be dirty.
func Normalize(v any) decimal.Decimal {
	if d, ok := numeric(v); ok {
		return d
	}
	s, ok := v.(string)
	if !ok {
		return decimal.Zero
	}
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return parseOrZero(s)
}

// NormalizeNet converts an AKD reported-net cell. Numbers pass through and
// strings are parsed as plain numbers with no locale cleanup.
func NormalizeNet(v any) decimal.Decimal {
	if d, ok := numeric(v); ok {
		return d
	}
	s, ok := v.(string)
	if !ok {
		return decimal.Zero
	}
	return parseOrZero(strings.TrimSpace(s))
}

func parseOrZero(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func numeric(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, true
	case float64:
		return fromFloat(t), true
	case float32:
		return fromFloat(float64(t)), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int8:
		return decimal.NewFromInt(int64(t)), true
	case int16:
		return decimal.NewFromInt(int64(t)), true
	case int32:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case uint:
		return fromUint(uint64(t)), true
	case uint8:
		return fromUint(uint64(t)), true
	case uint16:
		return fromUint(uint64(t)), true
	case uint32:
		return fromUint(uint64(t)), true
	case uint64:
		return fromUint(t), true
	}
	return decimal.Zero, false
}

// NaN and infinities are "missing" in spreadsheet terms
func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func fromUint(u uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0)
}
