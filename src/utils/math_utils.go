package utils

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var amountReplacer = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "")

// ParseAmount coerces a cell or JSON value into a decimal amount.
// Blank or non-numeric input yields zero.
func ParseAmount(v any) decimal.Decimal {
	d, ok := parseDecimal(v)
	if !ok {
		return decimal.Zero
	}
	return d
}

// ParseOptionalAmount is ParseAmount for optional columns: blank or
// non-numeric input yields nil instead of zero.
func ParseOptionalAmount(v any) *decimal.Decimal {
	d, ok := parseDecimal(v)
	if !ok {
		return nil
	}
	return &d
}

func parseDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return t, true
	case json.Number:
		return parseDecimalString(t.String())
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(t), true
	case float32:
		return parseDecimal(float64(t))
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case string:
		return parseDecimalString(t)
	default:
		return decimal.Zero, false
	}
}

func parseDecimalString(s string) (decimal.Decimal, bool) {
	s = amountReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
