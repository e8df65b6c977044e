package exporter

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// formatDecimal formats an amount without trailing zeros
func formatDecimal(d decimal.Decimal) string {
	return d.String()
}

// formatPercent formats a share with exactly 2 decimal places
func formatPercent(p percent) string {
	return decimal.Decimal(p).StringFixed(2)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case decimal.Decimal:
		return formatDecimal(c)
	case percent:
		return formatPercent(c)
	case int:
		return formatInt(int64(c))
	case int64:
		return formatInt(c)
	case bool:
		return formatBool(c)
	default:
		return fmt.Sprint(c)
	}
}

// cellValue converts a record cell into the value excelize stores; amounts become numbers
func cellValue(v any) any {
	switch c := v.(type) {
	case decimal.Decimal:
		return c.InexactFloat64()
	case percent:
		return decimal.Decimal(c).Round(2).InexactFloat64()
	default:
		return v
	}
}
