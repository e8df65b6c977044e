package exporter

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{name: "nil", input: nil, expected: ""},
		{name: "string", input: "ABC", expected: "ABC"},
		{name: "integer decimal", input: decimal.NewFromInt(150), expected: "150"},
		{name: "negative decimal", input: decimal.NewFromInt(-5), expected: "-5"},
		{name: "fractional decimal keeps precision", input: decimal.RequireFromString("1234.567"), expected: "1234.567"},
		{name: "trailing zeros dropped", input: decimal.RequireFromString("12.500"), expected: "12.5"},
		{name: "percent fixed", input: percent(decimal.NewFromInt(75)), expected: "75.00"},
		{name: "percent rounded", input: percent(decimal.RequireFromString("33.333")), expected: "33.33"},
		{name: "int", input: 42, expected: "42"},
		{name: "int64", input: int64(-7), expected: "-7"},
		{name: "true", input: true, expected: "true"},
		{name: "false", input: false, expected: "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatCell(tt.input))
		})
	}
}

func TestCellValue(t *testing.T) {
	assert.Equal(t, 150.0, cellValue(decimal.NewFromInt(150)))
	assert.Equal(t, 33.33, cellValue(percent(decimal.RequireFromString("33.333"))))
	assert.Equal(t, "A", cellValue("A"))
	assert.Equal(t, true, cellValue(true))
}
