package dataprocessing

import (
	"strconv"
	"strings"

	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// Table is a decoded tabular source with column-keyed row access.
// Cells hold float64 for numeric spreadsheet cells, string for text and nil for blanks.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// ColumnIndex finds a header by exact (trimmed) name, falling back to a
// case-insensitive match. It returns -1 when the column is absent.
func (t *Table) ColumnIndex(name string) int {
	want := strings.TrimSpace(name)
	for i, h := range t.Headers {
		if strings.TrimSpace(h) == want {
			return i
		}
	}
	for i, h := range t.Headers {
		if strings.EqualFold(strings.TrimSpace(h), want) {
			return i
		}
	}
	return -1
}

// RequireColumns resolves every named column or reports the first missing one
func (t *Table) RequireColumns(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = t.ColumnIndex(name)
		if idx[i] < 0 {
			return nil, domain.NewMissingColumnError(t.Name, name)
		}
	}
	return idx, nil
}

// Value returns the cell at row, col or nil when the row is short
func (t *Table) Value(row, col int) any {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return nil
	}
	return t.Rows[row][col]
}

// String returns the cell rendered as trimmed text. Whole numbers render
// without a fractional part so numeric institution codes stay readable.
func (t *Table) String(row, col int) string {
	switch v := t.Value(row, col).(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
