package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *Table {
	return &Table{
		Name:    TableRows,
		Sheet:   SheetDetail,
		Headers: []string{"Kurum", "Virman"},
		Records: [][]any{
			{"B", decimal.NewFromInt(-5)},
			{"A", decimal.Zero},
			{"Ç, Yatırım", decimal.RequireFromString("10.25")},
		},
	}
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVWriter_WriteTable(t *testing.T) {
	w := NewCSVWriter("", nil)

	t.Run("preserves header and row order", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, w.WriteTable(&buf, sampleTable(), WriteOptions{}))

		records := readCSV(t, buf.Bytes())
		assert.Equal(t, [][]string{
			{"Kurum", "Virman"},
			{"B", "-5"},
			{"A", "0"},
			{"Ç, Yatırım", "10.25"},
		}, records)
	})

	t.Run("BOM prefix", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, w.WriteTable(&buf, sampleTable(), WriteOptions{BOMPrefix: true}))

		assert.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))
		records := readCSV(t, bytes.TrimPrefix(buf.Bytes(), utf8BOM))
		assert.Len(t, records, 4)
	})

	t.Run("custom separator", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, w.WriteTable(&buf, sampleTable(), WriteOptions{Comma: ';'}))

		assert.Contains(t, buf.String(), "Kurum;Virman\n")
		assert.Contains(t, buf.String(), "Ç, Yatırım;10.25\n")
	})

	t.Run("empty table writes headers only", func(t *testing.T) {
		var buf bytes.Buffer
		table := &Table{Name: TableRows, Sheet: SheetDetail, Headers: []string{"Kurum"}}
		require.NoError(t, w.WriteTable(&buf, table, WriteOptions{}))
		assert.Equal(t, "Kurum\n", buf.String())
	})
}

func TestCSVWriter_WriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := NewCSVWriter(dir, nil)

	path, err := w.WriteFile(sampleTable())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, SheetDetail+".csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))
	assert.Len(t, readCSV(t, bytes.TrimPrefix(data, utf8BOM)), 4)
}
