package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

func TestReadTableWorkbook(t *testing.T) {
	payload := workbook(t,
		[]any{"Kurum", " Takas "},
		[]any{"A", 1234.5},
		[]any{nil, nil},
		[]any{"B", "1.234,56"},
		[]any{1001, 10},
	)

	table, err := ReadTable("5 09.xlsx", payload)
	require.NoError(t, err)

	assert.Equal(t, []string{"Kurum", "Takas"}, table.Headers)
	require.Len(t, table.Rows, 3, "blank rows are dropped")

	assert.Equal(t, 1234.5, table.Value(0, 1))
	assert.Equal(t, "1.234,56", table.Value(1, 1), "text cells stay text")
	assert.Equal(t, "1001", table.String(2, 0))
	assert.Nil(t, table.Value(5, 0))
}

func TestReadTableCSV(t *testing.T) {
	payload := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Kurum;x,Takas\n\"A\",\"1.234,56\"\n,\n B ,7\nshort\n")...)

	table, err := ReadTable("5 09.CSV", payload)
	require.NoError(t, err)

	assert.Equal(t, []string{"Kurum;x", "Takas"}, table.Headers)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "1.234,56", table.Value(0, 1))
	assert.Equal(t, "B", table.String(1, 0))
	assert.Nil(t, table.Value(2, 1))
}

func TestReadTableErrors(t *testing.T) {
	_, err := ReadTable("notes.txt", []byte("x"))
	assert.Error(t, err)

	_, err = ReadTable("broken.xlsx", []byte("not a workbook"))
	assert.Error(t, err)

	table, err := ReadTable("empty.csv", nil)
	require.NoError(t, err)
	assert.Empty(t, table.Headers)
}

func TestTableColumns(t *testing.T) {
	table := &Table{Name: "2024/9/5 09.csv", Headers: []string{"kurum", "Takas", "Net"}}

	assert.Equal(t, 0, table.ColumnIndex("Kurum"), "case-insensitive fallback")
	assert.Equal(t, 2, table.ColumnIndex("Net"))
	assert.Equal(t, -1, table.ColumnIndex("Hacim"))

	idx, err := table.RequireColumns("Kurum", "Takas")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, idx)

	_, err = table.RequireColumns("Kurum", "Hacim")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingColumn)
	rerr, ok := domain.AsReconcileError(err)
	require.True(t, ok)
	assert.Equal(t, "Hacim", rerr.Column)
	assert.Equal(t, "2024/9/5 09.csv", rerr.Source)
}
