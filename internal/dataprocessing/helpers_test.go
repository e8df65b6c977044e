package dataprocessing

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// csvSource builds an in-memory csv source. Rows are "institution,amount" pairs.
func csvSource(kind domain.SourceKind, day int, header string, rows ...string) domain.DatedSource {
	name := fmt.Sprintf("%d 09.csv", day)
	label := fmt.Sprintf("%d.9.2024", day)
	if kind.IsRange() {
		name = fmt.Sprintf("%d-%d 09.csv", day, day+4)
		label = fmt.Sprintf("%d-%d.9.2024", day, day+4)
	}
	return domain.DatedSource{
		Key:     domain.PeriodKey{Year: 2024, Month: 9, Day: day},
		EndDay:  day,
		Label:   label,
		Name:    name,
		Path:    "2024/9/" + name,
		Kind:    kind,
		Payload: []byte(header + "\n" + strings.Join(rows, "\n") + "\n"),
	}
}

func takas(day int, rows ...string) domain.DatedSource {
	return csvSource(domain.SourceKindTakas, day, "Kurum,Takas", rows...)
}

func akd(day int, rows ...string) domain.DatedSource {
	return csvSource(domain.SourceKindAKD, day, "Kurum,Net", rows...)
}

func hacim(day int, rows ...string) domain.DatedSource {
	return csvSource(domain.SourceKindHacim, day, "Kurum,Hacim", rows...)
}

// workbook writes header and rows to the first sheet and returns the xlsx bytes
func workbook(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
