package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/MMucahit/borsa/internal/errors"
	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func sampleResult(withVolume bool) *domain.Result {
	r := &domain.Result{
		RunID: "run-1",
		Rows: []domain.ReconciledRow{
			{Institution: "A", Period: "2.9.2024 - 9.9.2024", AKDLabel: "2-6.9.2024",
				BalancePrevious: d(100), BalanceCurrent: d(150), Delta: d(50), ReportedNet: d(50), Residual: d(0)},
			{Institution: "B", Period: "2.9.2024 - 9.9.2024", AKDLabel: "2-6.9.2024",
				BalancePrevious: d(50), BalanceCurrent: d(40), Delta: d(-10), ReportedNet: d(-5), Residual: d(-5)},
		},
		Summaries: []domain.InstitutionSummary{
			{Institution: "A", FirstBalance: d(100), LastBalance: d(150), NetChange: d(50),
				TotalReportedNet: d(50), TotalResidual: d(0), Control: d(0), Balanced: true},
			{Institution: "B", FirstBalance: d(50), LastBalance: d(40), NetChange: d(-10),
				TotalReportedNet: d(-5), TotalResidual: d(-5), Control: d(-5), Balanced: false},
		},
		TotalResidual: d(-5),
	}
	if withVolume {
		r.VolumeSources = []domain.SourceRef{{Label: "2-6.9.2024", Kind: domain.SourceKindHacim}}
		r.Volume = []domain.VolumeSummary{
			{Institution: "A", PeriodTotal: d(300), SharePct: d(75), GrandTotal: d(400), Period: "2-6.9.2024"},
			{Institution: "B", PeriodTotal: d(100), SharePct: d(25), GrandTotal: d(400), Period: "2-6.9.2024"},
			{Institution: domain.AllInstitutions, PeriodTotal: d(400), SharePct: d(100), GrandTotal: d(400), Period: "2-6.9.2024"},
		}
	}
	return r
}

func TestParseTableName(t *testing.T) {
	tests := []struct {
		input   string
		want    TableName
		wantErr bool
	}{
		{input: "rows", want: TableRows},
		{input: "Summary", want: TableSummary},
		{input: " volume ", want: TableVolume},
		{input: "deltas", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTableName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(".XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	assert.Contains(t, f.ContentType(), "text/csv")

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestBuildTable(t *testing.T) {
	result := sampleResult(false)

	t.Run("rows keep result order", func(t *testing.T) {
		table, err := BuildTable(result, TableRows)
		require.NoError(t, err)
		assert.Equal(t, SheetDetail, table.Sheet)
		require.Len(t, table.Records, 2)

		records := table.StringRecords()
		assert.Equal(t, []string{"A", "2.9.2024 - 9.9.2024", "2-6.9.2024", "100", "150", "50", "50", "0"}, records[0])
		assert.Equal(t, []string{"B", "2.9.2024 - 9.9.2024", "2-6.9.2024", "50", "40", "-10", "-5", "-5"}, records[1])
	})

	t.Run("summary ends with grand total", func(t *testing.T) {
		table, err := BuildTable(result, TableSummary)
		require.NoError(t, err)
		assert.Equal(t, SheetSummary, table.Sheet)
		require.Len(t, table.Records, 3)

		records := table.StringRecords()
		assert.Equal(t, "B", records[1][0])
		assert.Equal(t, "-5", records[1][6])
		assert.Equal(t, "false", records[1][7])
		assert.Equal(t, []string{TotalLabel, "", "", "", "", "-5", "", ""}, records[2])
	})

	t.Run("volume missing", func(t *testing.T) {
		_, err := BuildTable(result, TableVolume)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	})

	t.Run("volume present", func(t *testing.T) {
		table, err := BuildTable(sampleResult(true), TableVolume)
		require.NoError(t, err)
		records := table.StringRecords()
		require.Len(t, records, 3)
		assert.Equal(t, []string{"A", "2-6.9.2024", "300", "75.00", "400"}, records[0])
		assert.Equal(t, domain.AllInstitutions, records[2][0])
	})

	t.Run("nil result", func(t *testing.T) {
		_, err := BuildTable(nil, TableRows)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeExport))
	})
}

func TestRunTables(t *testing.T) {
	tables := RunTables(sampleResult(false))
	require.Len(t, tables, 2)
	assert.Equal(t, TableSummary, tables[0].Name)
	assert.Equal(t, TableRows, tables[1].Name)

	assert.Len(t, RunTables(sampleResult(true)), 3)
}

func TestExporter_WriteXLSX(t *testing.T) {
	table, err := BuildTable(sampleResult(false), TableSummary)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, New("", nil).Write(&buf, FormatXLSX, table))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary}, f.GetSheetList())
	rows, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Kurum", rows[0][0])
	assert.Equal(t, "Fark (Kontrol)", rows[0][6])
	assert.Equal(t, "A", rows[1][0])
	assert.Equal(t, "150", rows[1][2])
	assert.Equal(t, TotalLabel, rows[3][0])

	cellType, err := f.GetCellType(SheetSummary, "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, cellType)
}

func TestExporter_WriteCSV(t *testing.T) {
	table, err := BuildTable(sampleResult(false), TableRows)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, New("", nil).Write(&buf, FormatCSV, table))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))
	assert.Len(t, readCSV(t, bytes.TrimPrefix(buf.Bytes(), utf8BOM)), 3)

	err = New("", nil).Write(&buf, Format("pdf"), table)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestExporter_ExportRun(t *testing.T) {
	tests := []struct {
		format Format
		files  []string
	}{
		{format: FormatXLSX, files: []string{SheetSummary + ".xlsx", SheetDetail + ".xlsx", SheetVolume + ".xlsx"}},
		{format: FormatCSV, files: []string{SheetSummary + ".csv", SheetDetail + ".csv", SheetVolume + ".csv"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			dir := t.TempDir()
			paths, err := New(dir, nil).ExportRun(sampleResult(true), tt.format)
			require.NoError(t, err)
			require.Len(t, paths, len(tt.files))
			for i, name := range tt.files {
				assert.Equal(t, filepath.Join(dir, name), paths[i])
				_, err := os.Stat(paths[i])
				assert.NoError(t, err)
			}
		})
	}
}
