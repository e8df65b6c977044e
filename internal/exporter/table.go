package exporter

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/MMucahit/borsa/internal/errors"
	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// TableName identifies an exportable result table
type TableName string

const (
	TableRows    TableName = "rows"
	TableSummary TableName = "summary"
	TableVolume  TableName = "volume"
)

// Sheet names follow the dashboard's download file names
const (
	SheetDetail  = "Virman_Detay"
	SheetSummary = "Virman_Ozet"
	SheetVolume  = "Hacim_Dagilim"
)

// TotalLabel marks the grand total row of the summary table
const TotalLabel = "TOPLAM"

// Table is a two-dimensional export with named columns.
// Record cells are strings, decimals, ints or bools.
type Table struct {
	Name    TableName
	Sheet   string
	Headers []string
	Records [][]any
}

// ParseTableName validates a table name taken from a request path or flag
func ParseTableName(s string) (TableName, error) {
	switch name := TableName(strings.ToLower(strings.TrimSpace(s))); name {
	case TableRows, TableSummary, TableVolume:
		return name, nil
	}
	return "", apperrors.NewValidationError(fmt.Sprintf("unknown table %q (expected rows, summary or volume)", s))
}

// BuildTable renders one table of a run result
func BuildTable(result *domain.Result, name TableName) (*Table, error) {
	if result == nil {
		return nil, apperrors.NewExportError("no result to export", nil)
	}
	switch name {
	case TableRows:
		return RowsTable(result.Rows), nil
	case TableSummary:
		return SummaryTable(result.Summaries, result.TotalResidual), nil
	case TableVolume:
		if !result.HasVolume() {
			return nil, apperrors.NewNotFoundError("volume table").
				WithContext("run_id", result.RunID)
		}
		return VolumeTable(result.Volume), nil
	}
	return nil, apperrors.NewValidationError(fmt.Sprintf("unknown table %q", name))
}

// RunTables returns every table a run produced, summary first
func RunTables(result *domain.Result) []*Table {
	tables := []*Table{
		SummaryTable(result.Summaries, result.TotalResidual),
		RowsTable(result.Rows),
	}
	if result.HasVolume() {
		tables = append(tables, VolumeTable(result.Volume))
	}
	return tables
}

// RowsTable is the per institution-period detail
func RowsTable(rows []domain.ReconciledRow) *Table {
	t := &Table{
		Name:    TableRows,
		Sheet:   SheetDetail,
		Headers: []string{"Kurum", "Donem", "AKD", "Takas_previous", "Takas_current", "Takas_Diff", "Net", "Virman"},
		Records: make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		t.Records = append(t.Records, []any{
			r.Institution, r.Period, r.AKDLabel,
			r.BalancePrevious, r.BalanceCurrent, r.Delta, r.ReportedNet, r.Residual,
		})
	}
	return t
}

// SummaryTable is the per institution control table followed by the grand total row
func SummaryTable(summaries []domain.InstitutionSummary, totalResidual decimal.Decimal) *Table {
	t := &Table{
		Name:  TableSummary,
		Sheet: SheetSummary,
		Headers: []string{
			"Kurum", "İlk Takas", "Son Takas", "Takas Değişimi",
			"Toplam Net", "Toplam Virman", "Fark (Kontrol)", "Dengeli",
		},
		Records: make([][]any, 0, len(summaries)+1),
	}
	for _, s := range summaries {
		t.Records = append(t.Records, []any{
			s.Institution, s.FirstBalance, s.LastBalance, s.NetChange,
			s.TotalReportedNet, s.TotalResidual, s.Control, s.Balanced,
		})
	}
	t.Records = append(t.Records, []any{TotalLabel, "", "", "", "", totalResidual, "", ""})
	return t
}

// VolumeTable is the per period volume distribution including the ALL rows
func VolumeTable(volume []domain.VolumeSummary) *Table {
	t := &Table{
		Name:    TableVolume,
		Sheet:   SheetVolume,
		Headers: []string{"Kurum", "Donem", "Hacim", "Pay (%)", "Toplam Hacim"},
		Records: make([][]any, 0, len(volume)),
	}
	for _, v := range volume {
		t.Records = append(t.Records, []any{
			v.Institution, v.Period, v.PeriodTotal, percent(v.SharePct), v.GrandTotal,
		})
	}
	return t
}

// percent keeps share values at two decimals in every format
type percent decimal.Decimal

// StringRecords returns the records with every cell formatted as text
func (t *Table) StringRecords() [][]string {
	out := make([][]string, len(t.Records))
	for i, rec := range t.Records {
		row := make([]string, len(rec))
		for j, cell := range rec {
			row[j] = formatCell(cell)
		}
		out[i] = row
	}
	return out
}
