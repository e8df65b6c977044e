// Package exporter renders reconciliation results as CSV files and Excel workbooks.
//
// Tables are built from a domain.Result with BuildTable or RunTables:
//
//	rows     Virman_Detay   one row per institution and period
//	summary  Virman_Ozet    one row per institution plus the TOPLAM row
//	volume   Hacim_Dagilim  per period volume shares, only for runs with hacim input
//
// Records keep the result's order. CSV output carries a UTF-8 BOM so Excel
// detects the encoding; workbook amounts are numeric cells.
//
// Example usage:
//
//	table, err := exporter.BuildTable(result, exporter.TableSummary)
//	if err != nil {
//		return err
//	}
//	err = exporter.New(dir, logger).Write(w, exporter.FormatXLSX, table)
package exporter
