package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadTable decodes an .xlsx or .csv payload into a Table. The first row of
// the first worksheet is the header row, as the exchange exports it.
func ReadTable(name string, payload []byte) (*Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return readWorkbook(name, payload)
	case ".csv":
		return readCSV(name, payload)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(name))
	}
}

func readWorkbook(name string, payload []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	table := &Table{Name: name}
	if len(rows) == 0 {
		return table, nil
	}
	table.Headers = trimAll(rows[0])

	for r := 1; r < len(rows); r++ {
		if isBlank(rows[r]) {
			continue
		}
		row := make([]any, len(rows[r]))
		for c, raw := range rows[r] {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			row[c] = workbookCell(f, sheet, cell, raw)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// workbookCell keeps text cells as text so that locale-formatted strings like
// "1.234,56" reach the normalizer untouched, and turns numeric cells into float64.
func workbookCell(f *excelize.File, sheet, cell, raw string) any {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	cellType, err := f.GetCellType(sheet, cell)
	if err == nil {
		switch cellType {
		case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
			excelize.CellTypeFormula, excelize.CellTypeBool, excelize.CellTypeError:
			return raw
		}
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return v
	}
	return raw
}

func readCSV(name string, payload []byte) (*Table, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(payload, utf8BOM)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	table := &Table{Name: name}
	header, err := reader.Read()
	if err == io.EOF {
		return table, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	table.Headers = trimAll(header)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record %d: %w", len(table.Rows)+1, err)
		}
		if isBlank(record) {
			continue
		}
		row := make([]any, len(record))
		for i, v := range record {
			if strings.TrimSpace(v) != "" {
				row[i] = v
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
