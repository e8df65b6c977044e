package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// XLSXWriter renders tables as Excel workbooks, one sheet per table
type XLSXWriter struct {
	baseDir string
	logger  *slog.Logger
}

// NewXLSXWriter creates a workbook writer; file names resolve under baseDir
func NewXLSXWriter(baseDir string, logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{baseDir: baseDir, logger: logger}
}

// WriteWorkbook writes the tables as sheets of a single workbook, in argument order
func (w *XLSXWriter) WriteWorkbook(out io.Writer, tables ...*Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, table := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), table.Sheet); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", table.Sheet, err)
			}
		} else if _, err := f.NewSheet(table.Sheet); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", table.Sheet, err)
		}
		if err := writeSheet(f, table, header); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, table *Table, headerStyle int) error {
	headers := make([]any, len(table.Headers))
	for i, h := range table.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(table.Sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write %s headers: %w", table.Sheet, err)
	}
	if len(headers) > 0 {
		last, err := excelize.CoordinatesToCellName(len(headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(table.Sheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style %s headers: %w", table.Sheet, err)
		}
	}

	for r, rec := range table.Records {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := make([]any, len(rec))
		for c, v := range rec {
			values[c] = cellValue(v)
		}
		if err := f.SetSheetRow(table.Sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", table.Sheet, r+1, err)
		}
	}
	return nil
}

// WriteFile writes the tables to <baseDir>/<name>.xlsx and returns the path
func (w *XLSXWriter) WriteFile(name string, tables ...*Table) (string, error) {
	fullPath := filepath.Join(w.baseDir, name+".xlsx")

	w.logger.Info("Writing workbook",
		slog.String("full_path", fullPath),
		slog.Int("sheet_count", len(tables)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if err := w.WriteWorkbook(file, tables...); err != nil {
		file.Close()
		return "", err
	}
	return fullPath, file.Close()
}
