package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	apperrors "github.com/MMucahit/borsa/internal/errors"
	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// Format is an export file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format taken from a file extension or flag
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case FormatXLSX, FormatCSV:
		return f, nil
	}
	return "", apperrors.NewValidationError(fmt.Sprintf("unsupported export format %q (expected xlsx or csv)", s))
}

// ContentType is the MIME type served for the format
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Exporter writes run tables in either format
type Exporter struct {
	csv    *CSVWriter
	xlsx   *XLSXWriter
	logger *slog.Logger
}

// New creates an exporter whose file output goes to dir
func New(dir string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		csv:    NewCSVWriter(dir, logger),
		xlsx:   NewXLSXWriter(dir, logger),
		logger: logger,
	}
}

// Write streams one table to out
func (e *Exporter) Write(out io.Writer, format Format, table *Table) error {
	var err error
	switch format {
	case FormatCSV:
		err = e.csv.WriteTable(out, table, WriteOptions{BOMPrefix: true})
	case FormatXLSX:
		err = e.xlsx.WriteWorkbook(out, table)
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return apperrors.NewExportError("failed to write "+string(table.Name), err).
			WithContext("format", string(format))
	}
	return nil
}

// ExportRun writes every table of the run into the output directory, one file per table,
// and returns the written paths in table order
func (e *Exporter) ExportRun(result *domain.Result, format Format) ([]string, error) {
	var paths []string
	for _, table := range RunTables(result) {
		var (
			path string
			err  error
		)
		switch format {
		case FormatCSV:
			path, err = e.csv.WriteFile(table)
		case FormatXLSX:
			path, err = e.xlsx.WriteFile(table.Sheet, table)
		default:
			return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported export format %q", format))
		}
		if err != nil {
			return paths, apperrors.NewExportError("failed to export "+string(table.Name), err).
				WithContext("run_id", result.RunID)
		}
		paths = append(paths, path)
	}

	e.logger.Info("Run exported",
		slog.String("run_id", result.RunID),
		slog.String("format", string(format)),
		slog.Int("files", len(paths)))
	return paths, nil
}
