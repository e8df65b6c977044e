package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	baseDir string
	logger  *slog.Logger
}

// NewCSVWriter creates a CSV writer; relative file names resolve under baseDir
func NewCSVWriter(baseDir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{baseDir: baseDir, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
	Comma     rune
}

// WriteTable writes the table's headers and records to out in row order
func (w *CSVWriter) WriteTable(out io.Writer, table *Table, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if options.Comma != 0 {
		writer.Comma = options.Comma
	}

	if len(table.Headers) > 0 {
		if err := writer.Write(table.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range table.StringRecords() {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile writes the table to <baseDir>/<sheet>.csv with a BOM and returns the path
func (w *CSVWriter) WriteFile(table *Table) (string, error) {
	fullPath := w.resolvePath(table.Sheet + ".csv")

	w.logger.Info("Writing CSV file",
		slog.String("table", string(table.Name)),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(table.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if err := w.WriteTable(file, table, WriteOptions{BOMPrefix: true}); err != nil {
		file.Close()
		return "", err
	}
	return fullPath, file.Close()
}

func (w *CSVWriter) resolvePath(name string) string {
	if filepath.IsAbs(name) || w.baseDir == "" {
		return name
	}
	return filepath.Join(w.baseDir, name)
}
