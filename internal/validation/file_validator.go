package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// inputExtensions lists the file types a reconciliation input may point at
var inputExtensions = map[string]bool{
	".zip":  true,
	".xlsx": true,
	".csv":  true,
}

// FileValidator checks local paths handed to the CLI and the server
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInput accepts a directory, a zip archive or a single xlsx/csv file.
// Office lock files ("~$...") are rejected.
func (v *FileValidator) ValidateInput(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		v.logger.Error("Input does not exist", slog.String("path", path))
		return fmt.Errorf("input %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Debug("Input directory validated", slog.String("directory", path))
		return nil
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		return fmt.Errorf("input %s is a temporary office file", path)
	}
	ext := strings.ToLower(filepath.Ext(base))
	if !inputExtensions[ext] {
		v.logger.Error("Unsupported input type",
			slog.String("path", path),
			slog.String("extension", ext))
		return fmt.Errorf("input %s must be a folder, .zip, .xlsx or .csv file (got %q)", path, ext)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("input %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("Input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures dir exists, creating it if needed, and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	file, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	name := file.Name()
	file.Close()
	os.Remove(name)

	return nil
}
