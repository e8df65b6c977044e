package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileValidator_ValidateInput(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
		return p
	}

	tests := []struct {
		name          string
		path          string
		wantErr       bool
		errorContains string
	}{
		{name: "directory", path: dir},
		{name: "zip archive", path: write("takas.zip")},
		{name: "workbook", path: write("2 09.xlsx")},
		{name: "csv upper case", path: write("2-6 09.CSV")},
		{name: "missing", path: filepath.Join(dir, "nope.zip"), wantErr: true, errorContains: "does not exist"},
		{name: "lock file", path: write("~$2 09.xlsx"), wantErr: true, errorContains: "temporary office file"},
		{name: "unsupported extension", path: write("notes.txt"), wantErr: true, errorContains: ".zip, .xlsx or .csv"},
	}

	v := NewFileValidator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateInput(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(nil)

	t.Run("creates nested directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "reports", "2024")
		require.NoError(t, v.ValidateOutputDirectory(dir))
		assert.DirExists(t, dir)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "write probe must be removed")
	})

	t.Run("path is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, nil, 0644))
		err := v.ValidateOutputDirectory(file)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create output directory")
	})

	t.Run("empty uses temp dir", func(t *testing.T) {
		assert.NoError(t, v.ValidateOutputDirectory(""))
	})
}
