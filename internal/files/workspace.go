package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// Workspace is a per-run scratch directory. Each run gets its own folder so
// concurrent runs never share extracted files.
type Workspace struct {
	dir    string
	logger *slog.Logger
}

// NewWorkspace creates a fresh directory under baseDir (os.TempDir when empty)
func NewWorkspace(baseDir, runID string, logger *slog.Logger) (*Workspace, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if baseDir != "" {
		if err := os.MkdirAll(baseDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create workspace root: %w", err)
		}
	}
	dir, err := os.MkdirTemp(baseDir, "run-"+runID+"-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	logger.Debug("Workspace created", slog.String("dir", dir), slog.String("run_id", runID))
	return &Workspace{dir: dir, logger: logger}, nil
}

// Dir returns the workspace root
func (w *Workspace) Dir() string {
	return w.dir
}

// Extract writes items of one kind below the workspace root and returns
// that folder. Entries escaping the root are rejected. An item whose path
// was already written by an earlier item is not overwritten; it is
// returned as skipped instead.
func (w *Workspace) Extract(kind domain.SourceKind, items []domain.RawItem) (string, []domain.SkippedItem, error) {
	target := filepath.Join(w.dir, string(kind))
	written := make(map[string]bool, len(items))
	var skipped []domain.SkippedItem
	for _, item := range items {
		dst := filepath.Join(target, filepath.FromSlash(item.Path))
		if !within(target, dst) {
			return "", nil, fmt.Errorf("illegal path in archive: %s", item.Path)
		}
		if written[dst] {
			skipped = append(skipped, domain.SkippedItem{
				Path:   item.Path,
				Kind:   kind,
				Reason: "duplicate file name, an earlier upload with the same path was kept",
			})
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return "", nil, fmt.Errorf("failed to create directory: %w", err)
		}
		if err := os.WriteFile(dst, item.Payload, 0644); err != nil {
			return "", nil, fmt.Errorf("failed to write %s: %w", dst, err)
		}
		written[dst] = true
	}

	w.logger.Info("Items extracted",
		slog.String("dir", target),
		slog.Int("count", len(written)),
		slog.Int("duplicates", len(skipped)))
	return target, skipped, nil
}

// Close removes the workspace and everything in it
func (w *Workspace) Close() error {
	if w == nil || w.dir == "" {
		return nil
	}
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("failed to remove workspace: %w", err)
	}
	w.logger.Debug("Workspace removed", slog.String("dir", w.dir))
	return nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
