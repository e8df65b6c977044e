package files

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// Discovery collects raw items from the local file system
type Discovery struct {
	basePath string
	logger   *slog.Logger
}

// NewDiscovery creates a new file discovery instance rooted at basePath
func NewDiscovery(basePath string, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{basePath: basePath, logger: logger}
}

// CollectFolder walks a folder recursively and returns every regular file with
// its path relative to the folder. Folder names are kept so that archive mode
// can read year and month segments from them.
func (d *Discovery) CollectFolder(dir string) ([]domain.RawItem, error) {
	root := d.resolve(dir)

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var items []domain.RawItem
	err = filepath.WalkDir(root, func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		payload, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		items = append(items, domain.RawItem{Path: filepath.ToSlash(rel), Payload: payload})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortItems(items)

	d.logger.Debug("Folder collected",
		slog.String("dir", root),
		slog.Int("items", len(items)))

	return items, nil
}

// CollectFiles reads an explicit list of files. Only base names are kept,
// which is what flat mode expects.
func (d *Discovery) CollectFiles(paths []string) ([]domain.RawItem, error) {
	items := make([]domain.RawItem, 0, len(paths))
	for _, p := range paths {
		full := d.resolve(p)
		payload, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", full, err)
		}
		items = append(items, domain.RawItem{Path: filepath.Base(full), Payload: payload})
	}
	return items, nil
}

// Collect dispatches on the input type: .zip archives are opened in memory,
// directories are walked and anything else is read as a single file.
func (d *Discovery) Collect(input string) ([]domain.RawItem, error) {
	full := d.resolve(input)
	info, err := os.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", full, err)
	}
	if info.IsDir() {
		return d.CollectFolder(full)
	}
	if strings.EqualFold(filepath.Ext(full), ".zip") {
		payload, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", full, err)
		}
		return OpenArchive(filepath.Base(full), payload)
	}
	return d.CollectFiles([]string{full})
}

func (d *Discovery) resolve(p string) string {
	if filepath.IsAbs(p) || d.basePath == "" {
		return p
	}
	return filepath.Join(d.basePath, p)
}

// sortItems orders items by path so that discovery order is deterministic
func sortItems(items []domain.RawItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Path < items[j].Path
	})
}
