package files

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// maxEntrySize bounds a single decompressed archive member
const maxEntrySize = 64 << 20

// OpenArchive reads every file entry of a zip payload into memory.
// Directory entries are dropped; paths keep their folder segments.
func OpenArchive(name string, payload []byte) ([]domain.RawItem, error) {
	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, domain.NewInvalidArchiveError(name, err)
	}

	items := make([]domain.RawItem, 0, len(reader.File))
	for _, f := range reader.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return nil, domain.NewInvalidArchiveError(name, fmt.Errorf("entry %s: %w", f.Name, err))
		}
		items = append(items, domain.RawItem{
			Path:    strings.TrimPrefix(strings.ReplaceAll(f.Name, "\\", "/"), "/"),
			Payload: data,
		})
	}

	sortItems(items)
	return items, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxEntrySize {
		return nil, fmt.Errorf("entry exceeds %d bytes", maxEntrySize)
	}
	return data, nil
}
