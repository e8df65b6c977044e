package testutil

import (
	"archive/zip"
	"bytes"
	"sort"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ZipArchive builds an in-memory zip archive. Keys are slash separated entry
// paths and are written in sorted order.
func ZipArchive(t testing.TB, entries map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(entries[name])); err != nil {
			t.Fatalf("write zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// Workbook builds an xlsx payload whose first sheet holds rows in order
func Workbook(t testing.TB, rows ...[]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// ReconcileArchives returns a matching Takas and AKD archive pair covering
// three September 2024 snapshots. Institution A moves 100 -> 150 -> 120 and
// reports exactly that, institution B moves 50 -> 40 -> 40 but reports -5 for
// the first period, leaving an unexplained -5.
func ReconcileArchives(t testing.TB) (takas, akd []byte) {
	t.Helper()

	takas = ZipArchive(t, map[string]string{
		"2024/9/2 09.csv":  "Kurum,Takas\nA,100\nB,50\n",
		"2024/9/9 09.csv":  "Kurum,Takas\nA,150\nB,40\n",
		"2024/9/16 09.csv": "Kurum,Takas\nA,120\nB,40\n",
	})
	akd = ZipArchive(t, map[string]string{
		"2024/9/2-6 09.csv":  "Kurum,Net\nA,50\nB,-5\n",
		"2024/9/9-13 09.csv": "Kurum,Net\nA,-30\nB,0\n",
	})
	return takas, akd
}

// VolumeArchive returns a Hacim archive for the periods of ReconcileArchives
func VolumeArchive(t testing.TB) []byte {
	t.Helper()

	return ZipArchive(t, map[string]string{
		"2024/9/2-6 09.csv":  "Kurum,Hacim\nA,300\nB,100\n",
		"2024/9/9-13 09.csv": "Kurum,Hacim\nA,50\nB,150\n",
	})
}
