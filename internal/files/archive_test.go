package files

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

func buildZip(t *testing.T, entries map[string]string, dirs ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, d := range dirs {
		_, err := zw.Create(d)
		require.NoError(t, err)
	}
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestOpenArchive(t *testing.T) {
	payload := buildZip(t, map[string]string{
		"Takas/2024/9/5 09.csv":  "Kurum,Takas\nA,1\n",
		"Takas/2024/9/12 09.csv": "Kurum,Takas\nA,2\n",
	}, "Takas/", "Takas/2024/")

	items, err := OpenArchive("takas.zip", payload)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Takas/2024/9/12 09.csv", items[0].Path)
	assert.Equal(t, "Kurum,Takas\nA,2\n", string(items[0].Payload))
}

func TestOpenArchiveInvalid(t *testing.T) {
	_, err := OpenArchive("broken.zip", []byte("not a zip"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidArchive)

	rerr, ok := domain.AsReconcileError(err)
	require.True(t, ok)
	assert.Equal(t, "broken.zip", rerr.Source)
}

func TestDiscoveryCollectFolder(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "2024", "9"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "2024", "9", "5 09.csv"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "top.csv"), []byte("y"), 0644))

	d := NewDiscovery("", nil)
	items, err := d.CollectFolder(root)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "2024/9/5 09.csv", items[0].Path)
	assert.Equal(t, "top.csv", items[1].Path)

	_, err = d.CollectFolder(filepath.Join(root, "top.csv"))
	assert.Error(t, err)
}

func TestDiscoveryCollect(t *testing.T) {
	root := t.TempDir()
	zipPath := filepath.Join(root, "akd.zip")
	require.NoError(t, os.WriteFile(zipPath, buildZip(t, map[string]string{"2024/1/2-5 01.csv": "a"}), 0644))
	filePath := filepath.Join(root, "loose", "3 01.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
	require.NoError(t, os.WriteFile(filePath, []byte("b"), 0644))

	d := NewDiscovery(root, nil)

	items, err := d.Collect("akd.zip")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2024/1/2-5 01.csv", items[0].Path)

	items, err = d.Collect(filePath)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "3 01.csv", items[0].Path)

	_, err = d.Collect("missing")
	assert.Error(t, err)
}

func TestWorkspace(t *testing.T) {
	base := t.TempDir()
	ws, err := NewWorkspace(base, "abc", nil)
	require.NoError(t, err)
	assert.DirExists(t, ws.Dir())
	assert.Contains(t, filepath.Base(ws.Dir()), "run-abc-")

	dir, skipped, err := ws.Extract(domain.SourceKindTakas, []domain.RawItem{{Path: "2024/9/5 09.csv", Payload: []byte("x")}})
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.FileExists(t, filepath.Join(dir, "2024", "9", "5 09.csv"))

	_, _, err = ws.Extract(domain.SourceKindTakas, []domain.RawItem{{Path: "../../escape.csv", Payload: []byte("x")}})
	assert.Error(t, err)

	require.NoError(t, ws.Close())
	assert.NoDirExists(t, ws.Dir())
}

func TestWorkspaceExtractKeepsFirstDuplicate(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), "dup", nil)
	require.NoError(t, err)
	defer ws.Close()

	dir, skipped, err := ws.Extract(domain.SourceKindAKD, []domain.RawItem{
		{Path: "2-6 09.csv", Payload: []byte("first")},
		{Path: "9-13 09.csv", Payload: []byte("other")},
		{Path: "./2-6 09.csv", Payload: []byte("second")},
	})
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "2-6 09.csv"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))
	assert.FileExists(t, filepath.Join(dir, "9-13 09.csv"))

	require.Len(t, skipped, 1)
	assert.Equal(t, "./2-6 09.csv", skipped[0].Path)
	assert.Equal(t, domain.SourceKindAKD, skipped[0].Kind)
	assert.Contains(t, skipped[0].Reason, "duplicate")
}

func TestWorkspacesAreIsolated(t *testing.T) {
	base := t.TempDir()
	a, err := NewWorkspace(base, "same", nil)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewWorkspace(base, "same", nil)
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, a.Dir(), b.Dir())
}
