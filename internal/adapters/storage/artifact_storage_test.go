package storage

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte("Id,SalePrice\n1,2\n"), 0o644))

	rc, err := Open(path)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "Id,SalePrice\n1,2\n", string(data))
}

func TestOpen_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gw := gzip.NewWriter(f)
	_, err = gw.Write([]byte(`{"kind":"linear"}`))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, f.Close())

	rc, err := Open(path)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"kind":"linear"}`, string(data))
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	ok, err := Exists(path)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Exists(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Exists(dir)
	require.NoError(t, err)
	assert.False(t, ok, "directories are not artifacts")
}

func TestDefaultPath_UsesXDGDataHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")

	path, err := DefaultPath(DefaultModelFile)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg/mhouse/model.json", path)
}
