package directory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDirectoryWriteThenRead(t *testing.T) {
	d := NewMemDirectory()

	w, err := d.OpenWrite("term.dict")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	b, err := d.OpenRead("term.dict")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), b)
}

func TestMemDirectoryMissingFile(t *testing.T) {
	d := NewMemDirectory()
	_, err := d.OpenRead("missing")
	require.Error(t, err)
}

func TestMemDirectoryRemove(t *testing.T) {
	d := NewMemDirectory()
	w, err := d.OpenWrite("a")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.NoError(t, d.Remove("a"))
	_, err = d.OpenRead("a")
	require.Error(t, err)
}

func TestFSDirectoryWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	d, err := NewFSDirectory(dir)
	require.NoError(t, err)
	defer d.Close()

	w, err := d.OpenWrite("segment.posting")
	require.NoError(t, err)
	_, err = w.Write([]byte("posting-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	b, err := d.OpenRead("segment.posting")
	require.NoError(t, err)
	require.Equal(t, []byte("posting-bytes"), b)

	raw, err := os.ReadFile(filepath.Join(dir, "segment.posting"))
	require.NoError(t, err)
	require.Equal(t, []byte("posting-bytes"), raw)
}

func TestFSDirectoryEmptyFile(t *testing.T) {
	dir := t.TempDir()
	d, err := NewFSDirectory(dir)
	require.NoError(t, err)
	defer d.Close()

	w, err := d.OpenWrite("empty.positions")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	b, err := d.OpenRead("empty.positions")
	require.NoError(t, err)
	require.Empty(t, b)
}

func TestFSDirectoryRemove(t *testing.T) {
	dir := t.TempDir()
	d, err := NewFSDirectory(dir)
	require.NoError(t, err)
	defer d.Close()

	w, err := d.OpenWrite("gone")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.NoError(t, d.Remove("gone"))
	require.NoError(t, d.Remove("gone")) // idempotent
	_, err = d.OpenRead("gone")
	require.Error(t, err)
}
