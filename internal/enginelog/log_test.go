package enginelog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Options{Dir: dir, Name: "tansakuu", Verbose: true})
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, logger.Sync())

	matches, err := filepath.Glob(filepath.Join(dir, "tansakuu.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestNewStdoutWhenNoDir(t *testing.T) {
	logger, err := New(Options{Name: "tansakuu"})
	require.NoError(t, err)
	require.NotNil(t, logger)
}
