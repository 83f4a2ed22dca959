package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	require.Equal(t, "tansakuu", cfg.Name)
	require.False(t, cfg.Log.Verbose)
	require.EqualValues(t, 1_000_000, cfg.Segment.MaxBuildingDocs)
	require.Empty(t, cfg.Indexes)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tansakuu.yaml")
	yamlBody := []byte(`
name: myengine
log:
  verbose: true
segment:
  max_building_docs: 128
indexes:
  body:
    tf: true
    fieldmask: true
    positions: true
`)
	require.NoError(t, os.WriteFile(path, yamlBody, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "myengine", cfg.Name)
	require.True(t, cfg.Log.Verbose)
	require.False(t, cfg.Log.Stdout)
	require.EqualValues(t, 128, cfg.Segment.MaxBuildingDocs)
	require.True(t, cfg.Indexes["body"].HasPositions)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
