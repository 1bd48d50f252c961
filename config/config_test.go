package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("database_path: /tmp/custom.db\nretriever:\n  mode: keyword\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", cfg.DatabasePath)
	assert.Equal(t, "keyword", cfg.Retriever.Mode)

	// Unset fields keep their defaults
	def := Default()
	assert.Equal(t, def.Embedder.Host, cfg.Embedder.Host)
	assert.Equal(t, def.Embedder.Model, cfg.Embedder.Model)
	assert.Equal(t, def.Retriever.DenseWeight, cfg.Retriever.DenseWeight)
	assert.Equal(t, def.Splitter.ChunkSize, cfg.Splitter.ChunkSize)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n\t- broken"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	saved := Default()
	saved.DatabasePath = "/data/retrievit"
	saved.Retriever.Mode = "semantic"
	saved.Splitter.ChunkSize = 500

	require.NoError(t, Save(path, saved))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "retrievit.db", cfg.DatabasePath)
	assert.Equal(t, "hybrid", cfg.Retriever.Mode)
	assert.InDelta(t, 1.0, cfg.Retriever.DenseWeight+cfg.Retriever.SparseWeight, 1e-9)
	assert.Greater(t, cfg.Splitter.ChunkSize, cfg.Splitter.ChunkOverlap)
	assert.NotEmpty(t, cfg.Embedder.APIKeyEnv)
}
