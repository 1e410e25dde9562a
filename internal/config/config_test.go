package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.json"))
	require.NoError(t, err)
	assert.Equal(t, Default().ListenAddr, cfg.ListenAddr)
	assert.Equal(t, CacheBackendMemory, cfg.CacheBackend)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crawlkit.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"listenAddr": ":9090", "cacheBackend": "sqlite"}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, CacheBackendSQLite, cfg.CacheBackend)
	assert.Equal(t, Default().MaxConcurrent, cfg.MaxConcurrent)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crawlkit.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"listenAddr": ":9090"}`), 0644))

	t.Setenv("CRAWLKIT_LISTEN_ADDR", ":7070")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr)
}

func TestMergeKeepsUnsetFieldsFromBase(t *testing.T) {
	base := Default()
	override := Config{ListenAddr: ":1234"}
	merged := base.Merge(override)
	assert.Equal(t, ":1234", merged.ListenAddr)
	assert.Equal(t, base.DataPath, merged.DataPath)
	assert.Equal(t, base.MaxConcurrent, merged.MaxConcurrent)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	cfg := Default()
	cfg.ListenAddr = ":4321"
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":4321", loaded.ListenAddr)
}
