package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dataDir: /var/lib/collabkit
logLevel: debug
logJSON: true
repairInterval: 30s
rowCacheSize: 5000
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Config{
		DataDir:        "/var/lib/collabkit",
		LogLevel:       "debug",
		LogJSON:        true,
		RepairInterval: 30 * time.Second,
		RowCacheSize:   5000,
	}, cfg)
}

func TestLoadPartialFileKeepsRemainingDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logLevel: warn\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, defaultDataDir, cfg.DataDir)
	require.Equal(t, defaultRepairInterval, cfg.RepairInterval)
	require.Equal(t, defaultRowCacheSize, cfg.RowCacheSize)
}

func TestLoadInvalidYAMLReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dataDir: [unclosed\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
