package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesFileValuesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
name = "test-server"

[network]
bind_address = "127.0.0.1:9000"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test-server", cfg.Server.Name)
	assert.Equal(t, "127.0.0.1:9000", cfg.Network.BindAddress)
	// Unset sections keep their defaults.
	assert.Equal(t, 10, cfg.TrustBoundary.KickThreshold)
	assert.Equal(t, 5*60, int(cfg.Session.PreserveExpiry.Seconds()))
}

func TestLoadReturnsErrorForMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestPathPrefersEnvOverFallback(t *testing.T) {
	t.Setenv(ConfigPathEnv, "/etc/authorityd/server.toml")
	assert.Equal(t, "/etc/authorityd/server.toml", Path("config/server.toml"))
}

func TestPathFallsBackWhenEnvUnset(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")
	assert.Equal(t, "config/server.toml", Path("config/server.toml"))
}
