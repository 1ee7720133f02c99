package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.Defaults.BigBlind)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "server.hcl")
	content := `
server {
  addr      = ":9090"
  log_level = "debug"
}

defaults {
  small_blind = 25
  big_blind   = 50
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 25, cfg.Defaults.SmallBlind)
	assert.Equal(t, 50, cfg.Defaults.BigBlind)

	// Buy-in bounds derive from the big blind when unspecified.
	assert.Equal(t, 2500, cfg.Defaults.MinBuyIn)
	assert.Equal(t, 10000, cfg.Defaults.MaxBuyIn)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigRejectsBadHCL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.hcl")
	require.NoError(t, os.WriteFile(path, []byte("server {"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Defaults.MinBuyIn = 5000
	cfg.Defaults.MaxBuyIn = 100
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Defaults.MaxPlayers = 11
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Defaults.SmallBlind = 50
	cfg.Defaults.BigBlind = 10
	assert.Error(t, cfg.Validate())
}
