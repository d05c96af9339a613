package server

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskpilot/deskpilot/internal/infrastructure/config"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Data.Dir = t.TempDir()
	cfg.RateLimit.Enabled = false
	return cfg
}

func TestNewCreatesDataLayout(t *testing.T) {
	cfg := testConfig(t)
	srv, err := New(cfg)
	require.NoError(t, err)

	assert.DirExists(t, cfg.SuggestionDir())
	assert.DirExists(t, cfg.AutomationDir())
	assert.FileExists(t, cfg.Database())

	require.NoError(t, srv.Close())
}

func TestCloseFlushesPatternState(t *testing.T) {
	cfg := testConfig(t)
	srv, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, srv.Close())

	assert.FileExists(t, filepath.Join(cfg.SuggestionDir(), "pattern_data.json"))

	// A second instance over the same data dir starts cleanly.
	srv2, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, srv2.Close())
}
