package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.Registry.TargetCompanies)
	assert.Equal(t, "https://data.gov.sg", cfg.Registry.DataGovBase)
	assert.Equal(t, 4, cfg.Enrich.Workers)
	assert.Equal(t, 100, cfg.Enrich.BatchSize)
	assert.Equal(t, 200, cfg.Enrich.MaxRecords)
	assert.Equal(t, 60, cfg.Enrich.TimeoutSecs)
	assert.Equal(t, 500, cfg.Enrich.DelayMillis)
	assert.True(t, cfg.Enrich.Enabled)
	assert.InDelta(t, 85.0, cfg.Match.Threshold, 0.001)
	assert.False(t, cfg.Classify.Enabled)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SGETL_MATCH_THRESHOLD", "92")
	t.Setenv("SGETL_STORE_DRIVER", "postgres")
	t.Setenv("SGETL_ENRICH_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 92.0, cfg.Match.Threshold, 0.001)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 8, cfg.Enrich.Workers)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	require.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}

func TestMain(m *testing.M) {
	// Run from a scratch dir so a developer's local config.yaml cannot leak
	// into the default-value assertions.
	dir, err := os.MkdirTemp("", "config-test")
	if err != nil {
		os.Exit(1)
	}
	defer os.RemoveAll(dir) //nolint:errcheck
	if err := os.Chdir(dir); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}
