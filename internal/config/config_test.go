package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Engine.PollInterval)
	assert.Equal(t, 0.15, cfg.Engine.StopLossPct)
	assert.Equal(t, 24*time.Hour, cfg.Engine.MaxHoldDuration)
	assert.Equal(t, 0.70, cfg.Scoring.AcceptanceThreshold)
	assert.Equal(t, 0.10, cfg.Risk.MaxAllocationPerToken)
	assert.Equal(t, 0.01, cfg.Risk.MinTradeSize)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.True(t, cfg.Venue.UseStub)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
engine:
  poll_interval: 500ms
  stop_loss_pct: 0.10
risk:
  max_open_positions: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Engine.PollInterval)
	assert.Equal(t, 0.10, cfg.Engine.StopLossPct)
	assert.Equal(t, 3, cfg.Risk.MaxOpenPositions)
	// Untouched keys keep their defaults.
	assert.Equal(t, 0.50, cfg.Engine.TakeProfitPct)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero poll interval", func(c *Config) { c.Engine.PollInterval = 0 }},
		{"stop loss at 100%", func(c *Config) { c.Engine.StopLossPct = 1.0 }},
		{"negative take profit", func(c *Config) { c.Engine.TakeProfitPct = -0.1 }},
		{"threshold above 1", func(c *Config) { c.Scoring.AcceptanceThreshold = 1.5 }},
		{"zero per-token cap", func(c *Config) { c.Risk.MaxAllocationPerToken = 0 }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "cassandra" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
