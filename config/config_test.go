package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	yaml := `
server:
  port: 9000
  rate_limit_per_sec: 20
shop:
  timezone: Asia/Bangkok
hours:
  open_hour: 11
  close_hour: 23
  slot_minutes: 30
  enabled: true
durations:
  - minutes: 30
    price_display: "150 THB"
  - minutes: 60
    price_display: "280 THB"
database:
  dsn: "file::memory:?cache=shared"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, float64(20), cfg.Server.RateLimitPerSec)
	assert.Equal(t, "Asia/Bangkok", cfg.Shop.Timezone)
	assert.Equal(t, 11, cfg.Hours.OpenHour)
	assert.True(t, cfg.Hours.Enabled)
	require.Len(t, cfg.Durations, 2)
	assert.Equal(t, "150 THB", cfg.Durations[0].PriceDisplay)

	// Defaults fill whatever the file left out.
	assert.Equal(t, 5, cfg.Server.RateLimitBurst)
	assert.Equal(t, "UTC", cfg.Shop.FallbackTimezone)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, 3600, cfg.Push.TTL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyDefaultsOnEmptyConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, float64(10), cfg.Server.RateLimitPerSec)
	assert.Equal(t, 15, cfg.Server.CacheTTLSeconds)
	assert.Equal(t, 10, cfg.Hours.OpenHour)
	assert.Equal(t, 22, cfg.Hours.CloseHour)
	assert.Equal(t, 30, cfg.Hours.SlotMinutes)
	assert.Equal(t, []DurationOption{{Minutes: 30}, {Minutes: 60}, {Minutes: 120}}, cfg.Durations)
}

func TestApplyDefaultsKeepsExplicitHours(t *testing.T) {
	cfg := Config{Hours: HoursConfig{Open24Hours: true}}
	cfg.ApplyDefaults()

	// A 24-hour shop keeps open/close at zero; the grid covers the
	// whole day.
	assert.True(t, cfg.Hours.Open24Hours)
	assert.Equal(t, 0, cfg.Hours.OpenHour)
	assert.Equal(t, 0, cfg.Hours.CloseHour)
}

func TestDurationAllowed(t *testing.T) {
	cfg := Config{Durations: []DurationOption{{Minutes: 30}, {Minutes: 60}}}

	assert.True(t, cfg.DurationAllowed(30))
	assert.True(t, cfg.DurationAllowed(60))
	assert.False(t, cfg.DurationAllowed(45))
	assert.False(t, cfg.DurationAllowed(0))
}
