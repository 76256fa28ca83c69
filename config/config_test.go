package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsFillGaps(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Mode)
	assert.Equal(t, 150, cfg.World.NodeCount)
	assert.Equal(t, 5, cfg.World.AgentCount)
	assert.Equal(t, 100*time.Millisecond, cfg.World.AgentTick)
	assert.Equal(t, 10000.0, cfg.Economy.MaxPot)
	assert.Equal(t, 5000.0, cfg.Economy.InitialPot)
	assert.Equal(t, 1000.0, cfg.Economy.AdRevenue)
	assert.Equal(t, 0.15, cfg.Events.StormChance)
	assert.Equal(t, 20*time.Second, cfg.Events.StormDuration)
	assert.Equal(t, 4*time.Second, cfg.Events.AdDuration)
	assert.Equal(t, 30*time.Second, cfg.Market.Interval)
}

func TestLoad_FileOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
economy:
  max_pot: 500
  tick: 250ms
market:
  endpoint: http://news.local/v1
  api_key: abc
security:
  allowed_origins: [http://localhost:3000]
`))
	require.NoError(t, err)
	assert.Equal(t, 500.0, cfg.Economy.MaxPot)
	assert.Equal(t, 250*time.Millisecond, cfg.Economy.Tick)
	assert.Equal(t, "abc", cfg.Market.APIKey)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Security.AllowedOrigins)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RIGWORLD_MARKET_API_KEY", "from-env")
	cfg, err := Load(writeConfig(t, "market:\n  api_key: from-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Market.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 98.0, cfg.World.Bound)
	assert.Equal(t, 0.1, cfg.Economy.DepletedFactor)
}
