package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rockaxx/freegames/internal/config"
	"github.com/rockaxx/freegames/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
debug: true
server:
  port: 9000
fetcher:
  timeout: 3s
  retries: 4
  proxy: socks5h://127.0.0.1:9050
aggregator:
  heartbeat_interval: 5s
sources:
  onlinefix:
    concurrency: 2
  ankergames:
    disabled: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileValuesAndDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 3*time.Second, cfg.Fetcher.Timeout)
	assert.Equal(t, 4, cfg.Fetcher.Retries)
	assert.Equal(t, 5*time.Minute, cfg.Fetcher.CacheTTL)
	assert.Equal(t, "socks5h://127.0.0.1:9050", cfg.Fetcher.Proxy)
	assert.Equal(t, 5*time.Second, cfg.Aggregator.HeartbeatInterval)
	assert.Equal(t, config.CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("FETCHER_TIMEOUT", "750ms")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := config.Load(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.Fetcher.Timeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, 4021, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Fetcher.Retries)
	assert.Equal(t, 12*time.Second, cfg.Fetcher.Timeout)
	assert.Equal(t, 15*time.Second, cfg.Aggregator.HeartbeatInterval)
	assert.Equal(t, config.DefaultUserAgent, cfg.Fetcher.UserAgent)
}

func TestLoad_RejectsUnknownSource(t *testing.T) {
	_, err := config.Load(writeConfig(t, "sources:\n  fitgirl:\n    concurrency: 2\n"))
	require.ErrorIs(t, err, game.ErrUnknownSource)
}

func TestLoad_RejectsUnknownCacheBackend(t *testing.T) {
	_, err := config.Load(writeConfig(t, "cache:\n  backend: memcached\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memcached")
}

func TestSource_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, testYAML))
	require.NoError(t, err)

	of := cfg.Source(game.OnlineFix)
	assert.Equal(t, 2, of.Concurrency)
	assert.Equal(t, "windows-1251", of.Charset)

	assert.True(t, cfg.Source(game.AnkerGames).Disabled)
	assert.Equal(t, 5, cfg.Source(game.Game3RB).Concurrency)
	assert.Equal(t, 3, cfg.Source(game.SteamUnderground).Concurrency)
	assert.Empty(t, cfg.Source(game.Game3RB).Charset)
}

func TestLoad_SourceEnvOverrides(t *testing.T) {
	t.Setenv("SOURCE_ONLINEFIX_CONCURRENCY", "1")
	t.Setenv("SOURCE_REPACKGAMES_DISABLED", "yes")
	t.Setenv("SOURCE_STEAMUNDERGROUND_PROXY", "socks5h://127.0.0.1:9050")

	cfg, err := config.Load(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Source(game.OnlineFix).Concurrency)
	assert.True(t, cfg.Source(game.RepackGames).Disabled)
	assert.Equal(t, "socks5h://127.0.0.1:9050", cfg.Source(game.SteamUnderground).Proxy)
	assert.True(t, cfg.Source(game.AnkerGames).Disabled)
}
