package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, "classquotes", cfg.App.Name)
	assert.Equal(t, "local", cfg.App.Environment)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Log.File.Enabled)

	assert.Equal(t, DefaultStorageDriver, cfg.Storage.Driver)
	assert.Equal(t, DefaultStoragePath, cfg.Storage.Path)
	assert.EqualValues(t, DefaultStorageMaxConns, cfg.Storage.MaxConns)

	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, "admin", cfg.Auth.AdminRole)
	assert.Equal(t, "X-User-Roles", cfg.Auth.RolesHeader)

	assert.Equal(t, "http://localhost:8080", cfg.Client.BaseURL)
	assert.NotEmpty(t, cfg.Client.CachePath)
	assert.Equal(t, DefaultClientRetryMaxAttempts, cfg.Client.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Client.Retry.InitialInterval)
	assert.Equal(t, DefaultClientCircuitMaxFailures, cfg.Client.CircuitBreaker.MaxFailures)
	assert.Equal(t, DefaultTransportIdleConnTimeout, cfg.Client.Transport.IdleConnTimeout)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFrom_FilePrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
storage:
  driver: sqlite
  dsn: file:base.db
log:
  level: debug
`)
	writeFile(t, dir, "prod.yaml", `
app:
  environment: prod
storage:
  dsn: file:prod.db
`)

	cfg, err := LoadFrom(dir, "prod")
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Environment)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "file:prod.db", cfg.Storage.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFrom_MissingProfileIgnored(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "nonexistent")
	require.NoError(t, err)
	assert.Equal(t, "classquotes", cfg.App.Name)
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "server: [unclosed")

	_, err := LoadFrom(dir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base config")
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "server:\n  port: 7000\n")

	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("APP_LOG_LEVEL", "warn")
	t.Setenv("APP_TELEMETRY_ENABLED", "true")
	t.Setenv("APP_STORAGE_MAX_CONNS", "25")
	t.Setenv("APP_CLIENT_RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("APP_CLIENT_BASE_URL", "https://quotes.example.org")

	cfg, err := LoadFrom(dir, "")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.EqualValues(t, 25, cfg.Storage.MaxConns)
	assert.Equal(t, 5, cfg.Client.Retry.MaxAttempts)
	assert.Equal(t, "https://quotes.example.org", cfg.Client.BaseURL)
}

func TestEnvKeyMapper(t *testing.T) {
	mapKey := envKeyMapper([]string{"storage.max_conns", "server.port", "client.circuit_breaker.max_failures"})

	assert.Equal(t, "storage.max_conns", mapKey("APP_STORAGE_MAX_CONNS"))
	assert.Equal(t, "server.port", mapKey("APP_SERVER_PORT"))
	assert.Equal(t, "client.circuit_breaker.max_failures", mapKey("APP_CLIENT_CIRCUIT_BREAKER_MAX_FAILURES"))
	assert.Equal(t, "custom.thing", mapKey("APP_CUSTOM_THING"))
}

func TestDefaults_CoverEverySection(t *testing.T) {
	d := defaults()

	for _, key := range []string{
		"app.name", "server.port", "log.level", "telemetry.enabled",
		"auth.enabled", "storage.driver", "client.base_url", "client.cache_path",
	} {
		assert.Contains(t, d, key)
	}
}
