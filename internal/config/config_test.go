package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "test.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "shareit", cfg.App.Name)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8080, cfg.Gateway.Port)
	assert.Equal(t, "http://localhost:9090", cfg.Gateway.ServerURL)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout.Std())
	assert.Equal(t, 5, cfg.Gateway.RateLimit.Burst)
	assert.Equal(t, time.Minute, cfg.Gateway.RateLimit.Window.Std())
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
app:
  name: "shareit"
  environment: "test"
server:
  port: 9191
gateway:
  port: 8181
  server_url: "http://server:9191"
  timeout: 5s
  cache_ttl: 30s
  rate_limit:
    rps: 10
    burst: 20
    window: 1m
database:
  path: "test.db"
redis:
  enabled: true
  address: "localhost:6379"
logging:
  level: "debug"
  format: "console"
monitoring:
  prometheus_enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 8181, cfg.Gateway.Port)
	assert.Equal(t, "http://server:9191", cfg.Gateway.ServerURL)
	assert.Equal(t, 30*time.Second, cfg.Gateway.CacheTTL.Std())
	assert.Equal(t, float64(10), cfg.Gateway.RateLimit.RPS)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2112, cfg.Monitoring.PrometheusPort)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "/tmp/expanded.db")
	path := writeConfig(t, `
database:
  path: "${TEST_DB_PATH}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/expanded.db", cfg.Database.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{
			name:    "missing database path",
			content: `server: {port: 9090}`,
		},
		{
			name: "shared port",
			content: `
server:
  port: 8080
gateway:
  port: 8080
database:
  path: "test.db"
`,
		},
		{
			name: "redis enabled without address",
			content: `
database:
  path: "test.db"
redis:
  enabled: true
`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}
