package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsNeedJWTKey(t *testing.T) {
	t.Setenv("TODO_AUTH_JWT_KEY", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_key")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TODO_AUTH_JWT_KEY", "k")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8443", cfg.Server.Addr)
	assert.Equal(t, ":9090", cfg.Server.HTTPAddr)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTTL)
	assert.Equal(t, 5, cfg.Auth.MaxFails)
	assert.Equal(t, 15*time.Minute, cfg.Auth.FailWindow)
	assert.True(t, cfg.Events.Embedded)
	assert.Equal(t, -1, cfg.Events.NATSPort)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":7000"
  rate_limit: 2.5
storage:
  driver: memory
auth:
  jwt_key: from-file
  access_ttl: 30m
events:
  embedded: false
  nats_url: nats://file:4222
`)
	t.Setenv("TODO_SERVER_ADDR", ":7001")
	t.Setenv("TODO_AUTH_JWT_KEY", "from-env")
	t.Setenv("TODO_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7001", cfg.Server.Addr)
	assert.Equal(t, 2.5, cfg.Server.RateLimit)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "from-env", cfg.Auth.JWTKey)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTTL)
	assert.False(t, cfg.Events.Embedded)
	assert.Equal(t, "nats://file:4222", cfg.Events.NATSURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("TODO_AUTH_JWT_KEY", "k")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "server: [unterminated"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, strings.Repeat("#", maxConfigFileSize+1)))
	require.ErrorContains(t, err, "exceeds")

	_, err = Load(writeConfig(t, "storage:\n  driver: sqlite\n"))
	require.ErrorContains(t, err, "storage.driver")

	_, err = Load(writeConfig(t, "server:\n  tls_cert: cert.pem\n"))
	require.ErrorContains(t, err, "tls_key")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "server.http_addr", envKey("TODO_SERVER_HTTP_ADDR"))
	assert.Equal(t, "auth.jwt_key", envKey("TODO_AUTH_JWT_KEY"))
	assert.Equal(t, "addr", envKey("TODO_ADDR"))
}
