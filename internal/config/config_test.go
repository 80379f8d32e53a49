package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MEDPULSE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Store.Driver)
	assert.Equal(t, "data/users.json", cfg.Store.JSONPath)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.True(t, cfg.Security.RateLimit.Enabled)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`server:
  port: 9090
logging:
  level: debug
store:
  driver: json
  json_path: /tmp/users.json
`), 0o644))
	t.Setenv("MEDPULSE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/users.json", cfg.Store.JSONPath)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644))
	t.Setenv("MEDPULSE_CONFIG", path)
	t.Setenv("MEDPULSE_SERVER_PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_InvalidLevel(t *testing.T) {
	t.Setenv("MEDPULSE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("MEDPULSE_LOGGING_LEVEL", "loud")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_BigQueryNeedsProject(t *testing.T) {
	t.Setenv("MEDPULSE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("MEDPULSE_STORE_DRIVER", "bigquery")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project_id")
}
