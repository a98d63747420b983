package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-neushop/pkg/neushop"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, neushop.DefaultBaseURL, cfg.Backend.BaseURL)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestLoadLayersFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "neushop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  base_url: http://backend.local
  timeout: 3s
server:
  addr: ":7000"
log_level: debug
`), 0o600))
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("NEUSHOP_SESSION_TTL=5m\n"), 0o600))
	t.Setenv("NEUSHOP_ADDR", ":7100")
	t.Setenv("NEUSHOP_SESSION_TTL", "")
	os.Unsetenv("NEUSHOP_SESSION_TTL")

	cfg, err := Load(path, envFile, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "http://backend.local", cfg.Backend.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, ":7100", cfg.Server.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	cfg := Default()
	err := Decode([]byte("backend:\n  base: http://x\n"), &cfg)
	require.Error(t, err)
}

func TestApplyEnvReportsBadValues(t *testing.T) {
	cfg := Default()
	env := map[string]string{
		"NEUSHOP_TIMEOUT":         "soon",
		"NEUSHOP_METRICS_ENABLED": "maybe",
		"NEUSHOP_BASE_URL":        "http://override",
	}
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NEUSHOP_TIMEOUT")
	assert.Contains(t, err.Error(), "NEUSHOP_METRICS_ENABLED")
	assert.Equal(t, "http://override", cfg.Backend.BaseURL)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Backend.BaseURL = "not a url"
	cfg.Server.SessionTTL = 0
	cfg.LogLevel = "chatty"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
	assert.Contains(t, err.Error(), "session_ttl")
	assert.Contains(t, err.Error(), "log_level")
}
