package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv neutralizes overrides that may be set on the machine running
// the tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DRIVEDESK_BIND", "DRIVEDESK_PORT", "DRIVEDESK_ENGINE", "OPENAI_MODEL", "OPENAI_BASE_URL",
		"OPENAI_API_KEY", "GOOGLE_APPLICATION_CREDENTIALS", "MONDAY_API_KEY",
		"DRIVEDESK_SESSION_BACKEND", "DRIVEDESK_TIMEZONE", "DRIVEDESK_LOG_LEVEL",
		"DRIVEDESK_GATEWAY_TOKEN", "SLACK_SIGNING_SECRET",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, DefaultPort, cfg.Gateway.Port)
	assert.Equal(t, "127.0.0.1", cfg.Gateway.Bind)
	assert.Equal(t, "openai", cfg.Engine.Provider)
	assert.Equal(t, "gpt-4.1-mini", cfg.Engine.Model)
	assert.Equal(t, 50, cfg.Engine.MaxRows)
	assert.Equal(t, 8, cfg.Agent.MaxIterations)
	assert.Equal(t, 25, cfg.Agent.MemoryCap)
	assert.Equal(t, 3, cfg.Agent.RetryAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Agent.RetryBackoff)
	assert.Equal(t, "https://api.monday.com/v2", cfg.Monday.APIURL)
	assert.Equal(t, "/slack/command", cfg.Slack.CommandPath)
	assert.Equal(t, "/ws", cfg.WSChat.Path)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, "UTC", cfg.Analytics.Timezone)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.BoardsEnabled())
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Gateway.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadValidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gateway:
  port: 9999
engine:
  model: gpt-4o
  apiKey: sk-test
  timeout: 30s
  maxRows: 20
agent:
  maxIterations: 4
  retryBackoff: 1s
monday:
  apiKey: mk
session:
  backend: sqlite
analytics:
  timezone: America/New_York
logging:
  level: debug
  style: json
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Gateway.Port)
	assert.Equal(t, "gpt-4o", cfg.Engine.Model)
	assert.Equal(t, "sk-test", cfg.Engine.APIKey)
	assert.Equal(t, 30*time.Second, cfg.Engine.Timeout)
	assert.Equal(t, 20, cfg.Engine.MaxRows)
	assert.Equal(t, 4, cfg.Agent.MaxIterations)
	assert.Equal(t, time.Second, cfg.Agent.RetryBackoff)
	assert.Equal(t, 25, cfg.Agent.MemoryCap)
	assert.True(t, cfg.BoardsEnabled())
	assert.Equal(t, "sqlite", cfg.Session.Backend)
	assert.Equal(t, "America/New_York", cfg.Location().String())
	assert.Equal(t, "json", cfg.Logging.Style)
	assert.Empty(t, Validate(&cfg))
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway: [unclosed"), 0o600))

	_, err := Load(path)
	var ce *ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DRIVEDESK_PORT", "7001")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("MONDAY_API_KEY", "mk-env")
	t.Setenv("DRIVEDESK_LOG_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway:\n  port: 9000\nengine:\n  apiKey: sk-file\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Gateway.Port)
	assert.Equal(t, "sk-env", cfg.Engine.APIKey)
	assert.Equal(t, "mk-env", cfg.Monday.APIKey)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestExpandEnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("MY_MONDAY_KEY", "from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("monday:\n  apiKey: ${MY_MONDAY_KEY}\nengine:\n  apiKey: ${UNSET_DRIVEDESK_VAR}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Monday.APIKey)
	assert.Equal(t, "${UNSET_DRIVEDESK_VAR}", cfg.Engine.APIKey)
}

func TestRedacted(t *testing.T) {
	cfg := Defaults()
	cfg.Engine.APIKey = "sk-secret"
	r := cfg.Redacted()
	assert.Equal(t, "********", r.Engine.APIKey)
	assert.Empty(t, r.Monday.APIKey)
	assert.Equal(t, "sk-secret", cfg.Engine.APIKey)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := Defaults()
	cfg.Analytics.Timezone = "Mars/Olympus"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestRawRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	raw, err := LoadRaw(path)
	require.NoError(t, err)
	assert.Empty(t, raw)

	SetValueAtPath(raw, []string{"engine", "model"}, "gpt-4o")
	require.NoError(t, SaveRaw(path, raw))

	again, err := LoadRaw(path)
	require.NoError(t, err)
	v, ok := GetValueAtPath(again, []string{"engine", "model"})
	assert.True(t, ok)
	assert.Equal(t, "gpt-4o", v)
}
