package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Engine.APIKey = "sk-test"
	return cfg
}

func paths(issues []ValidationIssue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.Path
	}
	return out
}

func TestValidate_ValidDefaults(t *testing.T) {
	cfg := validConfig()
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, []string{"engine.apiKey"}, paths(Validate(&cfg)))

	cfg.Engine.BaseURL = "http://localhost:11434/v1"
	assert.Empty(t, Validate(&cfg))

	cfg = Defaults()
	cfg.Engine.Provider = "mock"
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.Gateway.Port = 70000
	assert.Equal(t, []string{"gateway.port"}, paths(Validate(&cfg)))
}

func TestValidate_Enums(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.Provider = "claude"
	cfg.Session.Backend = "redis"
	cfg.Logging.Level = "loud"
	cfg.Logging.Style = "compact"
	assert.ElementsMatch(t,
		[]string{"engine.provider", "session.backend", "logging.level", "logging.style"},
		paths(Validate(&cfg)))
}

func TestValidate_Numbers(t *testing.T) {
	cfg := validConfig()
	cfg.Agent.MaxIterations = -1
	cfg.Engine.MaxRows = -5
	hot := 3.0
	cfg.Engine.Temperature = &hot
	assert.ElementsMatch(t,
		[]string{"agent.maxIterations", "engine.maxRows", "engine.temperature"},
		paths(Validate(&cfg)))
}

func TestValidate_Timezone(t *testing.T) {
	cfg := validConfig()
	cfg.Analytics.Timezone = "Nowhere/Special"
	issues := Validate(&cfg)
	assert.Len(t, issues, 1)
	assert.Equal(t, "analytics.timezone", issues[0].Path)
	assert.Contains(t, issues[0].String(), "Nowhere/Special")
}

func TestValidate_ChannelPaths(t *testing.T) {
	cfg := validConfig()
	cfg.Slack.Enabled = true
	cfg.Slack.CommandPath = "slack"
	cfg.WSChat.Enabled = true
	cfg.WSChat.Path = "ws"
	assert.ElementsMatch(t, []string{"slack.commandPath", "wschat.path"}, paths(Validate(&cfg)))
}
