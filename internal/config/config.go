package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	DefaultPort          = 8787
	DefaultModel         = "gpt-4.1-mini"
	DefaultMondayURL     = "https://api.monday.com/v2"
	DefaultSlackPath     = "/slack/command"
	DefaultWSPath        = "/ws"
	DefaultMaxRows       = 50
	DefaultMaxIterations = 8
	DefaultMemoryCap     = 25
	DefaultRetryAttempts = 3
	DefaultRetryBackoff  = 500 * time.Millisecond
)

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

// applyDefaults fills zero-value fields.
func applyDefaults(cfg *Config) {
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = "127.0.0.1"
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = DefaultPort
	}

	if cfg.Engine.Provider == "" {
		cfg.Engine.Provider = "openai"
	}
	if cfg.Engine.Model == "" {
		cfg.Engine.Model = DefaultModel
	}
	if cfg.Engine.Timeout == 0 {
		cfg.Engine.Timeout = 60 * time.Second
	}
	if cfg.Engine.MaxRows == 0 {
		cfg.Engine.MaxRows = DefaultMaxRows
	}

	if cfg.Agent.MaxIterations == 0 {
		cfg.Agent.MaxIterations = DefaultMaxIterations
	}
	if cfg.Agent.MemoryCap == 0 {
		cfg.Agent.MemoryCap = DefaultMemoryCap
	}
	if cfg.Agent.RetryAttempts == 0 {
		cfg.Agent.RetryAttempts = DefaultRetryAttempts
	}
	if cfg.Agent.RetryBackoff == 0 {
		cfg.Agent.RetryBackoff = DefaultRetryBackoff
	}

	if cfg.Monday.APIURL == "" {
		cfg.Monday.APIURL = DefaultMondayURL
	}
	if cfg.Monday.ItemsLimit == 0 {
		cfg.Monday.ItemsLimit = 50
	}

	if cfg.Slack.CommandPath == "" {
		cfg.Slack.CommandPath = DefaultSlackPath
	}
	if cfg.WSChat.Path == "" {
		cfg.WSChat.Path = DefaultWSPath
	}

	if cfg.Session.Backend == "" {
		cfg.Session.Backend = "memory"
	}
	if cfg.Analytics.Timezone == "" {
		cfg.Analytics.Timezone = "UTC"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Style == "" {
		cfg.Logging.Style = "pretty"
	}
}

// Location loads the analytics timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Analytics.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BoardsEnabled reports whether the board tools are configured.
func (c *Config) BoardsEnabled() bool {
	return c.Monday.APIKey != ""
}
