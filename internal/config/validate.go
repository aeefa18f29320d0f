package config

import (
	"fmt"
	"slices"
	"time"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

func oneOf(issues []ValidationIssue, path, value string, valid []string) []ValidationIssue {
	if value != "" && !slices.Contains(valid, value) {
		issues = append(issues, ValidationIssue{
			Path:    path,
			Message: fmt.Sprintf("must be one of %v, got %q", valid, value),
		})
	}
	return issues
}

func positive(issues []ValidationIssue, path string, v int) []ValidationIssue {
	if v < 0 {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf("must not be negative, got %d", v)})
	}
	return issues
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	issues = oneOf(issues, "engine.provider", cfg.Engine.Provider, []string{"openai", "mock"})
	if cfg.Engine.Provider == "openai" && cfg.Engine.APIKey == "" && cfg.Engine.BaseURL == "" {
		issues = append(issues, ValidationIssue{
			Path:    "engine.apiKey",
			Message: "required for the public OpenAI API (set OPENAI_API_KEY)",
		})
	}
	issues = positive(issues, "engine.maxRows", cfg.Engine.MaxRows)
	if t := cfg.Engine.Temperature; t != nil && (*t < 0 || *t > 2) {
		issues = append(issues, ValidationIssue{
			Path:    "engine.temperature",
			Message: fmt.Sprintf("must be 0-2, got %g", *t),
		})
	}

	issues = positive(issues, "agent.maxIterations", cfg.Agent.MaxIterations)
	issues = positive(issues, "agent.memoryCap", cfg.Agent.MemoryCap)
	issues = positive(issues, "agent.retryAttempts", cfg.Agent.RetryAttempts)

	issues = oneOf(issues, "session.backend", cfg.Session.Backend, []string{"memory", "sqlite"})
	issues = positive(issues, "session.idleHours", cfg.Session.IdleHours)

	if cfg.Analytics.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Analytics.Timezone); err != nil {
			issues = append(issues, ValidationIssue{
				Path:    "analytics.timezone",
				Message: fmt.Sprintf("unknown timezone %q", cfg.Analytics.Timezone),
			})
		}
	}

	if cfg.Slack.Enabled && cfg.Slack.CommandPath != "" && cfg.Slack.CommandPath[0] != '/' {
		issues = append(issues, ValidationIssue{Path: "slack.commandPath", Message: "must start with /"})
	}
	if cfg.WSChat.Enabled && cfg.WSChat.Path != "" && cfg.WSChat.Path[0] != '/' {
		issues = append(issues, ValidationIssue{Path: "wschat.path", Message: "must start with /"})
	}

	issues = oneOf(issues, "logging.level", cfg.Logging.Level,
		[]string{"silent", "fatal", "error", "warn", "info", "debug", "trace"})
	issues = oneOf(issues, "logging.style", cfg.Logging.Style, []string{"pretty", "json"})

	return issues
}
