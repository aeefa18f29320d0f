package config

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields lets credentials be written as ${ENV_VAR} in the file.
func expandSensitiveFields(cfg *Config) {
	cfg.Engine.APIKey = expandEnvVars(cfg.Engine.APIKey)
	cfg.Monday.APIKey = expandEnvVars(cfg.Monday.APIKey)
	cfg.Slack.SigningSecret = expandEnvVars(cfg.Slack.SigningSecret)
	cfg.Gateway.Token = expandEnvVars(cfg.Gateway.Token)
	cfg.Google.CredentialsFile = expandEnvVars(cfg.Google.CredentialsFile)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. A missing file yields defaults plus the environment.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, &ConfigError{Message: "environment: " + err.Error()}
	}
	expandSensitiveFields(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Redacted returns a copy with secrets masked, for display.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.Engine.APIKey = mask(c.Engine.APIKey)
	c.Monday.APIKey = mask(c.Monday.APIKey)
	c.Slack.SigningSecret = mask(c.Slack.SigningSecret)
	c.Gateway.Token = mask(c.Gateway.Token)
	return c
}
