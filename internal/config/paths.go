package config

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultBaseDir = ".drivedesk"

// Paths holds resolved filesystem paths for drivedesk data.
type Paths struct {
	Base        string // ~/.drivedesk
	Config      string // ~/.drivedesk/config.yaml
	Credentials string // ~/.drivedesk/credentials
	Data        string // ~/.drivedesk/data
}

// GoogleToken is where an OAuth token saved by "auth google" lives.
func (p Paths) GoogleToken() string {
	return filepath.Join(p.Credentials, "google-token.json")
}

// SessionDB is the default SQLite file for the sqlite session backend.
func (p Paths) SessionDB() string {
	return filepath.Join(p.Data, "sessions.db")
}

// ResolvePaths computes all standard paths. DRIVEDESK_HOME overrides the
// base directory and DRIVEDESK_CONFIG the config file.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("DRIVEDESK_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	cfgPath := os.Getenv("DRIVEDESK_CONFIG")
	if cfgPath == "" {
		cfgPath = filepath.Join(base, "config.yaml")
	}

	return Paths{
		Base:        base,
		Config:      cfgPath,
		Credentials: filepath.Join(base, "credentials"),
		Data:        filepath.Join(base, "data"),
	}, nil
}

// EnsureDirs creates all standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Credentials, p.Data} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// ParseConfigPath splits a dot-separated config path like "engine.model".
func ParseConfigPath(raw string) ([]string, error) {
	if raw == "" {
		return nil, &ConfigError{Message: "empty config path"}
	}
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if p == "" {
			return nil, &ConfigError{Message: "config path contains empty segment"}
		}
	}
	return parts, nil
}

// GetValueAtPath traverses a nested map using the given path segments.
func GetValueAtPath(root map[string]any, path []string) (any, bool) {
	current := any(root)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// SetValueAtPath sets a value in a nested map, creating intermediate maps as needed.
func SetValueAtPath(root map[string]any, path []string, value any) {
	current := root
	for _, key := range path[:len(path)-1] {
		m, ok := current[key].(map[string]any)
		if !ok {
			m = map[string]any{}
			current[key] = m
		}
		current = m
	}
	current[path[len(path)-1]] = value
}
