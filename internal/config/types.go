package config

import "time"

// Config is the root configuration for drivedesk.
type Config struct {
	Gateway   GatewayConfig   `yaml:"gateway,omitempty"`
	Engine    EngineConfig    `yaml:"engine,omitempty"`
	Agent     AgentConfig     `yaml:"agent,omitempty"`
	Google    GoogleConfig    `yaml:"google,omitempty"`
	Monday    MondayConfig    `yaml:"monday,omitempty"`
	Slack     SlackConfig     `yaml:"slack,omitempty"`
	WSChat    WSChatConfig    `yaml:"wschat,omitempty"`
	Session   SessionConfig   `yaml:"session,omitempty"`
	Analytics AnalyticsConfig `yaml:"analytics,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// GatewayConfig controls the HTTP server.
type GatewayConfig struct {
	Bind        string   `yaml:"bind,omitempty" env:"DRIVEDESK_BIND"`
	Port        int      `yaml:"port,omitempty" env:"DRIVEDESK_PORT"`
	CORSOrigins []string `yaml:"corsOrigins,omitempty"`
	// Token, when set, is required as a bearer token on /ws and /metrics.
	Token string `yaml:"token,omitempty" env:"DRIVEDESK_GATEWAY_TOKEN"`
}

// EngineConfig selects the language model backend.
type EngineConfig struct {
	Provider string        `yaml:"provider,omitempty" env:"DRIVEDESK_ENGINE"` // "openai" | "mock"
	Model    string        `yaml:"model,omitempty" env:"OPENAI_MODEL"`
	BaseURL  string        `yaml:"baseUrl,omitempty" env:"OPENAI_BASE_URL"`
	APIKey   string        `yaml:"apiKey,omitempty" env:"OPENAI_API_KEY"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
	// MaxRows caps the rows a read_sheet result carries.
	MaxRows     int      `yaml:"maxRows,omitempty"`
	MaxTokens   int      `yaml:"maxTokens,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
}

// AgentConfig bounds the tool loop.
type AgentConfig struct {
	MaxIterations int           `yaml:"maxIterations,omitempty"`
	MemoryCap     int           `yaml:"memoryCap,omitempty"`
	RetryAttempts int           `yaml:"retryAttempts,omitempty"`
	RetryBackoff  time.Duration `yaml:"retryBackoff,omitempty"`
	ExtraPrompt   string        `yaml:"extraPrompt,omitempty"`
}

// GoogleConfig selects Drive credentials.
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentialsFile,omitempty" env:"GOOGLE_APPLICATION_CREDENTIALS"`
	TokenFile       string `yaml:"tokenFile,omitempty"`
	Impersonate     string `yaml:"impersonate,omitempty"`
	PageSize        int64  `yaml:"pageSize,omitempty"`
	SharedDrives    bool   `yaml:"sharedDrives,omitempty"`
}

// MondayConfig enables the board tools when APIKey is set.
type MondayConfig struct {
	APIKey     string `yaml:"apiKey,omitempty" env:"MONDAY_API_KEY"`
	APIURL     string `yaml:"apiUrl,omitempty"`
	ItemsLimit int    `yaml:"itemsLimit,omitempty"`
}

type SlackConfig struct {
	Enabled       bool   `yaml:"enabled,omitempty"`
	CommandPath   string `yaml:"commandPath,omitempty"`
	SigningSecret string `yaml:"signingSecret,omitempty" env:"SLACK_SIGNING_SECRET"`
}

type WSChatConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// SessionConfig picks where per-user memory lives.
type SessionConfig struct {
	Backend string `yaml:"backend,omitempty" env:"DRIVEDESK_SESSION_BACKEND"` // "memory" | "sqlite"
	DBPath  string `yaml:"dbPath,omitempty"`
	// IdleHours drops in-memory users idle for longer; 0 keeps them forever.
	IdleHours int `yaml:"idleHours,omitempty"`
}

// AnalyticsConfig fixes the zone "today" is computed in.
type AnalyticsConfig struct {
	Timezone string `yaml:"timezone,omitempty" env:"DRIVEDESK_TIMEZONE"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty" env:"DRIVEDESK_LOG_LEVEL"` // "silent" | "error" | "warn" | "info" | "debug" | "trace"
	Style string `yaml:"style,omitempty"`                            // "pretty" | "json"
}
