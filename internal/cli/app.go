package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/soyeahso/drivedesk/internal/agent"
	"github.com/soyeahso/drivedesk/internal/backend/google"
	"github.com/soyeahso/drivedesk/internal/backend/monday"
	"github.com/soyeahso/drivedesk/internal/config"
	"github.com/soyeahso/drivedesk/internal/llm"
	"github.com/soyeahso/drivedesk/internal/session"
	"github.com/soyeahso/drivedesk/internal/store"
	"github.com/soyeahso/drivedesk/internal/tools"
)

// app is the assembled agent stack shared by serve, chat, ask and mcp.
type app struct {
	sessions   session.Store
	memory     *session.MemoryStore // nil with the sqlite backend
	db         *store.DB
	dispatcher *tools.Dispatcher
	runner     *agent.Runner
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{}
	if err := a.openSessions(cfg); err != nil {
		return nil, err
	}

	files, err := google.New(ctx, googleConfig(cfg), log)
	if err != nil {
		a.Close()
		return nil, err
	}

	// Leave boards as a nil interface when monday is off so the dispatcher
	// hides the board tools.
	var boards tools.BoardBackend
	if cfg.BoardsEnabled() {
		mc, err := monday.New(monday.Config{
			APIURL:  cfg.Monday.APIURL,
			APIKey:  cfg.Monday.APIKey,
			ItemCap: cfg.Monday.ItemsLimit,
		}, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		boards = mc
	}

	a.dispatcher = tools.NewDispatcher(a.sessions, files, boards, tools.Options{
		MaxRows:  cfg.Engine.MaxRows,
		Location: cfg.Location(),
	}, log)

	engine, err := newEngine(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.runner = agent.NewRunner(agent.RunnerConfig{
		Model:         cfg.Engine.Model,
		MaxIterations: cfg.Agent.MaxIterations,
		MaxTokens:     cfg.Engine.MaxTokens,
		Temperature:   cfg.Engine.Temperature,
		ExtraPrompt:   cfg.Agent.ExtraPrompt,
		Location:      cfg.Location(),
	}, agent.NewRetryClient(engine, cfg.Agent.RetryAttempts, cfg.Agent.RetryBackoff, log), a.sessions, a.dispatcher, log)

	log.Info().
		Str("engine", engine.Name()).
		Str("model", cfg.Engine.Model).
		Str("sessions", cfg.Session.Backend).
		Bool("boards", boards != nil).
		Msg("agent ready")
	return a, nil
}

func (a *app) openSessions(cfg config.Config) error {
	if cfg.Session.Backend != "sqlite" {
		a.memory = session.NewMemoryStore(cfg.Agent.MemoryCap, nil)
		a.sessions = a.memory
		return nil
	}

	dbPath := cfg.Session.DBPath
	if dbPath == "" {
		if err := paths.EnsureDirs(); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		dbPath = paths.SessionDB()
	}
	db, err := store.Open(dbPath, log)
	if err != nil {
		return fmt.Errorf("opening session database: %w", err)
	}
	a.db = db
	a.sessions = store.NewSessionStore(db, cfg.Agent.MemoryCap)
	log.Info().Str("path", dbPath).Msg("using SQLite session store")
	return nil
}

// Close releases the session database, if any.
func (a *app) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func googleConfig(cfg config.Config) google.Config {
	token := cfg.Google.TokenFile
	if token == "" {
		token = paths.GoogleToken()
	}
	return google.Config{
		CredentialsFile: cfg.Google.CredentialsFile,
		TokenFile:       token,
		Subject:         cfg.Google.Impersonate,
		PageSize:        cfg.Google.PageSize,
		SharedDrives:    cfg.Google.SharedDrives,
	}
}

func newEngine(cfg config.Config) (llm.Client, error) {
	switch cfg.Engine.Provider {
	case "mock":
		return &llm.MockClient{}, nil
	case "openai", "":
		return llm.NewOpenAIClient(cfg.Engine.BaseURL, cfg.Engine.APIKey, cfg.Engine.Model, cfg.Engine.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown engine provider %q", cfg.Engine.Provider)
	}
}

// pruneIdle drops in-memory sessions idle for longer than idle.
func pruneIdle(ctx context.Context, mem *session.MemoryStore, idle time.Duration) {
	t := time.NewTicker(min(idle, time.Hour))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := mem.Prune(now.Add(-idle)); n > 0 {
				log.Info().Int("pruned", n).Int("remaining", mem.Users()).Msg("dropped idle sessions")
			}
		}
	}
}
