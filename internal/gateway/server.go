// Package gateway is the HTTP front door: health, metrics and the HTTP
// channels (Slack slash command, WebSocket chat).
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/soyeahso/drivedesk/internal/channel"
	"github.com/soyeahso/drivedesk/internal/config"
	"github.com/soyeahso/drivedesk/internal/logging"
	"github.com/soyeahso/drivedesk/internal/metrics"
	"github.com/soyeahso/drivedesk/internal/version"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime,omitempty"`
}

// Server is the drivedesk HTTP server.
type Server struct {
	cfg      config.GatewayConfig
	channels *channel.Registry
	log      *logging.Logger

	startedAt  time.Time
	httpServer *http.Server
}

// New creates a gateway server. channels may be nil.
func New(cfg config.GatewayConfig, channels *channel.Registry, log *logging.Logger) *Server {
	return &Server{cfg: cfg, channels: channels, log: log.Sub("gateway"), startedAt: time.Now()}
}

// Handler builds the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware(s.log))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(s.cfg.CORSOrigins))

	r.Get("/health", s.handleHealth)
	r.With(requireToken(s.cfg.Token)).Handle("/metrics", metrics.Handler())

	if s.channels != nil {
		for _, ch := range s.channels.HTTPChannels() {
			if sa, ok := ch.(channel.SelfAuthenticating); ok {
				if !sa.VerifiesRequests() {
					s.log.Warn().Str("channel", ch.ID()).Msg("channel accepts unsigned requests")
				}
				r.Handle(ch.Path(), ch)
			} else {
				r.With(requireToken(s.cfg.Token)).Handle(ch.Path(), ch)
			}
			s.log.Debug().Str("channel", ch.ID()).Str("path", ch.Path()).Msg("mounted channel")
		}
	}

	r.NotFound(handleNotFound)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version.Version,
		Uptime:  time.Since(s.startedAt).Truncate(time.Second).String(),
	})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ListenAddr computes the listen address from config.
func ListenAddr(cfg config.GatewayConfig) string {
	host := cfg.Bind
	if host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, fmt.Sprint(cfg.Port))
}

// Start listens and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := ListenAddr(s.cfg)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.startedAt = time.Now()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("gateway server ready")

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}
