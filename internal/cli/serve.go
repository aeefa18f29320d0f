package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/soyeahso/drivedesk/internal/channel"
	"github.com/soyeahso/drivedesk/internal/channel/slack"
	"github.com/soyeahso/drivedesk/internal/channel/wschat"
	"github.com/soyeahso/drivedesk/internal/gateway"
	"github.com/soyeahso/drivedesk/internal/routing"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway with the Slack and WebSocket chat channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}
			if err := validateConfig(&cfg); err != nil {
				return err
			}

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			channels := channel.NewRegistry(log)
			if cfg.Slack.Enabled {
				channels.Register(slack.New(slack.Config{
					Path:          cfg.Slack.CommandPath,
					SigningSecret: cfg.Slack.SigningSecret,
				}, log))
			}
			if cfg.WSChat.Enabled {
				channels.Register(wschat.New(cfg.WSChat.Path, cfg.Gateway.CORSOrigins, log))
			}
			if channels.Count() == 0 {
				log.Warn().Msg("no channels enabled, only /health and /metrics will be served")
			}

			router := routing.NewRouter(channels, a.runner, a.sessions, routing.DefaultRunTimeout, log)
			router.Wire(ctx)
			channels.StartAll(ctx)
			defer channels.StopAll(context.WithoutCancel(ctx))
			log.Info().Strs("channels", channels.List()).Msg("message routing active")

			if a.memory != nil && cfg.Session.IdleHours > 0 {
				go pruneIdle(ctx, a.memory, time.Duration(cfg.Session.IdleHours)*time.Hour)
			}

			return gateway.New(cfg.Gateway, channels, log).Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind address")

	return cmd
}
