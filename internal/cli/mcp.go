package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/soyeahso/drivedesk/internal/mcpserver"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the Drive and board tools over MCP on stdio",
		Long:  "Serve the Drive and board tools over MCP on stdio. Logs go to stderr; stdout carries the protocol.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// The MCP client is the engine here, so engine settings are not
			// required.
			cfg.Engine.Provider = "mock"
			if err := validateConfig(&cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return mcpserver.New(a.dispatcher, user, log).ServeStdio()
		},
	}

	cmd.Flags().StringVar(&user, "user", defaultUser(), "user id whose search results are remembered")

	return cmd
}
