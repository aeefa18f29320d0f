package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/soyeahso/drivedesk/internal/config"
	"github.com/soyeahso/drivedesk/internal/gateway"
	"github.com/soyeahso/drivedesk/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show drivedesk status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "drivedesk %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(out, "Config:  %s\n", paths.Config)
			fmt.Fprintf(out, "Data:    %s\n", paths.Data)
			fmt.Fprintln(out)

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(out, "Config:  error loading: %v\n", err)
				return nil
			}
			printSummary(out, cfg)

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			fmt.Fprintln(out)
			addr := gateway.ListenAddr(cfg.Gateway)
			if health, err := probeHealth("http://" + addr); err != nil {
				fmt.Fprintf(out, "Server:  not reachable at %s\n", addr)
			} else {
				fmt.Fprintf(out, "Server:  %s at %s (version %s, up %s)\n", health.Status, addr, health.Version, health.Uptime)
			}
			return nil
		},
	}

	return cmd
}

func printSummary(out io.Writer, cfg config.Config) {
	fmt.Fprintf(out, "Gateway: %s token=%v\n", gateway.ListenAddr(cfg.Gateway), cfg.Gateway.Token != "")
	fmt.Fprintf(out, "Engine:  provider=%s model=%s\n", cfg.Engine.Provider, cfg.Engine.Model)
	fmt.Fprintf(out, "Agent:   maxIterations=%d memoryCap=%d retries=%d\n",
		cfg.Agent.MaxIterations, cfg.Agent.MemoryCap, cfg.Agent.RetryAttempts)

	creds := cfg.Google.CredentialsFile
	if creds == "" {
		creds = "(application default)"
	}
	fmt.Fprintf(out, "Google:  credentials=%s sharedDrives=%v\n", creds, cfg.Google.SharedDrives)
	if cfg.BoardsEnabled() {
		fmt.Fprintf(out, "Monday:  enabled (%s)\n", cfg.Monday.APIURL)
	} else {
		fmt.Fprintln(out, "Monday:  (not configured)")
	}

	fmt.Fprintf(out, "Slack:   enabled=%v path=%s signed=%v\n", cfg.Slack.Enabled, cfg.Slack.CommandPath, cfg.Slack.SigningSecret != "")
	fmt.Fprintf(out, "WSChat:  enabled=%v path=%s\n", cfg.WSChat.Enabled, cfg.WSChat.Path)
	fmt.Fprintf(out, "Session: backend=%s timezone=%s\n", cfg.Session.Backend, cfg.Location())
}

func probeHealth(baseURL string) (*gateway.HealthResponse, error) {
	var health gateway.HealthResponse
	resp, err := resty.New().
		SetTimeout(2 * time.Second).
		R().
		SetResult(&health).
		Get(baseURL + "/health")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("health check returned %s", resp.Status())
	}
	return &health, nil
}
