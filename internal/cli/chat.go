package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/drivedesk/internal/domain"
	"github.com/soyeahso/drivedesk/internal/routing"
	"github.com/spf13/cobra"
)

const terminalChannel = "cli"

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

func terminalMessage(user, text string) domain.InboundMessage {
	return domain.InboundMessage{
		ID:        uuid.New().String(),
		ChannelID: terminalChannel,
		UserID:    user,
		UserName:  user,
		Body:      text,
		Timestamp: time.Now(),
	}
}

func newAskCmd() *cobra.Command {
	var (
		user    string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
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

			result, err := a.runner.Run(ctx, terminalMessage(user, strings.Join(args, " ")))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Reply)
			if verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n[model=%s iterations=%d tools=%s tokens=%d+%d]\n",
					result.Model, result.Iterations, strings.Join(result.ToolsUsed, ","),
					result.Usage.InputTokens, result.Usage.OutputTokens)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", defaultUser(), "user id whose memory is used")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print run statistics to stderr")

	return cmd
}

func newChatCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the agent in the terminal",
		Long:  "Chat with the agent in the terminal. Type \"reset\" to clear the conversation, Ctrl-D to quit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
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

			return chatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), func(text string) string {
				if routing.IsReset(text) {
					if err := a.runner.Reset(ctx, user, a.sessions); err != nil {
						return "could not reset: " + err.Error()
					}
					return routing.ResetReply
				}
				result, err := a.runner.Run(ctx, terminalMessage(user, text))
				if err != nil {
					log.Debug().Err(err).Msg("run failed")
					return "error: " + err.Error()
				}
				return result.Reply
			})
		},
	}

	cmd.Flags().StringVar(&user, "user", defaultUser(), "user id whose memory is used")

	return cmd
}

// chatLoop reads one line at a time and prints the answer for it until
// EOF or cancellation.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, answer func(string) string) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		fmt.Fprintln(out, answer(text))
		if ctx.Err() != nil {
			return nil
		}
	}
}
