package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/soyeahso/drivedesk/internal/backend/google"
	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to external services",
	}

	cmd.AddCommand(newAuthGoogleCmd())
	return cmd
}

func newAuthGoogleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "google",
		Short: "Run the OAuth flow for an installed-app client and save the token",
		Long: "Run the OAuth flow for the OAuth client in google.credentialsFile and save the token " +
			"to google.tokenFile (default ~/.drivedesk/credentials/google-token.json). " +
			"Service account credentials need no authorization.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Google.CredentialsFile == "" {
				return errors.New("google.credentialsFile must point at an OAuth client JSON file")
			}
			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			gcfg := googleConfig(cfg)
			prompt := codePrompt(cmd.InOrStdin(), cmd.OutOrStdout())
			if err := google.Authorize(cmd.Context(), gcfg, prompt); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved token to %s\n", gcfg.TokenFile)
			return nil
		},
	}
}

// codePrompt shows the consent URL and reads back the authorization code.
func codePrompt(in io.Reader, out io.Writer) func(string) (string, error) {
	return func(authURL string) (string, error) {
		fmt.Fprintf(out, "Open this URL in a browser and approve access:\n\n  %s\n\nPaste the authorization code: ", authURL)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		code := strings.TrimSpace(line)
		if code == "" {
			return "", errors.New("no authorization code entered")
		}
		return code, nil
	}
}
