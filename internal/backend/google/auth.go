package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

// Scopes are the read-only scopes every tool needs.
var Scopes = []string{
	drive.DriveReadonlyScope,
	sheets.SpreadsheetsReadonlyScope,
	docs.DocumentsReadonlyScope,
}

// HTTPClient builds an authorized client from cfg:
//   - a service account key (optionally impersonating cfg.Subject),
//   - an OAuth client secret plus a token saved by Authorize,
//   - or application default credentials when no file is configured.
func HTTPClient(ctx context.Context, cfg Config) (*http.Client, error) {
	if cfg.CredentialsFile == "" {
		creds, err := googleoauth.FindDefaultCredentials(ctx, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("default google credentials: %w", err)
		}
		return oauth2.NewClient(ctx, creds.TokenSource), nil
	}

	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	var probe struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(b, &probe)

	if probe.Type == "service_account" {
		jwt, err := googleoauth.JWTConfigFromJSON(b, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("parse service account key: %w", err)
		}
		jwt.Subject = cfg.Subject
		return jwt.Client(ctx), nil
	}

	oc, err := googleoauth.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client: %w", err)
	}
	tok, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("no oauth token at %s; run 'drivedesk auth google' first", cfg.TokenFile)
	}
	return oc.Client(ctx, tok), nil
}

// Authorize runs the interactive OAuth flow for an OAuth client secret and
// saves the token to cfg.TokenFile. prompt shows the consent URL and
// returns the code the user pasted back.
func Authorize(ctx context.Context, cfg Config, prompt func(authURL string) (string, error)) error {
	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return fmt.Errorf("read credentials file: %w", err)
	}
	oc, err := googleoauth.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return fmt.Errorf("parse oauth client: %w", err)
	}

	code, err := prompt(oc.AuthCodeURL("state-token", oauth2.AccessTypeOffline))
	if err != nil {
		return fmt.Errorf("read authorization code: %w", err)
	}
	tok, err := oc.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	return saveToken(cfg.TokenFile, tok)
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("save oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
