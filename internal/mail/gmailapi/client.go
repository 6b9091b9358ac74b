// Package gmailapi implements the primary mail provider on top of the
// Gmail REST API. Authentication uses the OAuth installed-app flow with
// a cached token file.
package gmailapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/mailvox/mailvox/internal/config"
)

// user is the special Gmail API value meaning "the authenticated user".
const user = "me"

// Client is a Gmail-backed mail.Provider.
type Client struct {
	srv    *gmail.Service
	logger *slog.Logger
}

// NewClient builds the Gmail service from the configured credentials
// and token files. If no cached token exists, the OAuth authorization
// flow runs interactively on stdin/stdout.
func NewClient(ctx context.Context, cfg config.GmailConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}

	httpClient, err := oauthClient(ctx, oauthConfig, cfg.TokenFile, logger)
	if err != nil {
		return nil, err
	}

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create Gmail service: %w", err)
	}

	return &Client{srv: srv, logger: logger}, nil
}

// oauthClient returns an HTTP client authorized for the Gmail API,
// running the interactive flow if no valid cached token exists.
func oauthClient(ctx context.Context, oc *oauth2.Config, tokenFile string, logger *slog.Logger) (*http.Client, error) {
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		tok, err = tokenFromWeb(ctx, oc)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokenFile, tok); err != nil {
			logger.Warn("unable to cache oauth token", "path", tokenFile, "error", err)
		}
	}
	return oc.Client(ctx, tok), nil
}

// tokenFromWeb runs the manual authorization-code flow.
func tokenFromWeb(ctx context.Context, oc *oauth2.Config) (*oauth2.Token, error) {
	authURL := oc.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the authorization code:\n%v\n", authURL)

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}

	tok, err := oc.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
