// Package google talks to Google Calendar and Gmail with OAuth credentials
// that were authorised out of band and stored as a token file.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoCredentials means no usable token is available; callers treat the
// capability as unconfigured.
var ErrNoCredentials = errors.New("no valid google credentials")

// Scopes needed for calendar writes and sending mail.
var Scopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/gmail.send",
}

var defaultEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// Credentials hands out an authorised HTTP client, or ErrNoCredentials.
type Credentials interface {
	Client(ctx context.Context) (*http.Client, error)
}

// FileCredentials reads an oauth2 token from disk and refreshes it with the
// client secrets when it has expired. Refreshed tokens are written back.
type FileCredentials struct {
	tokenPath string
	config    *oauth2.Config
	logger    *slog.Logger

	mu sync.Mutex
}

// NewFileCredentials loads the client secrets at secretsPath. Without them
// a token is still usable until it expires, but cannot be refreshed.
func NewFileCredentials(secretsPath, tokenPath string, logger *slog.Logger) *FileCredentials {
	cfg, err := loadClientSecrets(secretsPath)
	if err != nil {
		logger.Warn("google client secrets unavailable, tokens will not be refreshed", "path", secretsPath, "error", err)
	}
	return &FileCredentials{tokenPath: tokenPath, config: cfg, logger: logger}
}

func (f *FileCredentials) Client(ctx context.Context) (*http.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tok, err := f.readToken()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.logger.Warn("failed to read google token", "path", f.tokenPath, "error", err)
		}
		return nil, ErrNoCredentials
	}

	if f.config == nil {
		if !tok.Valid() {
			return nil, ErrNoCredentials
		}
		return oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok)), nil
	}

	if !tok.Valid() && tok.RefreshToken == "" {
		return nil, ErrNoCredentials
	}

	ts := f.config.TokenSource(ctx, tok)
	fresh, err := ts.Token()
	if err != nil {
		f.logger.Warn("failed to refresh google token", "error", err)
		return nil, ErrNoCredentials
	}
	if fresh.AccessToken != tok.AccessToken {
		if err := f.writeToken(fresh); err != nil {
			f.logger.Warn("failed to persist refreshed google token", "error", err)
		}
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(fresh, ts)), nil
}

func (f *FileCredentials) readToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(f.tokenPath)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("token file has no access or refresh token")
	}
	return &tok, nil
}

func (f *FileCredentials) writeToken(tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	return os.WriteFile(f.tokenPath, data, 0o600)
}

// Available reports whether credentials can currently be obtained.
func Available(ctx context.Context, creds Credentials) bool {
	if creds == nil {
		return false
	}
	_, err := creds.Client(ctx)
	return err == nil
}

type clientSecrets struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
	RedirectURIs []string `json:"redirect_uris"`
}

// loadClientSecrets reads the credentials.json downloaded from the Google
// console, which nests the fields under "installed" or "web".
func loadClientSecrets(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read client secrets: %w", err)
	}
	var wrapper struct {
		Installed *clientSecrets `json:"installed"`
		Web       *clientSecrets `json:"web"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("parse client secrets: %w", err)
	}
	cs := wrapper.Installed
	if cs == nil {
		cs = wrapper.Web
	}
	if cs == nil || cs.ClientID == "" {
		return nil, fmt.Errorf("client secrets missing client_id")
	}

	endpoint := defaultEndpoint
	if cs.AuthURI != "" {
		endpoint.AuthURL = cs.AuthURI
	}
	if cs.TokenURI != "" {
		endpoint.TokenURL = cs.TokenURI
	}
	cfg := &oauth2.Config{
		ClientID:     cs.ClientID,
		ClientSecret: cs.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       Scopes,
	}
	if len(cs.RedirectURIs) > 0 {
		cfg.RedirectURL = cs.RedirectURIs[0]
	}
	return cfg, nil
}
