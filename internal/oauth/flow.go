// Package oauth connects a user's account to Eneo with the OAuth2
// authorization code flow and stores the resulting bearer token.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"sundsvall.se/integration-eneo/internal/auth"
	"sundsvall.se/integration-eneo/internal/core"
)

const stateTTL = 10 * time.Minute

var (
	ErrNotConfigured = errors.New("OAuth2 client is not configured")
	ErrStateMismatch = errors.New("OAuth2 state does not belong to this session")
)

type Settings interface {
	AdminConfig(ctx context.Context) (*core.AdminConfig, error)
	StoreTokens(ctx context.Context, uid, accessToken, refreshToken string) error
}

type Flow struct {
	settings    Settings
	tokens      *auth.Tokens
	redirectURL string
	scopes      []string
	httpClient  *http.Client
}

// NewFlow builds the flow. redirectURL is the absolute callback URL that is
// registered with Eneo.
func NewFlow(settings Settings, tokens *auth.Tokens, redirectURL string, scopes []string, httpClient *http.Client) *Flow {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Flow{
		settings:    settings,
		tokens:      tokens,
		redirectURL: redirectURL,
		scopes:      scopes,
		httpClient:  httpClient,
	}
}

func (f *Flow) RedirectURL() string { return f.redirectURL }

func (f *Flow) config(ctx context.Context) (*oauth2.Config, error) {
	admin, err := f.settings.AdminConfig(ctx)
	if err != nil {
		return nil, err
	}
	if admin.OAuthClientID == "" {
		return nil, ErrNotConfigured
	}

	base := strings.TrimRight(admin.EneoURL, "/")
	return &oauth2.Config{
		ClientID:     admin.OAuthClientID,
		ClientSecret: admin.OAuthClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  base + "/oauth/authorize",
			TokenURL: base + "/oauth/token",
		},
		RedirectURL: f.redirectURL,
		Scopes:      f.scopes,
	}, nil
}

// AuthCodeURL is where the user's browser goes to grant access. The state
// is signed and bound to uid.
func (f *Flow) AuthCodeURL(ctx context.Context, uid string) (string, error) {
	conf, err := f.config(ctx)
	if err != nil {
		return "", err
	}
	state, err := f.tokens.SignState(uid, uuid.NewString(), stateTTL)
	if err != nil {
		return "", fmt.Errorf("signing state: %w", err)
	}
	return conf.AuthCodeURL(state), nil
}

// Exchange completes the flow for uid and persists the tokens.
func (f *Flow) Exchange(ctx context.Context, uid, state, code string) error {
	stateUID, err := f.tokens.VerifyState(state)
	if err != nil {
		return fmt.Errorf("verifying state: %w", err)
	}
	if stateUID != uid {
		return ErrStateMismatch
	}

	conf, err := f.config(ctx)
	if err != nil {
		return err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchanging code: %w", err)
	}
	return f.settings.StoreTokens(ctx, uid, token.AccessToken, token.RefreshToken)
}
