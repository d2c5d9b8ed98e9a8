package core

import (
	"context"
	"fmt"
	"strings"

	"sundsvall.se/integration-eneo/internal/appinfo"
)

// Persisted configuration keys.
const (
	KeyEneoURL           = "eneo_url"
	KeyOAuthClientID     = "oauth_client_id"
	KeyOAuthClientSecret = "oauth_client_secret"
	KeyEnabled           = "enabled"

	KeyEneoEnabled       = "eneo_enabled"
	KeyOAuthAccessToken  = "oauth_access_token"
	KeyOAuthRefreshToken = "oauth_refresh_token"
)

// KVStore is the generic key/value collaborator behind the typed settings.
type KVStore interface {
	GetAppValue(ctx context.Context, appID, key, defaultValue string) (string, error)
	SetAppValue(ctx context.Context, appID, key, value string) error
	GetUserValue(ctx context.Context, uid, appID, key, defaultValue string) (string, error)
	SetUserValue(ctx context.Context, uid, appID, key, value string) error
}

type AdminConfig struct {
	EneoURL           string
	OAuthClientID     string
	OAuthClientSecret string
	Enabled           bool
}

type UserConfig struct {
	EneoEnabled      bool
	OAuthAccessToken string
}

type SettingsService struct {
	kv             KVStore
	defaultEneoURL string
}

func NewSettingsService(kv KVStore, defaultEneoURL string) *SettingsService {
	if defaultEneoURL == "" {
		defaultEneoURL = appinfo.DefaultEneoURL
	}
	return &SettingsService{kv: kv, defaultEneoURL: defaultEneoURL}
}

func (s *SettingsService) AdminConfig(ctx context.Context) (*AdminConfig, error) {
	eneoURL, err := s.kv.GetAppValue(ctx, appinfo.AppID, KeyEneoURL, s.defaultEneoURL)
	if err != nil {
		return nil, err
	}
	clientID, err := s.kv.GetAppValue(ctx, appinfo.AppID, KeyOAuthClientID, "")
	if err != nil {
		return nil, err
	}
	clientSecret, err := s.kv.GetAppValue(ctx, appinfo.AppID, KeyOAuthClientSecret, "")
	if err != nil {
		return nil, err
	}
	enabled, err := s.kv.GetAppValue(ctx, appinfo.AppID, KeyEnabled, "1")
	if err != nil {
		return nil, err
	}

	return &AdminConfig{
		EneoURL:           eneoURL,
		OAuthClientID:     clientID,
		OAuthClientSecret: clientSecret,
		Enabled:           enabled == "1",
	}, nil
}

// EneoURL is the base URL outbound calls go to, without a trailing slash.
func (s *SettingsService) EneoURL(ctx context.Context) (string, error) {
	u, err := s.kv.GetAppValue(ctx, appinfo.AppID, KeyEneoURL, s.defaultEneoURL)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(u, "/"), nil
}

// ConfiguredEneoURL is the raw stored URL, empty when never set.
func (s *SettingsService) ConfiguredEneoURL(ctx context.Context) (string, error) {
	return s.kv.GetAppValue(ctx, appinfo.AppID, KeyEneoURL, "")
}

// SetAdminValues upserts every key into app scope. There is no multi-key
// transaction; each write stands on its own.
func (s *SettingsService) SetAdminValues(ctx context.Context, values map[string]string) error {
	for key, value := range values {
		if err := s.kv.SetAppValue(ctx, appinfo.AppID, key, value); err != nil {
			return fmt.Errorf("failed to set admin config %s: %w", key, err)
		}
	}
	return nil
}

func (s *SettingsService) UserConfig(ctx context.Context, uid string) (*UserConfig, error) {
	enabled, err := s.kv.GetUserValue(ctx, uid, appinfo.AppID, KeyEneoEnabled, "1")
	if err != nil {
		return nil, err
	}
	token, err := s.kv.GetUserValue(ctx, uid, appinfo.AppID, KeyOAuthAccessToken, "")
	if err != nil {
		return nil, err
	}
	return &UserConfig{EneoEnabled: enabled == "1", OAuthAccessToken: token}, nil
}

// RawUserConfig returns the two known user keys as stored strings, with
// their defaults applied.
func (s *SettingsService) RawUserConfig(ctx context.Context, uid string) (map[string]string, error) {
	token, err := s.kv.GetUserValue(ctx, uid, appinfo.AppID, KeyOAuthAccessToken, "")
	if err != nil {
		return nil, err
	}
	enabled, err := s.kv.GetUserValue(ctx, uid, appinfo.AppID, KeyEneoEnabled, "1")
	if err != nil {
		return nil, err
	}
	return map[string]string{
		KeyOAuthAccessToken: token,
		KeyEneoEnabled:      enabled,
	}, nil
}

func (s *SettingsService) SetUserValues(ctx context.Context, uid string, values map[string]string) error {
	for key, value := range values {
		if err := s.kv.SetUserValue(ctx, uid, appinfo.AppID, key, value); err != nil {
			return fmt.Errorf("failed to set user config %s: %w", key, err)
		}
	}
	return nil
}

// AccessToken returns the stored bearer token for uid, or "" when absent.
func (s *SettingsService) AccessToken(ctx context.Context, uid string) (string, error) {
	return s.kv.GetUserValue(ctx, uid, appinfo.AppID, KeyOAuthAccessToken, "")
}

func (s *SettingsService) StoreTokens(ctx context.Context, uid, accessToken, refreshToken string) error {
	return s.SetUserValues(ctx, uid, map[string]string{
		KeyOAuthAccessToken:  accessToken,
		KeyOAuthRefreshToken: refreshToken,
	})
}

// BoolValue renders a flag the way it is persisted.
func BoolValue(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
