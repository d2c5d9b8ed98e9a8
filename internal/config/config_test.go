package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := fromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "integration_eneo.db", cfg.DatabaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "http://localhost:8000", cfg.EneoDefaultURL)
	assert.Equal(t, []string{"openid"}, cfg.OAuthScopes)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("PUBLIC_URL", "https://cloud.example.com/")
	t.Setenv("ENEO_OAUTH_SCOPES", "openid, profile")

	cfg, err := fromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://cloud.example.com", cfg.PublicURL)
	assert.Equal(t, []string{"openid", "profile"}, cfg.OAuthScopes)
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := fromViper(newViper())
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}
