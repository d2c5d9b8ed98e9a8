package config

import (
	"errors"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"sundsvall.se/integration-eneo/internal/appinfo"
)

type Config struct {
	DatabaseURL    string
	HTTPPort       string
	LogLevel       string
	LogFile        string
	JWTSecret      string
	DataDir        string
	PublicURL      string
	EneoDefaultURL string
	OAuthScopes    []string
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET environment variable is required")

// LoadConfig reads the process configuration from the environment, after
// merging in a .env file when one exists in the working directory.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("DATABASE_URL", "integration_eneo.db")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("PUBLIC_URL", "http://localhost:8080")
	v.SetDefault("ENEO_DEFAULT_URL", appinfo.DefaultEneoURL)
	v.SetDefault("ENEO_OAUTH_SCOPES", "openid")
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseURL:    v.GetString("DATABASE_URL"),
		HTTPPort:       v.GetString("HTTP_PORT"),
		LogLevel:       strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFile:        v.GetString("LOG_FILE"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		DataDir:        v.GetString("DATA_DIR"),
		PublicURL:      strings.TrimRight(v.GetString("PUBLIC_URL"), "/"),
		EneoDefaultURL: strings.TrimRight(v.GetString("ENEO_DEFAULT_URL"), "/"),
		OAuthScopes:    strings.Fields(strings.ReplaceAll(v.GetString("ENEO_OAUTH_SCOPES"), ",", " ")),
	}

	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	return cfg, nil
}
