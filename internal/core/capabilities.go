package core

import (
	"context"

	"sundsvall.se/integration-eneo/internal/appinfo"
)

type Features struct {
	SmartPicker       bool `json:"smart_picker"`
	ReferenceProvider bool `json:"reference_provider"`
	FileContext       bool `json:"file_context"`
	OAuth2SSO         bool `json:"oauth2_sso"`
}

type Capability struct {
	Enabled  bool     `json:"enabled"`
	Version  string   `json:"version"`
	Features Features `json:"features"`
}

// Capabilities is keyed by application id for the host's discovery endpoint.
func (s *SettingsService) Capabilities(ctx context.Context) (map[string]Capability, error) {
	eneoURL, err := s.ConfiguredEneoURL(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]Capability{
		appinfo.AppID: {
			Enabled: eneoURL != "",
			Version: appinfo.Version,
			Features: Features{
				SmartPicker:       true,
				ReferenceProvider: true,
				FileContext:       true,
				OAuth2SSO:         true,
			},
		},
	}, nil
}
