// Package web renders the admin and personal settings pages.
package web

import (
	"embed"
	"html/template"
	"io"

	"sundsvall.se/integration-eneo/internal/appinfo"
	"sundsvall.se/integration-eneo/internal/core"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Both pages live in the "ai" settings section.
const (
	Section  = "ai"
	Priority = 50
)

type AdminPage struct {
	EneoURL           string
	OAuthClientID     string
	OAuthClientSecret string
	Enabled           bool
	RedirectURI       string
	BasePath          string
}

type PersonalPage struct {
	EneoEnabled    bool
	OAuthConnected bool
	BasePath       string
}

func NewAdminPage(cfg *core.AdminConfig, redirectURI string) AdminPage {
	return AdminPage{
		EneoURL:           cfg.EneoURL,
		OAuthClientID:     cfg.OAuthClientID,
		OAuthClientSecret: cfg.OAuthClientSecret,
		Enabled:           cfg.Enabled,
		RedirectURI:       redirectURI,
		BasePath:          appinfo.RoutePrefix,
	}
}

func NewPersonalPage(cfg *core.UserConfig) PersonalPage {
	return PersonalPage{
		EneoEnabled:    cfg.EneoEnabled,
		OAuthConnected: cfg.OAuthAccessToken != "",
		BasePath:       appinfo.RoutePrefix,
	}
}

func RenderAdmin(w io.Writer, page AdminPage) error {
	return templates.ExecuteTemplate(w, "admin.html", page)
}

func RenderPersonal(w io.Writer, page PersonalPage) error {
	return templates.ExecuteTemplate(w, "personal.html", page)
}
