// Package reference turns Eneo conversation links into preview cards for
// the reference picker.
package reference

import (
	"regexp"
	"strings"

	"sundsvall.se/integration-eneo/internal/appinfo"
)

var (
	conversationURL = regexp.MustCompile(`^https?://[^/]+/conversation/[a-zA-Z0-9-]+$`)
	conversationID  = regexp.MustCompile(`/conversation/([a-zA-Z0-9-]+)$`)
)

// Reference is the display card rendered in place of a raw link.
type Reference struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	URL         string `json:"url"`
}

// Provider is what the registry needs from a reference provider.
type Provider interface {
	ID() string
	Title() string
	Order() int
	IconURL() string
	SupportedSearchProviderIDs() []string
	Match(text string) bool
	Resolve(text string) *Reference
	CachePrefix(referenceID string) string
	CacheKey(referenceID string) string
}

// EneoProvider is stateless apart from the public URL its images live under.
type EneoProvider struct {
	imageBase string
}

// NewEneoProvider serves icons from <publicURL>/apps/integration_eneo/img.
func NewEneoProvider(publicURL string) *EneoProvider {
	return &EneoProvider{imageBase: strings.TrimRight(publicURL, "/") + appinfo.RoutePrefix + "/img/"}
}

func (p *EneoProvider) ID() string    { return appinfo.AppID }
func (p *EneoProvider) Title() string { return "Eneo AI Assistant" }
func (p *EneoProvider) Order() int    { return 10 }

func (p *EneoProvider) IconURL() string { return p.imageBase + "app.svg" }

// SupportedSearchProviderIDs is empty: the picker uses a custom component.
func (p *EneoProvider) SupportedSearchProviderIDs() []string { return []string{} }

func (p *EneoProvider) Match(text string) bool {
	return conversationURL.MatchString(text)
}

func (p *EneoProvider) Resolve(text string) *Reference {
	if !p.Match(text) {
		return nil
	}
	m := conversationID.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return nil
	}

	return &Reference{
		ID:          m[1],
		Title:       "Eneo AI Conversation",
		Description: "AI-powered conversation with Eneo assistant",
		ImageURL:    p.imageBase + "eneo-logo.png",
		URL:         text,
	}
}

func (p *EneoProvider) CachePrefix(referenceID string) string { return appinfo.AppID }
func (p *EneoProvider) CacheKey(referenceID string) string    { return referenceID }
