package api

import (
	"net/http"

	"sundsvall.se/integration-eneo/internal/reference"
)

type providerInfo struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	IconURL            string   `json:"icon_url"`
	Order              int      `json:"order"`
	SearchProvidersIDs []string `json:"search_providers_ids"`
}

func (h *APIHandler) ListProvidersHandler(w http.ResponseWriter, r *http.Request) {
	providers := h.references.Providers()

	out := make([]providerInfo, 0, len(providers))
	for _, p := range providers {
		out = append(out, providerInfo{
			ID:                 p.ID(),
			Title:              p.Title(),
			IconURL:            p.IconURL(),
			Order:              p.Order(),
			SearchProvidersIDs: p.SupportedSearchProviderIDs(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// ResolveReferenceHandler answers {"references": {text: card-or-null}}.
func (h *APIHandler) ResolveReferenceHandler(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("reference")
	if text == "" {
		writeError(w, http.StatusBadRequest, "reference is required")
		return
	}

	writeJSON(w, http.StatusOK, map[string]map[string]*reference.Reference{
		"references": {text: h.references.Resolve(text)},
	})
}
