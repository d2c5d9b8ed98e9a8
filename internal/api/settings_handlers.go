package api

import (
	"bytes"
	"errors"
	"net/http"

	"sundsvall.se/integration-eneo/internal/appinfo"
	"sundsvall.se/integration-eneo/internal/auth"
	"sundsvall.se/integration-eneo/internal/oauth"
	"sundsvall.se/integration-eneo/internal/web"
)

func (h *APIHandler) AdminSettingsHandler(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.settings.AdminConfig(r.Context())
	if err != nil {
		h.logger.Error("Failed to read admin config", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to read settings")
		return
	}

	var buf bytes.Buffer
	if err := web.RenderAdmin(&buf, web.NewAdminPage(cfg, h.oauth.RedirectURL())); err != nil {
		h.logger.Error("Failed to render admin settings", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to render settings")
		return
	}
	writeHTML(w, buf.Bytes())
}

func (h *APIHandler) PersonalSettingsHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	cfg, err := h.settings.UserConfig(r.Context(), user.UID)
	if err != nil {
		h.logger.Error("Failed to read user config", "user", user.UID, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to read settings")
		return
	}

	var buf bytes.Buffer
	if err := web.RenderPersonal(&buf, web.NewPersonalPage(cfg)); err != nil {
		h.logger.Error("Failed to render personal settings", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to render settings")
		return
	}
	writeHTML(w, buf.Bytes())
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// OAuthAuthorizeHandler sends the browser to Eneo's consent page.
func (h *APIHandler) OAuthAuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	target, err := h.oauth.AuthCodeURL(r.Context(), user.UID)
	if err != nil {
		if errors.Is(err, oauth.ErrNotConfigured) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to start OAuth2 flow", "user", user.UID, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to start OAuth2 flow")
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// OAuthCallbackHandler stores the user's token and returns them to their
// personal settings.
func (h *APIHandler) OAuthCallbackHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		writeError(w, http.StatusBadRequest, "Eneo denied authorization: "+e)
		return
	}
	code, state := q.Get("code"), q.Get("state")
	if code == "" || state == "" {
		writeError(w, http.StatusBadRequest, "code and state are required")
		return
	}

	if err := h.oauth.Exchange(r.Context(), user.UID, state, code); err != nil {
		h.logger.Error("OAuth2 callback failed", "user", user.UID, "err", err)
		if errors.Is(err, oauth.ErrStateMismatch) || errors.Is(err, oauth.ErrNotConfigured) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusBadRequest, "Invalid or expired OAuth2 state")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to connect to Eneo")
		return
	}
	http.Redirect(w, r, appinfo.RoutePrefix+"/settings/personal", http.StatusFound)
}
