package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"sundsvall.se/integration-eneo/internal/appinfo"
	"sundsvall.se/integration-eneo/internal/core"
)

// isFormPost reports whether the request is a plain HTML form submission.
func isFormPost(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/x-www-form-urlencoded"
}

// decodeValues reads the settings to store. A form post contributes the last
// value of each field, so a hidden "0" in front of a checkbox acts as its
// unchecked state.
func decodeValues(r *http.Request) (map[string]string, error) {
	if isFormPost(r) {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid form: %w", err)
		}
		values := make(map[string]string, len(r.PostForm))
		for key, vs := range r.PostForm {
			values[key] = vs[len(vs)-1]
		}
		return values, nil
	}
	return decodeJSONValues(r)
}

// decodeJSONValues reads a flat JSON object of settings, optionally wrapped as
// {"values": {...}}. Scalars are stored as strings and booleans as "1"/"0".
func decodeJSONValues(r *http.Request) (map[string]string, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	if inner, ok := raw["values"]; ok && len(raw) == 1 && bytes.HasPrefix(bytes.TrimSpace(inner), []byte("{")) {
		raw = nil
		if err := json.Unmarshal(inner, &raw); err != nil {
			return nil, fmt.Errorf("invalid values: %w", err)
		}
	}

	values := make(map[string]string, len(raw))
	for key, msg := range raw {
		v, err := scalarString(msg)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", key, err)
		}
		values[key] = v
	}
	return values, nil
}

func scalarString(msg json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool:
		return core.BoolValue(val), nil
	case json.Number:
		return val.String(), nil
	default:
		return "", fmt.Errorf("expected a scalar")
	}
}

func (h *APIHandler) SetAdminConfigHandler(w http.ResponseWriter, r *http.Request) {
	values, err := decodeValues(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.settings.SetAdminValues(r.Context(), values); err != nil {
		h.logger.Error("Failed to save admin config", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}
	if isFormPost(r) {
		http.Redirect(w, r, appinfo.RoutePrefix+"/settings/admin", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *APIHandler) SetUserConfigHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	values, err := decodeValues(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.settings.SetUserValues(r.Context(), user.UID, values); err != nil {
		h.logger.Error("Failed to save user config", "user", user.UID, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}
	if isFormPost(r) {
		http.Redirect(w, r, appinfo.RoutePrefix+"/settings/personal", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *APIHandler) GetUserConfigHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	cfg, err := h.settings.RawUserConfig(r.Context(), user.UID)
	if err != nil {
		h.logger.Error("Failed to read user config", "user", user.UID, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to read settings")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// TestConnectionHandler always answers 200; the outcome is in the body.
func (h *APIHandler) TestConnectionHandler(w http.ResponseWriter, r *http.Request) {
	success := h.eneo.TestConnection(r.Context())

	message := "Failed to connect to Eneo"
	if success {
		message = "Connection to Eneo successful"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": success,
		"message": message,
	})
}

func (h *APIHandler) CapabilitiesHandler(w http.ResponseWriter, r *http.Request) {
	caps, err := h.settings.Capabilities(r.Context())
	if err != nil {
		h.logger.Error("Failed to assemble capabilities", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to read capabilities")
		return
	}
	writeJSON(w, http.StatusOK, caps)
}

// parseFileID accepts a JSON number or a numeric string.
func parseFileID(msg json.RawMessage) (int64, error) {
	s, err := scalarString(msg)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}
