package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sundsvall.se/integration-eneo/internal/core"
)

type credentialsRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (*credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return nil, false
	}
	if req.UserID == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "User ID and password are required")
		return nil, false
	}
	return &req, true
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := h.accounts.CreateUser(r.Context(), req.UserID, req.Password, false)
	if err != nil {
		if errors.Is(err, core.ErrUserExists) {
			writeError(w, http.StatusConflict, "User already exists")
			return
		}
		h.logger.Error("Error creating user", "user", req.UserID, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	token, err := h.accounts.Login(r.Context(), req.UserID, req.Password)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Error("Error logging in", "user", req.UserID, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// DeleteUserHandler removes an account and its per-user configuration.
func (h *APIHandler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "userID")

	deleted, err := h.accounts.DeleteUser(r.Context(), uid)
	if err != nil {
		h.logger.Error("Error deleting user", "user", uid, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
