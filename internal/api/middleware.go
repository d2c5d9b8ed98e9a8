package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"sundsvall.se/integration-eneo/internal/auth"
	"sundsvall.se/integration-eneo/internal/store"
)

const sessionCookie = "eneo_session"

type ctxKey int

const userKey ctxKey = iota

// SessionMiddleware attaches the caller's user to the request context when
// a valid session token is presented, either as a bearer header or as the
// session cookie. Invalid tokens leave the request anonymous for the
// Require* predicates to reject; lookup failures are a 500.
func (h *APIHandler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := h.accounts.Authenticate(r.Context(), token)
		if errors.Is(err, auth.ErrInvalidToken) {
			h.logger.Debug("Ignoring invalid session token", "err", err)
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			h.logger.Error("Failed to resolve session", "err", err)
			writeError(w, http.StatusInternalServerError, "Failed to resolve session")
			return
		}
		if user == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects requests without an authenticated session.
func (h *APIHandler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) == nil {
			writeError(w, http.StatusUnauthorized, "Not logged in")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin additionally demands the admin flag.
func (h *APIHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if user == nil {
			writeError(w, http.StatusUnauthorized, "Not logged in")
			return
		}
		if !user.IsAdmin {
			writeError(w, http.StatusForbidden, "Admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(r *http.Request) *store.User {
	user, _ := r.Context().Value(userKey).(*store.User)
	return user
}

func sessionToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}
