package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sundsvall.se/integration-eneo/internal/appinfo"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route(appinfo.RoutePrefix, func(r chi.Router) {
		r.Use(apiHandler.SessionMiddleware)

		// Public routes
		r.Post("/session/signup", apiHandler.SignupHandler)
		r.Post("/session/login", apiHandler.LoginHandler)
		r.Get("/capabilities", apiHandler.CapabilitiesHandler)

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.RequireAdmin)

			r.Post("/admin/config", apiHandler.SetAdminConfigHandler)
			r.Delete("/admin/users/{userID}", apiHandler.DeleteUserHandler)
			r.Get("/settings/admin", apiHandler.AdminSettingsHandler)
		})

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.RequireUser)

			r.Post("/user/config", apiHandler.SetUserConfigHandler)
			r.Get("/user/config", apiHandler.GetUserConfigHandler)
			r.Get("/test-connection", apiHandler.TestConnectionHandler)
			r.Get("/settings/personal", apiHandler.PersonalSettingsHandler)

			r.Get("/oauth/authorize", apiHandler.OAuthAuthorizeHandler)
			r.Get("/oauth/callback", apiHandler.OAuthCallbackHandler)

			r.Get("/references/providers", apiHandler.ListProvidersHandler)
			r.Get("/references/resolve", apiHandler.ResolveReferenceHandler)

			// Eneo proxy routes
			r.Post("/api/chat", apiHandler.ChatHandler)
			r.Post("/api/index-file", apiHandler.IndexFileHandler)
			r.Get("/api/indexed-files", apiHandler.GetIndexedFilesHandler)
			r.Delete("/api/remove-from-index", apiHandler.RemoveFromIndexHandler)
		})
	})

	return r
}
