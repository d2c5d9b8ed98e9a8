package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sundsvall.se/integration-eneo/internal/api"
	"sundsvall.se/integration-eneo/internal/appinfo"
	"sundsvall.se/integration-eneo/internal/eneo"
	"sundsvall.se/integration-eneo/internal/oauth"
	"sundsvall.se/integration-eneo/internal/reference"
)

func (app *App) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.serve()
		},
	}
}

func (app *App) serve() error {
	cfg := app.Config

	registry := reference.NewRegistry()
	registry.RegisterReferenceProvider(reference.NewEneoProvider(cfg.PublicURL))

	redirectURL := cfg.PublicURL + appinfo.RoutePrefix + "/oauth/callback"

	apiHandler := api.NewAPIHandler(api.Deps{
		Settings:   app.Settings,
		Eneo:       eneo.NewClient(app.Settings, nil, app.Logger),
		Files:      app.Files,
		References: registry,
		Accounts:   app.Users,
		OAuth:      oauth.NewFlow(app.Settings, app.Tokens, redirectURL, cfg.OAuthScopes, nil),
		Logger:     app.Logger,
	})
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: appinfo.DefaultRequestTimeout + 15*time.Second, // Eneo calls can take up to a minute
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info("Starting server. Press Ctrl+C to quit.", "addr", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("could not listen on %s: %w", serverAddr, err)
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-quit:
	}
	app.Logger.Info("Shutting down server...")

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	app.Logger.Info("Server exiting gracefully")
	return nil
}
