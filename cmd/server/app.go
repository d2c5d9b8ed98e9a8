package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"sundsvall.se/integration-eneo/internal/auth"
	"sundsvall.se/integration-eneo/internal/config"
	"sundsvall.se/integration-eneo/internal/core"
	"sundsvall.se/integration-eneo/internal/files"
	"sundsvall.se/integration-eneo/internal/logger"
	"sundsvall.se/integration-eneo/internal/store"
)

// App holds what every subcommand needs. It is populated by the root
// command's PersistentPreRunE and torn down by run once the command returns.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Store    *store.SQLiteStore
	Tokens   *auth.Tokens
	Settings *core.SettingsService
	Users    *core.UserService
	Files    *files.Storage

	logCloser io.Closer
}

func (app *App) CreateRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "integration-eneo",
		Short:        "Eneo AI integration service",
		Long:         `Serves the Eneo smart picker integration and manages its accounts, files and settings.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return app.open()
		},
	}

	rootCmd.AddCommand(app.serveCommand())
	app.addUserCommands(rootCmd)
	app.addFilesCommands(rootCmd)
	app.addConfigCommands(rootCmd)

	return rootCmd
}

func (app *App) open() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	app.Config = cfg

	l, closer, err := logger.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	app.Logger = l
	app.logCloser = closer
	if cfg.LogLevel == "debug" {
		l.Debug("Service starting in DEBUG mode")
	}

	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.Store = dbStore

	app.Tokens = auth.NewTokens(cfg.JWTSecret)
	app.Settings = core.NewSettingsService(dbStore, cfg.EneoDefaultURL)
	app.Users = core.NewUserService(dbStore, app.Tokens)
	app.Files = files.NewOSStorage(cfg.DataDir, dbStore)
	return nil
}

// close is safe to call more than once.
func (app *App) close() error {
	var err error
	if app.Store != nil {
		err = app.Store.Close()
		app.Store = nil
	}
	if app.logCloser != nil {
		app.logCloser.Close()
		app.logCloser = nil
	}
	return err
}
