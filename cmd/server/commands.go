package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// addUserCommands adds account management commands
func (app *App) addUserCommands(rootCmd *cobra.Command) {
	var isAdmin bool

	addCmd := &cobra.Command{
		Use:   "add <uid> <password>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.Users.CreateUser(cmd.Context(), args[0], args[1], isAdmin)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (admin: %t)\n", user.UID, user.IsAdmin)
			return nil
		},
	}
	addCmd.Flags().BoolVar(&isAdmin, "admin", false, "grant admin privileges")

	deleteCmd := &cobra.Command{
		Use:   "delete <uid>",
		Short: "Delete an account and its settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := app.Users.DeleteUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("user %s not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", args[0])
			return nil
		},
	}

	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	userCmd.AddCommand(addCmd, deleteCmd)
	rootCmd.AddCommand(userCmd)
}

// addFilesCommands adds file id assignment commands
func (app *App) addFilesCommands(rootCmd *cobra.Command) {
	scanCmd := &cobra.Command{
		Use:   "scan <uid>",
		Short: "Assign file ids to everything in a user's folder",
		Long: `Walk <data dir>/<uid>/files and register every file and folder so it
can be referenced by id from the index-file endpoint. Entries whose path has
vanished are dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := app.Files.Scan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			nodes, err := app.Files.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, node := range nodes {
				fmt.Fprintf(out, "%d\t%s\t%s\n", node.ID, node.Type, node.Path)
			}
			app.Logger.Info("Scan complete", "user", args[0], "entries", n)
			return nil
		},
	}

	filesCmd := &cobra.Command{
		Use:   "files",
		Short: "Manage user files",
	}
	filesCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(filesCmd)
}

// addConfigCommands adds admin configuration commands
func (app *App) addConfigCommands(rootCmd *cobra.Command) {
	setAdminCmd := &cobra.Command{
		Use:   "set-admin <key=value>...",
		Short: "Set admin configuration values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseAssignments(args)
			if err != nil {
				return err
			}
			return app.Settings.SetAdminValues(cmd.Context(), values)
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the admin configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.Settings.AdminConfig(cmd.Context())
			if err != nil {
				return err
			}
			secret := ""
			if cfg.OAuthClientSecret != "" {
				secret = "(set)"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "eneo_url=%s\n", cfg.EneoURL)
			fmt.Fprintf(out, "oauth_client_id=%s\n", cfg.OAuthClientID)
			fmt.Fprintf(out, "oauth_client_secret=%s\n", secret)
			fmt.Fprintf(out, "enabled=%t\n", cfg.Enabled)
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage admin configuration",
	}
	configCmd.AddCommand(setAdminCmd, showCmd)
	rootCmd.AddCommand(configCmd)
}

func parseAssignments(args []string) (map[string]string, error) {
	values := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		values[key] = value
	}
	return values, nil
}
