package main

import (
	"os"
)

func main() {
	if err := run(&App{}, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// run executes the command line and always releases what the command
// opened, including when the command itself failed.
func run(app *App, args []string) error {
	rootCmd := app.CreateRootCommand()
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	if closeErr := app.close(); err == nil {
		err = closeErr
	}
	return err
}
