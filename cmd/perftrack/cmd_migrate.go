package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"perftrack/internal/app/server"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations for the configured driver",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := server.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Migrate(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", cfg.DBDriver)
	return nil
}
