package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"perftrack/internal/app/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background job worker",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Start(ctx)
}
