package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"perftrack/internal/platform/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "perftrack",
	Short:         "Goal and performance review backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (overrides APP_CONFIG_FILE)")
	rootCmd.AddCommand(serveCmd, migrateCmd, resyncCmd, userCmd)
}

// loadConfig resolves the config file flag, loads the environment on top of
// it and validates the result.
func loadConfig() (config.Config, error) {
	if configFile != "" {
		if err := os.Setenv("APP_CONFIG_FILE", configFile); err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("perftrack: %v", err)
	}
}
