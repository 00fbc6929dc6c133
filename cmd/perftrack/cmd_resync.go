package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"perftrack/internal/app/server"
)

var resyncTenant string

var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Recompute progress of every auto-calculated goal",
	Long: `Recompute milestone-derived progress for every goal with automatic
calculation enabled. Runs for one tenant when --tenant is given, otherwise
for all tenants. Each tenant run is recorded like a scheduled job.`,
	RunE: runResync,
}

func init() {
	resyncCmd.Flags().StringVar(&resyncTenant, "tenant", "", "tenant id (default: all tenants)")
}

func runResync(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.RunSeed = false

	app, err := server.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	tenants := []string{resyncTenant}
	if resyncTenant == "" {
		tenants, err = app.AuthStore.ListTenantIDs(cmd.Context())
		if err != nil {
			return fmt.Errorf("list tenants: %w", err)
		}
	}

	out := json.NewEncoder(cmd.OutOrStdout())
	var failed int
	for _, tenantID := range tenants {
		result, err := app.Jobs.ResyncTenantNow(cmd.Context(), tenantID)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "tenant %s: %v\n", tenantID, err)
			continue
		}
		if err := out.Encode(map[string]any{"tenantId": tenantID, "result": result}); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("resync failed for %d of %d tenants", failed, len(tenants))
	}
	return nil
}
