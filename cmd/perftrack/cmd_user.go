package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"perftrack/internal/app/server"
	"perftrack/internal/domain/auth"
)

var (
	userEmail    string
	userPassword string
	userRole     string
	userTenant   string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage login accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create or update a user in a tenant",
	RunE:  runUserAdd,
}

func init() {
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "login email")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "login password")
	userAddCmd.Flags().StringVar(&userRole, "role", auth.RoleEmployee, "employee, manager, hr or admin")
	userAddCmd.Flags().StringVar(&userTenant, "tenant", "", "tenant name (default: the seed tenant)")
	_ = userAddCmd.MarkFlagRequired("email")
	_ = userAddCmd.MarkFlagRequired("password")
	userCmd.AddCommand(userAddCmd)
}

func runUserAdd(cmd *cobra.Command, _ []string) error {
	if err := validateUserFlags(userEmail, userPassword, userRole); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.RunSeed = false
	tenantName := userTenant
	if tenantName == "" {
		tenantName = cfg.SeedTenantName
	}

	app, err := server.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	tenantID, err := app.AuthStore.EnsureTenant(cmd.Context(), tenantName)
	if err != nil {
		return fmt.Errorf("ensure tenant: %w", err)
	}
	hash, err := auth.HashPassword(userPassword)
	if err != nil {
		return err
	}
	userID, err := app.AuthStore.EnsureUser(cmd.Context(), tenantID, strings.ToLower(strings.TrimSpace(userEmail)), hash, userRole)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "user %s (%s) in tenant %s\n", userID, userRole, tenantID)
	return nil
}

func validateUserFlags(email, password, role string) error {
	if !strings.Contains(email, "@") {
		return errors.New("--email must be an email address")
	}
	if len(password) < 8 {
		return errors.New("--password must be at least 8 characters")
	}
	if !auth.ValidRole(role) {
		return fmt.Errorf("--role %q is not one of employee, manager, hr, admin", role)
	}
	return nil
}
