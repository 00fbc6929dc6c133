package db

import (
	"context"
	"strings"

	"perftrack/internal/domain/auth"
	"perftrack/internal/platform/config"
)

// Seed makes sure the configured tenant exists and, when credentials are
// configured, that it has an HR admin able to log in.
func Seed(ctx context.Context, store auth.StoreAPI, cfg config.Config) (string, error) {
	tenantID, err := store.EnsureTenant(ctx, cfg.SeedTenantName)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(cfg.SeedAdminEmail) == "" || cfg.SeedAdminPassword == "" {
		return tenantID, nil
	}
	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return "", err
	}
	if _, err := store.EnsureUser(ctx, tenantID, cfg.SeedAdminEmail, hash, auth.RoleHR); err != nil {
		return "", err
	}
	return tenantID, nil
}
