package auth

import (
	"context"
	"errors"
)

var ErrUserNotFound = errors.New("user not found")

type AuthUser struct {
	ID       string
	TenantID string
	RoleName string
	Password string
}

type StoreAPI interface {
	FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error)
	UpdateLastLogin(ctx context.Context, userID string) error
	EnsureTenant(ctx context.Context, name string) (string, error)
	EnsureUser(ctx context.Context, tenantID, email, passwordHash, role string) (string, error)
	ListTenantIDs(ctx context.Context) ([]string, error)
}
