package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userStatusActive = "active"

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var out AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT id, tenant_id, role, password_hash
    FROM users
    WHERE email = $1 AND status = $2
  `, strings.ToLower(strings.TrimSpace(email)), userStatusActive).Scan(&out.ID, &out.TenantID, &out.RoleName, &out.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return AuthUser{}, ErrUserNotFound
	}
	return out, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login_at = now() WHERE id = $1", userID)
	return err
}

func (s *Store) EnsureTenant(ctx context.Context, name string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "SELECT id FROM tenants WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	if err := s.DB.QueryRow(ctx, "INSERT INTO tenants (name) VALUES ($1) RETURNING id", name).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) EnsureUser(ctx context.Context, tenantID, email, passwordHash, role string) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO users (tenant_id, email, password_hash, role)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
    RETURNING id
  `, tenantID, strings.ToLower(strings.TrimSpace(email)), passwordHash, role).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) ListTenantIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT id FROM tenants ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
