package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SQLiteStore struct {
	DB *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{DB: db}
}

func (s *SQLiteStore) FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var out AuthUser
	err := s.DB.QueryRowContext(ctx, `
    SELECT id, tenant_id, role, password_hash
    FROM users
    WHERE email = ? AND status = ?
  `, strings.ToLower(strings.TrimSpace(email)), userStatusActive).Scan(&out.ID, &out.TenantID, &out.RoleName, &out.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return AuthUser{}, ErrUserNotFound
	}
	return out, err
}

func (s *SQLiteStore) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.ExecContext(ctx, "UPDATE users SET last_login_at = ? WHERE id = ?", nowText(), userID)
	return err
}

func (s *SQLiteStore) EnsureTenant(ctx context.Context, name string) (string, error) {
	var id string
	err := s.DB.QueryRowContext(ctx, "SELECT id FROM tenants WHERE name = ?", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	id = uuid.NewString()
	if _, err := s.DB.ExecContext(ctx, "INSERT INTO tenants (id, name, created_at) VALUES (?,?,?)", id, name, nowText()); err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLiteStore) EnsureUser(ctx context.Context, tenantID, email, passwordHash, role string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var id string
	err := s.DB.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", email).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	id = uuid.NewString()
	if _, err := s.DB.ExecContext(ctx, `
    INSERT INTO users (id, tenant_id, email, password_hash, role, status, created_at)
    VALUES (?,?,?,?,?,?,?)
  `, id, tenantID, email, passwordHash, role, userStatusActive, nowText()); err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLiteStore) ListTenantIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT id FROM tenants ORDER BY created_at")
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

func nowText() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000000000Z")
}
