package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	store    StoreAPI
	secret   string
	tokenTTL time.Duration
}

func NewService(store StoreAPI, secret string, tokenTTL time.Duration) *Service {
	return &Service{store: store, secret: secret, tokenTTL: tokenTTL}
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	user, err := s.store.FindActiveUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := CheckPassword(user.Password, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.secret, Claims{UserID: user.ID, TenantID: user.TenantID, RoleName: user.RoleName}, s.tokenTTL)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("last login update failed", "userId", user.ID, "err", err)
	}
	return LoginResult{
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokenTTL).UTC(),
		UserID:    user.ID,
		Role:      user.RoleName,
	}, nil
}
