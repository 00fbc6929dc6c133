package notifications

import (
	"context"
	"time"
)

type Notification struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type StoreAPI interface {
	CreateNotification(ctx context.Context, tenantID, userID, ntype, title, body string) error
	UserEmail(ctx context.Context, tenantID, userID string) (string, error)
	ListNotifications(ctx context.Context, tenantID, userID string, limit, offset int) ([]Notification, error)
	CountNotifications(ctx context.Context, tenantID, userID string) (int, error)
	MarkRead(ctx context.Context, tenantID, userID, notificationID string) error
	EmailSettings(ctx context.Context, tenantID string) (bool, string, error)
	UpdateSettings(ctx context.Context, tenantID string, enabled bool, from string) error
}
