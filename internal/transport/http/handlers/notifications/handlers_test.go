package notificationshandler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"perftrack/internal/domain/auth"
	"perftrack/internal/domain/notifications"
	"perftrack/internal/transport/http/middleware"
)

type memStore struct {
	items    []notifications.Notification
	read     []string
	enabled  bool
	from     string
	userSeen string
}

func (m *memStore) CreateNotification(ctx context.Context, tenantID, userID, ntype, title, body string) error {
	return nil
}

func (m *memStore) UserEmail(ctx context.Context, tenantID, userID string) (string, error) {
	return "", nil
}

func (m *memStore) ListNotifications(ctx context.Context, tenantID, userID string, limit, offset int) ([]notifications.Notification, error) {
	m.userSeen = userID
	return m.items, nil
}

func (m *memStore) CountNotifications(ctx context.Context, tenantID, userID string) (int, error) {
	return len(m.items), nil
}

func (m *memStore) MarkRead(ctx context.Context, tenantID, userID, notificationID string) error {
	m.read = append(m.read, notificationID)
	return nil
}

func (m *memStore) EmailSettings(ctx context.Context, tenantID string) (bool, string, error) {
	return m.enabled, m.from, nil
}

func (m *memStore) UpdateSettings(ctx context.Context, tenantID string, enabled bool, from string) error {
	m.enabled, m.from = enabled, from
	return nil
}

func newRouter(store *memStore) http.Handler {
	h := NewHandler(notifications.New(store, nil), auth.StaticPermissions{})
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func do(router http.Handler, role, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u1", TenantID: "t1", RoleName: role}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListSetsTotalHeader(t *testing.T) {
	store := &memStore{items: []notifications.Notification{{ID: "n1"}, {ID: "n2"}}}
	rec := do(newRouter(store), auth.RoleEmployee, http.MethodGet, "/notifications", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Total-Count"); got != "2" {
		t.Fatalf("expected total 2, got %q", got)
	}
	if store.userSeen != "u1" {
		t.Fatalf("expected caller's notifications, got %q", store.userSeen)
	}
}

func TestMarkRead(t *testing.T) {
	store := &memStore{}
	rec := do(newRouter(store), auth.RoleEmployee, http.MethodPost, "/notifications/n7/read", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(store.read) != 1 || store.read[0] != "n7" {
		t.Fatalf("expected n7 marked read, got %v", store.read)
	}
}

func TestSettingsRequireHR(t *testing.T) {
	store := &memStore{}
	router := newRouter(store)
	if rec := do(router, auth.RoleEmployee, http.MethodGet, "/notifications/settings", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	rec := do(router, auth.RoleHR, http.MethodPut, "/notifications/settings", `{"emailEnabled":true,"emailFrom":"hr@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !store.enabled || store.from != "hr@example.com" {
		t.Fatalf("settings not stored: %+v", store)
	}
	rec = do(router, auth.RoleHR, http.MethodPut, "/notifications/settings", `{"emailEnabled":true,"emailFrom":"not-an-email"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
