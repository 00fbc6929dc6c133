package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"perftrack/internal/domain/auth"
)

func TestRecovererReturnsEnvelope(t *testing.T) {
	handler := RequestID(Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var env map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env["success"] != false || env["requestId"] == "" {
		t.Fatalf("unexpected envelope %v", env)
	}
}

func TestLoggerWritesAccessLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/performance/goals", nil))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["msg"] != "http request" || line["path"] != "/api/v1/performance/goals" {
		t.Fatalf("unexpected log line %v", line)
	}
	if line["status"] != float64(http.StatusCreated) || line["bytes"] != float64(2) {
		t.Fatalf("unexpected status/bytes in %v", line)
	}
}

type recordedRequest struct {
	status   int
	duration time.Duration
}

type fakeRequestRecorder struct {
	calls []recordedRequest
}

func (f *fakeRequestRecorder) Record(status int, duration time.Duration) {
	f.calls = append(f.calls, recordedRequest{status: status, duration: duration})
}

func TestMetricsRecordsStatus(t *testing.T) {
	rec := &fakeRequestRecorder{}
	handler := Metrics(rec)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if len(rec.calls) != 1 || rec.calls[0].status != http.StatusNotFound {
		t.Fatalf("unexpected recorded calls %+v", rec.calls)
	}
}

func TestMetricsNilRecorderPassesThrough(t *testing.T) {
	called := false
	handler := Metrics(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatal("expected handler to run")
	}
}

type errPermissions struct{}

func (errPermissions) HasPermission(context.Context, string, string) (bool, error) {
	return false, io.ErrUnexpectedEOF
}

func TestRequirePermission(t *testing.T) {
	guarded := RequirePermission(auth.PermReportsRead, auth.StaticPermissions{})(http.HandlerFunc(noContent))

	cases := []struct {
		name string
		user *auth.UserContext
		want int
	}{
		{name: "anonymous", want: http.StatusUnauthorized},
		{name: "employee lacks permission", user: &auth.UserContext{UserID: "u", TenantID: "t", RoleName: auth.RoleEmployee}, want: http.StatusForbidden},
		{name: "manager allowed", user: &auth.UserContext{UserID: "u", TenantID: "t", RoleName: auth.RoleManager}, want: http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.user != nil {
				req = req.WithContext(WithUser(req.Context(), *tc.user))
			}
			rec := httptest.NewRecorder()
			guarded.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}

	failing := RequirePermission(auth.PermReportsRead, errPermissions{})(http.HandlerFunc(noContent))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), auth.UserContext{UserID: "u", RoleName: auth.RoleHR}))
	rec := httptest.NewRecorder()
	failing.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when permission lookup fails, got %d", rec.Code)
	}
}

func TestBodyLimitRejectsLargePayload(t *testing.T) {
	handler := BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", 32))))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected body limit to trip, got %d", rec.Code)
	}
}

func TestSecureHeaders(t *testing.T) {
	handler := SecureHeaders(true)(http.HandlerFunc(noContent))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected nosniff header")
	}
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Fatal("expected HSTS in production")
	}
}
