package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"perftrack/internal/domain/auth"
)

type countingRecorder struct {
	limited int
}

func (c *countingRecorder) RateLimited() { c.limited++ }

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestRateLimitUsesUserKeyBeforeIPFallback(t *testing.T) {
	limited := RateLimit(1, time.Minute)(http.HandlerFunc(noContent))

	userCtx := WithUser(t.Context(), auth.UserContext{TenantID: "tenant-1", UserID: "user-1"})

	first := httptest.NewRequest(http.MethodPost, "/api/v1/performance/goals", nil).WithContext(userCtx)
	first.RemoteAddr = "198.51.100.11:2222"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", firstRec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/v1/performance/goals", nil).WithContext(userCtx)
	second.RemoteAddr = "198.51.100.12:3333"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by user key, got %d", secondRec.Code)
	}
}

func TestRateLimitFallsBackToIP(t *testing.T) {
	limited := RateLimit(1, time.Minute)(http.HandlerFunc(noContent))

	first := httptest.NewRequest(http.MethodGet, "/api/v1/performance/goals", nil)
	first.RemoteAddr = "203.0.113.10:4444"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", firstRec.Code)
	}

	second := httptest.NewRequest(http.MethodGet, "/api/v1/performance/goals", nil)
	second.RemoteAddr = "203.0.113.10:5555"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by ip key, got %d", secondRec.Code)
	}
}

func TestRateLimitRefills(t *testing.T) {
	limited := RateLimit(1, 40*time.Millisecond)(http.HandlerFunc(noContent))

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/performance/goals", nil)
		req.RemoteAddr = "192.0.2.20:1111"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", code)
	}
	time.Sleep(60 * time.Millisecond)
	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected request after refill to pass, got %d", code)
	}
}

func TestRateLimitReturnsRetryMetadataAndRecords(t *testing.T) {
	counter := &countingRecorder{}
	limited := RateLimit(1, time.Minute, WithRecorder(counter))(http.HandlerFunc(noContent))

	req1 := httptest.NewRequest(http.MethodGet, "/", nil)
	req1.RemoteAddr = "192.0.2.30:1234"
	limited.ServeHTTP(httptest.NewRecorder(), req1)

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.RemoteAddr = "192.0.2.30:1234"
	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, req2)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected throttled response, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if rec.Header().Get("X-RateLimit-Limit") != "1" {
		t.Fatalf("unexpected limit header %q", rec.Header().Get("X-RateLimit-Limit"))
	}
	if counter.limited != 1 {
		t.Fatalf("expected one recorded rejection, got %d", counter.limited)
	}
}

func TestSensitiveMutationRateLimitScope(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(http.HandlerFunc(noContent))

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/performance/summary", nil)
		req.RemoteAddr = "198.51.100.40:8888"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected read request %d to bypass sensitive limits, got %d", i+1, rec.Code)
		}
	}

	userCtx := WithUser(t.Context(), auth.UserContext{TenantID: "tenant-1", UserID: "hr-1"})
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/performance/resync", nil).WithContext(userCtx)
		req.RemoteAddr = "198.51.100.41:9999"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if i < 2 && rec.Code != http.StatusNoContent {
			t.Fatalf("expected sensitive request %d to pass, got %d", i+1, rec.Code)
		}
		if i == 2 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected third sensitive request to be throttled, got %d", rec.Code)
		}
	}
}

func TestSensitiveLoginLimitedByEmail(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(http.HandlerFunc(noContent))

	login := func(ip, email string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"email":"`+email+`"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := login("192.0.2.1:1", "a@example.com"); code != http.StatusNoContent {
		t.Fatalf("expected first login attempt to pass, got %d", code)
	}
	if code := login("192.0.2.2:1", "a@example.com"); code != http.StatusTooManyRequests {
		t.Fatalf("expected second attempt on same email to be throttled, got %d", code)
	}
}

func TestSensitiveRateScope(t *testing.T) {
	cases := []struct {
		method string
		path   string
		want   sensitiveScope
	}{
		{http.MethodPost, "/api/v1/auth/login", sensitiveScopeAuth},
		{http.MethodPost, "/api/v1/performance/resync", sensitiveScopeActor},
		{http.MethodPost, "/api/v1/performance/goals/g1/resync", sensitiveScopeActor},
		{http.MethodGet, "/api/v1/performance/resync", sensitiveScopeNone},
		{http.MethodPost, "/api/v1/performance/goals", sensitiveScopeNone},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if got := sensitiveRateScope(req); got != tc.want {
			t.Fatalf("%s %s: expected %q, got %q", tc.method, tc.path, tc.want, got)
		}
	}
}
