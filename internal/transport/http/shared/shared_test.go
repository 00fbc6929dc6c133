package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type goalPayload struct {
	Title    string `json:"title" validate:"required,max=10"`
	Progress int    `json:"progress" validate:"gte=0,lte=100"`
}

func TestValidatorStructUsesJSONNames(t *testing.T) {
	v := NewValidator()
	v.Struct(goalPayload{Title: "", Progress: 101})

	issues := v.Issues()
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %+v", issues)
	}
	if issues[0].Field != "progress" || issues[1].Field != "title" {
		t.Fatalf("expected json field names sorted, got %+v", issues)
	}
	if issues[1].Reason != "is required" {
		t.Fatalf("unexpected reason %q", issues[1].Reason)
	}
}

func TestValidatorRejectWritesDetails(t *testing.T) {
	v := NewValidator()
	v.Add("targetDate", "must be a valid date in YYYY-MM-DD format")
	rec := httptest.NewRecorder()
	if !v.Reject(rec, "req") {
		t.Fatal("expected reject")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	clean := NewValidator()
	if clean.Reject(httptest.NewRecorder(), "req") {
		t.Fatal("did not expect reject without issues")
	}
}

func TestOptionalDate(t *testing.T) {
	v := NewValidator()
	if got := v.OptionalDate("dueDate", nil); got != nil {
		t.Fatalf("expected nil for omitted date, got %v", got)
	}
	raw := "2025-06-30"
	got := v.OptionalDate("dueDate", &raw)
	if got == nil || !got.Equal(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected parsed date %v", got)
	}
	bad := "30/06/2025"
	if v.OptionalDate("dueDate", &bad) != nil || !v.HasIssues() {
		t.Fatal("expected invalid date to be reported")
	}
}

func TestParsePaginationClamps(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=900&offset=-3", nil)
	page := ParsePagination(req, 50, 200)
	if page.Limit != 200 || page.Offset != 0 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestParsePaginationFallsBackOnGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=abc&offset=7", nil)
	page := ParsePagination(req, 50, 200)
	if page.Limit != 50 || page.Offset != 7 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestWriteTotal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteTotal(rec, 42)
	if got := rec.Header().Get(TotalCountHeader); got != "42" {
		t.Fatalf("expected 42, got %q", got)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	if got := ClientIP(req); got != "192.0.2.1" {
		t.Fatalf("expected remote host, got %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := ClientIP(req); got != "203.0.113.9" {
		t.Fatalf("expected forwarded host, got %q", got)
	}
}
