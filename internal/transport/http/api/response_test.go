package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFailWithDetailsWritesEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	FailWithDetails(rec, http.StatusBadRequest, "validation_error", "bad", map[string]any{"field": "progress"}, "req-1")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var env struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
		RequestID string `json:"requestId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.Error.Code != "validation_error" || env.RequestID != "req-1" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if env.Error.Details["field"] != "progress" {
		t.Fatalf("expected details to be carried, got %+v", env.Error.Details)
	}
}

func TestFailOmitsDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, http.StatusNotFound, "not_found", "missing", "")
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var success bool
	if err := json.Unmarshal(raw["success"], &success); err != nil || success {
		t.Fatalf("expected success=false, got %s", raw["success"])
	}
	var errBody map[string]any
	if err := json.Unmarshal(raw["error"], &errBody); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errBody["code"] != "not_found" {
		t.Fatalf("unexpected error body %+v", errBody)
	}
	if _, ok := errBody["details"]; ok {
		t.Fatal("did not expect details key")
	}
}
