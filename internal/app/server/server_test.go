package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perftrack/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type goalView struct {
	ID                     string `json:"id"`
	Status                 string `json:"status"`
	Progress               int    `json:"progress"`
	ReviewID               string `json:"reviewId"`
	ProgressStatusMismatch bool   `json:"progressStatusMismatch"`
	LinkedBy               string `json:"linkedBy"`
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Defaults()
	cfg.DBDriver = config.DriverSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "perftrack.db")
	cfg.JWTSecret = "journey-secret"
	cfg.SeedAdminEmail = "hr@example.com"
	cfg.SeedAdminPassword = "change-me-please"
	cfg.RateLimitPerMinute = 1000

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	require.NotEmpty(t, app.TenantID)
	return app
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.True(t, env.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func login(t *testing.T, h http.Handler) (token, userID string) {
	t.Helper()
	rec := call(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "hr@example.com",
		"password": "change-me-please",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	decodeData(t, rec, &result)
	return result.Token, result.UserID
}

func TestHealthAndReadiness(t *testing.T) {
	h := newTestApp(t).Router()

	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/readyz", "", nil).Code)

	rec := call(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAnonymousRequestsAreRejected(t *testing.T) {
	h := newTestApp(t).Router()

	rec := call(t, h, http.MethodGet, "/api/v1/performance/goals", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "hr@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGoalProgressJourney(t *testing.T) {
	app := newTestApp(t)
	h := app.Router()
	token, userID := login(t, h)

	rec := call(t, h, http.MethodPost, "/api/v1/performance/reviews", token, map[string]string{
		"userId":  userID,
		"type":    "quarterly",
		"period":  "2026-Q3",
		"dueDate": "2026-09-30",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var review struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &review)

	rec = call(t, h, http.MethodPost, "/api/v1/performance/goals", token, map[string]any{
		"title":                 "Ship the reporting pipeline",
		"category":              "technical",
		"priority":              "high",
		"targetDate":            "2026-12-31",
		"autoCalculateProgress": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var goal goalView
	decodeData(t, rec, &goal)
	assert.Equal(t, "draft", goal.Status)
	assert.Equal(t, 0, goal.Progress)

	milestoneIDs := make([]string, 0, 4)
	for _, title := range []string{"Design", "Build", "Test", "Launch"} {
		rec = call(t, h, http.MethodPost, "/api/v1/performance/goals/"+goal.ID+"/milestones", token, map[string]string{
			"title":      title,
			"targetDate": "2026-11-30",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var milestone struct {
			ID string `json:"id"`
		}
		decodeData(t, rec, &milestone)
		milestoneIDs = append(milestoneIDs, milestone.ID)
	}

	getGoal := func() goalView {
		rec := call(t, h, http.MethodGet, "/api/v1/performance/goals/"+goal.ID, token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got goalView
		decodeData(t, rec, &got)
		return got
	}

	for i, want := range []int{25, 50, 75, 100} {
		rec = call(t, h, http.MethodPut, "/api/v1/performance/milestones/"+milestoneIDs[i]+"/toggle", token, map[string]bool{"completed": true})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, want, getGoal().Progress)
	}
	assert.True(t, getGoal().ProgressStatusMismatch)

	rec = call(t, h, http.MethodPut, "/api/v1/performance/goals/"+goal.ID+"/progress", token, map[string]int{"progress": 101})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 100, getGoal().Progress)

	rec = call(t, h, http.MethodPut, "/api/v1/performance/goals/"+goal.ID+"/progress", token, map[string]int{"progress": 40})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 40, getGoal().Progress)

	rec = call(t, h, http.MethodPut, "/api/v1/performance/milestones/"+milestoneIDs[3]+"/toggle", token, map[string]bool{"completed": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 75, getGoal().Progress)

	rec = call(t, h, http.MethodPut, "/api/v1/performance/goals/"+goal.ID+"/review", token, map[string]string{"reviewId": review.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodGet, "/api/v1/performance/reviews/"+review.ID+"/goals", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var linked []goalView
	decodeData(t, rec, &linked)
	require.Len(t, linked, 1)
	assert.Equal(t, goal.ID, linked[0].ID)

	rec = call(t, h, http.MethodGet, "/api/v1/performance/reviews/"+review.ID+"/report.pdf", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = call(t, h, http.MethodPut, "/api/v1/performance/milestones/does-not-exist/toggle", token, map[string]bool{"completed": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResyncAndJobHistory(t *testing.T) {
	h := newTestApp(t).Router()
	token, _ := login(t, h)

	rec := call(t, h, http.MethodPost, "/api/v1/performance/resync?wait=true", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		GoalsChecked int `json:"goalsChecked"`
	}
	decodeData(t, rec, &result)
	assert.Equal(t, 0, result.GoalsChecked)

	rec = call(t, h, http.MethodGet, "/api/v1/reports/jobs", token, nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = call(t, h, http.MethodGet, "/api/v1/audit/events", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestApp(t).Router()
	call(t, h, http.MethodGet, "/healthz", "", nil)

	rec := call(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "perftrack_http_requests_total"))

	token, _ := login(t, h)
	rec = call(t, h, http.MethodGet, "/api/v1/system/metrics", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
