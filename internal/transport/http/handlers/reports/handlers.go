package reportshandler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"perftrack/internal/domain/auth"
	"perftrack/internal/domain/reports"
	"perftrack/internal/transport/http/api"
	"perftrack/internal/transport/http/middleware"
	"perftrack/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *reports.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/jobs", h.handleListJobRuns)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/jobs/{runID}", h.handleGetJobRun)
	})
}

func (h *Handler) handleListJobRuns(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	query := r.URL.Query()
	v := shared.NewValidator()
	filter := reports.JobRunFilter{
		JobType: query.Get("jobType"),
		Status:  query.Get("status"),
	}
	if raw := query.Get("startedFrom"); raw != "" {
		filter.StartedFrom = v.OptionalDate("startedFrom", &raw)
	}
	if raw := query.Get("startedTo"); raw != "" {
		filter.StartedTo = v.OptionalDate("startedTo", &raw)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	runs, total, err := h.Service.JobRuns(r.Context(), user.TenantID, filter, page.Limit, page.Offset)
	if err != nil {
		h.failJobs(w, r, err)
		return
	}

	shared.WriteTotal(w, total)
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetJobRun(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	run, err := h.Service.JobRun(r.Context(), user.TenantID, chi.URLParam(r, "runID"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusNotFound, "not_found", "job run not found", middleware.GetRequestID(r.Context()))
			return
		}
		h.failJobs(w, r, err)
		return
	}
	api.Success(w, run, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failJobs(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, reports.ErrJobHistoryUnavailable) {
		api.Fail(w, http.StatusNotImplemented, "not_supported", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	slog.Error("job run lookup failed", "err", err)
	api.Fail(w, http.StatusInternalServerError, "job_runs_failed", "failed to load job runs", middleware.GetRequestID(r.Context()))
}
