package performancehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perftrack/internal/domain/audit"
	"perftrack/internal/domain/auth"
	"perftrack/internal/domain/performance"
	"perftrack/internal/domain/reports"
	"perftrack/internal/platform/jobs"
	"perftrack/internal/transport/http/api"
	"perftrack/internal/transport/http/middleware"
	"perftrack/internal/transport/http/shared"
)

type Handler struct {
	Service *performance.Service
	Reports *reports.Service
	Jobs    *jobs.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

// NewHandler wires the goal and review endpoints. jobs and auditSvc may be
// nil; tenant resync then runs inline and no audit trail is written.
func NewHandler(service *performance.Service, reportsSvc *reports.Service, jobsSvc *jobs.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Reports: reportsSvc, Jobs: jobsSvc, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermGoalsRead, h.Perms)
	write := middleware.RequirePermission(auth.PermGoalsWrite, h.Perms)
	admin := middleware.RequirePermission(auth.PermGoalsAdmin, h.Perms)
	reviewsRead := middleware.RequirePermission(auth.PermReviewsRead, h.Perms)
	reviewsWrite := middleware.RequirePermission(auth.PermReviewsWrite, h.Perms)
	reportsRead := middleware.RequirePermission(auth.PermReportsRead, h.Perms)

	r.Route("/performance", func(r chi.Router) {
		r.With(read).Get("/goals", h.handleListGoals)
		r.With(write).Post("/goals", h.handleCreateGoal)
		r.With(read).Get("/goals/{goalID}", h.handleGetGoal)
		r.With(write).Put("/goals/{goalID}", h.handleUpdateGoal)
		r.With(read).Get("/goals/{goalID}/history", h.handleGoalHistory)
		r.With(write).Put("/goals/{goalID}/auto-calculate", h.handleToggleAutoCalculation)
		r.With(write).Put("/goals/{goalID}/progress", h.handleUpdateProgress)
		r.With(write).Put("/goals/{goalID}/review", h.handleLinkReview)
		r.With(write).Delete("/goals/{goalID}/review", h.handleUnlinkReview)
		r.With(write).Post("/goals/{goalID}/resync", h.handleResyncGoal)

		r.With(read).Get("/goals/{goalID}/milestones", h.handleListMilestones)
		r.With(write).Post("/goals/{goalID}/milestones", h.handleCreateMilestone)
		r.With(write).Put("/milestones/{milestoneID}", h.handleUpdateMilestone)
		r.With(write).Delete("/milestones/{milestoneID}", h.handleDeleteMilestone)
		r.With(write).Put("/milestones/{milestoneID}/toggle", h.handleToggleMilestone)

		r.With(read).Get("/goals/{goalID}/metrics", h.handleListMetrics)
		r.With(write).Post("/goals/{goalID}/metrics", h.handleCreateMetric)
		r.With(write).Put("/metrics/{metricID}", h.handleUpdateMetric)
		r.With(write).Delete("/metrics/{metricID}", h.handleDeleteMetric)

		r.With(reviewsRead).Get("/reviews", h.handleListReviews)
		r.With(reviewsWrite).Post("/reviews", h.handleCreateReview)
		r.With(reviewsRead).Get("/reviews/{reviewID}", h.handleGetReview)
		r.With(reviewsWrite).Put("/reviews/{reviewID}", h.handleUpdateReview)
		r.With(reviewsRead).Post("/reviews/{reviewID}/self-complete", h.handleSelfComplete)
		r.With(reviewsWrite).Post("/reviews/{reviewID}/manager-complete", h.handleManagerComplete)
		r.With(reviewsRead).Get("/reviews/{reviewID}/goals", h.handleGoalsForReview)
		r.With(reportsRead).Get("/reviews/{reviewID}/report.pdf", h.handleReviewReport)

		r.With(read).Get("/summary", h.handleSummary)
		r.With(admin).Post("/resync", h.handleResyncTenant)
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request payload too large", middleware.GetRequestID(r.Context()))
			return false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

// fail maps domain errors onto the response envelope.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	var validation *performance.ValidationError
	switch {
	case errors.As(err, &validation):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: validation.Field, Reason: validation.Reason}})
	case errors.Is(err, performance.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	default:
		slog.Error(message, "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}

func (h *Handler) audit(r *http.Request, user auth.UserContext, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, action, entityType, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

func selfOnly(user auth.UserContext) bool {
	return user.RoleName == auth.RoleEmployee
}

// goalForUser loads a goal and hides it from employees who do not own it.
func (h *Handler) goalForUser(w http.ResponseWriter, r *http.Request, user auth.UserContext, goalID string) (performance.Goal, bool) {
	goal, err := h.Service.GetGoal(r.Context(), user.TenantID, goalID)
	if err != nil {
		h.fail(w, r, err, "goal_lookup_failed", "failed to load goal")
		return performance.Goal{}, false
	}
	if selfOnly(user) && goal.OwnerID != user.UserID {
		api.Fail(w, http.StatusNotFound, "not_found", "goal "+goalID+" not found", middleware.GetRequestID(r.Context()))
		return performance.Goal{}, false
	}
	return goal, true
}

func (h *Handler) reviewForUser(w http.ResponseWriter, r *http.Request, user auth.UserContext, reviewID string) (performance.Review, bool) {
	review, err := h.Service.GetReview(r.Context(), user.TenantID, reviewID)
	if err != nil {
		h.fail(w, r, err, "review_lookup_failed", "failed to load review")
		return performance.Review{}, false
	}
	if selfOnly(user) && review.UserID != user.UserID {
		api.Fail(w, http.StatusNotFound, "not_found", "review "+reviewID+" not found", middleware.GetRequestID(r.Context()))
		return performance.Review{}, false
	}
	return review, true
}

func requireUser(w http.ResponseWriter, r *http.Request) (auth.UserContext, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
	}
	return user, ok
}
