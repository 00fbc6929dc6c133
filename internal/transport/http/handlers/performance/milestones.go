package performancehandler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"perftrack/internal/domain/audit"
	"perftrack/internal/domain/auth"
	"perftrack/internal/domain/performance"
	"perftrack/internal/transport/http/api"
	"perftrack/internal/transport/http/middleware"
	"perftrack/internal/transport/http/shared"
)

type createMilestoneRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	TargetDate  string `json:"targetDate" validate:"required"`
}

type updateMilestoneRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	TargetDate  *string `json:"targetDate"`
}

type toggleMilestoneRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

type createMetricRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Target  float64 `json:"target"`
	Current float64 `json:"current"`
	Unit    string  `json:"unit" validate:"max=50"`
}

type updateMetricRequest struct {
	Name    *string  `json:"name" validate:"omitempty,max=200"`
	Target  *float64 `json:"target"`
	Current *float64 `json:"current"`
	Unit    *string  `json:"unit" validate:"omitempty,max=50"`
}

// milestoneForUser resolves the milestone and checks the caller may see its
// goal.
func (h *Handler) milestoneForUser(w http.ResponseWriter, r *http.Request, user auth.UserContext, milestoneID string) (performance.Milestone, bool) {
	milestone, err := h.Service.GetMilestone(r.Context(), user.TenantID, milestoneID)
	if err != nil {
		h.fail(w, r, err, "milestone_lookup_failed", "failed to load milestone")
		return performance.Milestone{}, false
	}
	if selfOnly(user) {
		if _, ok := h.goalForUser(w, r, user, milestone.GoalID); !ok {
			return performance.Milestone{}, false
		}
	}
	return milestone, true
}

func (h *Handler) metricForUser(w http.ResponseWriter, r *http.Request, user auth.UserContext, metricID string) (performance.Metric, bool) {
	metric, err := h.Service.GetMetric(r.Context(), user.TenantID, metricID)
	if err != nil {
		h.fail(w, r, err, "metric_lookup_failed", "failed to load metric")
		return performance.Metric{}, false
	}
	if selfOnly(user) {
		if _, ok := h.goalForUser(w, r, user, metric.GoalID); !ok {
			return performance.Metric{}, false
		}
	}
	return metric, true
}

func (h *Handler) handleListMilestones(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	goal, ok := h.goalForUser(w, r, user, chi.URLParam(r, "goalID"))
	if !ok {
		return
	}
	api.Success(w, goal.Milestones, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateMilestone(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	goalID := chi.URLParam(r, "goalID")

	var payload createMilestoneRequest
	if !h.decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	var targetDate time.Time
	if payload.TargetDate != "" {
		targetDate, _ = v.Date("targetDate", payload.TargetDate)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if _, ok := h.goalForUser(w, r, user, goalID); !ok {
		return
	}

	milestone, err := h.Service.CreateMilestone(r.Context(), user.TenantID, goalID, performance.MilestoneInput{
		Title:       payload.Title,
		Description: payload.Description,
		TargetDate:  targetDate,
	})
	if err != nil {
		h.fail(w, r, err, "milestone_create_failed", "failed to create milestone")
		return
	}
	h.audit(r, user, audit.ActionMilestoneCreate, "milestone", milestone.ID, nil, milestone)
	api.Created(w, milestone, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateMilestone(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	milestoneID := chi.URLParam(r, "milestoneID")

	var payload updateMilestoneRequest
	if !h.decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	targetDate := v.OptionalDate("targetDate", payload.TargetDate)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	before, ok := h.milestoneForUser(w, r, user, milestoneID)
	if !ok {
		return
	}

	milestone, err := h.Service.UpdateMilestone(r.Context(), user.TenantID, milestoneID, performance.MilestoneUpdate{
		Title:       payload.Title,
		Description: payload.Description,
		TargetDate:  targetDate,
	})
	if err != nil {
		h.fail(w, r, err, "milestone_update_failed", "failed to update milestone")
		return
	}
	h.audit(r, user, audit.ActionMilestoneUpdate, "milestone", milestoneID, before, milestone)
	api.Success(w, milestone, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteMilestone(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	milestoneID := chi.URLParam(r, "milestoneID")
	before, ok := h.milestoneForUser(w, r, user, milestoneID)
	if !ok {
		return
	}

	if err := h.Service.DeleteMilestone(r.Context(), user.TenantID, milestoneID); err != nil {
		h.fail(w, r, err, "milestone_delete_failed", "failed to delete milestone")
		return
	}
	h.audit(r, user, audit.ActionMilestoneDelete, "milestone", milestoneID, before, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleToggleMilestone(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	milestoneID := chi.URLParam(r, "milestoneID")

	var payload toggleMilestoneRequest
	if !h.decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	before, ok := h.milestoneForUser(w, r, user, milestoneID)
	if !ok {
		return
	}

	milestone, err := h.Service.ToggleMilestone(r.Context(), user.TenantID, milestoneID, *payload.Completed)
	if err != nil {
		h.fail(w, r, err, "milestone_toggle_failed", "failed to toggle milestone")
		return
	}
	h.audit(r, user, audit.ActionMilestoneToggle, "milestone", milestoneID,
		map[string]bool{"completed": before.Completed},
		map[string]bool{"completed": milestone.Completed})
	api.Success(w, milestone, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	goal, ok := h.goalForUser(w, r, user, chi.URLParam(r, "goalID"))
	if !ok {
		return
	}
	api.Success(w, goal.Metrics, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateMetric(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	goalID := chi.URLParam(r, "goalID")

	var payload createMetricRequest
	if !h.decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if _, ok := h.goalForUser(w, r, user, goalID); !ok {
		return
	}

	metric, err := h.Service.CreateMetric(r.Context(), user.TenantID, goalID, performance.MetricInput{
		Name:    payload.Name,
		Target:  payload.Target,
		Current: payload.Current,
		Unit:    payload.Unit,
	})
	if err != nil {
		h.fail(w, r, err, "metric_create_failed", "failed to create metric")
		return
	}
	h.audit(r, user, audit.ActionMetricCreate, "metric", metric.ID, nil, metric)
	api.Created(w, metric, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateMetric(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	metricID := chi.URLParam(r, "metricID")

	var payload updateMetricRequest
	if !h.decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	before, ok := h.metricForUser(w, r, user, metricID)
	if !ok {
		return
	}

	metric, err := h.Service.UpdateMetric(r.Context(), user.TenantID, metricID, performance.MetricUpdate{
		Name:    payload.Name,
		Target:  payload.Target,
		Current: payload.Current,
		Unit:    payload.Unit,
	})
	if err != nil {
		h.fail(w, r, err, "metric_update_failed", "failed to update metric")
		return
	}
	h.audit(r, user, audit.ActionMetricUpdate, "metric", metricID, before, metric)
	api.Success(w, metric, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteMetric(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	metricID := chi.URLParam(r, "metricID")
	before, ok := h.metricForUser(w, r, user, metricID)
	if !ok {
		return
	}

	if err := h.Service.DeleteMetric(r.Context(), user.TenantID, metricID); err != nil {
		h.fail(w, r, err, "metric_delete_failed", "failed to delete metric")
		return
	}
	h.audit(r, user, audit.ActionMetricDelete, "metric", metricID, before, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}
