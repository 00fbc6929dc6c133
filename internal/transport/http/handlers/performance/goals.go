package performancehandler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"perftrack/internal/domain/audit"
	"perftrack/internal/domain/performance"
	"perftrack/internal/platform/jobs"
	"perftrack/internal/transport/http/api"
	"perftrack/internal/transport/http/middleware"
	"perftrack/internal/transport/http/shared"
)

type createGoalRequest struct {
	OwnerID               string `json:"ownerId"`
	ReviewID              string `json:"reviewId"`
	Title                 string `json:"title" validate:"required,max=200"`
	Description           string `json:"description" validate:"max=4000"`
	Category              string `json:"category" validate:"required"`
	Priority              string `json:"priority" validate:"required"`
	Status                string `json:"status"`
	TargetDate            string `json:"targetDate" validate:"required"`
	AutoCalculateProgress bool   `json:"autoCalculateProgress"`
}

type updateGoalRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
	Category    *string `json:"category"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	TargetDate  *string `json:"targetDate"`
}

type progressRequest struct {
	Progress *int `json:"progress" validate:"required"`
}

type autoCalculateRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type linkReviewRequest struct {
	ReviewID string `json:"reviewId" validate:"required"`
}

func (h *Handler) handleListGoals(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := performance.GoalFilter{
		OwnerID:  query.Get("ownerId"),
		ReviewID: query.Get("reviewId"),
		Status:   performance.GoalStatus(query.Get("status")),
	}
	if selfOnly(user) {
		filter.OwnerID = user.UserID
	}

	goals, err := h.Service.ListGoals(r.Context(), user.TenantID, filter)
	if err != nil {
		h.fail(w, r, err, "goal_list_failed", "failed to list goals")
		return
	}
	shared.WriteTotal(w, len(goals))
	api.Success(w, goals, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var payload createGoalRequest
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

	ownerID := payload.OwnerID
	if ownerID == "" || selfOnly(user) {
		ownerID = user.UserID
	}
	assignedBy := ""
	if ownerID != user.UserID {
		assignedBy = user.UserID
	}

	goal, err := h.Service.CreateGoal(r.Context(), user.TenantID, performance.GoalInput{
		OwnerID:               ownerID,
		AssignedBy:            assignedBy,
		ReviewID:              payload.ReviewID,
		Title:                 payload.Title,
		Description:           payload.Description,
		Category:              performance.GoalCategory(payload.Category),
		Priority:              performance.GoalPriority(payload.Priority),
		Status:                performance.GoalStatus(payload.Status),
		TargetDate:            targetDate,
		AutoCalculateProgress: payload.AutoCalculateProgress,
	})
	if err != nil {
		h.fail(w, r, err, "goal_create_failed", "failed to create goal")
		return
	}
	h.audit(r, user, audit.ActionGoalCreate, "goal", goal.ID, nil, goal)
	api.Created(w, goal, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	goal, ok := h.goalForUser(w, r, user, chi.URLParam(r, "goalID"))
	if !ok {
		return
	}
	api.Success(w, goal, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	goalID := chi.URLParam(r, "goalID")

	var payload updateGoalRequest
	if !h.decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	targetDate := v.OptionalDate("targetDate", payload.TargetDate)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	before, ok := h.goalForUser(w, r, user, goalID)
	if !ok {
		return
	}

	upd := performance.GoalUpdate{
		Title:       payload.Title,
		Description: payload.Description,
		TargetDate:  targetDate,
	}
	if payload.Category != nil {
		category := performance.GoalCategory(*payload.Category)
		upd.Category = &category
	}
	if payload.Priority != nil {
		priority := performance.GoalPriority(*payload.Priority)
		upd.Priority = &priority
	}
	if payload.Status != nil {
		status := performance.GoalStatus(*payload.Status)
		upd.Status = &status
	}

	goal, err := h.Service.UpdateGoal(r.Context(), user.TenantID, goalID, upd)
	if err != nil {
		h.fail(w, r, err, "goal_update_failed", "failed to update goal")
		return
	}
	h.audit(r, user, audit.ActionGoalUpdate, "goal", goalID, before, goal)
	api.Success(w, goal, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGoalHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	goalID := chi.URLParam(r, "goalID")
	if _, ok := h.goalForUser(w, r, user, goalID); !ok {
		return
	}
	if h.Audit == nil {
		api.Fail(w, http.StatusNotImplemented, "audit_unavailable", "goal history requires the postgres backend", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	filter := audit.Filter{EntityType: "goal", EntityID: goalID}
	total, err := h.Audit.Count(r.Context(), user.TenantID, filter)
	if err != nil {
		h.fail(w, r, err, "goal_history_failed", "failed to load goal history")
		return
	}
	events, err := h.Audit.List(r.Context(), user.TenantID, filter, page.Limit, page.Offset)
	if err != nil {
		h.fail(w, r, err, "goal_history_failed", "failed to load goal history")
		return
	}
	shared.WriteTotal(w, total)
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleToggleAutoCalculation(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	goalID := chi.URLParam(r, "goalID")

	var payload autoCalculateRequest
	if !h.decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	before, ok := h.goalForUser(w, r, user, goalID)
	if !ok {
		return
	}

	goal, err := h.Service.ToggleAutoCalculation(r.Context(), user.TenantID, goalID, *payload.Enabled)
	if err != nil {
		h.fail(w, r, err, "goal_update_failed", "failed to update auto calculation")
		return
	}
	h.audit(r, user, audit.ActionGoalAutoCalculate, "goal", goalID,
		map[string]any{"autoCalculateProgress": before.AutoCalculateProgress, "progress": before.Progress},
		map[string]any{"autoCalculateProgress": goal.AutoCalculateProgress, "progress": goal.Progress})
	api.Success(w, goal, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	goalID := chi.URLParam(r, "goalID")

	var payload progressRequest
	if !h.decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	before, ok := h.goalForUser(w, r, user, goalID)
	if !ok {
		return
	}

	goal, err := h.Service.UpdateGoalProgressManually(r.Context(), user.TenantID, goalID, *payload.Progress)
	if err != nil {
		h.fail(w, r, err, "goal_update_failed", "failed to update progress")
		return
	}
	h.audit(r, user, audit.ActionGoalProgress, "goal", goalID,
		map[string]int{"progress": before.Progress},
		map[string]int{"progress": goal.Progress})
	api.Success(w, goal, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLinkReview(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	goalID := chi.URLParam(r, "goalID")

	var payload linkReviewRequest
	if !h.decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	before, ok := h.goalForUser(w, r, user, goalID)
	if !ok {
		return
	}
	if _, ok := h.reviewForUser(w, r, user, payload.ReviewID); !ok {
		return
	}

	goal, err := h.Service.LinkGoalToReview(r.Context(), user.TenantID, goalID, payload.ReviewID)
	if err != nil {
		h.fail(w, r, err, "goal_link_failed", "failed to link goal to review")
		return
	}
	h.audit(r, user, audit.ActionGoalLink, "goal", goalID,
		map[string]string{"reviewId": before.ReviewID},
		map[string]string{"reviewId": goal.ReviewID})
	api.Success(w, goal, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUnlinkReview(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	goalID := chi.URLParam(r, "goalID")
	before, ok := h.goalForUser(w, r, user, goalID)
	if !ok {
		return
	}

	goal, err := h.Service.UnlinkGoalFromReview(r.Context(), user.TenantID, goalID)
	if err != nil {
		h.fail(w, r, err, "goal_link_failed", "failed to unlink goal from review")
		return
	}
	h.audit(r, user, audit.ActionGoalUnlink, "goal", goalID, map[string]string{"reviewId": before.ReviewID}, nil)
	api.Success(w, goal, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResyncGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	goalID := chi.URLParam(r, "goalID")
	before, ok := h.goalForUser(w, r, user, goalID)
	if !ok {
		return
	}

	goal, err := h.Service.ResyncProgress(r.Context(), user.TenantID, goalID)
	if err != nil {
		h.fail(w, r, err, "goal_resync_failed", "failed to resync progress")
		return
	}
	h.audit(r, user, audit.ActionGoalResync, "goal", goalID,
		map[string]int{"progress": before.Progress},
		map[string]int{"progress": goal.Progress})
	api.Success(w, goal, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResyncTenant(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	wait := r.URL.Query().Get("wait") == "true"
	if h.Jobs != nil && !wait {
		if !h.Jobs.EnqueueResync(user.TenantID) {
			api.Fail(w, http.StatusServiceUnavailable, "job_queue_full", "job queue is full, retry later", middleware.GetRequestID(r.Context()))
			return
		}
		api.WriteJSON(w, http.StatusAccepted, api.Envelope{
			Success:   true,
			Data:      map[string]string{"status": "queued", "jobType": jobs.JobProgressResync},
			RequestID: middleware.GetRequestID(r.Context()),
		})
		return
	}

	var (
		result performance.ResyncResult
		err    error
	)
	if h.Jobs != nil {
		result, err = h.Jobs.ResyncTenantNow(r.Context(), user.TenantID)
	} else {
		result, err = h.Service.ResyncTenant(r.Context(), user.TenantID)
	}
	if err != nil {
		h.fail(w, r, err, "resync_failed", "failed to resync tenant progress")
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	ownerID := r.URL.Query().Get("ownerId")
	if selfOnly(user) {
		ownerID = user.UserID
	}
	summary, err := h.Service.Summary(r.Context(), user.TenantID, ownerID)
	if err != nil {
		h.fail(w, r, err, "summary_failed", "failed to build performance summary")
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}
