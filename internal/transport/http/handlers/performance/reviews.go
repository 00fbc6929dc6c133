package performancehandler

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"perftrack/internal/domain/audit"
	"perftrack/internal/domain/auth"
	"perftrack/internal/domain/performance"
	"perftrack/internal/transport/http/api"
	"perftrack/internal/transport/http/middleware"
	"perftrack/internal/transport/http/shared"
)

type createReviewRequest struct {
	UserID     string `json:"userId" validate:"required"`
	ManagerID  string `json:"managerId"`
	TemplateID string `json:"templateId"`
	Type       string `json:"type" validate:"required"`
	Period     string `json:"period" validate:"max=50"`
	DueDate    string `json:"dueDate" validate:"required"`
}

type updateReviewRequest struct {
	Status  *string `json:"status"`
	Outcome *string `json:"outcome" validate:"omitempty,max=4000"`
	DueDate *string `json:"dueDate"`
}

func (h *Handler) handleListReviews(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	filter := performance.ReviewFilter{
		UserID:    query.Get("userId"),
		ManagerID: query.Get("managerId"),
		Status:    performance.ReviewStatus(query.Get("status")),
	}
	if selfOnly(user) {
		filter.UserID = user.UserID
	}

	reviews, err := h.Service.ListReviews(r.Context(), user.TenantID, filter)
	if err != nil {
		h.fail(w, r, err, "review_list_failed", "failed to list reviews")
		return
	}
	shared.WriteTotal(w, len(reviews))
	api.Success(w, reviews, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var payload createReviewRequest
	if !h.decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	var dueDate time.Time
	if payload.DueDate != "" {
		dueDate, _ = v.Date("dueDate", payload.DueDate)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	managerID := payload.ManagerID
	if managerID == "" {
		managerID = user.UserID
	}

	review, err := h.Service.CreateReview(r.Context(), user.TenantID, performance.ReviewInput{
		UserID:     payload.UserID,
		ManagerID:  managerID,
		TemplateID: payload.TemplateID,
		Type:       performance.ReviewType(payload.Type),
		Period:     payload.Period,
		DueDate:    dueDate,
	})
	if err != nil {
		h.fail(w, r, err, "review_create_failed", "failed to create review")
		return
	}
	h.audit(r, user, audit.ActionReviewCreate, "review", review.ID, nil, review)
	api.Created(w, review, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetReview(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	review, ok := h.reviewForUser(w, r, user, chi.URLParam(r, "reviewID"))
	if !ok {
		return
	}
	api.Success(w, review, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	reviewID := chi.URLParam(r, "reviewID")

	var payload updateReviewRequest
	if !h.decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	dueDate := v.OptionalDate("dueDate", payload.DueDate)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	before, ok := h.reviewForUser(w, r, user, reviewID)
	if !ok {
		return
	}

	upd := performance.ReviewUpdate{Outcome: payload.Outcome, DueDate: dueDate}
	if payload.Status != nil {
		status := performance.ReviewStatus(*payload.Status)
		upd.Status = &status
	}
	review, err := h.Service.UpdateReview(r.Context(), user.TenantID, reviewID, upd)
	if err != nil {
		h.fail(w, r, err, "review_update_failed", "failed to update review")
		return
	}
	h.audit(r, user, audit.ActionReviewUpdate, "review", reviewID, before, review)
	api.Success(w, review, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSelfComplete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	reviewID := chi.URLParam(r, "reviewID")
	before, ok := h.reviewForUser(w, r, user, reviewID)
	if !ok {
		return
	}
	if before.UserID != user.UserID && !canActForOthers(user) {
		api.Fail(w, http.StatusForbidden, "forbidden", "only the reviewee can complete the self review", middleware.GetRequestID(r.Context()))
		return
	}

	review, err := h.Service.MarkSelfComplete(r.Context(), user.TenantID, reviewID)
	if err != nil {
		h.fail(w, r, err, "review_update_failed", "failed to complete self review")
		return
	}
	h.audit(r, user, audit.ActionReviewComplete, "review", reviewID, before, review)
	api.Success(w, review, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleManagerComplete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	reviewID := chi.URLParam(r, "reviewID")
	before, ok := h.reviewForUser(w, r, user, reviewID)
	if !ok {
		return
	}
	if before.ManagerID != user.UserID && !canActForOthers(user) {
		api.Fail(w, http.StatusForbidden, "forbidden", "only the assigned manager can complete the manager review", middleware.GetRequestID(r.Context()))
		return
	}

	review, err := h.Service.MarkManagerComplete(r.Context(), user.TenantID, reviewID)
	if err != nil {
		h.fail(w, r, err, "review_update_failed", "failed to complete manager review")
		return
	}
	h.audit(r, user, audit.ActionReviewComplete, "review", reviewID, before, review)
	api.Success(w, review, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGoalsForReview(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	reviewID := chi.URLParam(r, "reviewID")
	if _, ok := h.reviewForUser(w, r, user, reviewID); !ok {
		return
	}

	opts := performance.ListGoalsForReviewOptions{IncludeDateWindow: r.URL.Query().Get("window") == "true"}
	goals, err := h.Service.ListGoalsForReview(r.Context(), user.TenantID, reviewID, opts)
	if err != nil {
		h.fail(w, r, err, "goal_list_failed", "failed to list goals for review")
		return
	}
	shared.WriteTotal(w, len(goals))
	api.Success(w, goals, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReviewReport(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	reviewID := chi.URLParam(r, "reviewID")

	var buf bytes.Buffer
	includeWindow := r.URL.Query().Get("window") == "true"
	if err := h.Reports.WriteReviewReport(r.Context(), &buf, user.TenantID, reviewID, includeWindow); err != nil {
		h.fail(w, r, err, "report_failed", "failed to render review report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=review-"+reviewID+".pdf")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func canActForOthers(user auth.UserContext) bool {
	return user.RoleName == auth.RoleHR || user.RoleName == auth.RoleAdmin
}
