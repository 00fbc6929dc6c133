package notificationshandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perftrack/internal/domain/auth"
	"perftrack/internal/domain/notifications"
	"perftrack/internal/transport/http/api"
	"perftrack/internal/transport/http/middleware"
	"perftrack/internal/transport/http/shared"
)

type Handler struct {
	Service *notifications.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *notifications.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	manage := middleware.RequirePermission(auth.PermNotificationsRW, h.Perms)
	r.Route("/notifications", func(r chi.Router) {
		r.With(manage).Get("/", h.handleList)
		r.With(manage).Post("/{notificationID}/read", h.handleMarkRead)
		r.With(manage).Get("/settings", h.handleSettings)
		r.With(manage).Put("/settings", h.handleUpdateSettings)
	})
}

type settingsRequest struct {
	EmailEnabled bool   `json:"emailEnabled"`
	EmailFrom    string `json:"emailFrom" validate:"omitempty,email"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	items, total, err := h.Service.List(r.Context(), user.TenantID, user.UserID, page.Limit, page.Offset)
	if err != nil {
		slog.Error("notification list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "notification_list_failed", "failed to list notifications", middleware.GetRequestID(r.Context()))
		return
	}

	shared.WriteTotal(w, total)
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	notificationID := chi.URLParam(r, "notificationID")
	if err := h.Service.MarkRead(r.Context(), user.TenantID, user.UserID, notificationID); err != nil {
		slog.Error("notification mark read failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "notification_update_failed", "failed to update notification", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]string{"status": "read"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if user.RoleName != auth.RoleHR && user.RoleName != auth.RoleAdmin {
		api.Fail(w, http.StatusForbidden, "forbidden", "hr role required", middleware.GetRequestID(r.Context()))
		return
	}

	enabled, from, err := h.Service.GetSettings(r.Context(), user.TenantID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to load settings", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"emailEnabled": enabled, "emailFrom": from}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if user.RoleName != auth.RoleHR && user.RoleName != auth.RoleAdmin {
		api.Fail(w, http.StatusForbidden, "forbidden", "hr role required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Service.UpdateSettings(r.Context(), user.TenantID, payload.EmailEnabled, payload.EmailFrom); err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to update settings", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}
