package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stackit/backend/internal/middleware"
	"github.com/stackit/backend/internal/models"
	"github.com/stackit/backend/internal/services"
)

// NotificationHandler serves the caller's own inbox.
type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.notifications.List(r.Context(), middleware.GetUserID(r.Context()),
		queryInt(r, "page", 1), queryInt(r, "limit", 20), queryBool(r, "unreadOnly"))
	if err != nil {
		writeServiceError(w, r, "ListNotifications", err, "Failed to list notifications")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(list))
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.UnreadCount(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, "UnreadCount", err, "Failed to count notifications")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.UnreadCount{UnreadCount: n}))
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.MarkRead(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, "MarkRead", err, "Failed to update notification")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(n))
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if _, err := h.notifications.MarkAllRead(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		writeServiceError(w, r, "MarkAllRead", err, "Failed to update notifications")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.MessageResponse{Message: "All notifications marked as read"}))
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.Delete(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, "DeleteNotification", err, "Failed to delete notification")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.MessageResponse{Message: "Notification deleted"}))
}
