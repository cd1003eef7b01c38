package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stackit/backend/internal/logging"
	"github.com/stackit/backend/internal/middleware"
	"github.com/stackit/backend/internal/models"
	"github.com/stackit/backend/internal/services"
)

// AdminHandler serves /admin. Role checks live in the services, so every
// route only needs an authenticated caller.
type AdminHandler struct {
	admin *services.AdminService
	users *services.UserService
}

func NewAdminHandler(admin *services.AdminService, users *services.UserService) *AdminHandler {
	return &AdminHandler{admin: admin, users: users}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, "AdminStats", err, "Failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(stats))
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := h.admin.ListUsers(r.Context(), middleware.GetUserID(r.Context()), services.AdminUsersParams{
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 20),
		Search: query.Get("search"),
		Role:   models.Role(query.Get("role")),
		Status: query.Get("status"),
	})
	if err != nil {
		writeServiceError(w, r, "AdminListUsers", err, "Failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(page))
}

func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	targetID := chi.URLParam(r, "id")

	var req models.UpdateRoleRequest
	if !decodeAndValidate(w, r, "SetRole", &req) {
		return
	}

	u, err := h.users.SetRole(r.Context(), actorID, targetID, req.Role)
	if err != nil {
		writeServiceError(w, r, "SetRole", err, "Failed to update role")
		return
	}

	logging.FromContext(r.Context()).Info("[SetRole] role changed", "target_id", targetID, "role", req.Role, "user_id", actorID)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(u))
}

func (h *AdminHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	targetID := chi.URLParam(r, "id")

	var req models.UpdateStatusRequest
	if !decodeAndValidate(w, r, "SetStatus", &req) {
		return
	}

	u, err := h.users.SetActive(r.Context(), actorID, targetID, *req.IsActive)
	if err != nil {
		writeServiceError(w, r, "SetStatus", err, "Failed to update status")
		return
	}

	logging.FromContext(r.Context()).Info("[SetStatus] status changed", "target_id", targetID, "is_active", *req.IsActive, "user_id", actorID)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(u))
}

func (h *AdminHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := h.admin.ListQuestions(r.Context(), middleware.GetUserID(r.Context()), services.AdminQuestionsParams{
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 20),
		Search: query.Get("search"),
		Status: query.Get("status"),
	})
	if err != nil {
		writeServiceError(w, r, "AdminListQuestions", err, "Failed to list questions")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(page))
}

func (h *AdminHandler) FeatureQuestion(w http.ResponseWriter, r *http.Request) {
	var req models.FeatureQuestionRequest
	if !decodeAndValidate(w, r, "FeatureQuestion", &req) {
		return
	}

	q, err := h.admin.SetFeatured(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), *req.Featured)
	if err != nil {
		writeServiceError(w, r, "FeatureQuestion", err, "Failed to update question")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(q))
}
