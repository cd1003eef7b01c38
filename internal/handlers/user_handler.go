package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stackit/backend/internal/logging"
	"github.com/stackit/backend/internal/middleware"
	"github.com/stackit/backend/internal/models"
	"github.com/stackit/backend/internal/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeAndValidate(w, r, "Register", &req) {
		return
	}

	u, err := h.users.Register(r.Context(), &req, clientIP(r))
	if err != nil {
		writeServiceError(w, r, "Register", err, "Failed to register user")
		return
	}

	logging.FromContext(r.Context()).Info("[Register] user registered", "user_id", u.ID)
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(u))
}

// Me returns the caller's own account including private fields.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, "Me", err, "Failed to get user")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(u))
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.UpdateProfileRequest
	if !decodeAndValidate(w, r, "UpdateProfile", &req) {
		return
	}

	u, err := h.users.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, r, "UpdateProfile", err, "Failed to update profile")
		return
	}

	logging.FromContext(r.Context()).Info("[UpdateProfile] profile updated", "user_id", userID)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(u))
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := h.users.ListUsers(r.Context(),
		queryInt(r, "page", 1), queryInt(r, "limit", 20),
		query.Get("sort"), query.Get("search"))
	if err != nil {
		writeServiceError(w, r, "ListUsers", err, "Failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(page))
}

func (h *UserHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.Leaderboard(r.Context(), queryInt(r, "limit", 10))
	if err != nil {
		writeServiceError(w, r, "Leaderboard", err, "Failed to load leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(users))
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.GetProfile(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, "GetUser", err, "Failed to get user")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(profile))
}

func (h *UserHandler) UserQuestions(w http.ResponseWriter, r *http.Request) {
	page, err := h.users.UserQuestions(r.Context(), chi.URLParam(r, "id"),
		queryInt(r, "page", 1), queryInt(r, "limit", 10), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, "UserQuestions", err, "Failed to list questions")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(page))
}

func (h *UserHandler) UserAnswers(w http.ResponseWriter, r *http.Request) {
	page, err := h.users.UserAnswers(r.Context(), chi.URLParam(r, "id"),
		queryInt(r, "page", 1), queryInt(r, "limit", 10), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, "UserAnswers", err, "Failed to list answers")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(page))
}
