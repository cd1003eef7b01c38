package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stackit/backend/internal/logging"
	"github.com/stackit/backend/internal/middleware"
	"github.com/stackit/backend/internal/models"
	"github.com/stackit/backend/internal/services"
)

type TagHandler struct {
	tags *services.TagService
}

func NewTagHandler(tags *services.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := h.tags.ListTags(r.Context(),
		queryInt(r, "page", 1), queryInt(r, "limit", 20),
		query.Get("sort"), query.Get("search"))
	if err != nil {
		writeServiceError(w, r, "ListTags", err, "Failed to list tags")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(page))
}

func (h *TagHandler) PopularTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.PopularTags(r.Context(), queryInt(r, "limit", 10))
	if err != nil {
		writeServiceError(w, r, "PopularTags", err, "Failed to list tags")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(tags))
}

func (h *TagHandler) GetTag(w http.ResponseWriter, r *http.Request) {
	detail, err := h.tags.GetTag(r.Context(), chi.URLParam(r, "name"),
		queryInt(r, "page", 1), queryInt(r, "limit", 10), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, "GetTag", err, "Failed to get tag")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(detail))
}

func (h *TagHandler) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	res, err := h.tags.ToggleFollow(r.Context(), chi.URLParam(r, "name"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, "ToggleFollow", err, "Failed to follow tag")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(res))
}

func (h *TagHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.CreateTagRequest
	if !decodeAndValidate(w, r, "CreateTag", &req) {
		return
	}

	tag, err := h.tags.CreateTag(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, r, "CreateTag", err, "Failed to create tag")
		return
	}

	logging.FromContext(r.Context()).Info("[CreateTag] tag created", "tag", tag.Name, "user_id", userID)
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(tag))
}

func (h *TagHandler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateTagRequest
	if !decodeAndValidate(w, r, "UpdateTag", &req) {
		return
	}

	tag, err := h.tags.UpdateTag(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "name"), &req)
	if err != nil {
		writeServiceError(w, r, "UpdateTag", err, "Failed to update tag")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(tag))
}
