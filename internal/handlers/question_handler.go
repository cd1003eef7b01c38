package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stackit/backend/internal/logging"
	"github.com/stackit/backend/internal/middleware"
	"github.com/stackit/backend/internal/models"
	"github.com/stackit/backend/internal/services"
)

type QuestionHandler struct {
	questions *services.QuestionService
	voting    *services.VotingService
}

func NewQuestionHandler(questions *services.QuestionService, voting *services.VotingService) *QuestionHandler {
	return &QuestionHandler{questions: questions, voting: voting}
}

func (h *QuestionHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.CreateQuestionRequest
	if !decodeAndValidate(w, r, "CreateQuestion", &req) {
		return
	}

	q, err := h.questions.CreateQuestion(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, r, "CreateQuestion", err, "Failed to create question")
		return
	}

	logging.FromContext(r.Context()).Info("[CreateQuestion] question created", "question_id", q.ID, "user_id", userID)
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(q))
}

func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	p := services.ListQuestionsParams{
		Page:     queryInt(r, "page", 1),
		Limit:    queryInt(r, "limit", 10),
		Sort:     models.QuestionSort(query.Get("sort")),
		Tag:      query.Get("tag"),
		Search:   query.Get("search"),
		Status:   query.Get("status"),
		Featured: queryBool(r, "featured"),
	}

	page, err := h.questions.ListQuestions(r.Context(), p, middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, "ListQuestions", err, "Failed to list questions")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(page))
}

func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "id")

	q, err := h.questions.GetQuestion(r.Context(), questionID, middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, "GetQuestion", err, "Failed to get question")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(q))
}

func (h *QuestionHandler) VoteQuestion(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	questionID := chi.URLParam(r, "id")

	var req models.VoteRequest
	if !decodeAndValidate(w, r, "VoteQuestion", &req) {
		return
	}

	res, err := h.voting.VoteQuestion(r.Context(), questionID, userID, req.Type)
	if err != nil {
		writeServiceError(w, r, "VoteQuestion", err, "Failed to vote")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(res))
}

func (h *QuestionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	questionID := chi.URLParam(r, "id")

	if err := h.questions.DeleteQuestion(r.Context(), questionID, userID); err != nil {
		writeServiceError(w, r, "DeleteQuestion", err, "Failed to delete question")
		return
	}

	logging.FromContext(r.Context()).Info("[DeleteQuestion] question deleted", "question_id", questionID, "user_id", userID)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.MessageResponse{Message: "Question deleted successfully"}))
}
