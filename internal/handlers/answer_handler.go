package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stackit/backend/internal/logging"
	"github.com/stackit/backend/internal/middleware"
	"github.com/stackit/backend/internal/models"
	"github.com/stackit/backend/internal/services"
)

type AnswerHandler struct {
	answers *services.AnswerService
	voting  *services.VotingService
}

func NewAnswerHandler(answers *services.AnswerService, voting *services.VotingService) *AnswerHandler {
	return &AnswerHandler{answers: answers, voting: voting}
}

func (h *AnswerHandler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.CreateAnswerRequest
	if !decodeAndValidate(w, r, "CreateAnswer", &req) {
		return
	}

	a, err := h.answers.CreateAnswer(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, r, "CreateAnswer", err, "Failed to create answer")
		return
	}

	logging.FromContext(r.Context()).Info("[CreateAnswer] answer created", "answer_id", a.ID, "question_id", req.QuestionID, "user_id", userID)
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(a))
}

func (h *AnswerHandler) VoteAnswer(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	answerID := chi.URLParam(r, "id")

	var req models.VoteRequest
	if !decodeAndValidate(w, r, "VoteAnswer", &req) {
		return
	}

	res, err := h.voting.VoteAnswer(r.Context(), answerID, userID, req.Type)
	if err != nil {
		writeServiceError(w, r, "VoteAnswer", err, "Failed to vote")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(res))
}

// AcceptAnswer handles PUT /answers/{id}/accept.
func (h *AnswerHandler) AcceptAnswer(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	answerID := chi.URLParam(r, "id")

	a, err := h.answers.AcceptAnswer(r.Context(), answerID, userID)
	if err != nil {
		writeServiceError(w, r, "AcceptAnswer", err, "Failed to accept answer")
		return
	}

	logging.FromContext(r.Context()).Info("[AcceptAnswer] answer accepted", "answer_id", a.ID, "question_id", a.QuestionID, "user_id", userID)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.MessageResponse{Message: "Answer accepted successfully"}))
}

// AcceptOnQuestion handles PUT /questions/{id}/answers/{answerId}/accept,
// which also checks the answer belongs to the question.
func (h *AnswerHandler) AcceptOnQuestion(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	questionID := chi.URLParam(r, "id")
	answerID := chi.URLParam(r, "answerId")

	a, err := h.answers.Accept(r.Context(), questionID, answerID, userID)
	if err != nil {
		writeServiceError(w, r, "AcceptAnswer", err, "Failed to accept answer")
		return
	}

	logging.FromContext(r.Context()).Info("[AcceptAnswer] answer accepted", "answer_id", a.ID, "question_id", questionID, "user_id", userID)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.MessageResponse{Message: "Answer accepted successfully"}))
}

func (h *AnswerHandler) DeleteAnswer(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	answerID := chi.URLParam(r, "id")

	if err := h.answers.DeleteAnswer(r.Context(), answerID, userID); err != nil {
		writeServiceError(w, r, "DeleteAnswer", err, "Failed to delete answer")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.MessageResponse{Message: "Answer deleted successfully"}))
}
