package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/stackit/backend/internal/metrics"
	"github.com/stackit/backend/internal/models"
	"github.com/stackit/backend/internal/storage"
)

type AnswerService struct {
	store         storage.Store
	reputation    *ReputationService
	notifications *NotificationService
	clock         clockwork.Clock
}

func NewAnswerService(store storage.Store, reputation *ReputationService, notifications *NotificationService, clock clockwork.Clock) *AnswerService {
	return &AnswerService{
		store:         store,
		reputation:    reputation,
		notifications: notifications,
		clock:         clock,
	}
}

func (s *AnswerService) findQuestion(ctx context.Context, id string) (*models.Question, error) {
	q, err := s.store.FindQuestion(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	return q, nil
}

func (s *AnswerService) findAnswer(ctx context.Context, id string) (*models.Answer, error) {
	a, err := s.store.FindAnswer(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrAnswerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load answer: %w", err)
	}
	return a, nil
}

// CreateAnswer adds an answer under req.QuestionID and tells the question
// author about it unless they answered their own question.
func (s *AnswerService) CreateAnswer(ctx context.Context, authorID string, req *models.CreateAnswerRequest) (*models.AnswerView, error) {
	q, err := s.findQuestion(ctx, req.QuestionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	a := &models.Answer{
		ID:         uuid.New().String(),
		Content:    req.Content,
		AuthorID:   authorID,
		QuestionID: q.ID,
		Votes:      models.VoteLedger{},
		IsAccepted: false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.InsertAnswer(ctx, a); err != nil {
		return nil, fmt.Errorf("insert answer: %w", err)
	}
	if err := s.store.PushAnswer(ctx, q.ID, a.ID); err != nil {
		return nil, fmt.Errorf("link answer to question: %w", err)
	}

	author, err := s.store.FindUser(ctx, authorID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load author: %w", err)
	}

	if authorID != q.AuthorID {
		s.notifications.Notify(ctx, &models.Notification{
			Recipient: q.AuthorID,
			Sender:    authorID,
			Type:      models.NotificationAnswer,
			Title:     "New Answer",
			Message:   fmt.Sprintf("%s answered your question: %s", displayName(author), q.Title),
			Link:      "/questions/" + q.ID,
			Data:      models.NotificationData{QuestionID: q.ID, AnswerID: a.ID},
		})
	}

	// A new answer has no votes, including the author's own.
	return &models.AnswerView{
		Answer:    a,
		Author:    author.Summary(),
		VoteScore: 0,
		HasVoted:  &models.VoteState{},
	}, nil
}

// AcceptAnswer accepts answerID on the question it belongs to.
func (s *AnswerService) AcceptAnswer(ctx context.Context, answerID, actorID string) (*models.Answer, error) {
	a, err := s.findAnswer(ctx, answerID)
	if err != nil {
		return nil, err
	}
	q, err := s.findQuestion(ctx, a.QuestionID)
	if err != nil {
		return nil, err
	}
	return s.accept(ctx, q, a, actorID)
}

// Accept accepts answerID as the solution of questionID. The answer must
// belong to that question.
func (s *AnswerService) Accept(ctx context.Context, questionID, answerID, actorID string) (*models.Answer, error) {
	q, err := s.findQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	a, err := s.findAnswer(ctx, answerID)
	if err != nil {
		return nil, err
	}
	return s.accept(ctx, q, a, actorID)
}

// accept moves the question's accepted answer to a and credits a's author.
// Accepting the already accepted answer credits the author again. There is no
// way to unaccept other than accepting a different answer.
func (s *AnswerService) accept(ctx context.Context, q *models.Question, a *models.Answer, actorID string) (*models.Answer, error) {
	if q.AuthorID != actorID {
		return nil, ErrNotQuestionAuthor
	}
	if a.QuestionID != q.ID {
		return nil, ErrAnswerNotFound
	}

	if prev := q.AcceptedAnswer; prev != "" && prev != a.ID {
		err := s.store.SetAnswerAccepted(ctx, prev, false)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("clear previous accepted answer: %w", err)
		}
	}
	if err := s.store.SetAnswerAccepted(ctx, a.ID, true); err != nil {
		return nil, fmt.Errorf("mark answer accepted: %w", err)
	}
	a.IsAccepted = true
	if err := s.store.SetAcceptedAnswer(ctx, q.ID, a.ID); err != nil {
		return nil, fmt.Errorf("set accepted answer: %w", err)
	}
	metrics.AnswersAcceptedTotal.Inc()

	if _, err := s.reputation.Apply(ctx, a.AuthorID, ReputationAccept, "accept"); err != nil {
		return nil, err
	}

	if a.AuthorID != actorID {
		actor, err := s.store.FindUser(ctx, actorID)
		if err != nil {
			slog.Warn("load accepting user", "user_id", actorID, "error", err)
		}
		s.notifications.Notify(ctx, &models.Notification{
			Recipient: a.AuthorID,
			Sender:    actorID,
			Type:      models.NotificationAccept,
			Title:     "Answer Accepted!",
			Message:   fmt.Sprintf("%s accepted your answer", displayName(actor)),
			Link:      "/questions/" + q.ID,
			Data:      models.NotificationData{QuestionID: q.ID, AnswerID: a.ID},
		})
	}
	return a, nil
}

// DeleteAnswer removes an answer. Only its author or an admin may do this.
func (s *AnswerService) DeleteAnswer(ctx context.Context, answerID, actorID string) error {
	a, err := s.findAnswer(ctx, answerID)
	if err != nil {
		return err
	}
	if a.AuthorID != actorID {
		if err := requireRole(ctx, s.store, actorID, models.RoleAdmin); err != nil {
			return err
		}
	}

	q, err := s.store.FindQuestion(ctx, a.QuestionID)
	switch {
	case err == nil:
		if err := s.store.PullAnswer(ctx, q.ID, a.ID, q.AcceptedAnswer == a.ID); err != nil {
			return fmt.Errorf("unlink answer: %w", err)
		}
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("load question: %w", err)
	}

	if err := s.store.DeleteAnswer(ctx, a.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete answer: %w", err)
	}
	return nil
}

func displayName(u *models.User) string {
	if u == nil || u.Username == "" {
		return "Someone"
	}
	return u.Username
}

// requireRole loads actorID and fails with ErrNotAuthorized unless it holds
// one of roles.
func requireRole(ctx context.Context, users storage.Users, actorID string, roles ...models.Role) error {
	u, err := users.FindUser(ctx, actorID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotAuthorized
	}
	if err != nil {
		return fmt.Errorf("load actor: %w", err)
	}
	for _, r := range roles {
		if u.Role == r {
			return nil
		}
	}
	return ErrNotAuthorized
}
