package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/stackit/backend/internal/models"
	"github.com/stackit/backend/internal/storage"
)

type QuestionService struct {
	store storage.Store
	views viewBuilder
	clock clockwork.Clock
}

func NewQuestionService(store storage.Store, clock clockwork.Clock) *QuestionService {
	return &QuestionService{store: store, views: viewBuilder{users: store}, clock: clock}
}

// ListQuestionsParams are the query options of GET /questions.
type ListQuestionsParams struct {
	Page     int
	Limit    int
	Sort     models.QuestionSort
	Tag      string
	Search   string
	Status   string // "" means open, "all" disables the filter
	Featured bool
	AuthorID string
}

func (s *QuestionService) CreateQuestion(ctx context.Context, authorID string, req *models.CreateQuestionRequest) (*models.QuestionView, error) {
	tags := models.NormalizeTags(req.Tags)
	if len(tags) == 0 || len(tags) > 5 {
		return nil, ErrInvalidTags
	}

	now := s.clock.Now()
	q := &models.Question{
		ID:        uuid.New().String(),
		Title:     req.Title,
		Content:   req.Content,
		AuthorID:  authorID,
		Tags:      tags,
		Votes:     models.VoteLedger{},
		Answers:   []string{},
		Status:    models.QuestionOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertQuestion(ctx, q); err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}

	for _, tag := range q.Tags {
		if err := s.store.IncrementQuestionCount(ctx, tag, 1, true); err != nil {
			slog.Warn("tag count update failed", "tag", tag, "question_id", q.ID, "error", err)
		}
	}

	author, err := s.store.FindUser(ctx, authorID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load author: %w", err)
	}

	v := questionView(q, author, authorID)
	v.HasVoted = &models.VoteState{}
	return v, nil
}

func (s *QuestionService) ListQuestions(ctx context.Context, p ListQuestionsParams, viewerID string) (*models.Page[*models.QuestionView], error) {
	page, limit := normalizePage(p.Page, p.Limit)

	f := storage.QuestionFilter{
		Tag:      p.Tag,
		Search:   p.Search,
		Featured: p.Featured,
		AuthorID: p.AuthorID,
		Sort:     p.Sort,
		Window:   pageWindow(page, limit),
	}
	switch p.Status {
	case "":
		f.Status = models.QuestionOpen
	case "all":
	default:
		f.Status = models.QuestionStatus(p.Status)
	}

	qs, total, err := s.store.FindQuestions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	views, err := s.views.questions(ctx, qs, viewerID)
	if err != nil {
		return nil, err
	}
	return &models.Page[*models.QuestionView]{
		Items:      views,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// GetQuestion returns the question with its answers. Every view by someone
// other than the author counts toward views.
func (s *QuestionService) GetQuestion(ctx context.Context, id, viewerID string) (*models.QuestionView, error) {
	q, err := s.store.FindQuestion(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}

	if viewerID != q.AuthorID {
		if err := s.store.IncrementViews(ctx, id); err != nil {
			slog.Warn("view count update failed", "question_id", id, "error", err)
		} else {
			q.Views++
		}
	}

	views, err := s.views.questions(ctx, []*models.Question{q}, viewerID)
	if err != nil {
		return nil, err
	}
	v := views[0]

	answers, _, err := s.store.FindAnswers(ctx, storage.AnswerFilter{QuestionID: q.ID})
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	// Accepted answer first, then the rest by creation time.
	ordered := make([]*models.Answer, 0, len(answers))
	for _, a := range answers {
		if a.IsAccepted {
			ordered = append(ordered, a)
		}
	}
	for _, a := range answers {
		if !a.IsAccepted {
			ordered = append(ordered, a)
		}
	}
	v.AnswerViews, err = s.views.answers(ctx, ordered, viewerID)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// DeleteQuestion removes a question together with its answers and releases
// its tags. The author or an admin may delete. The three removals run
// concurrently and all must succeed; a failure part way leaves whatever
// already completed in place.
func (s *QuestionService) DeleteQuestion(ctx context.Context, id, actorID string) error {
	q, err := s.store.FindQuestion(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrQuestionNotFound
	}
	if err != nil {
		return fmt.Errorf("load question: %w", err)
	}
	if q.AuthorID != actorID {
		if err := requireRole(ctx, s.store, actorID, models.RoleAdmin); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.DeleteAnswersByQuestion(gctx, q.ID)
		if err != nil {
			return fmt.Errorf("delete answers: %w", err)
		}
		slog.Debug("answers deleted with question", "question_id", q.ID, "count", n)
		return nil
	})
	g.Go(func() error {
		for _, tag := range q.Tags {
			if err := s.store.IncrementQuestionCount(gctx, tag, -1, false); err != nil {
				return fmt.Errorf("decrement tag %q: %w", tag, err)
			}
		}
		return nil
	})
	g.Go(func() error {
		if err := s.store.DeleteQuestion(gctx, q.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("delete question: %w", err)
		}
		return nil
	})
	return g.Wait()
}
