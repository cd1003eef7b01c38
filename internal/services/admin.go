package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/stackit/backend/internal/models"
	"github.com/stackit/backend/internal/storage"
)

const (
	recentWindow   = 30 * 24 * time.Hour
	statsTopN      = 5
	adminPageLimit = 20
)

// AdminService backs the staff dashboard. Stats and question moderation are
// open to admins and moderators; user listing is admin only.
type AdminService struct {
	store storage.Store
	views viewBuilder
	clock clockwork.Clock
}

func NewAdminService(store storage.Store, clock clockwork.Clock) *AdminService {
	return &AdminService{store: store, views: viewBuilder{users: store}, clock: clock}
}

// AdminUsersParams are the query options of GET /admin/users. Status is
// "all" (default), "active" or "inactive".
type AdminUsersParams struct {
	Page   int
	Limit  int
	Search string
	Role   models.Role
	Status string
}

// AdminQuestionsParams are the query options of GET /admin/questions. An
// empty Status lists every status.
type AdminQuestionsParams struct {
	Page   int
	Limit  int
	Search string
	Status string
}

func (s *AdminService) Stats(ctx context.Context, actorID string) (*models.AdminStats, error) {
	if err := requireRole(ctx, s.store, actorID, models.RoleAdmin, models.RoleModerator); err != nil {
		return nil, err
	}

	since := s.clock.Now().Add(-recentWindow)
	one := storage.Window{Limit: 1}
	top := storage.Window{Limit: statsTopN}

	var (
		stats    models.AdminStats
		topUsers []*models.User
		recentQs []*models.Question
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		_, stats.Totals.Users, err = s.store.FindUsers(gctx, storage.UserFilter{ActiveOnly: true, Window: one})
		return err
	})
	g.Go(func() (err error) {
		_, stats.Totals.Questions, err = s.store.FindQuestions(gctx, storage.QuestionFilter{Window: one})
		return err
	})
	g.Go(func() (err error) {
		_, stats.Totals.Answers, err = s.store.FindAnswers(gctx, storage.AnswerFilter{Window: one})
		return err
	})
	g.Go(func() (err error) {
		stats.PopularTags, stats.Totals.Tags, err = s.store.FindTags(gctx, storage.TagFilter{Sort: "popular", Window: top})
		return err
	})
	g.Go(func() (err error) {
		_, stats.Recent.Users, err = s.store.FindUsers(gctx, storage.UserFilter{ActiveOnly: true, CreatedAfter: since, Window: one})
		return err
	})
	g.Go(func() (err error) {
		_, stats.Recent.Questions, err = s.store.FindQuestions(gctx, storage.QuestionFilter{CreatedAfter: since, Window: one})
		return err
	})
	g.Go(func() (err error) {
		_, stats.Recent.Answers, err = s.store.FindAnswers(gctx, storage.AnswerFilter{CreatedAfter: since, Window: one})
		return err
	})
	g.Go(func() (err error) {
		topUsers, _, err = s.store.FindUsers(gctx, storage.UserFilter{ActiveOnly: true, Sort: "reputation", Window: top})
		return err
	})
	g.Go(func() (err error) {
		recentQs, _, err = s.store.FindQuestions(gctx, storage.QuestionFilter{Sort: models.SortNewest, Window: top})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}

	stats.TopUsers = make([]*models.UserSummary, len(topUsers))
	for i, u := range topUsers {
		stats.TopUsers[i] = u.Summary()
	}
	views, err := s.views.questions(ctx, recentQs, actorID)
	if err != nil {
		return nil, err
	}
	stats.RecentQuestions = views
	return &stats, nil
}

// ListUsers pages through every account, newest first, including private
// fields such as email.
func (s *AdminService) ListUsers(ctx context.Context, actorID string, p AdminUsersParams) (*models.Page[*models.User], error) {
	if err := requireRole(ctx, s.store, actorID, models.RoleAdmin); err != nil {
		return nil, err
	}
	if p.Limit < 1 {
		p.Limit = adminPageLimit
	}
	page, limit := normalizePage(p.Page, p.Limit)

	f := storage.UserFilter{
		Search:      p.Search,
		SearchEmail: true,
		Sort:        "newest",
		Window:      pageWindow(page, limit),
	}
	if p.Role.Valid() {
		f.Role = p.Role
	}
	switch p.Status {
	case "active":
		f.ActiveOnly = true
	case "inactive":
		f.InactiveOnly = true
	}

	users, total, err := s.store.FindUsers(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for _, u := range users {
		u.PasswordHash = ""
		if u.Badges == nil {
			u.Badges = []models.Badge{}
		}
	}
	return &models.Page[*models.User]{Items: users, Pagination: models.NewPagination(page, limit, total)}, nil
}

// ListQuestions pages through questions of any status, newest first.
func (s *AdminService) ListQuestions(ctx context.Context, actorID string, p AdminQuestionsParams) (*models.Page[*models.QuestionView], error) {
	if err := requireRole(ctx, s.store, actorID, models.RoleAdmin, models.RoleModerator); err != nil {
		return nil, err
	}
	if p.Limit < 1 {
		p.Limit = adminPageLimit
	}
	page, limit := normalizePage(p.Page, p.Limit)

	f := storage.QuestionFilter{
		Search: p.Search,
		Sort:   models.SortNewest,
		Window: pageWindow(page, limit),
	}
	if p.Status != "" && p.Status != "all" {
		f.Status = models.QuestionStatus(p.Status)
	}

	qs, total, err := s.store.FindQuestions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	views, err := s.views.questions(ctx, qs, actorID)
	if err != nil {
		return nil, err
	}
	return &models.Page[*models.QuestionView]{Items: views, Pagination: models.NewPagination(page, limit, total)}, nil
}

// SetFeatured pins or unpins a question on the home page.
func (s *AdminService) SetFeatured(ctx context.Context, actorID, questionID string, featured bool) (*models.QuestionView, error) {
	if err := requireRole(ctx, s.store, actorID, models.RoleAdmin, models.RoleModerator); err != nil {
		return nil, err
	}
	q, err := s.store.SetQuestionFeatured(ctx, questionID, featured)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("feature question: %w", err)
	}
	views, err := s.views.questions(ctx, []*models.Question{q}, actorID)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}
