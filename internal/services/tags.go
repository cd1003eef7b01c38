package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/stackit/backend/internal/models"
	"github.com/stackit/backend/internal/storage"
)

type TagService struct {
	store storage.Store
	views viewBuilder
	clock clockwork.Clock
}

func NewTagService(store storage.Store, clock clockwork.Clock) *TagService {
	return &TagService{store: store, views: viewBuilder{users: store}, clock: clock}
}

func (s *TagService) ListTags(ctx context.Context, page, limit int, sort, search string) (*models.Page[*models.Tag], error) {
	if limit < 1 {
		limit = 20
	}
	page, limit = normalizePage(page, limit)
	tags, total, err := s.store.FindTags(ctx, storage.TagFilter{
		Search: search,
		Sort:   sort,
		Window: pageWindow(page, limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return &models.Page[*models.Tag]{Items: tags, Pagination: models.NewPagination(page, limit, total)}, nil
}

// PopularTags returns up to limit tags that have at least one question, most
// used first.
func (s *TagService) PopularTags(ctx context.Context, limit int) ([]*models.Tag, error) {
	_, limit = normalizePage(1, limit)
	tags, _, err := s.store.FindTags(ctx, storage.TagFilter{Sort: "popular", Window: storage.Window{Limit: int64(limit)}})
	if err != nil {
		return nil, fmt.Errorf("popular tags: %w", err)
	}
	out := make([]*models.Tag, 0, len(tags))
	for _, t := range tags {
		if t.QuestionCount > 0 {
			out = append(out, t)
		}
	}
	return out, nil
}

// tagName normalizes a tag name taken from a URL.
func tagName(name string) (string, bool) {
	n := models.NormalizeTags([]string{name})
	if len(n) == 0 {
		return "", false
	}
	return n[0], true
}

func (s *TagService) findTag(ctx context.Context, name string) (*models.Tag, error) {
	normalized, ok := tagName(name)
	if !ok {
		return nil, ErrTagNotFound
	}
	t, err := s.store.FindTag(ctx, normalized)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load tag: %w", err)
	}
	return t, nil
}

// GetTag returns the tag with a page of its open questions, newest first.
func (s *TagService) GetTag(ctx context.Context, name string, page, limit int, viewerID string) (*models.TagDetail, error) {
	t, err := s.findTag(ctx, name)
	if err != nil {
		return nil, err
	}

	page, limit = normalizePage(page, limit)
	qs, total, err := s.store.FindQuestions(ctx, storage.QuestionFilter{
		Status: models.QuestionOpen,
		Tag:    t.Name,
		Sort:   models.SortNewest,
		Window: pageWindow(page, limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list tag questions: %w", err)
	}
	views, err := s.views.questions(ctx, qs, viewerID)
	if err != nil {
		return nil, err
	}
	return &models.TagDetail{
		Tag:        t,
		Questions:  views,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

func (s *TagService) ToggleFollow(ctx context.Context, name, userID string) (*models.FollowResult, error) {
	normalized, ok := tagName(name)
	if !ok {
		return nil, ErrTagNotFound
	}
	res, err := s.store.ToggleFollower(ctx, normalized, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("toggle follow: %w", err)
	}
	return res, nil
}

// CreateTag is restricted to admins and moderators.
func (s *TagService) CreateTag(ctx context.Context, actorID string, req *models.CreateTagRequest) (*models.Tag, error) {
	if err := requireRole(ctx, s.store, actorID, models.RoleAdmin, models.RoleModerator); err != nil {
		return nil, err
	}

	color := req.Color
	if color == "" {
		color = models.DefaultTagColor
	}
	now := s.clock.Now()
	t := &models.Tag{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Color:       color,
		Followers:   []string{},
		Moderators:  []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.store.InsertTag(ctx, t)
	if errors.Is(err, storage.ErrDuplicate) {
		return nil, ErrTagExists
	}
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	return t, nil
}

// UpdateTag is restricted to admins and moderators. Only fields present in
// req change.
func (s *TagService) UpdateTag(ctx context.Context, actorID, name string, req *models.UpdateTagRequest) (*models.Tag, error) {
	if err := requireRole(ctx, s.store, actorID, models.RoleAdmin, models.RoleModerator); err != nil {
		return nil, err
	}
	t, err := s.findTag(ctx, name)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Color != nil {
		t.Color = *req.Color
	}
	if req.Featured != nil {
		t.Featured = *req.Featured
	}
	t.UpdatedAt = s.clock.Now()

	err = s.store.UpdateTag(ctx, t)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update tag: %w", err)
	}
	return t, nil
}
