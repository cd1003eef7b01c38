package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	"github.com/stackit/backend/internal/models"
	"github.com/stackit/backend/internal/storage"
)

// CaptchaVerifier checks the bot-protection token sent with a form.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

const recentActivityLimit = 10

type UserService struct {
	store   storage.Store
	captcha CaptchaVerifier
	views   viewBuilder
	clock   clockwork.Clock
}

// NewUserService wires the user service. captcha may be nil to skip the check.
func NewUserService(store storage.Store, captcha CaptchaVerifier, clock clockwork.Clock) *UserService {
	return &UserService{store: store, captcha: captcha, views: viewBuilder{users: store}, clock: clock}
}

func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest, remoteIP string) (*models.User, error) {
	if s.captcha != nil {
		if err := s.captcha.Verify(ctx, req.RecaptchaToken, remoteIP); err != nil {
			return nil, err
		}
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	if _, err := s.store.FindUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if _, err := s.store.FindUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &models.User{
		ID:            uuid.New().String(),
		Username:      username,
		Email:         email,
		PasswordHash:  string(hashedPassword),
		Badges:        []models.Badge{},
		Role:          models.RoleUser,
		IsActive:      true,
		Notifications: models.NotificationPrefs{Email: true, Push: true},
		JoinedAt:      now,
		LastSeen:      now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.store.InsertUser(ctx, user)
	if errors.Is(err, storage.ErrDuplicate) {
		// Lost a race with a concurrent registration.
		return nil, ErrEmailExists
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.store.FindUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// ListUsers pages through active users. sort is reputation (default),
// newest, oldest or name.
func (s *UserService) ListUsers(ctx context.Context, page, limit int, sort, search string) (*models.Page[*models.User], error) {
	if limit < 1 {
		limit = 20
	}
	page, limit = normalizePage(page, limit)
	users, total, err := s.store.FindUsers(ctx, storage.UserFilter{
		ActiveOnly: true,
		Search:     search,
		Sort:       sort,
		Window:     pageWindow(page, limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &models.Page[*models.User]{Items: publicUsers(users), Pagination: models.NewPagination(page, limit, total)}, nil
}

// Leaderboard returns the active users with the highest reputation.
func (s *UserService) Leaderboard(ctx context.Context, limit int) ([]*models.User, error) {
	_, limit = normalizePage(1, limit)
	users, _, err := s.store.FindUsers(ctx, storage.UserFilter{
		ActiveOnly: true,
		Sort:       "reputation",
		Window:     storage.Window{Limit: int64(limit)},
	})
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return publicUsers(users), nil
}

func publicUsers(users []*models.User) []*models.User {
	out := make([]*models.User, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out
}

// GetProfile returns a user's public profile with activity stats and their
// most recent questions and answers.
func (s *UserService) GetProfile(ctx context.Context, id, viewerID string) (*models.UserProfile, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	recentQs, totalQs, err := s.store.FindQuestions(ctx, storage.QuestionFilter{
		AuthorID: id,
		Sort:     models.SortNewest,
		Window:   storage.Window{Limit: recentActivityLimit},
	})
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	recentAs, totalAs, err := s.store.FindAnswers(ctx, storage.AnswerFilter{
		AuthorID: id,
		Window:   storage.Window{Limit: recentActivityLimit},
	})
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	_, accepted, err := s.store.FindAnswers(ctx, storage.AnswerFilter{
		AuthorID:     id,
		AcceptedOnly: true,
		Window:       storage.Window{Limit: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("count accepted answers: %w", err)
	}

	qViews, err := s.views.questions(ctx, recentQs, viewerID)
	if err != nil {
		return nil, err
	}
	aViews, err := s.views.answers(ctx, recentAs, viewerID)
	if err != nil {
		return nil, err
	}

	stats := models.UserStats{
		TotalQuestions:  totalQs,
		TotalAnswers:    totalAs,
		AcceptedAnswers: accepted,
	}
	if totalAs > 0 {
		stats.AcceptanceRate = float64(accepted) / float64(totalAs) * 100
	}

	return &models.UserProfile{
		User:            u.Public(),
		Stats:           stats,
		RecentQuestions: qViews,
		RecentAnswers:   aViews,
	}, nil
}

func (s *UserService) UserQuestions(ctx context.Context, id string, page, limit int, viewerID string) (*models.Page[*models.QuestionView], error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	page, limit = normalizePage(page, limit)
	qs, total, err := s.store.FindQuestions(ctx, storage.QuestionFilter{
		AuthorID: id,
		Sort:     models.SortNewest,
		Window:   pageWindow(page, limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list user questions: %w", err)
	}
	views, err := s.views.questions(ctx, qs, viewerID)
	if err != nil {
		return nil, err
	}
	return &models.Page[*models.QuestionView]{Items: views, Pagination: models.NewPagination(page, limit, total)}, nil
}

func (s *UserService) UserAnswers(ctx context.Context, id string, page, limit int, viewerID string) (*models.Page[*models.AnswerView], error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	page, limit = normalizePage(page, limit)
	as, total, err := s.store.FindAnswers(ctx, storage.AnswerFilter{
		AuthorID: id,
		Window:   pageWindow(page, limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list user answers: %w", err)
	}
	views, err := s.views.answers(ctx, as, viewerID)
	if err != nil {
		return nil, err
	}
	return &models.Page[*models.AnswerView]{Items: views, Pagination: models.NewPagination(page, limit, total)}, nil
}

// UpdateProfile edits the caller's own profile and returns the full account.
func (s *UserService) UpdateProfile(ctx context.Context, id string, req *models.UpdateProfileRequest) (*models.User, error) {
	u, err := s.store.UpdateProfile(ctx, id, req)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

// SetRole changes a user's role. Admin only.
func (s *UserService) SetRole(ctx context.Context, actorID, targetID string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if err := requireRole(ctx, s.store, actorID, models.RoleAdmin); err != nil {
		return nil, err
	}
	u, err := s.store.SetRole(ctx, targetID, role)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}
	return u.Public(), nil
}

// SetActive activates or deactivates a user. Admin only.
func (s *UserService) SetActive(ctx context.Context, actorID, targetID string, active bool) (*models.User, error) {
	if err := requireRole(ctx, s.store, actorID, models.RoleAdmin); err != nil {
		return nil, err
	}
	u, err := s.store.SetActive(ctx, targetID, active)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}
	return u.Public(), nil
}
