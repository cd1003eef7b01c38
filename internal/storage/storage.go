// Package storage persists the Q&A aggregates. MongoStore is the production
// backend; MemoryStore keeps everything in maps (optionally snapshotted to a
// JSON file) for development and tests.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/stackit/backend/internal/models"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate document")
)

// Window selects a page of a listing.
type Window struct {
	Skip  int64
	Limit int64
}

type QuestionFilter struct {
	Status   models.QuestionStatus // empty matches every status
	Tag      string
	Search   string
	Featured bool
	AuthorID string
	// CreatedAfter, when set, keeps questions created at or after it.
	CreatedAfter time.Time
	Sort         models.QuestionSort
	Window
}

type AnswerFilter struct {
	QuestionID   string
	AuthorID     string
	AcceptedOnly bool
	CreatedAfter time.Time
	Window
}

type UserFilter struct {
	ActiveOnly   bool
	InactiveOnly bool
	Role         models.Role
	Search       string
	SearchEmail  bool // also match Search against email
	CreatedAfter time.Time
	Sort         string // reputation | newest | oldest | name
	Window
}

type TagFilter struct {
	Search string
	Sort   string // popular | newest | name
	Window
}

type NotificationFilter struct {
	Recipient  string
	UnreadOnly bool
	Window
}

type Questions interface {
	InsertQuestion(ctx context.Context, q *models.Question) error
	FindQuestion(ctx context.Context, id string) (*models.Question, error)
	FindQuestions(ctx context.Context, f QuestionFilter) ([]*models.Question, int64, error)
	SetQuestionVotes(ctx context.Context, id string, votes models.VoteLedger) error
	PushAnswer(ctx context.Context, questionID, answerID string) error
	PullAnswer(ctx context.Context, questionID, answerID string, clearAccepted bool) error
	SetAcceptedAnswer(ctx context.Context, questionID, answerID string) error
	IncrementViews(ctx context.Context, id string) error
	SetQuestionFeatured(ctx context.Context, id string, featured bool) (*models.Question, error)
	DeleteQuestion(ctx context.Context, id string) error
}

type Answers interface {
	InsertAnswer(ctx context.Context, a *models.Answer) error
	FindAnswer(ctx context.Context, id string) (*models.Answer, error)
	FindAnswers(ctx context.Context, f AnswerFilter) ([]*models.Answer, int64, error)
	SetAnswerVotes(ctx context.Context, id string, votes models.VoteLedger) error
	SetAnswerAccepted(ctx context.Context, id string, accepted bool) error
	DeleteAnswer(ctx context.Context, id string) error
	DeleteAnswersByQuestion(ctx context.Context, questionID string) (int64, error)
}

type Users interface {
	InsertUser(ctx context.Context, u *models.User) error
	FindUser(ctx context.Context, id string) (*models.User, error)
	// FindUserByEmail and FindUserByUsername match case-insensitively.
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	FindUsers(ctx context.Context, f UserFilter) ([]*models.User, int64, error)
	// IncrementReputation adds delta and returns the user after the update.
	IncrementReputation(ctx context.Context, id string, delta int) (*models.User, error)
	// PushBadges appends badges the user does not hold yet in a single update.
	PushBadges(ctx context.Context, id string, badges []models.Badge) error
	SetRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	SetActive(ctx context.Context, id string, active bool) (*models.User, error)
	// UpdateProfile sets the profile fields present in req.
	UpdateProfile(ctx context.Context, id string, req *models.UpdateProfileRequest) (*models.User, error)
}

type Tags interface {
	InsertTag(ctx context.Context, t *models.Tag) error
	FindTag(ctx context.Context, name string) (*models.Tag, error)
	FindTags(ctx context.Context, f TagFilter) ([]*models.Tag, int64, error)
	UpdateTag(ctx context.Context, t *models.Tag) error
	// IncrementQuestionCount adds delta to a tag's questionCount. With upsert
	// a missing tag is created first; without it a missing tag is a no-op.
	IncrementQuestionCount(ctx context.Context, name string, delta int, upsert bool) error
	ToggleFollower(ctx context.Context, name, userID string) (*models.FollowResult, error)
}

type Notifications interface {
	InsertNotification(ctx context.Context, n *models.Notification) error
	FindNotifications(ctx context.Context, f NotificationFilter) ([]*models.Notification, int64, error)
	CountUnread(ctx context.Context, recipient string) (int64, error)
	MarkRead(ctx context.Context, recipient, id string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, recipient string) (int64, error)
	DeleteNotification(ctx context.Context, recipient, id string) error
}

// Store is the full persistence surface used by the services.
type Store interface {
	Questions
	Answers
	Users
	Tags
	Notifications
	Close(ctx context.Context) error
}

// DefaultTimeout bounds a single storage round trip.
const DefaultTimeout = 10 * time.Second
