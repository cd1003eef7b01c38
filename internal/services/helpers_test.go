package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/stackit/backend/internal/models"
	"github.com/stackit/backend/internal/storage"
)

type published struct {
	channel string
	payload []byte
}

// recordingNotifier captures publishes; set err to make every publish fail.
type recordingNotifier struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (n *recordingNotifier) Publish(ctx context.Context, channel string, payload []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.msgs = append(n.msgs, published{channel: channel, payload: payload})
	return nil
}

func (n *recordingNotifier) messages() []published {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]published(nil), n.msgs...)
}

type testEnv struct {
	store         *storage.MemoryStore
	clock         *clockwork.FakeClock
	notifier      *recordingNotifier
	reputation    *ReputationService
	notifications *NotificationService
	voting        *VotingService
	answers       *AnswerService
	questions     *QuestionService
	tags          *TagService
	users         *UserService
	admin         *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := storage.NewMemoryStore()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	notifier := &recordingNotifier{}

	rep := NewReputationService(store, clock)
	notes := NewNotificationService(store, notifier, nil, clock)
	return &testEnv{
		store:         store,
		clock:         clock,
		notifier:      notifier,
		reputation:    rep,
		notifications: notes,
		voting:        NewVotingService(store, rep, clock),
		answers:       NewAnswerService(store, rep, notes, clock),
		questions:     NewQuestionService(store, clock),
		tags:          NewTagService(store, clock),
		users:         NewUserService(store, nil, clock),
		admin:         NewAdminService(store, clock),
	}
}

func (e *testEnv) addUser(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		ID:       "user-" + username,
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
		IsActive: true,
		Badges:   []models.Badge{},
		JoinedAt: e.clock.Now(),
	}
	require.NoError(t, e.store.InsertUser(context.Background(), u))
	return u
}

func (e *testEnv) ask(t *testing.T, author *models.User, tags ...string) *models.QuestionView {
	t.Helper()
	if len(tags) == 0 {
		tags = []string{"go"}
	}
	q, err := e.questions.CreateQuestion(context.Background(), author.ID, &models.CreateQuestionRequest{
		Title:   "How do I structure a Go service?",
		Content: "I am looking for advice on package layout.",
		Tags:    tags,
	})
	require.NoError(t, err)
	e.clock.Advance(time.Second)
	return q
}

func (e *testEnv) answer(t *testing.T, author *models.User, questionID string) *models.AnswerView {
	t.Helper()
	a, err := e.answers.CreateAnswer(context.Background(), author.ID, &models.CreateAnswerRequest{
		Content:    "Start with cmd/ and internal/ and grow from there.",
		QuestionID: questionID,
	})
	require.NoError(t, err)
	e.clock.Advance(time.Second)
	return a
}

func (e *testEnv) reputationOf(t *testing.T, userID string) int {
	t.Helper()
	u, err := e.store.FindUser(context.Background(), userID)
	require.NoError(t, err)
	return u.Reputation
}

func (e *testEnv) notificationsFor(t *testing.T, userID string) []*models.Notification {
	t.Helper()
	list, _, err := e.store.FindNotifications(context.Background(), storage.NotificationFilter{Recipient: userID})
	require.NoError(t, err)
	return list
}

var errPushDown = errors.New("push transport down")
