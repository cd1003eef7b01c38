package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackit/backend/internal/models"
)

// newTestMongoStore connects to STACKIT_TEST_MONGO_URI and uses a throwaway
// database that is dropped when the test ends.
func newTestMongoStore(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("STACKIT_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("STACKIT_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	s, err := NewMongoStore(ctx, uri, "stackit_test_"+uuid.New().String()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestMongoStore_QuestionLifecycle(t *testing.T) {
	s := newTestMongoStore(t)
	ctx := context.Background()

	q := newQuestion(uuid.New().String(), "u1", []string{"go"}, time.Now().UTC())
	require.NoError(t, s.InsertQuestion(ctx, q))

	ledger := models.VoteLedger{}
	ledger.Cast("u2", models.VoteUp, time.Now().UTC())
	require.NoError(t, s.SetQuestionVotes(ctx, q.ID, ledger))
	require.NoError(t, s.PushAnswer(ctx, q.ID, "a1"))
	require.NoError(t, s.SetAcceptedAnswer(ctx, q.ID, "a1"))
	require.NoError(t, s.IncrementViews(ctx, q.ID))

	got, err := s.FindQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Votes.Score())
	assert.Equal(t, []string{"a1"}, got.Answers)
	assert.Equal(t, "a1", got.AcceptedAnswer)
	assert.EqualValues(t, 1, got.Views)

	require.NoError(t, s.PullAnswer(ctx, q.ID, "a1", true))
	got, err = s.FindQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Answers)
	assert.Empty(t, got.AcceptedAnswer)

	require.NoError(t, s.DeleteQuestion(ctx, q.ID))
	_, err = s.FindQuestion(ctx, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoStore_UsersAndBadges(t *testing.T) {
	s := newTestMongoStore(t)
	ctx := context.Background()

	u := &models.User{ID: uuid.New().String(), Username: "alice", Email: "a@example.com", Badges: []models.Badge{}}
	require.NoError(t, s.InsertUser(ctx, u))
	err := s.InsertUser(ctx, &models.User{ID: uuid.New().String(), Username: "alice", Email: "b@example.com", Badges: []models.Badge{}})
	assert.ErrorIs(t, err, ErrDuplicate)

	after, err := s.IncrementReputation(ctx, u.ID, 150)
	require.NoError(t, err)
	assert.Equal(t, 150, after.Reputation)

	bronze := models.Badge{Name: "Bronze Contributor", EarnedAt: time.Now().UTC()}
	silver := models.Badge{Name: "Silver Expert", EarnedAt: time.Now().UTC()}
	require.NoError(t, s.PushBadges(ctx, u.ID, []models.Badge{bronze, silver}))
	require.NoError(t, s.PushBadges(ctx, u.ID, []models.Badge{bronze}))
	got, err := s.FindUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got.Badges, 2)
	assert.Equal(t, "Bronze Contributor", got.Badges[0].Name)
	assert.Equal(t, "Silver Expert", got.Badges[1].Name)
}

func TestMongoStore_TagUpsertAndFollow(t *testing.T) {
	s := newTestMongoStore(t)
	ctx := context.Background()

	require.NoError(t, s.IncrementQuestionCount(ctx, "go", 1, true))
	require.NoError(t, s.IncrementQuestionCount(ctx, "go", 1, true))
	tag, err := s.FindTag(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, 2, tag.QuestionCount)

	res, err := s.ToggleFollower(ctx, "go", "u1")
	require.NoError(t, err)
	assert.True(t, res.IsFollowing)
	assert.Equal(t, 1, res.FollowerCount)
}
