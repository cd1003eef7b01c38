package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackit/backend/internal/models"
)

func TestAdminStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.addUser(t, "admin", models.RoleAdmin)
	mod := env.addUser(t, "mod", models.RoleModerator)
	asker := env.addUser(t, "asker", models.RoleUser)

	veteran := &models.User{
		ID: "user-veteran", Username: "veteran", Email: "veteran@example.com",
		Role: models.RoleUser, IsActive: true, Reputation: 500,
		JoinedAt: env.clock.Now().Add(-90 * 24 * time.Hour),
	}
	require.NoError(t, env.store.InsertUser(ctx, veteran))
	gone := &models.User{ID: "user-gone", Username: "gone", Email: "gone@example.com", Role: models.RoleUser, JoinedAt: env.clock.Now()}
	require.NoError(t, env.store.InsertUser(ctx, gone))

	q1 := env.ask(t, asker, "go")
	env.ask(t, asker, "go", "redis")
	env.answer(t, veteran, q1.ID)

	stats, err := env.admin.Stats(ctx, mod.ID)
	require.NoError(t, err)

	assert.Equal(t, models.AdminTotals{Users: 4, Questions: 2, Answers: 1, Tags: 2}, stats.Totals)
	assert.Equal(t, models.AdminRecent{Users: 3, Questions: 2, Answers: 1}, stats.Recent)
	require.NotEmpty(t, stats.TopUsers)
	assert.Equal(t, "veteran", stats.TopUsers[0].Username)
	require.Len(t, stats.PopularTags, 2)
	assert.Equal(t, "go", stats.PopularTags[0].Name)
	require.Len(t, stats.RecentQuestions, 2)
	assert.Equal(t, []string{"go", "redis"}, stats.RecentQuestions[0].Tags)

	_, err = env.admin.Stats(ctx, admin.ID)
	assert.NoError(t, err)
	_, err = env.admin.Stats(ctx, asker.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestAdminListUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.addUser(t, "admin", models.RoleAdmin)
	mod := env.addUser(t, "mod", models.RoleModerator)
	env.clock.Advance(time.Minute)
	carol := env.addUser(t, "carol", models.RoleUser)
	_, err := env.users.SetActive(ctx, admin.ID, carol.ID, false)
	require.NoError(t, err)

	page, err := env.admin.ListUsers(ctx, admin.ID, AdminUsersParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Pagination.Total)
	assert.Equal(t, "carol", page.Items[0].Username)
	assert.Equal(t, "carol@example.com", page.Items[0].Email)
	assert.Empty(t, page.Items[0].PasswordHash)

	page, err = env.admin.ListUsers(ctx, admin.ID, AdminUsersParams{Status: "inactive"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "carol", page.Items[0].Username)

	page, err = env.admin.ListUsers(ctx, admin.ID, AdminUsersParams{Role: models.RoleModerator})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "mod", page.Items[0].Username)

	page, err = env.admin.ListUsers(ctx, admin.ID, AdminUsersParams{Search: "carol@"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	_, err = env.admin.ListUsers(ctx, mod.ID, AdminUsersParams{})
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestAdminQuestionsAndFeature(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.addUser(t, "mod", models.RoleModerator)
	asker := env.addUser(t, "asker", models.RoleUser)
	q := env.ask(t, asker)
	env.ask(t, asker)

	page, err := env.admin.ListQuestions(ctx, mod.ID, AdminQuestionsParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Pagination.Total)
	assert.Equal(t, 1, page.Pagination.TotalPages)

	v, err := env.admin.SetFeatured(ctx, mod.ID, q.ID, true)
	require.NoError(t, err)
	assert.True(t, v.Featured)
	assert.Equal(t, "asker", v.Author.Username)

	listed, err := env.questions.ListQuestions(ctx, ListQuestionsParams{Featured: true}, "")
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	assert.Equal(t, q.ID, listed.Items[0].ID)

	_, err = env.admin.SetFeatured(ctx, mod.ID, "missing", true)
	assert.ErrorIs(t, err, ErrQuestionNotFound)
	_, err = env.admin.SetFeatured(ctx, asker.ID, q.ID, false)
	assert.ErrorIs(t, err, ErrNotAuthorized)
	_, err = env.admin.ListQuestions(ctx, asker.ID, AdminQuestionsParams{})
	assert.ErrorIs(t, err, ErrNotAuthorized)
}
