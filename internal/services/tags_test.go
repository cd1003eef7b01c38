package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackit/backend/internal/models"
)

func TestTagService_ListAndPopular(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.addUser(t, "author", models.RoleUser)
	admin := env.addUser(t, "admin", models.RoleAdmin)

	env.ask(t, author, "go", "redis")
	env.ask(t, author, "go")
	_, err := env.tags.CreateTag(ctx, admin.ID, &models.CreateTagRequest{Name: "unused"})
	require.NoError(t, err)

	page, err := env.tags.ListTags(ctx, 0, 0, "", "")
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "go", page.Items[0].Name)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Equal(t, 1, page.Pagination.TotalPages)

	named, err := env.tags.ListTags(ctx, 1, 10, "name", "re")
	require.NoError(t, err)
	require.Len(t, named.Items, 1)
	assert.Equal(t, "redis", named.Items[0].Name)

	popular, err := env.tags.PopularTags(ctx, 10)
	require.NoError(t, err)
	names := make([]string, len(popular))
	for i, tg := range popular {
		names[i] = tg.Name
	}
	assert.Equal(t, []string{"go", "redis"}, names)
}

func TestTagService_GetTagListsOpenQuestions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.addUser(t, "author", models.RoleUser)
	older := env.ask(t, author, "go")
	newer := env.ask(t, author, "go")
	env.ask(t, author, "rust")

	detail, err := env.tags.GetTag(ctx, " Go ", 1, 10, "")
	require.NoError(t, err)
	assert.Equal(t, "go", detail.Tag.Name)
	require.Len(t, detail.Questions, 2)
	assert.Equal(t, newer.ID, detail.Questions[0].ID)
	assert.Equal(t, older.ID, detail.Questions[1].ID)
	assert.EqualValues(t, 2, detail.Pagination.Total)

	_, err = env.tags.GetTag(ctx, "missing", 1, 10, "")
	assert.ErrorIs(t, err, ErrTagNotFound)
	_, err = env.tags.GetTag(ctx, "   ", 1, 10, "")
	assert.ErrorIs(t, err, ErrTagNotFound)
}

func TestTagService_ToggleFollow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.addUser(t, "author", models.RoleUser)
	env.ask(t, author, "go")

	res, err := env.tags.ToggleFollow(ctx, "go", author.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.FollowResult{IsFollowing: true, FollowerCount: 1}, res)

	res, err = env.tags.ToggleFollow(ctx, "GO", author.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.FollowResult{IsFollowing: false, FollowerCount: 0}, res)

	_, err = env.tags.ToggleFollow(ctx, "missing", author.ID)
	assert.ErrorIs(t, err, ErrTagNotFound)
}

func TestTagService_CreateAndUpdateRequireStaff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.addUser(t, "user", models.RoleUser)
	mod := env.addUser(t, "mod", models.RoleModerator)

	_, err := env.tags.CreateTag(ctx, user.ID, &models.CreateTagRequest{Name: "docker"})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	tag, err := env.tags.CreateTag(ctx, mod.ID, &models.CreateTagRequest{Name: "docker", Description: "Containers"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTagColor, tag.Color)
	assert.Equal(t, []string{}, tag.Followers)

	_, err = env.tags.CreateTag(ctx, mod.ID, &models.CreateTagRequest{Name: "docker"})
	assert.ErrorIs(t, err, ErrTagExists)

	color := "#2496ED"
	featured := true
	_, err = env.tags.UpdateTag(ctx, user.ID, "docker", &models.UpdateTagRequest{Color: &color})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	updated, err := env.tags.UpdateTag(ctx, mod.ID, "docker", &models.UpdateTagRequest{Color: &color, Featured: &featured})
	require.NoError(t, err)
	assert.Equal(t, color, updated.Color)
	assert.True(t, updated.Featured)
	assert.Equal(t, "Containers", updated.Description)

	_, err = env.tags.UpdateTag(ctx, mod.ID, "missing", &models.UpdateTagRequest{Color: &color})
	assert.ErrorIs(t, err, ErrTagNotFound)
}
