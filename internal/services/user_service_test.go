package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stackit/backend/internal/models"
)

type stubCaptcha struct {
	err       error
	gotToken  string
	gotRemote string
}

func (c *stubCaptcha) Verify(ctx context.Context, token, remoteIP string) error {
	c.gotToken = token
	c.gotRemote = remoteIP
	return c.err
}

func registerReq(username, email string) *models.RegisterRequest {
	return &models.RegisterRequest{Username: username, Email: email, Password: "hunter22", RecaptchaToken: "tok"}
}

func TestRegister_CreatesActiveUserWithHashedPassword(t *testing.T) {
	env := newTestEnv(t)
	u, err := env.users.Register(context.Background(), registerReq("newbie", " NewBie@Example.COM "), "10.0.0.1")
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "newbie@example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.True(t, u.IsActive)
	assert.Equal(t, 0, u.Reputation)
	assert.Equal(t, []models.Badge{}, u.Badges)
	assert.Equal(t, models.NotificationPrefs{Email: true, Push: true}, u.Notifications)
	assert.Equal(t, env.clock.Now(), u.JoinedAt)

	stored, err := env.store.FindUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter22")))
}

func TestRegister_Duplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.users.Register(ctx, registerReq("taken", "taken@example.com"), "")
	require.NoError(t, err)

	_, err = env.users.Register(ctx, registerReq("other", "TAKEN@example.com"), "")
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = env.users.Register(ctx, registerReq("Taken", "fresh@example.com"), "")
	assert.ErrorIs(t, err, ErrUsernameExists)

	// Email is checked first when both collide.
	_, err = env.users.Register(ctx, registerReq("taken", "taken@example.com"), "")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRegister_CaptchaRejection(t *testing.T) {
	env := newTestEnv(t)
	captcha := &stubCaptcha{err: ErrRecaptcha}
	users := NewUserService(env.store, captcha, env.clock)

	_, err := users.Register(context.Background(), registerReq("bot", "bot@example.com"), "192.0.2.7")
	assert.ErrorIs(t, err, ErrRecaptcha)
	assert.Equal(t, "tok", captcha.gotToken)
	assert.Equal(t, "192.0.2.7", captcha.gotRemote)

	_, err = env.store.FindUserByEmail(context.Background(), "bot@example.com")
	assert.Error(t, err)
}

func TestGetProfile_Stats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	asker := env.addUser(t, "asker", models.RoleUser)
	helper := env.addUser(t, "helper", models.RoleUser)

	q1 := env.ask(t, asker)
	q2 := env.ask(t, asker)
	a1 := env.answer(t, helper, q1.ID)
	env.answer(t, helper, q2.ID)
	env.answer(t, helper, q2.ID)
	env.answer(t, helper, q2.ID)
	_, err := env.answers.AcceptAnswer(ctx, a1.ID, asker.ID)
	require.NoError(t, err)

	p, err := env.users.GetProfile(ctx, helper.ID, "")
	require.NoError(t, err)
	assert.EqualValues(t, 0, p.Stats.TotalQuestions)
	assert.EqualValues(t, 4, p.Stats.TotalAnswers)
	assert.EqualValues(t, 1, p.Stats.AcceptedAnswers)
	assert.InDelta(t, 25.0, p.Stats.AcceptanceRate, 0.001)
	assert.Len(t, p.RecentAnswers, 4)
	assert.Empty(t, p.Email)

	p, err = env.users.GetProfile(ctx, asker.ID, "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.Stats.TotalQuestions)
	assert.Zero(t, p.Stats.AcceptanceRate)
	require.Len(t, p.RecentQuestions, 2)
	assert.Equal(t, q2.ID, p.RecentQuestions[0].ID)

	_, err = env.users.GetProfile(ctx, "nobody", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListUsersAndLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.addUser(t, "admin", models.RoleAdmin)
	low := env.addUser(t, "low", models.RoleUser)
	high := env.addUser(t, "high", models.RoleUser)
	gone := env.addUser(t, "gone", models.RoleUser)
	_, err := env.reputation.Apply(ctx, high.ID, 50, "test")
	require.NoError(t, err)
	_, err = env.reputation.Apply(ctx, low.ID, 5, "test")
	require.NoError(t, err)
	_, err = env.reputation.Apply(ctx, gone.ID, 500, "test")
	require.NoError(t, err)
	_, err = env.users.SetActive(ctx, admin.ID, gone.ID, false)
	require.NoError(t, err)

	top, err := env.users.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "high", top[0].Username)
	assert.Equal(t, "low", top[1].Username)
	assert.Empty(t, top[0].Email)

	page, err := env.users.ListUsers(ctx, 1, 0, "name", "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Pagination.Total)
	assert.Equal(t, "admin", page.Items[0].Username)
}

func TestSetRoleAndActive_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.addUser(t, "admin", models.RoleAdmin)
	mod := env.addUser(t, "mod", models.RoleModerator)
	target := env.addUser(t, "target", models.RoleUser)

	_, err := env.users.SetRole(ctx, mod.ID, target.ID, models.RoleModerator)
	assert.ErrorIs(t, err, ErrNotAuthorized)
	_, err = env.users.SetRole(ctx, admin.ID, target.ID, models.Role("owner"))
	assert.ErrorIs(t, err, ErrInvalidRole)
	_, err = env.users.SetRole(ctx, admin.ID, "nobody", models.RoleModerator)
	assert.ErrorIs(t, err, ErrUserNotFound)

	u, err := env.users.SetRole(ctx, admin.ID, target.ID, models.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, u.Role)
	assert.Empty(t, u.Email)

	_, err = env.users.SetActive(ctx, mod.ID, target.ID, false)
	assert.ErrorIs(t, err, ErrNotAuthorized)
	u, err = env.users.SetActive(ctx, admin.ID, target.ID, false)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.addUser(t, "alice", models.RoleUser)

	site := "https://alice.example"
	got, err := env.users.UpdateProfile(ctx, u.ID, &models.UpdateProfileRequest{Website: &site})
	require.NoError(t, err)
	assert.Equal(t, site, got.Website)
	assert.Equal(t, "alice@example.com", got.Email)

	_, err = env.users.UpdateProfile(ctx, "missing", &models.UpdateProfileRequest{Website: &site})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
