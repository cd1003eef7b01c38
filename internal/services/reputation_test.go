package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackit/backend/internal/models"
)

func badgeNames(badges []models.Badge) []string {
	out := make([]string, len(badges))
	for i, b := range badges {
		out[i] = b.Name
	}
	return out
}

func TestAwardBadges(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		reputation int
		held       []string
		want       []string
	}{
		{name: "below first threshold", reputation: 99, want: []string{}},
		{name: "exactly bronze", reputation: 100, want: []string{"Bronze Contributor"}},
		{name: "silver skips held bronze", reputation: 600, held: []string{"Bronze Contributor"}, want: []string{"Silver Expert"}},
		{name: "jump to gold grants all in order", reputation: 1200, want: []string{"Bronze Contributor", "Silver Expert", "Gold Master"}},
		{name: "nothing new at 1000 with all held", reputation: 1000, held: []string{"Bronze Contributor", "Silver Expert", "Gold Master"}, want: []string{}},
		{name: "negative reputation", reputation: -50, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &models.User{Reputation: tt.reputation}
			for _, h := range tt.held {
				u.Badges = append(u.Badges, models.Badge{Name: h})
			}
			got := AwardBadges(u, now)
			assert.Equal(t, tt.want, badgeNames(got))
			for _, b := range got {
				assert.Equal(t, now, b.EarnedAt)
				assert.NotEmpty(t, b.Icon)
				assert.NotEmpty(t, b.Color)
			}
		})
	}
}

func TestReputationApply_GrantsAllBadgesInOneUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.addUser(t, "climber", models.RoleUser)

	got, err := env.reputation.Apply(ctx, u.ID, 1000, "test")
	require.NoError(t, err)
	assert.Equal(t, 1000, got.Reputation)
	assert.Equal(t, []string{"Bronze Contributor", "Silver Expert", "Gold Master"}, badgeNames(got.Badges))

	// Running again at the same level adds nothing.
	_, err = env.reputation.Apply(ctx, u.ID, 0, "test")
	require.NoError(t, err)
	stored, err := env.store.FindUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Badges, 3)
	assert.Equal(t, "#FFD700", stored.Badges[2].Color)
}

func TestReputationApply_BadgesAreSticky(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.addUser(t, "faller", models.RoleUser)

	_, err := env.reputation.Apply(ctx, u.ID, 100, "test")
	require.NoError(t, err)
	got, err := env.reputation.Apply(ctx, u.ID, -200, "test")
	require.NoError(t, err)

	assert.Equal(t, -100, got.Reputation)
	assert.Equal(t, []string{"Bronze Contributor"}, badgeNames(got.Badges))
}

func TestReputationApply_MissingUserIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	got, err := env.reputation.Apply(context.Background(), "nobody", 10, "test")
	assert.NoError(t, err)
	assert.Nil(t, got)
}
