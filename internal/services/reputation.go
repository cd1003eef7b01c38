package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/stackit/backend/internal/metrics"
	"github.com/stackit/backend/internal/models"
	"github.com/stackit/backend/internal/storage"
)

// Reputation deltas applied by the voting and acceptance workflows.
const (
	ReputationUpvote   = 10
	ReputationDownvote = -2
	ReputationAccept   = 15
)

type ReputationService struct {
	users storage.Users
	clock clockwork.Clock
}

func NewReputationService(users storage.Users, clock clockwork.Clock) *ReputationService {
	return &ReputationService{users: users, clock: clock}
}

// Apply adds delta to the user's reputation and then grants every badge the
// new total qualifies for. A user that no longer exists is skipped: the post
// operation that triggered the change still succeeds.
func (s *ReputationService) Apply(ctx context.Context, userID string, delta int, reason string) (*models.User, error) {
	u, err := s.users.IncrementReputation(ctx, userID, delta)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.Warn("reputation change for missing user", "user_id", userID, "delta", delta, "reason", reason)
			return nil, nil
		}
		return nil, fmt.Errorf("increment reputation: %w", err)
	}
	metrics.ReputationChangesTotal.WithLabelValues(reason).Inc()

	badges := AwardBadges(u, s.clock.Now())
	if len(badges) == 0 {
		return u, nil
	}
	if err := s.users.PushBadges(ctx, userID, badges); err != nil {
		return nil, fmt.Errorf("award badges: %w", err)
	}
	for _, b := range badges {
		metrics.BadgesAwardedTotal.WithLabelValues(b.Name).Inc()
		slog.Info("badge awarded", "user_id", userID, "badge", b.Name, "reputation", u.Reputation)
	}
	u.Badges = append(u.Badges, badges...)
	return u, nil
}
