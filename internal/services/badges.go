package services

import (
	"time"

	"github.com/stackit/backend/internal/models"
)

// BadgeRule grants a badge once reputation reaches Threshold.
type BadgeRule struct {
	Threshold int
	Name      string
	Icon      string
	Color     string
}

// BadgeRules is ordered by threshold; badges are granted in this order.
var BadgeRules = []BadgeRule{
	{Threshold: 100, Name: "Bronze Contributor", Icon: "🥉", Color: "#CD7F32"},
	{Threshold: 500, Name: "Silver Expert", Icon: "🥈", Color: "#C0C0C0"},
	{Threshold: 1000, Name: "Gold Master", Icon: "🥇", Color: "#FFD700"},
}

// AwardBadges returns the badges u qualifies for at its current reputation and
// does not hold yet. It never returns a badge for revocation: once earned a
// badge stays even if reputation drops below the threshold.
func AwardBadges(u *models.User, now time.Time) []models.Badge {
	var earned []models.Badge
	for _, rule := range BadgeRules {
		if u.Reputation < rule.Threshold || u.HasBadge(rule.Name) {
			continue
		}
		earned = append(earned, models.Badge{
			Name:     rule.Name,
			Icon:     rule.Icon,
			Color:    rule.Color,
			EarnedAt: now,
		})
	}
	return earned
}
