package migration

import (
	"context"

	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
)

// migrate0002 backfills a reward profile for users created before profiles
// were written at signup time.
func migrate0002(ctx context.Context) error {
	return xcontext.DB(ctx).Exec(`
		INSERT INTO reward_profiles
			(user_id, points, lifetime_points, tier, current_streak, longest_streak, created_at, updated_at)
		SELECT id, 0, 0, 'bronze', 0, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP FROM users
		WHERE id NOT IN (SELECT user_id FROM reward_profiles)
	`).Error
}
