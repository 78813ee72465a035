package migration

import (
	"context"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
)

// migrate0000 creates the database with the latest version.
func migrate0000(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&entity.User{},
		&entity.OAuth2{},
		&entity.RefreshToken{},
		&entity.APIKey{},
		&entity.File{},
		&entity.RewardProfile{},
		&entity.PointTransaction{},
		&entity.Category{},
		&entity.RewardItem{},
		&entity.Redemption{},
		&entity.CheckIn{},
		&entity.TierAward{},
		&entity.DrawEvent{},
		&entity.DrawPrize{},
		&entity.DrawEntry{},
		&entity.DrawWinner{},
		&entity.GuessRound{},
		&entity.Guess{},
		&entity.Migration{},
	)
}
