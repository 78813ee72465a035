package testutil

import (
	"context"
	"reflect"
	"time"

	"github.com/BillixOfficial/rewards-backend/config"
	"github.com/BillixOfficial/rewards-backend/migration"
	"github.com/BillixOfficial/rewards-backend/pkg/authenticator"
	"github.com/BillixOfficial/rewards-backend/pkg/logger"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"

	"github.com/bwmarrin/snowflake"
	"github.com/gorilla/sessions"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func MockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	cfg := config.Configs{
		ApiServer: config.APIServerConfigs{
			MaxLimit:     50,
			DefaultLimit: 1,
		},
		Auth: config.AuthConfigs{
			TokenSecret: "secret",
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: time.Minute,
			},
			RefreshToken: config.TokenConfigs{
				Name:       "refresh_token",
				Expiration: time.Minute,
			},
		},
		Session: config.SessionConfigs{
			Secret: "session-secret",
		},
		File: config.FileConfigs{
			MaxSize: 2 * 1024 * 1024,
		},
		Reward: config.RewardConfigs{
			CheckInBasePoints: 50,
			StreakBonusPoints: 10,
			StreakBonusCap:    6,
			WeeklyBonusPoints: 200,
			PointsExpiration:  365 * 24 * time.Hour,
		},
		Guess: config.GuessConfigs{
			Prompts:    "Average electricity bill in Austin,Average water bill in Dallas",
			MinCents:   5000,
			MaxCents:   25000,
			BasePoints: 25,
		},
		Draw: config.DrawConfigs{
			Weekday:           time.Sunday,
			Hour:              18,
			PointsPerEntry:    100,
			MaxEntriesPerUser: 5,
			PrizePoints:       5000,
		},
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger())
	ctx = xcontext.WithTokenEngine(ctx, authenticator.NewTokenEngine(cfg.Auth.TokenSecret))
	ctx = xcontext.WithSessionStore(ctx, sessions.NewCookieStore([]byte(cfg.Session.Secret)))
	ctx = xcontext.WithSnowFlake(ctx, node)
	ctx = xcontext.WithDB(ctx, db)

	if err := migration.AutoMigrate(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func MockContextWithUserID(ctx context.Context, userID string) context.Context {
	return xcontext.WithRequestUserID(ctx, userID)
}

// overwriteFields copies every non-zero field of overwrite onto origin. The
// Sample helpers use it to let a test pin only the fields it cares about.
func overwriteFields[T any](origin *T, overwrite T) {
	originValue := reflect.ValueOf(origin).Elem()
	overwriteValue := reflect.ValueOf(overwrite)

	for i := 0; i < overwriteValue.NumField(); i++ {
		overwriteField := overwriteValue.Field(i)
		if !overwriteField.IsZero() {
			originValue.Field(i).Set(overwriteField)
		}
	}
}
