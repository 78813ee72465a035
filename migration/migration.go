package migration

import (
	"context"
	"fmt"
	"sort"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"

	"github.com/scylladb/gocqlx/v2"
)

// Migrators maps a version to its migrator. The migrate command can run a
// single version by hand, Migrate applies everything pending in order.
var Migrators = map[string]func(context.Context) error{
	"0000": migrate0000,
	"0001": migrate0001,
	"0002": migrate0002,
}

func Migrate(ctx context.Context) error {
	if err := xcontext.DB(ctx).AutoMigrate(&entity.Migration{}); err != nil {
		return err
	}

	var applied []entity.Migration
	if err := xcontext.DB(ctx).Find(&applied).Error; err != nil {
		return err
	}

	appliedVersions := map[string]bool{}
	for _, record := range applied {
		appliedVersions[record.Version] = true
	}

	versions := make([]string, 0, len(Migrators))
	for version := range Migrators {
		versions = append(versions, version)
	}
	sort.Strings(versions)

	for _, version := range versions {
		if appliedVersions[version] {
			continue
		}

		if err := Migrators[version](ctx); err != nil {
			return fmt.Errorf("cannot apply migration %s: %w", version, err)
		}

		record := entity.Migration{Version: version}
		if err := xcontext.DB(ctx).Create(&record).Error; err != nil {
			return err
		}

		xcontext.Logger(ctx).Infof("Applied migration %s", version)
	}

	return nil
}

// AutoMigrate syncs the schema with the current entity definitions. Tests and
// fresh development databases use it instead of the numbered migrations.
func AutoMigrate(ctx context.Context) error {
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

func MigrateScyllaDB(ctx context.Context, session gocqlx.Session) error {
	return session.ExecStmt(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.point_activities (
			user_id text,
			bucket bigint,
			id bigint,
			type text,
			amount bigint,
			title text,
			created_at timestamp,
			PRIMARY KEY ((user_id, bucket), id)
		) WITH CLUSTERING ORDER BY (id DESC)`,
		xcontext.Configs(ctx).ScyllaDB.KeySpace,
	))
}
