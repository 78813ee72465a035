package migration

import (
	"context"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
)

// migrate0001 drops the vendor_name column of reward items, replaced by the
// sku since the vendor resolves the brand itself.
func migrate0001(ctx context.Context) error {
	if !xcontext.DB(ctx).Migrator().HasColumn(&entity.RewardItem{}, "vendor_name") {
		return nil
	}

	return xcontext.DB(ctx).Migrator().DropColumn(&entity.RewardItem{}, "vendor_name")
}
