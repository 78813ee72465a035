package testutil

import (
	"context"
	"database/sql"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/repository"

	"github.com/google/uuid"
)

// SampleUser inserts a user with randomized fields. Non-zero fields of init
// overwrite the sample before the insert.
func SampleUser(ctx context.Context, init *entity.User) (entity.User, error) {
	id := uuid.NewString()
	sample := &entity.User{
		Base:         entity.Base{ID: id},
		Name:         "user-" + id,
		Email:        sql.NullString{Valid: true, String: id + "@example.com"},
		Role:         entity.RoleUser,
		ReferralCode: id[:8],
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := repository.NewUserRepository().Create(ctx, sample); err != nil {
		return *sample, err
	}

	return *sample, nil
}

// SampleRewardProfile inserts a reward profile. The user must exist already.
func SampleRewardProfile(ctx context.Context, init *entity.RewardProfile) (entity.RewardProfile, error) {
	sample := &entity.RewardProfile{
		UserID: uuid.NewString(),
		Tier:   entity.TierBronze,
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := repository.NewRewardProfileRepository().Create(ctx, sample); err != nil {
		return *sample, err
	}

	return *sample, nil
}

// SampleRewardItem inserts an active catalog item with no category.
func SampleRewardItem(ctx context.Context, init *entity.RewardItem) (entity.RewardItem, error) {
	id := uuid.NewString()
	sample := &entity.RewardItem{
		Base:     entity.Base{ID: id},
		Variant:  entity.VariantGiftCard,
		Name:     "item-" + id,
		Brand:    "Acme",
		SKU:      "sku-" + id,
		Cost:     500,
		Stock:    -1,
		MinTier:  entity.TierBronze,
		IsActive: true,
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	err := repository.NewRewardItemRepository(&MockSearchCaller{}).Create(ctx, sample)
	if err != nil {
		return *sample, err
	}

	return *sample, nil
}
