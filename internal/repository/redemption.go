package repository

import (
	"context"
	"errors"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"

	"gorm.io/gorm"
)

type RedemptionRepository interface {
	Create(ctx context.Context, e *entity.Redemption) error
	GetByID(ctx context.Context, id string) (*entity.Redemption, error)
	GetListByUserID(ctx context.Context, userID string, offset, limit int) ([]entity.Redemption, error)
	UpdateByID(ctx context.Context, id string, data map[string]any) error
	TransitStatus(ctx context.Context, id string, from, to entity.RedemptionStatus) error
	GetStuckPending(ctx context.Context, before time.Time) ([]entity.Redemption, error)
	CountRecentByItem(ctx context.Context, since time.Time) ([]ItemRedemptionCount, error)
}

// ItemRedemptionCount is an aggregated row of fulfilled redemptions per item
// over a recent window, the input of the trending score.
type ItemRedemptionCount struct {
	RewardItemID string
	Count        int64
}

type redemptionRepository struct{}

func NewRedemptionRepository() *redemptionRepository {
	return &redemptionRepository{}
}

func (r *redemptionRepository) Create(ctx context.Context, e *entity.Redemption) error {
	return xcontext.DB(ctx).Create(e).Error
}

func (r *redemptionRepository) GetByID(ctx context.Context, id string) (*entity.Redemption, error) {
	result := entity.Redemption{}
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *redemptionRepository) GetListByUserID(
	ctx context.Context, userID string, offset, limit int,
) ([]entity.Redemption, error) {
	result := []entity.Redemption{}
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *redemptionRepository) UpdateByID(ctx context.Context, id string, data map[string]any) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Redemption{}).
		Where("id=?", id).
		Updates(data)
	if err := tx.Error; err != nil {
		return err
	}

	if tx.RowsAffected > 1 {
		return errors.New("the number of rows effected is invalid")
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// TransitStatus moves a redemption between two known states. It fails with
// record not found when another writer already moved it, so the caller can
// treat the transition as settled.
func (r *redemptionRepository) TransitStatus(
	ctx context.Context, id string, from, to entity.RedemptionStatus,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Redemption{}).
		Where("id=? AND status=?", id, from).
		Update("status", to)
	if err := tx.Error; err != nil {
		return err
	}

	if tx.RowsAffected > 1 {
		return errors.New("the number of rows effected is invalid")
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *redemptionRepository) GetStuckPending(
	ctx context.Context, before time.Time,
) ([]entity.Redemption, error) {
	result := []entity.Redemption{}
	err := xcontext.DB(ctx).
		Where("status=? AND created_at < ?", entity.RedemptionPending, before).
		Order("created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *redemptionRepository) CountRecentByItem(
	ctx context.Context, since time.Time,
) ([]ItemRedemptionCount, error) {
	var result []ItemRedemptionCount
	err := xcontext.DB(ctx).
		Model(&entity.Redemption{}).
		Select("reward_item_id, COUNT(*) as count").
		Where("status=? AND created_at >= ?", entity.RedemptionFulfilled, since).
		Group("reward_item_id").
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
