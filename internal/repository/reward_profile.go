package repository

import (
	"context"
	"errors"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"

	"gorm.io/gorm"
)

type RewardProfileRepository interface {
	Create(ctx context.Context, data *entity.RewardProfile) error
	Get(ctx context.Context, userID string) (*entity.RewardProfile, error)
	GetList(ctx context.Context, offset, limit int) ([]entity.RewardProfile, error)
	IncreasePoints(ctx context.Context, userID string, points uint64) error
	DecreasePoints(ctx context.Context, userID string, points uint64) error
	UpdateStreak(ctx context.Context, userID string, isStreak bool, checkInTime time.Time) error
	UpdateTier(ctx context.Context, userID string, tier entity.Tier) error
	Count(ctx context.Context) (int64, error)
}

type rewardProfileRepository struct{}

func NewRewardProfileRepository() *rewardProfileRepository {
	return &rewardProfileRepository{}
}

func (r *rewardProfileRepository) Create(ctx context.Context, data *entity.RewardProfile) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *rewardProfileRepository) Get(ctx context.Context, userID string) (*entity.RewardProfile, error) {
	var result entity.RewardProfile
	if err := xcontext.DB(ctx).Where("user_id=?", userID).Take(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *rewardProfileRepository) GetList(
	ctx context.Context, offset, limit int,
) ([]entity.RewardProfile, error) {
	var result []entity.RewardProfile
	err := xcontext.DB(ctx).
		Order("lifetime_points DESC").
		Offset(offset).Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// IncreasePoints adds to both the spendable balance and lifetime points.
func (r *rewardProfileRepository) IncreasePoints(
	ctx context.Context, userID string, points uint64,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.RewardProfile{}).
		Where("user_id=?", userID).
		Updates(map[string]any{
			"points":          gorm.Expr("points+?", points),
			"lifetime_points": gorm.Expr("lifetime_points+?", points),
		})

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected > 1 {
		return errors.New("the number of rows effected is invalid")
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// DecreasePoints spends or expires points. It fails with ErrRecordNotFound
// when the balance does not cover the amount, so the balance can never go
// negative. Lifetime points are untouched.
func (r *rewardProfileRepository) DecreasePoints(
	ctx context.Context, userID string, points uint64,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.RewardProfile{}).
		Where("user_id=? AND points >= ?", userID, points).
		Update("points", gorm.Expr("points-?", points))

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected > 1 {
		return errors.New("the number of rows effected is invalid")
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *rewardProfileRepository) UpdateStreak(
	ctx context.Context, userID string, isStreak bool, checkInTime time.Time,
) error {
	updateMap := map[string]any{
		"current_streak":     gorm.Expr("current_streak+1"),
		"last_check_in_date": checkInTime,
	}
	if !isStreak {
		updateMap["current_streak"] = 1
	}

	tx := xcontext.DB(ctx).
		Model(&entity.RewardProfile{}).
		Where("user_id=?", userID).
		Updates(updateMap)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	// The longest streak trails the current one.
	return xcontext.DB(ctx).
		Model(&entity.RewardProfile{}).
		Where("user_id=? AND longest_streak < current_streak", userID).
		Update("longest_streak", gorm.Expr("current_streak")).Error
}

func (r *rewardProfileRepository) UpdateTier(
	ctx context.Context, userID string, tier entity.Tier,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.RewardProfile{}).
		Where("user_id=?", userID).
		Update("tier", tier)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *rewardProfileRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := xcontext.DB(ctx).Model(&entity.RewardProfile{}).Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}
