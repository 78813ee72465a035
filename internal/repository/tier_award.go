package repository

import (
	"context"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"

	"gorm.io/gorm/clause"
)

type TierAwardRepository interface {
	Upsert(ctx context.Context, e *entity.TierAward) error
	GetAllByUserID(ctx context.Context, userID string) ([]entity.TierAward, error)
	GetLatestByUserID(ctx context.Context, userID string) (*entity.TierAward, error)
	GetNotNotified(ctx context.Context, userID string) ([]entity.TierAward, error)
	UpdateNotification(ctx context.Context, userID string) error
}

type tierAwardRepository struct{}

func NewTierAwardRepository() *tierAwardRepository {
	return &tierAwardRepository{}
}

// Upsert records an award and keeps the original row when the user already
// holds the tier. Awards are never revoked.
func (r *tierAwardRepository) Upsert(ctx context.Context, e *entity.TierAward) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "tier"},
			},
			DoNothing: true,
		}).Create(e).Error
}

func (r *tierAwardRepository) GetAllByUserID(ctx context.Context, userID string) ([]entity.TierAward, error) {
	result := []entity.TierAward{}
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("awarded_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *tierAwardRepository) GetLatestByUserID(ctx context.Context, userID string) (*entity.TierAward, error) {
	result := entity.TierAward{}
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("awarded_at DESC").
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *tierAwardRepository) GetNotNotified(ctx context.Context, userID string) ([]entity.TierAward, error) {
	result := []entity.TierAward{}
	err := xcontext.DB(ctx).
		Where("user_id=? AND was_notified=false", userID).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *tierAwardRepository) UpdateNotification(ctx context.Context, userID string) error {
	return xcontext.DB(ctx).
		Model(&entity.TierAward{}).
		Where("user_id=?", userID).
		Update("was_notified", true).Error
}
