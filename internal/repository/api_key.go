package repository

import (
	"context"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
	"gorm.io/gorm"
)

type APIKeyRepository interface {
	Create(ctx context.Context, data *entity.APIKey) error
	Regenerate(ctx context.Context, userID, newKey string) error
	GetOwnerByKey(ctx context.Context, key string) (string, error)
	DeleteByUserID(ctx context.Context, userID string) error
}

type apiKeyRepository struct{}

func NewAPIKeyRepository() *apiKeyRepository {
	return &apiKeyRepository{}
}

func (r *apiKeyRepository) Create(ctx context.Context, data *entity.APIKey) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *apiKeyRepository) Regenerate(ctx context.Context, userID, newKey string) error {
	tx := xcontext.DB(ctx).Model(&entity.APIKey{}).
		Where("user_id=?", userID).
		Update("key", newKey)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *apiKeyRepository) GetOwnerByKey(ctx context.Context, key string) (string, error) {
	var result entity.APIKey
	if err := xcontext.DB(ctx).Take(&result, "`key`=?", key).Error; err != nil {
		return "", err
	}

	return result.UserID, nil
}

func (r *apiKeyRepository) DeleteByUserID(ctx context.Context, userID string) error {
	return xcontext.DB(ctx).Delete(&entity.APIKey{}, "user_id=?", userID).Error
}
