package repository

import (
	"context"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
)

type CheckInRepository interface {
	Create(ctx context.Context, e *entity.CheckIn) error
	Get(ctx context.Context, userID string, date time.Time) (*entity.CheckIn, error)
	GetLast(ctx context.Context, userID string) (*entity.CheckIn, error)
	GetRange(ctx context.Context, userID string, begin, end time.Time) ([]entity.CheckIn, error)
}

type checkInRepository struct{}

func NewCheckInRepository() *checkInRepository {
	return &checkInRepository{}
}

func (r *checkInRepository) Create(ctx context.Context, e *entity.CheckIn) error {
	return xcontext.DB(ctx).Create(e).Error
}

func (r *checkInRepository) Get(ctx context.Context, userID string, date time.Time) (*entity.CheckIn, error) {
	result := entity.CheckIn{}
	err := xcontext.DB(ctx).
		Take(&result, "user_id=? AND date=?", userID, date).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *checkInRepository) GetLast(ctx context.Context, userID string) (*entity.CheckIn, error) {
	result := entity.CheckIn{}
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("date DESC").
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// GetRange returns check-ins with begin <= date < end, oldest first.
func (r *checkInRepository) GetRange(
	ctx context.Context, userID string, begin, end time.Time,
) ([]entity.CheckIn, error) {
	result := []entity.CheckIn{}
	err := xcontext.DB(ctx).
		Where("user_id=? AND date >= ? AND date < ?", userID, begin, end).
		Order("date ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
