package repository

import (
	"context"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
)

// UserPoints is an aggregated row of earned points per user, used to rebuild
// a leaderboard from the ledger.
type UserPoints struct {
	UserID string
	Points uint64
}

// ExpirableBalance aggregates the ledger of one user against the expiry
// horizon. Everything earned before the horizon minus everything consumed
// since the beginning is the amount about to expire.
type ExpirableBalance struct {
	UserID    string
	OldEarned uint64
	Consumed  uint64
}

type PointTransactionRepository interface {
	Create(ctx context.Context, data *entity.PointTransaction) error
	GetByID(ctx context.Context, id int64) (*entity.PointTransaction, error)
	GetListByUserID(ctx context.Context, userID string, offset, limit int) ([]entity.PointTransaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.PointTransaction, error)
	SumEarnedByUser(ctx context.Context, start, end time.Time) ([]UserPoints, error)
	SumEarnedInRange(ctx context.Context, userID string, start, end time.Time) (uint64, error)
	GetExpirableBalances(ctx context.Context, cutoff time.Time) ([]ExpirableBalance, error)
}

type pointTransactionRepository struct{}

func NewPointTransactionRepository() *pointTransactionRepository {
	return &pointTransactionRepository{}
}

func (r *pointTransactionRepository) Create(ctx context.Context, data *entity.PointTransaction) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *pointTransactionRepository) GetByID(ctx context.Context, id int64) (*entity.PointTransaction, error) {
	var result entity.PointTransaction
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *pointTransactionRepository) GetListByUserID(
	ctx context.Context, userID string, offset, limit int,
) ([]entity.PointTransaction, error) {
	var result []entity.PointTransaction
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *pointTransactionRepository) GetByIdempotencyKey(
	ctx context.Context, key string,
) (*entity.PointTransaction, error) {
	var result entity.PointTransaction
	if err := xcontext.DB(ctx).Take(&result, "idempotency_key=?", key).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

// SumEarnedByUser aggregates credited points per user over a period.
func (r *pointTransactionRepository) SumEarnedByUser(
	ctx context.Context, start, end time.Time,
) ([]UserPoints, error) {
	var result []UserPoints
	err := xcontext.DB(ctx).
		Model(&entity.PointTransaction{}).
		Select("user_id, SUM(amount) as points").
		Where("type IN (?) AND created_at >= ? AND created_at < ?",
			[]entity.TransactionType{entity.TransactionEarn, entity.TransactionAdjust},
			start, end).
		Group("user_id").
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// SumEarnedInRange aggregates the credited points of one user over a period.
func (r *pointTransactionRepository) SumEarnedInRange(
	ctx context.Context, userID string, start, end time.Time,
) (uint64, error) {
	var sum uint64
	err := xcontext.DB(ctx).
		Model(&entity.PointTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id=? AND type IN (?) AND created_at >= ? AND created_at < ?",
			userID,
			[]entity.TransactionType{entity.TransactionEarn, entity.TransactionAdjust},
			start, end).
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}

	return sum, nil
}

// GetExpirableBalances returns, for every user holding points earned before
// the cutoff, the total earned before the cutoff and the total consumed over
// all time. Consumption counts against the oldest earnings first, so the
// difference is exactly what must expire.
func (r *pointTransactionRepository) GetExpirableBalances(
	ctx context.Context, cutoff time.Time,
) ([]ExpirableBalance, error) {
	var result []ExpirableBalance
	err := xcontext.DB(ctx).
		Model(&entity.PointTransaction{}).
		Select(`user_id,
			SUM(CASE WHEN type IN (?) AND created_at < ? THEN amount ELSE 0 END) AS old_earned,
			SUM(CASE WHEN type IN (?) THEN amount ELSE 0 END) AS consumed`,
			[]entity.TransactionType{entity.TransactionEarn, entity.TransactionAdjust},
			cutoff,
			[]entity.TransactionType{entity.TransactionSpend, entity.TransactionExpire}).
		Group("user_id").
		Having("old_earned > consumed").
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
