package repository

import (
	"context"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"

	"gorm.io/gorm"
)

type GuessRepository interface {
	CreateRound(ctx context.Context, round *entity.GuessRound) error
	GetRoundByID(ctx context.Context, roundID string) (*entity.GuessRound, error)
	GetRoundsByIDs(ctx context.Context, roundIDs []string) ([]entity.GuessRound, error)
	GetOpenRound(ctx context.Context, now time.Time) (*entity.GuessRound, error)
	GetLastRound(ctx context.Context) (*entity.GuessRound, error)
	GetUnsettledEndedRounds(ctx context.Context, now time.Time) ([]entity.GuessRound, error)
	CheckAndSettleRound(ctx context.Context, roundID string) error

	CreateGuess(ctx context.Context, guess *entity.Guess) error
	GetGuess(ctx context.Context, roundID, userID string) (*entity.Guess, error)
	GetGuessesByRoundID(ctx context.Context, roundID string) ([]entity.Guess, error)
	GetGuessesByUserID(ctx context.Context, userID string, offset, limit int) ([]entity.Guess, error)
	CountGuesses(ctx context.Context, roundID string) (int64, error)
	UpdateGuessByID(ctx context.Context, id string, data map[string]any) error
}

type guessRepository struct{}

func NewGuessRepository() *guessRepository {
	return &guessRepository{}
}

func (r *guessRepository) CreateRound(ctx context.Context, round *entity.GuessRound) error {
	return xcontext.DB(ctx).Create(round).Error
}

func (r *guessRepository) GetRoundByID(ctx context.Context, roundID string) (*entity.GuessRound, error) {
	var result entity.GuessRound
	if err := xcontext.DB(ctx).Take(&result, "id=?", roundID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *guessRepository) GetRoundsByIDs(ctx context.Context, roundIDs []string) ([]entity.GuessRound, error) {
	var result []entity.GuessRound
	if err := xcontext.DB(ctx).Find(&result, "id IN (?)", roundIDs).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *guessRepository) GetOpenRound(ctx context.Context, now time.Time) (*entity.GuessRound, error) {
	var result entity.GuessRound
	err := xcontext.DB(ctx).
		Where("is_settled=false AND start_time <= ? AND end_time > ?", now, now).
		Order("start_time DESC").
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *guessRepository) GetLastRound(ctx context.Context) (*entity.GuessRound, error) {
	var result entity.GuessRound
	err := xcontext.DB(ctx).
		Order("start_time DESC").
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *guessRepository) GetUnsettledEndedRounds(
	ctx context.Context, now time.Time,
) ([]entity.GuessRound, error) {
	var result []entity.GuessRound
	err := xcontext.DB(ctx).
		Where("is_settled=false AND end_time <= ?", now).
		Order("end_time ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// CheckAndSettleRound flips the settled flag exactly once. The loser of a
// settle race gets a record not found and must not pay rewards again.
func (r *guessRepository) CheckAndSettleRound(ctx context.Context, roundID string) error {
	tx := xcontext.DB(ctx).Model(&entity.GuessRound{}).
		Where("id=? AND is_settled=false", roundID).
		Update("is_settled", true)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *guessRepository) CreateGuess(ctx context.Context, guess *entity.Guess) error {
	return xcontext.DB(ctx).Create(guess).Error
}

func (r *guessRepository) GetGuess(ctx context.Context, roundID, userID string) (*entity.Guess, error) {
	var result entity.Guess
	err := xcontext.DB(ctx).
		Where("round_id=? AND user_id=?", roundID, userID).
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *guessRepository) GetGuessesByRoundID(ctx context.Context, roundID string) ([]entity.Guess, error) {
	var result []entity.Guess
	err := xcontext.DB(ctx).
		Where("round_id=?", roundID).
		Order("created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *guessRepository) GetGuessesByUserID(
	ctx context.Context, userID string, offset, limit int,
) ([]entity.Guess, error) {
	var result []entity.Guess
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *guessRepository) CountGuesses(ctx context.Context, roundID string) (int64, error) {
	var result int64
	err := xcontext.DB(ctx).Model(&entity.Guess{}).
		Where("round_id=?", roundID).
		Count(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}

// UpdateGuessByID writes the settlement outcome of a single guess.
func (r *guessRepository) UpdateGuessByID(ctx context.Context, id string, data map[string]any) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Guess{}).
		Where("id=?", id).
		Updates(data)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
