package repository

import (
	"context"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"

	"gorm.io/gorm"
)

type DrawRepository interface {
	// Event
	CreateEvent(ctx context.Context, event *entity.DrawEvent) error
	GetEventByID(ctx context.Context, eventID string) (*entity.DrawEvent, error)
	GetCurrentEvents(ctx context.Context, now time.Time) ([]entity.DrawEvent, error)
	GetUnsettledEndedEvents(ctx context.Context, now time.Time) ([]entity.DrawEvent, error)
	GetLastEvent(ctx context.Context) (*entity.DrawEvent, error)
	IncreaseTotalEntries(ctx context.Context, eventID string) error
	CheckAndSettleEvent(ctx context.Context, eventID string, now time.Time) error

	// Prize
	CreatePrize(ctx context.Context, prize *entity.DrawPrize) error
	GetPrizeByID(ctx context.Context, prizeID string) (*entity.DrawPrize, error)
	GetPrizesByEventID(ctx context.Context, eventID string) ([]entity.DrawPrize, error)
	CheckAndWinEventPrize(ctx context.Context, prizeID string) error

	// Entry
	CreateEntry(ctx context.Context, entry *entity.DrawEntry) error
	GetEntriesByEventID(ctx context.Context, eventID string) ([]entity.DrawEntry, error)
	CountEntries(ctx context.Context, eventID, userID string) (int64, error)

	// Winner
	CreateWinner(ctx context.Context, winner *entity.DrawWinner) error
	GetWinnerByID(ctx context.Context, winnerID string) (*entity.DrawWinner, error)
	GetNotClaimedWinnersByUserID(ctx context.Context, userID string) ([]entity.DrawWinner, error)
	GetWinnersByEventID(ctx context.Context, eventID string) ([]entity.DrawWinner, error)
	ClaimWinnerReward(ctx context.Context, winnerID string) error
}

type drawRepository struct{}

func NewDrawRepository() *drawRepository {
	return &drawRepository{}
}

func (r *drawRepository) CreateEvent(ctx context.Context, event *entity.DrawEvent) error {
	return xcontext.DB(ctx).Create(event).Error
}

func (r *drawRepository) GetEventByID(ctx context.Context, eventID string) (*entity.DrawEvent, error) {
	var result entity.DrawEvent
	if err := xcontext.DB(ctx).Take(&result, "id=?", eventID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *drawRepository) GetCurrentEvents(ctx context.Context, now time.Time) ([]entity.DrawEvent, error) {
	var result []entity.DrawEvent
	err := xcontext.DB(ctx).
		Where("start_time <= ? AND end_time > ?", now, now).
		Order("end_time ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *drawRepository) GetUnsettledEndedEvents(ctx context.Context, now time.Time) ([]entity.DrawEvent, error) {
	var result []entity.DrawEvent
	err := xcontext.DB(ctx).
		Where("end_time <= ? AND is_settled=?", now, false).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *drawRepository) GetLastEvent(ctx context.Context) (*entity.DrawEvent, error) {
	var result entity.DrawEvent
	if err := xcontext.DB(ctx).Order("end_time DESC").Take(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

// IncreaseTotalEntries bumps the entry counter of the event. The per user cap
// is enforced by the caller inside the same database transaction.
func (r *drawRepository) IncreaseTotalEntries(ctx context.Context, eventID string) error {
	tx := xcontext.DB(ctx).Model(&entity.DrawEvent{}).
		Where("id=?", eventID).
		Update("total_entries", gorm.Expr("total_entries+?", 1))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// CheckAndSettleEvent marks the event settled. Only one caller can win this
// update, which keeps the drawing of winners from happening twice.
func (r *drawRepository) CheckAndSettleEvent(ctx context.Context, eventID string, now time.Time) error {
	tx := xcontext.DB(ctx).Model(&entity.DrawEvent{}).
		Where("id=? AND is_settled=? AND end_time <= ?", eventID, false, now).
		Update("is_settled", true)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *drawRepository) CreatePrize(ctx context.Context, prize *entity.DrawPrize) error {
	return xcontext.DB(ctx).Create(prize).Error
}

func (r *drawRepository) GetPrizeByID(ctx context.Context, prizeID string) (*entity.DrawPrize, error) {
	var result entity.DrawPrize
	if err := xcontext.DB(ctx).Take(&result, "id=?", prizeID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *drawRepository) GetPrizesByEventID(ctx context.Context, eventID string) ([]entity.DrawPrize, error) {
	var result []entity.DrawPrize
	if err := xcontext.DB(ctx).Find(&result, "draw_event_id=?", eventID).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *drawRepository) CheckAndWinEventPrize(ctx context.Context, prizeID string) error {
	tx := xcontext.DB(ctx).Model(&entity.DrawPrize{}).
		Where("id=? AND won_count < available_count", prizeID).
		Update("won_count", gorm.Expr("won_count+?", 1))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *drawRepository) CreateEntry(ctx context.Context, entry *entity.DrawEntry) error {
	return xcontext.DB(ctx).Create(entry).Error
}

func (r *drawRepository) GetEntriesByEventID(ctx context.Context, eventID string) ([]entity.DrawEntry, error) {
	var result []entity.DrawEntry
	if err := xcontext.DB(ctx).Find(&result, "draw_event_id=?", eventID).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *drawRepository) CountEntries(ctx context.Context, eventID, userID string) (int64, error) {
	var result int64
	err := xcontext.DB(ctx).Model(&entity.DrawEntry{}).
		Where("draw_event_id=? AND user_id=?", eventID, userID).
		Count(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}

func (r *drawRepository) CreateWinner(ctx context.Context, winner *entity.DrawWinner) error {
	return xcontext.DB(ctx).Create(winner).Error
}

func (r *drawRepository) GetWinnerByID(ctx context.Context, winnerID string) (*entity.DrawWinner, error) {
	var result entity.DrawWinner
	if err := xcontext.DB(ctx).Take(&result, "id=?", winnerID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *drawRepository) GetNotClaimedWinnersByUserID(ctx context.Context, userID string) ([]entity.DrawWinner, error) {
	var result []entity.DrawWinner
	if err := xcontext.DB(ctx).Find(&result, "user_id=? AND is_claimed=?", userID, false).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *drawRepository) GetWinnersByEventID(ctx context.Context, eventID string) ([]entity.DrawWinner, error) {
	var result []entity.DrawWinner
	err := xcontext.DB(ctx).Model(&entity.DrawWinner{}).
		Joins("join draw_prizes on draw_prizes.id=draw_winners.draw_prize_id").
		Where("draw_prizes.draw_event_id=?", eventID).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *drawRepository) ClaimWinnerReward(ctx context.Context, winnerID string) error {
	tx := xcontext.DB(ctx).Model(&entity.DrawWinner{}).
		Where("id=? AND is_claimed=?", winnerID, false).
		Update("is_claimed", true)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
