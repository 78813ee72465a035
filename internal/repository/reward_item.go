package repository

import (
	"context"
	"errors"

	"github.com/BillixOfficial/rewards-backend/internal/client"
	"github.com/BillixOfficial/rewards-backend/internal/domain/search"
	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"

	"gorm.io/gorm"
)

type RewardItemFilter struct {
	Q          string
	CategoryID string
	MinTiers   []entity.Tier
	ActiveOnly bool
}

type RewardItemRepository interface {
	Create(ctx context.Context, e *entity.RewardItem) error
	GetByID(ctx context.Context, id string) (*entity.RewardItem, error)
	GetByIDs(ctx context.Context, ids []string) ([]entity.RewardItem, error)
	GetList(ctx context.Context, filter RewardItemFilter, offset, limit int) ([]entity.RewardItem, error)
	Search(ctx context.Context, query string, offset, limit int) ([]entity.RewardItem, error)
	UpdateByID(ctx context.Context, id string, data map[string]any) error
	DecreaseStock(ctx context.Context, id string) error
	IncreaseStock(ctx context.Context, id string) error
	IncreaseRedeemedCount(ctx context.Context, id string) error
	UpdateTrendingScore(ctx context.Context, id string, score float64) error
	DeleteByID(ctx context.Context, id string) error
}

type rewardItemRepository struct {
	searchCaller client.SearchCaller
}

func NewRewardItemRepository(searchCaller client.SearchCaller) *rewardItemRepository {
	return &rewardItemRepository{searchCaller: searchCaller}
}

func (r *rewardItemRepository) Create(ctx context.Context, e *entity.RewardItem) error {
	if err := xcontext.DB(ctx).Create(e).Error; err != nil {
		return err
	}

	if e.IsActive {
		err := r.searchCaller.IndexRewardItem(ctx, e.ID, search.RewardItemData{
			Name:        e.Name,
			BrandName:   e.Brand,
			Description: e.Description,
			Variant:     string(e.Variant),
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *rewardItemRepository) GetByID(ctx context.Context, id string) (*entity.RewardItem, error) {
	result := entity.RewardItem{}
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *rewardItemRepository) GetByIDs(ctx context.Context, ids []string) ([]entity.RewardItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	result := []entity.RewardItem{}
	if err := xcontext.DB(ctx).Find(&result, "id IN (?)", ids).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *rewardItemRepository) GetList(
	ctx context.Context, filter RewardItemFilter, offset, limit int,
) ([]entity.RewardItem, error) {
	result := []entity.RewardItem{}
	tx := xcontext.DB(ctx).
		Offset(offset).
		Limit(limit).
		Order("trending_score DESC, reward_items.created_at DESC")

	if filter.Q != "" {
		tx.Where("name LIKE ? OR brand LIKE ?", "%"+filter.Q+"%", "%"+filter.Q+"%")
	}

	if filter.CategoryID != "" {
		tx.Where("category_id = ?", filter.CategoryID)
	}

	if len(filter.MinTiers) > 0 {
		tx.Where("min_tier IN (?)", filter.MinTiers)
	}

	if filter.ActiveOnly {
		tx.Where("is_active = true")
	}

	if err := tx.Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

// Search resolves a full text query through the search service and loads the
// matched items in the order of relevance.
func (r *rewardItemRepository) Search(
	ctx context.Context, query string, offset, limit int,
) ([]entity.RewardItem, error) {
	ids, err := r.searchCaller.SearchRewardItem(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}

	items, err := r.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	itemSet := map[string]entity.RewardItem{}
	for _, item := range items {
		itemSet[item.ID] = item
	}

	ordered := []entity.RewardItem{}
	for _, id := range ids {
		if item, ok := itemSet[id]; ok {
			ordered = append(ordered, item)
		}
	}

	return ordered, nil
}

func (r *rewardItemRepository) UpdateByID(ctx context.Context, id string, data map[string]any) error {
	tx := xcontext.DB(ctx).
		Model(&entity.RewardItem{}).
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

	item, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !item.IsActive {
		return r.searchCaller.DeleteRewardItem(ctx, id)
	}

	return r.searchCaller.IndexRewardItem(ctx, id, search.RewardItemData{
		Name:        item.Name,
		BrandName:   item.Brand,
		Description: item.Description,
		Variant:     string(item.Variant),
	})
}

// DecreaseStock takes one unit off a limited item. The caller must skip it
// for items with a negative stock, those never run out.
func (r *rewardItemRepository) DecreaseStock(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).
		Model(&entity.RewardItem{}).
		Where("id=? AND stock > 0", id).
		Update("stock", gorm.Expr("stock-1"))
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

func (r *rewardItemRepository) IncreaseStock(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).
		Model(&entity.RewardItem{}).
		Where("id=? AND stock >= 0", id).
		Update("stock", gorm.Expr("stock+1"))
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

func (r *rewardItemRepository) IncreaseRedeemedCount(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).
		Model(&entity.RewardItem{}).
		Where("id=?", id).
		Update("redeemed_count", gorm.Expr("redeemed_count+1"))
	if err := tx.Error; err != nil {
		return err
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// UpdateTrendingScore is called by the trending cron job only, it does not
// touch the search index.
func (r *rewardItemRepository) UpdateTrendingScore(ctx context.Context, id string, score float64) error {
	tx := xcontext.DB(ctx).
		Model(&entity.RewardItem{}).
		Where("id=?", id).
		Update("trending_score", score)
	if err := tx.Error; err != nil {
		return err
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *rewardItemRepository) DeleteByID(ctx context.Context, id string) error {
	if err := xcontext.DB(ctx).Delete(&entity.RewardItem{}, "id=?", id).Error; err != nil {
		return err
	}

	return r.searchCaller.DeleteRewardItem(ctx, id)
}
