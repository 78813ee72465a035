package repository

import (
	"context"
	"fmt"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"

	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(ctx context.Context, e *entity.Category) error
	GetList(ctx context.Context) ([]entity.Category, error)
	GetByID(ctx context.Context, id string) (*entity.Category, error)
	GetByName(ctx context.Context, name string) (*entity.Category, error)
	DeleteByID(ctx context.Context, id string) error
	UpdateByID(ctx context.Context, id string, data *entity.Category) error
	GetLastPosition(ctx context.Context) (int, error)
	IncreasePosition(ctx context.Context, from, to int) error
	DecreasePosition(ctx context.Context, from, to int) error
}

type categoryRepository struct{}

func NewCategoryRepository() *categoryRepository {
	return &categoryRepository{}
}

func (r *categoryRepository) Create(ctx context.Context, e *entity.Category) error {
	return xcontext.DB(ctx).Create(e).Error
}

func (r *categoryRepository) GetList(ctx context.Context) ([]entity.Category, error) {
	var result []entity.Category
	if err := xcontext.DB(ctx).Order("position ASC").Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *categoryRepository) DeleteByID(ctx context.Context, id string) error {
	return xcontext.DB(ctx).Delete(&entity.Category{}, "id=?", id).Error
}

func (r *categoryRepository) UpdateByID(ctx context.Context, id string, data *entity.Category) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Category{}).
		Where("id=?", id).
		Updates(data)
	if err := tx.Error; err != nil {
		return err
	}

	if tx.RowsAffected == 0 {
		return fmt.Errorf("row affected is empty")
	}

	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	var result entity.Category
	if err := xcontext.DB(ctx).Where("id=?", id).Take(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*entity.Category, error) {
	var result entity.Category
	if err := xcontext.DB(ctx).Where("name=?", name).Take(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *categoryRepository) GetLastPosition(ctx context.Context) (int, error) {
	var result int
	err := xcontext.DB(ctx).Model(&entity.Category{}).Select("position").
		Order("position DESC").
		Take(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}

func (r *categoryRepository) IncreasePosition(ctx context.Context, from, to int) error {
	tx := xcontext.DB(ctx).Model(&entity.Category{})

	if from != -1 {
		tx.Where("position >= ?", from)
	}

	if to != -1 {
		tx.Where("position <= ?", to)
	}

	return tx.Update("position", gorm.Expr("position+?", 1)).Error
}

func (r *categoryRepository) DecreasePosition(ctx context.Context, from, to int) error {
	tx := xcontext.DB(ctx).Model(&entity.Category{})

	if from != -1 {
		tx.Where("position >= ?", from)
	}

	if to != -1 {
		tx.Where("position <= ?", to)
	}

	return tx.Update("position", gorm.Expr("position-?", 1)).Error
}
