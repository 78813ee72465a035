package domain

import (
	"context"
	"errors"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryDomain interface {
	GetList(context.Context, *model.GetListCategoryRequest) (*model.GetListCategoryResponse, error)
	Create(context.Context, *model.CreateCategoryRequest) (*model.CreateCategoryResponse, error)
	UpdateByID(context.Context, *model.UpdateCategoryByIDRequest) (*model.UpdateCategoryByIDResponse, error)
	DeleteByID(context.Context, *model.DeleteCategoryByIDRequest) (*model.DeleteCategoryByIDResponse, error)
}

type categoryDomain struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryDomain(categoryRepo repository.CategoryRepository) CategoryDomain {
	return &categoryDomain{categoryRepo: categoryRepo}
}

func (d *categoryDomain) GetList(
	ctx context.Context, req *model.GetListCategoryRequest,
) (*model.GetListCategoryResponse, error) {
	categories, err := d.categoryRepo.GetList(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get list of categories: %v", err)
		return nil, errorx.Unknown
	}

	list := []model.Category{}
	for _, c := range categories {
		list = append(list, model.ConvertCategory(&c))
	}

	return &model.GetListCategoryResponse{Categories: list}, nil
}

func (d *categoryDomain) Create(
	ctx context.Context, req *model.CreateCategoryRequest,
) (*model.CreateCategoryResponse, error) {
	if req.Name == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty category name")
	}

	_, err := d.categoryRepo.GetByName(ctx, req.Name)
	if err == nil {
		return nil, errorx.New(errorx.AlreadyExists, "This category name already exists")
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get category by name: %v", err)
		return nil, errorx.Unknown
	}

	position, err := d.categoryRepo.GetLastPosition(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get last position of categories: %v", err)
			return nil, errorx.Unknown
		}

		position = -1
	}

	category := &entity.Category{
		Base:      entity.Base{ID: uuid.NewString()},
		Name:      req.Name,
		Position:  position + 1,
		CreatedBy: xcontext.RequestUserID(ctx),
	}

	if err := d.categoryRepo.Create(ctx, category); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create category: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateCategoryResponse{Category: model.ConvertCategory(category)}, nil
}

func (d *categoryDomain) UpdateByID(
	ctx context.Context, req *model.UpdateCategoryByIDRequest,
) (*model.UpdateCategoryByIDResponse, error) {
	if req.Name == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty category name")
	}

	if _, err := d.categoryRepo.GetByID(ctx, req.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Invalid category")
		}

		xcontext.Logger(ctx).Errorf("Cannot get category: %v", err)
		return nil, errorx.Unknown
	}

	err := d.categoryRepo.UpdateByID(ctx, req.ID, &entity.Category{Name: req.Name})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update category: %v", err)
		return nil, errorx.Unknown
	}

	return &model.UpdateCategoryByIDResponse{}, nil
}

func (d *categoryDomain) DeleteByID(
	ctx context.Context, req *model.DeleteCategoryByIDRequest,
) (*model.DeleteCategoryByIDResponse, error) {
	category, err := d.categoryRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Invalid category")
		}

		xcontext.Logger(ctx).Errorf("Cannot get category: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.categoryRepo.DeleteByID(ctx, req.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete category: %v", err)
		return nil, errorx.Unknown
	}

	// Close the position gap left by the removed category.
	err = d.categoryRepo.DecreasePosition(ctx, category.Position, -1)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot shift category positions: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(ctx)
	return &model.DeleteCategoryByIDResponse{}, nil
}
