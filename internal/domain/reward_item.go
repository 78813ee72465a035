package domain

import (
	"context"
	"database/sql"
	"errors"

	"github.com/BillixOfficial/rewards-backend/internal/common"
	"github.com/BillixOfficial/rewards-backend/internal/domain/progression"
	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/api/brandsite"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/enum"
	"github.com/BillixOfficial/rewards-backend/pkg/storage"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RewardItemDomain interface {
	GetList(context.Context, *model.GetRewardItemsRequest) (*model.GetRewardItemsResponse, error)
	Get(context.Context, *model.GetRewardItemRequest) (*model.GetRewardItemResponse, error)
	Search(context.Context, *model.SearchRewardItemsRequest) (*model.SearchRewardItemsResponse, error)
	Create(context.Context, *model.CreateRewardItemRequest) (*model.CreateRewardItemResponse, error)
	UpdateByID(context.Context, *model.UpdateRewardItemRequest) (*model.UpdateRewardItemResponse, error)
	DeleteByID(context.Context, *model.DeleteRewardItemRequest) (*model.DeleteRewardItemResponse, error)
}

type rewardItemDomain struct {
	rewardItemRepo    repository.RewardItemRepository
	categoryRepo      repository.CategoryRepository
	rewardProfileRepo repository.RewardProfileRepository
	brandSite         brandsite.IEndpoint
	storage           storage.Storage
}

func NewRewardItemDomain(
	rewardItemRepo repository.RewardItemRepository,
	categoryRepo repository.CategoryRepository,
	rewardProfileRepo repository.RewardProfileRepository,
	brandSite brandsite.IEndpoint,
	storage storage.Storage,
) *rewardItemDomain {
	return &rewardItemDomain{
		rewardItemRepo:    rewardItemRepo,
		categoryRepo:      categoryRepo,
		rewardProfileRepo: rewardProfileRepo,
		brandSite:         brandSite,
		storage:           storage,
	}
}

func (d *rewardItemDomain) GetList(
	ctx context.Context, req *model.GetRewardItemsRequest,
) (*model.GetRewardItemsResponse, error) {
	limit, err := normalizeLimit(ctx, req.Limit)
	if err != nil {
		return nil, err
	}

	filter := repository.RewardItemFilter{
		Q:          req.Q,
		CategoryID: req.CategoryID,
		ActiveOnly: true,
	}

	if req.ForMyTier {
		userID := xcontext.RequestUserID(ctx)
		if userID == "" {
			return nil, errorx.New(errorx.Unauthenticated, "Sign in to use the tier filter")
		}

		profile, err := d.rewardProfileRepo.Get(ctx, userID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get reward profile: %v", err)
			return nil, errorx.Unknown
		}

		filter.MinTiers = progression.TiersUpTo(profile.Tier)
		if filter.MinTiers == nil {
			xcontext.Logger(ctx).Errorf("Got an unknown tier %s of user %s", profile.Tier, userID)
			return nil, errorx.Unknown
		}
	}

	items, err := d.rewardItemRepo.GetList(ctx, filter, req.Offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward items: %v", err)
		return nil, errorx.Unknown
	}

	list, err := d.decorateItems(ctx, items)
	if err != nil {
		return nil, err
	}

	return &model.GetRewardItemsResponse{RewardItems: list}, nil
}

func (d *rewardItemDomain) Get(
	ctx context.Context, req *model.GetRewardItemRequest,
) (*model.GetRewardItemResponse, error) {
	item, err := d.rewardItemRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found reward item")
		}

		xcontext.Logger(ctx).Errorf("Cannot get reward item: %v", err)
		return nil, errorx.Unknown
	}

	list, err := d.decorateItems(ctx, []entity.RewardItem{*item})
	if err != nil {
		return nil, err
	}

	return &model.GetRewardItemResponse{RewardItem: list[0]}, nil
}

func (d *rewardItemDomain) Search(
	ctx context.Context, req *model.SearchRewardItemsRequest,
) (*model.SearchRewardItemsResponse, error) {
	if req.Q == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty search query")
	}

	limit, err := normalizeLimit(ctx, req.Limit)
	if err != nil {
		return nil, err
	}

	items, err := d.rewardItemRepo.Search(ctx, req.Q, req.Offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot search reward items: %v", err)
		return nil, errorx.Unknown
	}

	list, err := d.decorateItems(ctx, items)
	if err != nil {
		return nil, err
	}

	return &model.SearchRewardItemsResponse{RewardItems: list}, nil
}

func (d *rewardItemDomain) Create(
	ctx context.Context, req *model.CreateRewardItemRequest,
) (*model.CreateRewardItemResponse, error) {
	if req.Cost == 0 {
		return nil, errorx.New(errorx.BadRequest, "Cost must be a positive number of points")
	}

	variant, err := enum.ToEnum[entity.RewardItemVariant](req.Variant)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid variant %s", req.Variant)
	}

	minTier := entity.TierBronze
	if req.MinTier != "" {
		minTier, err = enum.ToEnum[entity.Tier](req.MinTier)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid tier %s", req.MinTier)
		}
	}

	categoryID := sql.NullString{Valid: false}
	if req.CategoryID != "" {
		if _, err := d.categoryRepo.GetByID(ctx, req.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.New(errorx.NotFound, "Invalid category")
			}

			xcontext.Logger(ctx).Errorf("Cannot get category: %v", err)
			return nil, errorx.Unknown
		}

		categoryID = sql.NullString{Valid: true, String: req.CategoryID}
	}

	// The brand page fills whatever the admin left out. A failed scrape is
	// not fatal as long as the item still gets a name.
	if req.BrandURL != "" && (req.Name == "" || req.LogoURL == "" || req.Description == "") {
		meta, err := d.brandSite.GetMetadata(ctx, req.BrandURL)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot scrape the brand page %s: %v", req.BrandURL, err)
		} else {
			if req.Name == "" {
				req.Name = meta.Title
			}

			if req.Description == "" {
				req.Description = meta.Description
			}

			if req.LogoURL == "" {
				req.LogoURL = meta.ImageURL
			}
		}
	}

	if req.Name == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty item name")
	}

	if req.LogoURL != "" {
		uresp, err := common.ProcessRemoteImage(ctx, d.storage, req.LogoURL)
		if err != nil {
			return nil, err
		}

		req.LogoURL = uresp.Url
	}

	item := &entity.RewardItem{
		Base:             entity.Base{ID: uuid.NewString()},
		CategoryID:       categoryID,
		Variant:          variant,
		Name:             req.Name,
		Brand:            req.Brand,
		BrandURL:         req.BrandURL,
		Description:      req.Description,
		LogoURL:          req.LogoURL,
		ImageURL:         req.ImageURL,
		AccentColor:      req.AccentColor,
		Tags:             req.Tags,
		SKU:              req.SKU,
		Cost:             req.Cost,
		DollarValueCents: req.DollarValueCents,
		Stock:            req.Stock,
		MinTier:          minTier,
		IsActive:         true,
	}

	if err := d.rewardItemRepo.Create(ctx, item); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create reward item: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateRewardItemResponse{ID: item.ID}, nil
}

func (d *rewardItemDomain) UpdateByID(
	ctx context.Context, req *model.UpdateRewardItemRequest,
) (*model.UpdateRewardItemResponse, error) {
	item, err := d.rewardItemRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found reward item")
		}

		xcontext.Logger(ctx).Errorf("Cannot get reward item: %v", err)
		return nil, errorx.Unknown
	}

	if req.Cost == 0 {
		return nil, errorx.New(errorx.BadRequest, "Cost must be a positive number of points")
	}

	if req.Name == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty item name")
	}

	variant, err := enum.ToEnum[entity.RewardItemVariant](req.Variant)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid variant %s", req.Variant)
	}

	minTier := entity.TierBronze
	if req.MinTier != "" {
		minTier, err = enum.ToEnum[entity.Tier](req.MinTier)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid tier %s", req.MinTier)
		}
	}

	categoryID := sql.NullString{Valid: false}
	if req.CategoryID != "" {
		if _, err := d.categoryRepo.GetByID(ctx, req.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.New(errorx.NotFound, "Invalid category")
			}

			xcontext.Logger(ctx).Errorf("Cannot get category: %v", err)
			return nil, errorx.Unknown
		}

		categoryID = sql.NullString{Valid: true, String: req.CategoryID}
	}

	// Only re-fetch the logo when the admin pointed at a new one, the stored
	// url already lives in our bucket.
	if req.LogoURL != "" && req.LogoURL != item.LogoURL {
		uresp, err := common.ProcessRemoteImage(ctx, d.storage, req.LogoURL)
		if err != nil {
			return nil, err
		}

		req.LogoURL = uresp.Url
	}

	err = d.rewardItemRepo.UpdateByID(ctx, req.ID, map[string]any{
		"category_id":        categoryID,
		"variant":            variant,
		"name":               req.Name,
		"brand":              req.Brand,
		"brand_url":          req.BrandURL,
		"description":        req.Description,
		"logo_url":           req.LogoURL,
		"image_url":          req.ImageURL,
		"accent_color":       req.AccentColor,
		"tags":               entity.Array[string](req.Tags),
		"sku":                req.SKU,
		"cost":               req.Cost,
		"dollar_value_cents": req.DollarValueCents,
		"stock":              req.Stock,
		"min_tier":           minTier,
		"is_active":          req.IsActive,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update reward item: %v", err)
		return nil, errorx.Unknown
	}

	return &model.UpdateRewardItemResponse{}, nil
}

func (d *rewardItemDomain) DeleteByID(
	ctx context.Context, req *model.DeleteRewardItemRequest,
) (*model.DeleteRewardItemResponse, error) {
	if _, err := d.rewardItemRepo.GetByID(ctx, req.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found reward item")
		}

		xcontext.Logger(ctx).Errorf("Cannot get reward item: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.rewardItemRepo.DeleteByID(ctx, req.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete reward item: %v", err)
		return nil, errorx.Unknown
	}

	return &model.DeleteRewardItemResponse{}, nil
}

// decorateItems loads the category of every item and, for signed in callers,
// their affordability. The same decoration serves listing, search and detail.
func (d *rewardItemDomain) decorateItems(
	ctx context.Context, items []entity.RewardItem,
) ([]model.RewardItem, error) {
	categories, err := d.categoryRepo.GetList(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get categories: %v", err)
		return nil, errorx.Unknown
	}

	categoryMap := map[string]model.Category{}
	for i := range categories {
		categoryMap[categories[i].ID] = model.ConvertCategory(&categories[i])
	}

	var profile *entity.RewardProfile
	if userID := xcontext.RequestUserID(ctx); userID != "" {
		profile, err = d.rewardProfileRepo.Get(ctx, userID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get reward profile: %v", err)
			return nil, errorx.Unknown
		}
	}

	list := []model.RewardItem{}
	for i := range items {
		item := &items[i]

		var affordability *model.Affordability
		if profile != nil {
			result, err := progression.Evaluate(int64(profile.Points), int64(item.Cost))
			if err != nil {
				xcontext.Logger(ctx).Errorf("Cannot evaluate affordability of %s: %v", item.ID, err)
				return nil, errorx.Unknown
			}

			affordability = &model.Affordability{
				CanAfford:    result.CanAfford,
				PointsNeeded: result.PointsNeeded,
				Progress:     result.Progress,
			}
		}

		list = append(list, model.ConvertRewardItem(item, categoryMap[item.CategoryID.String], affordability))
	}

	return list, nil
}
