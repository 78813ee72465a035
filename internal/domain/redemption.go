package domain

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/common"
	"github.com/BillixOfficial/rewards-backend/internal/domain/progression"
	"github.com/BillixOfficial/rewards-backend/internal/domain/stream"
	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/numberutil"
	"github.com/BillixOfficial/rewards-backend/pkg/pubsub"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RedemptionDomain interface {
	RedeemItem(context.Context, *model.RedeemItemRequest) (*model.RedeemItemResponse, error)
	GetMyRedemptions(context.Context, *model.GetMyRedemptionsRequest) (*model.GetMyRedemptionsResponse, error)
	Get(context.Context, *model.GetRedemptionRequest) (*model.GetRedemptionResponse, error)
}

type redemptionDomain struct {
	redemptionRepo       repository.RedemptionRepository
	rewardItemRepo       repository.RewardItemRepository
	rewardProfileRepo    repository.RewardProfileRepository
	pointTransactionRepo repository.PointTransactionRepository
	pointActivityRepo    repository.PointActivityRepository
	userRepo             repository.UserRepository
	publisher            pubsub.Publisher
	streamRouter         *stream.Router
}

func NewRedemptionDomain(
	redemptionRepo repository.RedemptionRepository,
	rewardItemRepo repository.RewardItemRepository,
	rewardProfileRepo repository.RewardProfileRepository,
	pointTransactionRepo repository.PointTransactionRepository,
	pointActivityRepo repository.PointActivityRepository,
	userRepo repository.UserRepository,
	publisher pubsub.Publisher,
	streamRouter *stream.Router,
) *redemptionDomain {
	return &redemptionDomain{
		redemptionRepo:       redemptionRepo,
		rewardItemRepo:       rewardItemRepo,
		rewardProfileRepo:    rewardProfileRepo,
		pointTransactionRepo: pointTransactionRepo,
		pointActivityRepo:    pointActivityRepo,
		userRepo:             userRepo,
		publisher:            publisher,
		streamRouter:         streamRouter,
	}
}

func (d *redemptionDomain) RedeemItem(
	ctx context.Context, req *model.RedeemItemRequest,
) (*model.RedeemItemResponse, error) {
	userID := xcontext.RequestUserID(ctx)

	item, err := d.rewardItemRepo.GetByID(ctx, req.RewardItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found reward item")
		}

		xcontext.Logger(ctx).Errorf("Cannot get reward item: %v", err)
		return nil, errorx.Unknown
	}

	if !item.IsActive {
		return nil, errorx.New(errorx.Unavailable, "This item is no longer available")
	}

	if item.Stock == 0 {
		return nil, errorx.New(errorx.OutOfStock, "This item is out of stock")
	}

	user, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	// The delivery address must be settled before any points move.
	deliveryEmail := req.DeliveryEmail
	if deliveryEmail == "" {
		deliveryEmail = user.Email.String
	}

	if !common.IsValidEmail(deliveryEmail) {
		return nil, errorx.New(errorx.BadRequest, "Got an invalid delivery email")
	}

	profile, err := d.rewardProfileRepo.Get(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward profile: %v", err)
		return nil, errorx.Unknown
	}

	if !progression.TierAtLeast(profile.Tier, item.MinTier) {
		return nil, errorx.New(errorx.PermissionDenied,
			"This item needs tier %s or above", item.MinTier)
	}

	result, err := progression.Evaluate(int64(profile.Points), int64(item.Cost))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot evaluate affordability of %s: %v", item.ID, err)
		return nil, errorx.Unknown
	}

	if !result.CanAfford {
		return nil, errorx.New(errorx.InsufficientPoints,
			"You need %d more points for this item", result.PointsNeeded)
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	// The guarded decrement is the real gate, the precheck above only gives
	// a friendly number. A concurrent spend loses here.
	if err := d.rewardProfileRepo.DecreasePoints(ctx, userID, item.Cost); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.InsufficientPoints, "You do not have enough points")
		}

		xcontext.Logger(ctx).Errorf("Cannot decrease points: %v", err)
		return nil, errorx.Unknown
	}

	// Items with a negative stock never run out.
	if item.Stock > 0 {
		if err := d.rewardItemRepo.DecreaseStock(ctx, item.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.New(errorx.OutOfStock, "This item is out of stock")
			}

			xcontext.Logger(ctx).Errorf("Cannot decrease stock: %v", err)
			return nil, errorx.Unknown
		}
	}

	if err := d.rewardItemRepo.IncreaseRedeemedCount(ctx, item.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot increase redeemed count: %v", err)
		return nil, errorx.Unknown
	}

	redemption := &entity.Redemption{
		Base:          entity.Base{ID: uuid.NewString()},
		UserID:        userID,
		RewardItemID:  item.ID,
		Cost:          item.Cost,
		Status:        entity.RedemptionPending,
		DeliveryEmail: deliveryEmail,
	}
	if err := d.redemptionRepo.Create(ctx, redemption); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create redemption: %v", err)
		return nil, errorx.Unknown
	}

	after, err := d.rewardProfileRepo.Get(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward profile after decrease: %v", err)
		return nil, errorx.Unknown
	}

	err = d.pointTransactionRepo.Create(ctx, &entity.PointTransaction{
		ID:           xcontext.SnowFlake(ctx).Generate().Int64(),
		UserID:       userID,
		Type:         entity.TransactionSpend,
		Source:       entity.SourceRedeem,
		Amount:       item.Cost,
		BalanceAfter: after.Points,
		ReferenceID:  sql.NullString{Valid: true, String: redemption.ID},
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create point transaction: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	// The redemption is recorded at this point, nothing below can fail the
	// request. A lost message is caught by the stuck-pending retry.
	msg, err := json.Marshal(model.RedemptionCreatedMessage{RedemptionID: redemption.ID})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal redemption message: %v", err)
	} else {
		err = d.publisher.Publish(ctx, model.RedemptionCreatedTopic,
			&pubsub.Pack{Key: []byte(redemption.ID), Msg: msg})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot publish redemption message: %v", err)
		}
	}

	activityID := xcontext.SnowFlake(ctx).Generate().Int64()
	err = d.pointActivityRepo.Create(ctx, &entity.PointActivity{
		ID:        activityID,
		UserID:    userID,
		Bucket:    numberutil.CreateBucket(activityID),
		Type:      string(entity.SourceRedeem),
		Amount:    item.Cost,
		Title:     fmt.Sprintf("Redeemed %s", item.Name),
		CreatedAt: time.Now(),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create point activity: %v", err)
	}

	d.streamRouter.Route(userID, &stream.BalanceChangedEvent{
		Balance: after.Points,
		Delta:   -int64(item.Cost),
		Source:  string(entity.SourceRedeem),
	})

	return &model.RedeemItemResponse{
		Redemption: model.ConvertRedemption(
			redemption,
			model.ConvertShortUser(user),
			model.ConvertRewardItem(item, model.Category{}, nil),
		),
		Balance: after.Points,
	}, nil
}

func (d *redemptionDomain) GetMyRedemptions(
	ctx context.Context, req *model.GetMyRedemptionsRequest,
) (*model.GetMyRedemptionsResponse, error) {
	limit, err := normalizeLimit(ctx, req.Limit)
	if err != nil {
		return nil, err
	}

	userID := xcontext.RequestUserID(ctx)
	redemptions, err := d.redemptionRepo.GetListByUserID(ctx, userID, req.Offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get redemptions: %v", err)
		return nil, errorx.Unknown
	}

	user, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	itemIDs := []string{}
	for _, r := range redemptions {
		itemIDs = append(itemIDs, r.RewardItemID)
	}

	items, err := d.rewardItemRepo.GetByIDs(ctx, itemIDs)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward items: %v", err)
		return nil, errorx.Unknown
	}

	itemMap := map[string]model.RewardItem{}
	for i := range items {
		itemMap[items[i].ID] = model.ConvertRewardItem(&items[i], model.Category{}, nil)
	}

	shortUser := model.ConvertShortUser(user)
	list := []model.Redemption{}
	for i := range redemptions {
		list = append(list, model.ConvertRedemption(
			&redemptions[i], shortUser, itemMap[redemptions[i].RewardItemID]))
	}

	return &model.GetMyRedemptionsResponse{Redemptions: list}, nil
}

func (d *redemptionDomain) Get(
	ctx context.Context, req *model.GetRedemptionRequest,
) (*model.GetRedemptionResponse, error) {
	redemption, err := d.redemptionRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found redemption")
		}

		xcontext.Logger(ctx).Errorf("Cannot get redemption: %v", err)
		return nil, errorx.Unknown
	}

	if redemption.UserID != xcontext.RequestUserID(ctx) {
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	item, err := d.rewardItemRepo.GetByID(ctx, redemption.RewardItemID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward item: %v", err)
		return nil, errorx.Unknown
	}

	user, err := d.userRepo.GetByID(ctx, redemption.UserID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetRedemptionResponse{
		Redemption: model.ConvertRedemption(
			redemption,
			model.ConvertShortUser(user),
			model.ConvertRewardItem(item, model.Category{}, nil),
		),
	}, nil
}
