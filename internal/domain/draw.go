package domain

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/domain/progression"
	"github.com/BillixOfficial/rewards-backend/internal/domain/statistic"
	"github.com/BillixOfficial/rewards-backend/internal/domain/stream"
	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/dateutil"
	"github.com/BillixOfficial/rewards-backend/pkg/enum"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/numberutil"
	"github.com/BillixOfficial/rewards-backend/pkg/pubsub"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"gorm.io/gorm"
)

type DrawDomain interface {
	GetCurrentDraw(context.Context, *model.GetCurrentDrawRequest) (*model.GetCurrentDrawResponse, error)
	EnterDraw(context.Context, *model.EnterDrawRequest) (*model.EnterDrawResponse, error)
	GetDrawWinners(context.Context, *model.GetDrawWinnersRequest) (*model.GetDrawWinnersResponse, error)
	ClaimDrawReward(context.Context, *model.ClaimDrawRewardRequest) (*model.ClaimDrawRewardResponse, error)
	CreateDrawEvent(context.Context, *model.CreateDrawEventRequest) (*model.CreateDrawEventResponse, error)
}

type drawDomain struct {
	drawRepo             repository.DrawRepository
	rewardProfileRepo    repository.RewardProfileRepository
	pointTransactionRepo repository.PointTransactionRepository
	pointActivityRepo    repository.PointActivityRepository
	rewardItemRepo       repository.RewardItemRepository
	redemptionRepo       repository.RedemptionRepository
	userRepo             repository.UserRepository
	leaderboard          statistic.Leaderboard
	publisher            pubsub.Publisher
	streamRouter         *stream.Router
}

func NewDrawDomain(
	drawRepo repository.DrawRepository,
	rewardProfileRepo repository.RewardProfileRepository,
	pointTransactionRepo repository.PointTransactionRepository,
	pointActivityRepo repository.PointActivityRepository,
	rewardItemRepo repository.RewardItemRepository,
	redemptionRepo repository.RedemptionRepository,
	userRepo repository.UserRepository,
	leaderboard statistic.Leaderboard,
	publisher pubsub.Publisher,
	streamRouter *stream.Router,
) *drawDomain {
	return &drawDomain{
		drawRepo:             drawRepo,
		rewardProfileRepo:    rewardProfileRepo,
		pointTransactionRepo: pointTransactionRepo,
		pointActivityRepo:    pointActivityRepo,
		rewardItemRepo:       rewardItemRepo,
		redemptionRepo:       redemptionRepo,
		userRepo:             userRepo,
		leaderboard:          leaderboard,
		publisher:            publisher,
		streamRouter:         streamRouter,
	}
}

func (d *drawDomain) GetCurrentDraw(
	ctx context.Context, req *model.GetCurrentDrawRequest,
) (*model.GetCurrentDrawResponse, error) {
	now := time.Now()
	events, err := d.drawRepo.GetCurrentEvents(ctx, now)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get current draw events: %v", err)
		return nil, errorx.Unknown
	}

	// Between the settlement of one event and the creation of the next the
	// countdown still points at the weekly slot.
	drawCfg := xcontext.Configs(ctx).Draw
	drawsAt := dateutil.NextOccurrence(
		now, drawCfg.Weekday, dateutil.ClockTime{Hour: drawCfg.Hour})

	resp := &model.GetCurrentDrawResponse{}
	if len(events) > 0 {
		event := events[0]
		drawsAt = event.EndTime

		prizes, err := d.drawRepo.GetPrizesByEventID(ctx, event.ID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get prizes of draw event: %v", err)
			return nil, errorx.Unknown
		}

		modelPrizes := []model.DrawPrize{}
		for i := range prizes {
			modelPrizes = append(modelPrizes, model.ConvertDrawPrize(&prizes[i]))
		}

		resp.Event = model.ConvertDrawEvent(&event, modelPrizes)

		if userID := xcontext.RequestUserID(ctx); userID != "" {
			count, err := d.drawRepo.CountEntries(ctx, event.ID, userID)
			if err != nil {
				xcontext.Logger(ctx).Errorf("Cannot count draw entries: %v", err)
				return nil, errorx.Unknown
			}

			resp.MyEntries = int(count)
		}
	}

	remaining := time.Until(drawsAt)
	if remaining < 0 {
		remaining = 0
	}

	resp.NextDrawTime = drawsAt.Format(model.DefaultTimeLayout)
	resp.RemainingSeconds = int64(remaining.Seconds())
	resp.Countdown = dateutil.FormatCountdown(remaining)
	return resp, nil
}

func (d *drawDomain) EnterDraw(
	ctx context.Context, req *model.EnterDrawRequest,
) (*model.EnterDrawResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	event, err := d.drawRepo.GetEventByID(ctx, req.DrawEventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found draw event")
		}

		xcontext.Logger(ctx).Errorf("Cannot get draw event: %v", err)
		return nil, errorx.Unknown
	}

	now := time.Now()
	if now.Before(event.StartTime) {
		return nil, errorx.New(errorx.Unavailable, "This draw has not started yet")
	}

	if event.IsSettled || !now.Before(event.EndTime) {
		return nil, errorx.New(errorx.Unavailable, "This draw has already ended")
	}

	profile, err := d.rewardProfileRepo.Get(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward profile: %v", err)
		return nil, errorx.Unknown
	}

	result, err := progression.Evaluate(int64(profile.Points), int64(event.PointsPerEntry))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot evaluate affordability of entry: %v", err)
		return nil, errorx.Unknown
	}

	if !result.CanAfford {
		return nil, errorx.New(errorx.InsufficientPoints,
			"You need %d more points for an entry", result.PointsNeeded)
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	count, err := d.drawRepo.CountEntries(ctx, event.ID, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count draw entries: %v", err)
		return nil, errorx.Unknown
	}

	if count >= int64(event.MaxEntriesPerUser) {
		return nil, errorx.New(errorx.Unavailable,
			"You already used your %d entries of this draw", event.MaxEntriesPerUser)
	}

	if err := d.rewardProfileRepo.DecreasePoints(ctx, userID, event.PointsPerEntry); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.InsufficientPoints, "You do not have enough points")
		}

		xcontext.Logger(ctx).Errorf("Cannot decrease points: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.drawRepo.IncreaseTotalEntries(ctx, event.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot increase total entries: %v", err)
		return nil, errorx.Unknown
	}

	entry := &entity.DrawEntry{
		Base:        entity.Base{ID: uuid.NewString()},
		DrawEventID: event.ID,
		UserID:      userID,
	}
	if err := d.drawRepo.CreateEntry(ctx, entry); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create draw entry: %v", err)
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
		Source:       entity.SourceDrawEntry,
		Amount:       event.PointsPerEntry,
		BalanceAfter: after.Points,
		ReferenceID:  sql.NullString{Valid: true, String: entry.ID},
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create point transaction: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	activityID := xcontext.SnowFlake(ctx).Generate().Int64()
	err = d.pointActivityRepo.Create(ctx, &entity.PointActivity{
		ID:        activityID,
		UserID:    userID,
		Bucket:    numberutil.CreateBucket(activityID),
		Type:      string(entity.SourceDrawEntry),
		Amount:    event.PointsPerEntry,
		Title:     fmt.Sprintf("Entered the draw %s", event.Name),
		CreatedAt: now,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create point activity: %v", err)
	}

	d.streamRouter.Route(userID, &stream.BalanceChangedEvent{
		Balance: after.Points,
		Delta:   -int64(event.PointsPerEntry),
		Source:  string(entity.SourceDrawEntry),
	})

	return &model.EnterDrawResponse{
		MyEntries: int(count) + 1,
		Balance:   after.Points,
	}, nil
}

func (d *drawDomain) GetDrawWinners(
	ctx context.Context, req *model.GetDrawWinnersRequest,
) (*model.GetDrawWinnersResponse, error) {
	winners, err := d.drawRepo.GetWinnersByEventID(ctx, req.DrawEventID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get draw winners: %v", err)
		return nil, errorx.Unknown
	}

	prizes, err := d.drawRepo.GetPrizesByEventID(ctx, req.DrawEventID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get prizes of draw event: %v", err)
		return nil, errorx.Unknown
	}

	prizeMap := map[string]model.DrawPrize{}
	for i := range prizes {
		prizeMap[prizes[i].ID] = model.ConvertDrawPrize(&prizes[i])
	}

	userIDs := []string{}
	for _, w := range winners {
		userIDs = append(userIDs, w.UserID)
	}

	users, err := d.userRepo.GetByIDs(ctx, userIDs)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get users of draw winners: %v", err)
		return nil, errorx.Unknown
	}

	userMap := map[string]model.ShortUser{}
	for i := range users {
		userMap[users[i].ID] = model.ConvertShortUser(&users[i])
	}

	list := []model.DrawWinner{}
	for i := range winners {
		w := winners[i]
		list = append(list, model.ConvertDrawWinner(&w, userMap[w.UserID], prizeMap[w.DrawPrizeID]))
	}

	return &model.GetDrawWinnersResponse{Winners: list}, nil
}

// pointsRewardPayload and itemRewardPayload are the shapes hiding behind
// entity.Reward.Data, decoded through mapstructure by reward type.
type pointsRewardPayload struct {
	Points uint64 `mapstructure:"points"`
}

type itemRewardPayload struct {
	RewardItemID string `mapstructure:"reward_item_id"`
}

func (d *drawDomain) ClaimDrawReward(
	ctx context.Context, req *model.ClaimDrawRewardRequest,
) (*model.ClaimDrawRewardResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	winner, err := d.drawRepo.GetWinnerByID(ctx, req.WinnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found draw winner")
		}

		xcontext.Logger(ctx).Errorf("Cannot get draw winner: %v", err)
		return nil, errorx.Unknown
	}

	if winner.UserID != userID {
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	prize, err := d.drawRepo.GetPrizeByID(ctx, winner.DrawPrizeID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get draw prize: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	// The claim flips exactly once. The points of the prize were paid at
	// settlement, this call only hands over the extra reward payloads.
	if err := d.drawRepo.ClaimWinnerReward(ctx, winner.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.BadRequest, "This reward was already claimed")
		}

		xcontext.Logger(ctx).Errorf("Cannot claim draw winner: %v", err)
		return nil, errorx.Unknown
	}

	var grantedPoints uint64
	var createdRedemptions []string
	for _, reward := range prize.Rewards {
		switch reward.Type {
		case entity.PointsReward:
			var payload pointsRewardPayload
			if err := mapstructure.Decode(map[string]any(reward.Data), &payload); err != nil {
				xcontext.Logger(ctx).Errorf("Cannot decode points reward of %s: %v", prize.ID, err)
				return nil, errorx.Unknown
			}

			grantedPoints += payload.Points

		case entity.ItemReward:
			var payload itemRewardPayload
			if err := mapstructure.Decode(map[string]any(reward.Data), &payload); err != nil {
				xcontext.Logger(ctx).Errorf("Cannot decode item reward of %s: %v", prize.ID, err)
				return nil, errorx.Unknown
			}

			redemptionID, err := d.redeemPrizeItem(ctx, userID, payload.RewardItemID)
			if err != nil {
				return nil, err
			}

			createdRedemptions = append(createdRedemptions, redemptionID)

		default:
			xcontext.Logger(ctx).Errorf("Got an unknown reward type %s in prize %s",
				reward.Type, prize.ID)
			return nil, errorx.Unknown
		}
	}

	var balance uint64
	if grantedPoints > 0 {
		if err := d.rewardProfileRepo.IncreasePoints(ctx, userID, grantedPoints); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot increase points: %v", err)
			return nil, errorx.Unknown
		}

		after, err := d.rewardProfileRepo.Get(ctx, userID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get reward profile after increase: %v", err)
			return nil, errorx.Unknown
		}

		balance = after.Points
		err = d.pointTransactionRepo.Create(ctx, &entity.PointTransaction{
			ID:           xcontext.SnowFlake(ctx).Generate().Int64(),
			UserID:       userID,
			Type:         entity.TransactionEarn,
			Source:       entity.SourceDrawPrize,
			Amount:       grantedPoints,
			BalanceAfter: after.Points,
			ReferenceID:  sql.NullString{Valid: true, String: winner.ID},
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create point transaction: %v", err)
			return nil, errorx.Unknown
		}
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	if grantedPoints > 0 {
		err = d.leaderboard.ChangePointLeaderboard(ctx, int64(grantedPoints), time.Now(), userID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot update leaderboard: %v", err)
		}

		d.streamRouter.Route(userID, &stream.BalanceChangedEvent{
			Balance: balance,
			Delta:   int64(grantedPoints),
			Source:  string(entity.SourceDrawPrize),
		})
	}

	for _, redemptionID := range createdRedemptions {
		msg, err := json.Marshal(model.RedemptionCreatedMessage{RedemptionID: redemptionID})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot marshal redemption message: %v", err)
			continue
		}

		err = d.publisher.Publish(ctx, model.RedemptionCreatedTopic,
			&pubsub.Pack{Key: []byte(redemptionID), Msg: msg})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot publish redemption message: %v", err)
		}
	}

	activityID := xcontext.SnowFlake(ctx).Generate().Int64()
	err = d.pointActivityRepo.Create(ctx, &entity.PointActivity{
		ID:        activityID,
		UserID:    userID,
		Bucket:    numberutil.CreateBucket(activityID),
		Type:      string(entity.SourceDrawPrize),
		Amount:    grantedPoints,
		Title:     fmt.Sprintf("Claimed the prize %s", prize.Name),
		CreatedAt: time.Now(),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create point activity: %v", err)
	}

	return &model.ClaimDrawRewardResponse{}, nil
}

// redeemPrizeItem books a free redemption for an item won in a draw. It runs
// inside the claim transaction, the worker fulfills it like a paid one.
func (d *drawDomain) redeemPrizeItem(
	ctx context.Context, userID, itemID string,
) (string, error) {
	item, err := d.rewardItemRepo.GetByID(ctx, itemID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward item %s of prize: %v", itemID, err)
		return "", errorx.Unknown
	}

	user, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return "", errorx.Unknown
	}

	redemption := &entity.Redemption{
		Base:          entity.Base{ID: uuid.NewString()},
		UserID:        userID,
		RewardItemID:  item.ID,
		Cost:          0,
		Status:        entity.RedemptionPending,
		DeliveryEmail: user.Email.String,
	}
	if err := d.redemptionRepo.Create(ctx, redemption); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create redemption of prize: %v", err)
		return "", errorx.Unknown
	}

	return redemption.ID, nil
}

func (d *drawDomain) CreateDrawEvent(
	ctx context.Context, req *model.CreateDrawEventRequest,
) (*model.CreateDrawEventResponse, error) {
	if req.Name == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty event name")
	}

	if !req.EndTime.After(req.StartTime) {
		return nil, errorx.New(errorx.BadRequest, "End time must be after start time")
	}

	if req.PointsPerEntry == 0 {
		return nil, errorx.New(errorx.BadRequest, "Points per entry must be a positive number")
	}

	if req.MaxEntriesPerUser <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Max entries per user must be a positive number")
	}

	if len(req.Prizes) == 0 {
		return nil, errorx.New(errorx.BadRequest, "A draw needs at least one prize")
	}

	event := &entity.DrawEvent{
		Base:              entity.Base{ID: uuid.NewString()},
		Name:              req.Name,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		PointsPerEntry:    req.PointsPerEntry,
		MaxEntriesPerUser: req.MaxEntriesPerUser,
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.drawRepo.CreateEvent(ctx, event); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create draw event: %v", err)
		return nil, errorx.Unknown
	}

	for _, p := range req.Prizes {
		if p.AvailableCount <= 0 {
			return nil, errorx.New(errorx.BadRequest, "Available count must be a positive number")
		}

		rewards := entity.Array[entity.Reward]{}
		for _, r := range p.Rewards {
			rewardType, err := enum.ToEnum[entity.RewardType](r.Type)
			if err != nil {
				return nil, errorx.New(errorx.BadRequest, "Invalid reward type %s", r.Type)
			}

			rewards = append(rewards, entity.Reward{
				Type: rewardType,
				Data: entity.Map(r.Data),
			})
		}

		err := d.drawRepo.CreatePrize(ctx, &entity.DrawPrize{
			Base:           entity.Base{ID: uuid.NewString()},
			DrawEventID:    event.ID,
			Name:           p.Name,
			Points:         p.Points,
			Rewards:        rewards,
			AvailableCount: p.AvailableCount,
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create draw prize: %v", err)
			return nil, errorx.Unknown
		}
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	return &model.CreateDrawEventResponse{ID: event.ID}, nil
}
