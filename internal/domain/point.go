package domain

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/domain/statistic"
	"github.com/BillixOfficial/rewards-backend/internal/domain/stream"
	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/numberutil"
	"github.com/BillixOfficial/rewards-backend/pkg/pubsub"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
	"gorm.io/gorm"
)

type PointDomain interface {
	AddPoints(context.Context, *model.AddPointsRequest) (*model.AddPointsResponse, error)
	GetMyTransactions(context.Context, *model.GetMyTransactionsRequest) (*model.GetMyTransactionsResponse, error)
}

type pointDomain struct {
	rewardProfileRepo    repository.RewardProfileRepository
	pointTransactionRepo repository.PointTransactionRepository
	pointActivityRepo    repository.PointActivityRepository
	userRepo             repository.UserRepository
	tierScanner          *tierScanner
	leaderboard          statistic.Leaderboard
	publisher            pubsub.Publisher
	streamRouter         *stream.Router
}

func NewPointDomain(
	rewardProfileRepo repository.RewardProfileRepository,
	pointTransactionRepo repository.PointTransactionRepository,
	pointActivityRepo repository.PointActivityRepository,
	userRepo repository.UserRepository,
	tierAwardRepo repository.TierAwardRepository,
	leaderboard statistic.Leaderboard,
	publisher pubsub.Publisher,
	streamRouter *stream.Router,
) *pointDomain {
	return &pointDomain{
		rewardProfileRepo:    rewardProfileRepo,
		pointTransactionRepo: pointTransactionRepo,
		pointActivityRepo:    pointActivityRepo,
		userRepo:             userRepo,
		tierScanner:          newTierScanner(rewardProfileRepo, tierAwardRepo),
		leaderboard:          leaderboard,
		publisher:            publisher,
		streamRouter:         streamRouter,
	}
}

// AddPoints grants points on behalf of a partner service, the billing backend
// calling in when a bill got paid. The caller was already authenticated by its
// API key.
func (d *pointDomain) AddPoints(
	ctx context.Context, req *model.AddPointsRequest,
) (*model.AddPointsResponse, error) {
	if req.UserID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty user id")
	}

	if req.Points == 0 {
		return nil, errorx.New(errorx.BadRequest, "Points must be a positive number")
	}

	if req.IdempotencyKey == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty idempotency key")
	}

	title := req.Title
	if title == "" {
		title = "Bill payment reward"
	}

	if _, err := d.userRepo.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	// A retried delivery must get the same answer as the first one, without
	// moving points twice.
	existing, err := d.pointTransactionRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
	if err == nil {
		return &model.AddPointsResponse{
			TransactionID: existing.ID,
			Balance:       existing.BalanceAfter,
			Duplicated:    true,
		}, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get transaction by idempotency key: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.rewardProfileRepo.IncreasePoints(ctx, req.UserID, req.Points); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot increase points: %v", err)
		return nil, errorx.Unknown
	}

	after, err := d.rewardProfileRepo.Get(ctx, req.UserID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward profile after increase: %v", err)
		return nil, errorx.Unknown
	}

	transaction := &entity.PointTransaction{
		ID:             xcontext.SnowFlake(ctx).Generate().Int64(),
		UserID:         req.UserID,
		Type:           entity.TransactionEarn,
		Source:         entity.SourceBillPayment,
		Amount:         req.Points,
		BalanceAfter:   after.Points,
		IdempotencyKey: sql.NullString{Valid: true, String: req.IdempotencyKey},
	}
	if err := d.pointTransactionRepo.Create(ctx, transaction); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create point transaction: %v", err)
		return nil, errorx.Unknown
	}

	awarded, err := d.tierScanner.Scan(ctx, req.UserID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot scan tier awards: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	announceTierAwards(ctx, d.publisher, d.streamRouter, req.UserID, awarded)

	now := time.Now()
	err = d.leaderboard.ChangePointLeaderboard(ctx, int64(req.Points), now, req.UserID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update leaderboard: %v", err)
	}

	msg, err := json.Marshal(model.PointsGrantedMessage{
		UserID:       req.UserID,
		Amount:       req.Points,
		Source:       string(entity.SourceBillPayment),
		BalanceAfter: after.Points,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal points message: %v", err)
	} else {
		err = d.publisher.Publish(ctx, model.PointsGrantedTopic,
			&pubsub.Pack{Key: []byte(req.UserID), Msg: msg})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot publish points message: %v", err)
		}
	}

	activityID := xcontext.SnowFlake(ctx).Generate().Int64()
	err = d.pointActivityRepo.Create(ctx, &entity.PointActivity{
		ID:        activityID,
		UserID:    req.UserID,
		Bucket:    numberutil.CreateBucket(activityID),
		Type:      string(entity.SourceBillPayment),
		Amount:    req.Points,
		Title:     title,
		CreatedAt: now,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create point activity: %v", err)
	}

	d.streamRouter.Route(req.UserID, &stream.BalanceChangedEvent{
		Balance: after.Points,
		Delta:   int64(req.Points),
		Source:  string(entity.SourceBillPayment),
	})

	return &model.AddPointsResponse{
		TransactionID: transaction.ID,
		Balance:       after.Points,
	}, nil
}

func (d *pointDomain) GetMyTransactions(
	ctx context.Context, req *model.GetMyTransactionsRequest,
) (*model.GetMyTransactionsResponse, error) {
	limit, err := normalizeLimit(ctx, req.Limit)
	if err != nil {
		return nil, err
	}

	userID := xcontext.RequestUserID(ctx)
	transactions, err := d.pointTransactionRepo.GetListByUserID(ctx, userID, req.Offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get point transactions: %v", err)
		return nil, errorx.Unknown
	}

	list := []model.PointTransaction{}
	for i := range transactions {
		list = append(list, model.ConvertPointTransaction(&transactions[i]))
	}

	return &model.GetMyTransactionsResponse{Transactions: list}, nil
}
