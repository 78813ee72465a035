// Package statistic keeps the points leaderboards in redis sorted sets, one
// per period, and rebuilds them from the ledger when redis lost them.
package statistic

import (
	"context"
	"fmt"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
	"github.com/BillixOfficial/rewards-backend/pkg/xredis"
	"github.com/puzpuzpuz/xsync"
	"github.com/redis/go-redis/v9"
)

type Leaderboard interface {
	GetLeaderBoard(ctx context.Context, period string, offset, limit int) ([]model.UserStatistic, error)
	GetRank(ctx context.Context, userID, period string) (uint64, error)
	ChangePointLeaderboard(ctx context.Context, value int64, earnedAt time.Time, userID string) error
}

type leaderboard struct {
	pointTransactionRepo repository.PointTransactionRepository
	redisClient          xredis.Client

	// prevRanks caches the final rank a user held in a closed period. A
	// closed period never changes, so the cache never needs invalidation.
	prevRanks *xsync.MapOf[string, uint64]
}

func New(
	pointTransactionRepo repository.PointTransactionRepository,
	redisClient xredis.Client,
) *leaderboard {
	return &leaderboard{
		pointTransactionRepo: pointTransactionRepo,
		redisClient:          redisClient,
		prevRanks:            xsync.NewMapOf[uint64](),
	}
}

func (l *leaderboard) GetLeaderBoard(
	ctx context.Context, period string, offset, limit int,
) ([]model.UserStatistic, error) {
	current, err := ToPeriod(period)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Invalid period: %v", err)
		return nil, errorx.New(errorx.BadRequest, "Invalid period")
	}

	if err := l.ensureLoaded(ctx, current); err != nil {
		return nil, err
	}

	results, err := l.redisClient.ZRevRangeWithScores(
		ctx, redisKeyPointLeaderBoard(current), offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get revrange redis: %v", err)
		return nil, errorx.Unknown
	}

	leaderboard := []model.UserStatistic{}
	for i, z := range results {
		userID := z.Member.(string)
		leaderboard = append(leaderboard, model.UserStatistic{
			User:        model.ShortUser{ID: userID},
			Points:      uint64(z.Score),
			PrevRank:    int(l.previousRank(ctx, userID, period)),
			CurrentRank: offset + i + 1,
		})
	}

	return leaderboard, nil
}

func (l *leaderboard) GetRank(
	ctx context.Context, userID, period string,
) (uint64, error) {
	current, err := ToPeriod(period)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Invalid period: %v", err)
		return 0, errorx.New(errorx.BadRequest, "Invalid period")
	}

	if err := l.ensureLoaded(ctx, current); err != nil {
		return 0, err
	}

	rank, err := l.redisClient.ZRevRank(ctx, redisKeyPointLeaderBoard(current), userID)
	if err != nil {
		// The user has not earned anything this period.
		xcontext.Logger(ctx).Debugf("Cannot get rev rank redis: %v", err)
		return 0, nil
	}

	return rank + 1, nil
}

func (l *leaderboard) ChangePointLeaderboard(
	ctx context.Context, value int64, earnedAt time.Time, userID string,
) error {
	for _, period := range []string{"week", "month"} {
		p, err := ToPeriodWithTime(period, earnedAt)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Invalid period: %v", err)
			return errorx.Unknown
		}

		if err := l.changeLeaderboard(ctx, value, userID, p); err != nil {
			return err
		}
	}

	return nil
}

func (l *leaderboard) changeLeaderboard(
	ctx context.Context, value int64, userID string, period entity.LeaderBoardPeriodType,
) error {
	key := redisKeyPointLeaderBoard(period)
	ok, err := l.redisClient.Exist(ctx, key)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot call exist redis: %v", err)
		return errorx.Unknown
	}

	// If the key didn't exist in redis, the next read rebuilds it from the
	// ledger, this change included.
	if !ok {
		return nil
	}

	if err := l.redisClient.ZIncrBy(ctx, key, value, userID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot call ZIncrBy redis: %v", err)
	}

	return nil
}

// previousRank is the rank the user finished the last period with, zero when
// the user was unranked.
func (l *leaderboard) previousRank(ctx context.Context, userID, period string) uint64 {
	last, err := ToLastPeriod(period)
	if err != nil {
		return 0
	}

	cacheKey := fmt.Sprintf("%s:%s", redisKeyPointLeaderBoard(last), userID)
	if rank, ok := l.prevRanks.Load(cacheKey); ok {
		return rank
	}

	if err := l.ensureLoaded(ctx, last); err != nil {
		return 0
	}

	rank, err := l.redisClient.ZRevRank(ctx, redisKeyPointLeaderBoard(last), userID)
	if err != nil {
		l.prevRanks.Store(cacheKey, 0)
		return 0
	}

	l.prevRanks.Store(cacheKey, rank+1)
	return rank + 1
}

func (l *leaderboard) ensureLoaded(
	ctx context.Context, period entity.LeaderBoardPeriodType,
) error {
	key := redisKeyPointLeaderBoard(period)
	ok, err := l.redisClient.Exist(ctx, key)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot call exist redis: %v", err)
		return errorx.Unknown
	}

	if ok {
		return nil
	}

	users, err := l.pointTransactionRepo.SumEarnedByUser(ctx, period.Start(), period.End())
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot load statistic from database: %v", err)
		return errorx.Unknown
	}

	for _, u := range users {
		err := l.redisClient.ZAdd(ctx, key, redis.Z{Member: u.UserID, Score: float64(u.Points)})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot zadd redis: %v", err)
			return errorx.Unknown
		}
	}

	return nil
}
