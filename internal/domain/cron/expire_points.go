package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/dateutil"
	"github.com/BillixOfficial/rewards-backend/pkg/numberutil"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
)

// ExpirePointsCronJob burns points that sat unspent past the configured
// horizon. Spending always consumes the oldest earnings first, so the amount
// to burn falls straight out of the ledger.
type ExpirePointsCronJob struct {
	rewardProfileRepo    repository.RewardProfileRepository
	pointTransactionRepo repository.PointTransactionRepository
	pointActivityRepo    repository.PointActivityRepository
}

func NewExpirePointsCronJob(
	rewardProfileRepo repository.RewardProfileRepository,
	pointTransactionRepo repository.PointTransactionRepository,
	pointActivityRepo repository.PointActivityRepository,
) *ExpirePointsCronJob {
	return &ExpirePointsCronJob{
		rewardProfileRepo:    rewardProfileRepo,
		pointTransactionRepo: pointTransactionRepo,
		pointActivityRepo:    pointActivityRepo,
	}
}

func (job *ExpirePointsCronJob) Do(ctx context.Context) {
	expiration := xcontext.Configs(ctx).Reward.PointsExpiration
	if expiration == 0 {
		return
	}

	cutoff := time.Now().Add(-expiration)
	balances, err := job.pointTransactionRepo.GetExpirableBalances(ctx, cutoff)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get expirable balances: %v", err)
		return
	}

	expired := 0
	for _, balance := range balances {
		if err := job.expire(ctx, balance); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot expire points of user %s: %v", balance.UserID, err)
			continue
		}

		expired++
	}

	if expired > 0 {
		xcontext.Logger(ctx).Infof("Expired points of %d users", expired)
	}
}

func (job *ExpirePointsCronJob) RunNow() bool {
	return true
}

func (job *ExpirePointsCronJob) Next() time.Time {
	return dateutil.NextDay(time.Now())
}

func (job *ExpirePointsCronJob) expire(
	ctx context.Context, balance repository.ExpirableBalance,
) error {
	amount := balance.OldEarned - balance.Consumed

	profile, err := job.rewardProfileRepo.Get(ctx, balance.UserID)
	if err != nil {
		return err
	}

	// The ledger can be ahead of the profile for a moment, never burn more
	// than the balance actually holds.
	if amount > profile.Points {
		amount = profile.Points
	}

	if amount == 0 {
		return nil
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	// The guarded decrement keeps a racing spend from pushing the balance
	// negative. The loser of that race expires on the next run instead.
	if err := job.rewardProfileRepo.DecreasePoints(ctx, balance.UserID, amount); err != nil {
		return err
	}

	after, err := job.rewardProfileRepo.Get(ctx, balance.UserID)
	if err != nil {
		return err
	}

	err = job.pointTransactionRepo.Create(ctx, &entity.PointTransaction{
		ID:           xcontext.SnowFlake(ctx).Generate().Int64(),
		UserID:       balance.UserID,
		Type:         entity.TransactionExpire,
		Source:       entity.SourceExpiry,
		Amount:       amount,
		BalanceAfter: after.Points,
	})
	if err != nil {
		return err
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	activityID := xcontext.SnowFlake(ctx).Generate().Int64()
	err = job.pointActivityRepo.Create(ctx, &entity.PointActivity{
		ID:        activityID,
		UserID:    balance.UserID,
		Bucket:    numberutil.CreateBucket(activityID),
		Type:      string(entity.SourceExpiry),
		Amount:    amount,
		Title:     fmt.Sprintf("%d points expired", amount),
		CreatedAt: time.Now(),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create point activity: %v", err)
	}

	return nil
}
