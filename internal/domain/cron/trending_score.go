package cron

import (
	"context"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
)

// trendingWindow is how far back redemptions count towards the score.
const trendingWindow = 7 * 24 * time.Hour

// TrendingScoreCronJob recomputes the trending score of every reward item from
// the fulfilled redemptions of the last week. The catalog orders by this score.
type TrendingScoreCronJob struct {
	rewardItemRepo repository.RewardItemRepository
	redemptionRepo repository.RedemptionRepository
}

func NewTrendingScoreCronJob(
	rewardItemRepo repository.RewardItemRepository,
	redemptionRepo repository.RedemptionRepository,
) *TrendingScoreCronJob {
	return &TrendingScoreCronJob{
		rewardItemRepo: rewardItemRepo,
		redemptionRepo: redemptionRepo,
	}
}

func (job *TrendingScoreCronJob) Do(ctx context.Context) {
	counts, err := job.redemptionRepo.CountRecentByItem(ctx, time.Now().Add(-trendingWindow))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count recent redemptions: %v", err)
		return
	}

	countMap := map[string]int64{}
	for _, c := range counts {
		countMap[c.RewardItemID] = c.Count
	}

	items, err := job.rewardItemRepo.GetList(ctx, repository.RewardItemFilter{}, 0, -1)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward items: %v", err)
		return
	}

	for i := range items {
		item := items[i]
		score := float64(countMap[item.ID])
		if item.TrendingScore == score {
			continue
		}

		if err := job.rewardItemRepo.UpdateTrendingScore(ctx, item.ID, score); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot update trending score of %s: %v", item.ID, err)
		}
	}
}

func (job *TrendingScoreCronJob) RunNow() bool {
	return true
}

func (job *TrendingScoreCronJob) Next() time.Time {
	return time.Now().Add(time.Hour).Truncate(time.Hour)
}
