package domain

import (
	"testing"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/testutil"

	"github.com/stretchr/testify/require"
)

func Test_tierDomain_GetMyTier(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:         user.ID,
		LifetimePoints: 9000,
		Tier:           entity.TierSilver,
	})
	require.NoError(t, err)

	tierDomain := NewTierDomain(
		repository.NewRewardProfileRepository(),
		repository.NewTierAwardRepository(),
	)
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	resp, err := tierDomain.GetMyTier(ctx, &model.GetMyTierRequest{})
	require.NoError(t, err)
	require.Equal(t, uint64(9000), resp.LifetimePoints)
	require.Equal(t, "silver", resp.Progress.Tier)
	require.True(t, resp.Progress.HasNext)
	require.Equal(t, "gold", resp.Progress.NextTier)
	require.Equal(t, int64(13000), resp.Progress.PointsRemaining)
	require.InDelta(t, float64(1000)/float64(14000), resp.Progress.Progress, 1e-9)
}

func Test_tierDomain_GetMyTier_TopTier(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:         user.ID,
		LifetimePoints: 80000,
		Tier:           entity.TierPlatinum,
	})
	require.NoError(t, err)

	tierDomain := NewTierDomain(
		repository.NewRewardProfileRepository(),
		repository.NewTierAwardRepository(),
	)
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	// The top tier has nothing above it, the bar is full.
	resp, err := tierDomain.GetMyTier(ctx, &model.GetMyTierRequest{})
	require.NoError(t, err)
	require.Equal(t, "platinum", resp.Progress.Tier)
	require.False(t, resp.Progress.HasNext)
	require.Equal(t, "", resp.Progress.NextTier)
	require.Equal(t, float64(1), resp.Progress.Progress)
	require.Equal(t, int64(0), resp.Progress.PointsRemaining)
}

func Test_tierScanner_Scan(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	// The recorded tier lags two boundaries behind the lifetime points.
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:         user.ID,
		LifetimePoints: 23000,
		Tier:           entity.TierBronze,
	})
	require.NoError(t, err)

	scanner := newTierScanner(
		repository.NewRewardProfileRepository(),
		repository.NewTierAwardRepository(),
	)

	// Both crossed tiers are awarded in ascending order.
	awarded, err := scanner.Scan(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, []entity.Tier{entity.TierSilver, entity.TierGold}, awarded)

	profile, err := repository.NewRewardProfileRepository().Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, entity.TierGold, profile.Tier)

	awards, err := repository.NewTierAwardRepository().GetAllByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, awards, 2)

	// A second scan finds nothing new.
	awarded, err = scanner.Scan(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, awarded)
}

func Test_tierDomain_MarkTierAwardsNotified(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{UserID: user.ID})
	require.NoError(t, err)

	tierAwardRepo := repository.NewTierAwardRepository()
	err = tierAwardRepo.Upsert(ctx, &entity.TierAward{
		UserID:    user.ID,
		Tier:      entity.TierSilver,
		AwardedAt: time.Now(),
	})
	require.NoError(t, err)

	tierDomain := NewTierDomain(repository.NewRewardProfileRepository(), tierAwardRepo)
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	resp, err := tierDomain.GetMyTierAwards(ctx, &model.GetMyTierAwardsRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Awards, 1)
	require.Equal(t, "silver", resp.Awards[0].Tier)
	require.False(t, resp.Awards[0].WasNotified)

	_, err = tierDomain.MarkTierAwardsNotified(ctx, &model.MarkTierAwardsNotifiedRequest{})
	require.NoError(t, err)

	resp, err = tierDomain.GetMyTierAwards(ctx, &model.GetMyTierAwardsRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Awards, 1)
	require.True(t, resp.Awards[0].WasNotified)
}
