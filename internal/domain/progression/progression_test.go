package progression

import (
	"testing"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	got, err := Evaluate(4000, 10000)
	require.NoError(t, err)
	require.Equal(t, Affordability{CanAfford: false, PointsNeeded: 6000, Progress: 0.4}, got)

	got, err = Evaluate(10000, 10000)
	require.NoError(t, err)
	require.Equal(t, Affordability{CanAfford: true, PointsNeeded: 0, Progress: 1}, got)

	got, err = Evaluate(25000, 10000)
	require.NoError(t, err)
	require.Equal(t, Affordability{CanAfford: true, PointsNeeded: 0, Progress: 1}, got)

	got, err = Evaluate(0, 10000)
	require.NoError(t, err)
	require.Equal(t, Affordability{CanAfford: false, PointsNeeded: 10000, Progress: 0}, got)
}

func TestEvaluateRejectsInvalidInput(t *testing.T) {
	_, err := Evaluate(100, 0)
	require.ErrorIs(t, err, ErrNonPositiveCost)

	_, err = Evaluate(100, -50)
	require.ErrorIs(t, err, ErrNonPositiveCost)

	_, err = Evaluate(-1, 100)
	require.ErrorIs(t, err, ErrNegativeBalance)
}

func TestEvaluateProgressIsMonotonic(t *testing.T) {
	const cost = 10000

	prev := -1.0
	for balance := int64(0); balance <= 2*cost; balance += 250 {
		got, err := Evaluate(balance, cost)
		require.NoError(t, err)
		require.GreaterOrEqual(t, got.Progress, prev)
		require.GreaterOrEqual(t, got.Progress, 0.0)
		require.LessOrEqual(t, got.Progress, 1.0)
		prev = got.Progress
	}
}

func TestTierFor(t *testing.T) {
	testcases := []struct {
		points   int64
		expected entity.Tier
	}{
		{0, entity.TierBronze},
		{7999, entity.TierBronze},
		{8000, entity.TierSilver},
		{21999, entity.TierSilver},
		{22000, entity.TierGold},
		{45000, entity.TierGold},
		{69999, entity.TierGold},
		{70000, entity.TierPlatinum},
		{1000000, entity.TierPlatinum},
	}

	for _, tc := range testcases {
		tier, err := TierFor(tc.points)
		require.NoError(t, err)
		require.Equal(t, tc.expected, tier, "points %d", tc.points)
	}

	_, err := TierFor(-1)
	require.ErrorIs(t, err, ErrNegativePoints)
}

func TestNextTier(t *testing.T) {
	next, ok := NextTier(entity.TierBronze)
	require.True(t, ok)
	require.Equal(t, entity.TierSilver, next)

	next, ok = NextTier(entity.TierGold)
	require.True(t, ok)
	require.Equal(t, entity.TierPlatinum, next)

	_, ok = NextTier(entity.TierPlatinum)
	require.False(t, ok)
}

func TestProgressToNext(t *testing.T) {
	got, err := ProgressToNext(45000)
	require.NoError(t, err)
	require.Equal(t, entity.TierGold, got.Tier)
	require.Equal(t, entity.TierPlatinum, got.NextTier)
	require.True(t, got.HasNext)
	require.Equal(t, int64(25000), got.PointsRemaining)
	require.InDelta(t, float64(45000-22000)/float64(70000-22000), got.Progress, 1e-9)

	// The lower bound of a tier is an empty bar.
	got, err = ProgressToNext(8000)
	require.NoError(t, err)
	require.Equal(t, entity.TierSilver, got.Tier)
	require.Equal(t, 0.0, got.Progress)
	require.Equal(t, int64(14000), got.PointsRemaining)
}

func TestProgressToNextTopTier(t *testing.T) {
	got, err := ProgressToNext(70000)
	require.NoError(t, err)
	require.Equal(t, entity.TierPlatinum, got.Tier)
	require.False(t, got.HasNext)
	require.Equal(t, 1.0, got.Progress)
	require.Equal(t, int64(0), got.PointsRemaining)

	_, err = ProgressToNext(-500)
	require.ErrorIs(t, err, ErrNegativePoints)
}

func TestTiersUpTo(t *testing.T) {
	require.Equal(t, []entity.Tier{entity.TierBronze}, TiersUpTo(entity.TierBronze))
	require.Equal(t,
		[]entity.Tier{entity.TierBronze, entity.TierSilver, entity.TierGold},
		TiersUpTo(entity.TierGold))
	require.Len(t, TiersUpTo(entity.TierPlatinum), 4)
	require.Nil(t, TiersUpTo(entity.Tier("wood")))
}

func TestTierAtLeast(t *testing.T) {
	require.True(t, TierAtLeast(entity.TierGold, entity.TierGold))
	require.True(t, TierAtLeast(entity.TierPlatinum, entity.TierBronze))
	require.False(t, TierAtLeast(entity.TierSilver, entity.TierGold))
	require.False(t, TierAtLeast(entity.Tier("wood"), entity.TierBronze))

	// An unknown requirement can never be met, items carrying one stay
	// locked instead of opening up to everyone.
	require.False(t, TierAtLeast(entity.TierPlatinum, entity.Tier("diamond")))
}
