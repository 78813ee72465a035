// Package progression holds the rewards rules which every surface must agree
// on: affordability of a catalog item, tier ranges, and the check-in streak.
// All functions are pure. Callers validate nothing beforehand, invalid values
// are rejected here with sentinel errors.
package progression

import (
	"errors"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
)

var (
	ErrNonPositiveCost   = errors.New("cost must be a positive number of points")
	ErrNegativeBalance   = errors.New("balance cannot be negative")
	ErrNegativePoints    = errors.New("points cannot be negative")
	ErrInvalidWeekLength = errors.New("a week must contain exactly seven days")
)

// Affordability answers whether a balance can pay a cost. The same answer is
// used by the catalog listing, the redemption precheck and the draw entry, so
// the client never re-derives it.
type Affordability struct {
	CanAfford    bool
	PointsNeeded int64
	Progress     float64
}

func Evaluate(balance, cost int64) (Affordability, error) {
	if cost <= 0 {
		return Affordability{}, ErrNonPositiveCost
	}

	if balance < 0 {
		return Affordability{}, ErrNegativeBalance
	}

	needed := cost - balance
	if needed < 0 {
		needed = 0
	}

	progress := float64(balance) / float64(cost)
	if progress > 1 {
		progress = 1
	}

	return Affordability{
		CanAfford:    balance >= cost,
		PointsNeeded: needed,
		Progress:     progress,
	}, nil
}

type tierRange struct {
	tier entity.Tier
	min  int64
}

// Ordered ascending by lifetime points. A tier begins at min and ends right
// before the min of the next one, the last tier is unbounded.
var tierRanges = []tierRange{
	{entity.TierBronze, 0},
	{entity.TierSilver, 8000},
	{entity.TierGold, 22000},
	{entity.TierPlatinum, 70000},
}

// TierFor returns the tier of a lifetime points value. Every non-negative
// value belongs to exactly one tier.
func TierFor(points int64) (entity.Tier, error) {
	if points < 0 {
		return "", ErrNegativePoints
	}

	return tierRanges[tierIndexFor(points)].tier, nil
}

// NextTier returns the tier after the given one. The second value is false
// for the top tier.
func NextTier(tier entity.Tier) (entity.Tier, bool) {
	for i, r := range tierRanges {
		if r.tier == tier && i+1 < len(tierRanges) {
			return tierRanges[i+1].tier, true
		}
	}

	return "", false
}

// TierProgress locates a lifetime points value inside its tier. Progress runs
// from 0 at the lower bound of the tier to 1 at the next one. The top tier
// reports no next tier, a full bar, and nothing remaining.
type TierProgress struct {
	Tier            entity.Tier
	NextTier        entity.Tier
	HasNext         bool
	Progress        float64
	PointsRemaining int64
}

func ProgressToNext(points int64) (TierProgress, error) {
	if points < 0 {
		return TierProgress{}, ErrNegativePoints
	}

	idx := tierIndexFor(points)
	current := tierRanges[idx]
	if idx == len(tierRanges)-1 {
		return TierProgress{Tier: current.tier, Progress: 1}, nil
	}

	next := tierRanges[idx+1]
	progress := float64(points-current.min) / float64(next.min-current.min)
	if progress > 1 {
		progress = 1
	}

	return TierProgress{
		Tier:            current.tier,
		NextTier:        next.tier,
		HasNext:         true,
		Progress:        progress,
		PointsRemaining: next.min - points,
	}, nil
}

// TierAtLeast reports whether have ranks at or above want. Unknown tiers
// rank below everything.
func TierAtLeast(have, want entity.Tier) bool {
	haveIndex, wantIndex := -1, len(tierRanges)
	for i, r := range tierRanges {
		if r.tier == have {
			haveIndex = i
		}

		if r.tier == want {
			wantIndex = i
		}
	}

	return haveIndex >= wantIndex
}

// TiersUpTo lists every tier from the lowest one up to and including the
// given one, in ascending order. An unknown tier yields nil.
func TiersUpTo(tier entity.Tier) []entity.Tier {
	var tiers []entity.Tier
	for _, r := range tierRanges {
		tiers = append(tiers, r.tier)
		if r.tier == tier {
			return tiers
		}
	}

	return nil
}

func tierIndexFor(points int64) int {
	idx := 0
	for i, r := range tierRanges {
		if points < r.min {
			break
		}
		idx = i
	}

	return idx
}
