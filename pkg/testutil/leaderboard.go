package testutil

import (
	"context"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/model"
)

type MockLeaderboard struct {
	GetLeaderBoardFunc func(
		ctx context.Context, period string, offset, limit int,
	) ([]model.UserStatistic, error)

	GetRankFunc func(ctx context.Context, userID, period string) (uint64, error)

	ChangePointLeaderboardFunc func(
		ctx context.Context, value int64, earnedAt time.Time, userID string,
	) error
}

func (m *MockLeaderboard) GetLeaderBoard(
	ctx context.Context, period string, offset, limit int,
) ([]model.UserStatistic, error) {
	if m.GetLeaderBoardFunc != nil {
		return m.GetLeaderBoardFunc(ctx, period, offset, limit)
	}

	return nil, nil
}

func (m *MockLeaderboard) GetRank(ctx context.Context, userID, period string) (uint64, error) {
	if m.GetRankFunc != nil {
		return m.GetRankFunc(ctx, userID, period)
	}

	return 0, nil
}

func (m *MockLeaderboard) ChangePointLeaderboard(
	ctx context.Context, value int64, earnedAt time.Time, userID string,
) error {
	if m.ChangePointLeaderboardFunc != nil {
		return m.ChangePointLeaderboardFunc(ctx, value, earnedAt, userID)
	}

	return nil
}
