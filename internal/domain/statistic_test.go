package domain

import (
	"context"
	"testing"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/domain/statistic"
	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/testutil"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func Test_statisticDomain_GetLeaderBoard(t *testing.T) {
	ctx := testutil.MockContext()
	user1, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	user2, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	statisticDomain := NewStatisticDomain(
		statistic.New(
			repository.NewPointTransactionRepository(),
			&testutil.MockRedisClient{
				ExistFunc: func(ctx context.Context, key string) (bool, error) {
					return true, nil
				},
				ZRevRangeWithScoresFunc: func(ctx context.Context, key string, offset, limit int) ([]redis.Z, error) {
					return []redis.Z{
						{Member: user1.ID, Score: 900},
						{Member: user2.ID, Score: 400},
					}, nil
				},
				ZRevRankFunc: func(ctx context.Context, key, member string) (uint64, error) {
					// Last period the order was reversed.
					if member == user1.ID {
						return 1, nil
					}

					return 0, nil
				},
			},
		),
		repository.NewUserRepository(),
	)

	resp, err := statisticDomain.GetLeaderBoard(ctx, &model.GetLeaderBoardRequest{
		Period: "week",
		Offset: 0,
		Limit:  2,
	})
	require.NoError(t, err)
	require.Equal(t, &model.GetLeaderBoardResponse{
		LeaderBoard: []model.UserStatistic{
			{
				User: model.ShortUser{
					ID:         user1.ID,
					Name:       user1.Name,
					AvatarURLs: map[string]string{},
				},
				Points:      900,
				PrevRank:    2,
				CurrentRank: 1,
			},
			{
				User: model.ShortUser{
					ID:         user2.ID,
					Name:       user2.Name,
					AvatarURLs: map[string]string{},
				},
				Points:      400,
				PrevRank:    1,
				CurrentRank: 2,
			},
		},
	}, resp)
}

func Test_statisticDomain_GetLeaderBoard_RebuildsFromLedger(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	// The ledger holds an earn and an adjust row inside the week plus a
	// spend row, only the first two count as earnings.
	pointTransactionRepo := repository.NewPointTransactionRepository()
	rows := []entity.PointTransaction{
		{ID: 1, UserID: user.ID, Type: entity.TransactionEarn,
			Source: entity.SourceCheckIn, Amount: 120, CreatedAt: time.Now()},
		{ID: 2, UserID: user.ID, Type: entity.TransactionAdjust,
			Source: entity.SourceRedeem, Amount: 80, CreatedAt: time.Now()},
		{ID: 3, UserID: user.ID, Type: entity.TransactionSpend,
			Source: entity.SourceRedeem, Amount: 999, CreatedAt: time.Now()},
	}
	for i := range rows {
		require.NoError(t, pointTransactionRepo.Create(ctx, &rows[i]))
	}

	// Redis lost the key, the next read rebuilds the sorted set from the
	// ledger.
	added := map[string]float64{}
	statisticDomain := NewStatisticDomain(
		statistic.New(
			pointTransactionRepo,
			&testutil.MockRedisClient{
				ExistFunc: func(ctx context.Context, key string) (bool, error) {
					return false, nil
				},
				ZAddFunc: func(ctx context.Context, key string, z redis.Z) error {
					added[z.Member.(string)] = z.Score
					return nil
				},
				ZRevRangeWithScoresFunc: func(ctx context.Context, key string, offset, limit int) ([]redis.Z, error) {
					result := []redis.Z{}
					for member, score := range added {
						result = append(result, redis.Z{Member: member, Score: score})
					}
					return result, nil
				},
			},
		),
		repository.NewUserRepository(),
	)

	resp, err := statisticDomain.GetLeaderBoard(ctx, &model.GetLeaderBoardRequest{
		Period: "week",
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, resp.LeaderBoard, 1)
	require.Equal(t, user.ID, resp.LeaderBoard[0].User.ID)
	require.Equal(t, uint64(200), resp.LeaderBoard[0].Points)
}

func Test_statisticDomain_GetLeaderBoard_InvalidRequest(t *testing.T) {
	ctx := testutil.MockContext()
	statisticDomain := NewStatisticDomain(
		statistic.New(repository.NewPointTransactionRepository(), &testutil.MockRedisClient{}),
		repository.NewUserRepository(),
	)

	_, err := statisticDomain.GetLeaderBoard(ctx, &model.GetLeaderBoardRequest{
		Period: "decade",
		Limit:  10,
	})
	require.Error(t, err)
	require.Equal(t, "Invalid period", err.Error())

	_, err = statisticDomain.GetLeaderBoard(ctx, &model.GetLeaderBoardRequest{
		Period: "week",
		Limit:  51,
	})
	require.Error(t, err)
	require.Equal(t, "Exceed the maximum of limit (50)", err.Error())
}
