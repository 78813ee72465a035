package domain

import (
	"context"

	"github.com/BillixOfficial/rewards-backend/internal/domain/statistic"
	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
)

type StatisticDomain interface {
	GetLeaderBoard(context.Context, *model.GetLeaderBoardRequest) (*model.GetLeaderBoardResponse, error)
}

type statisticDomain struct {
	leaderboard statistic.Leaderboard
	userRepo    repository.UserRepository
}

func NewStatisticDomain(
	leaderboard statistic.Leaderboard,
	userRepo repository.UserRepository,
) *statisticDomain {
	return &statisticDomain{
		leaderboard: leaderboard,
		userRepo:    userRepo,
	}
}

func (d *statisticDomain) GetLeaderBoard(
	ctx context.Context, req *model.GetLeaderBoardRequest,
) (*model.GetLeaderBoardResponse, error) {
	limit, err := normalizeLimit(ctx, req.Limit)
	if err != nil {
		return nil, err
	}

	board, err := d.leaderboard.GetLeaderBoard(ctx, req.Period, req.Offset, limit)
	if err != nil {
		return nil, err
	}

	// The redis set only knows user ids, names and avatars come from the
	// database in one batch.
	userIDs := []string{}
	for _, record := range board {
		userIDs = append(userIDs, record.User.ID)
	}

	users, err := d.userRepo.GetByIDs(ctx, userIDs)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get users of leaderboard: %v", err)
		return nil, errorx.Unknown
	}

	userMap := map[string]entity.User{}
	for _, u := range users {
		userMap[u.ID] = u
	}

	for i := range board {
		if u, ok := userMap[board[i].User.ID]; ok {
			board[i].User = model.ConvertShortUser(&u)
		}
	}

	return &model.GetLeaderBoardResponse{LeaderBoard: board}, nil
}
