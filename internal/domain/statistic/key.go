package statistic

import (
	"fmt"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
)

func redisKeyPointLeaderBoard(period entity.LeaderBoardPeriodType) string {
	return fmt.Sprintf("leaderboard:point:%s", period.Period())
}
