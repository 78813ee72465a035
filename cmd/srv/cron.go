package main

import (
	"github.com/BillixOfficial/rewards-backend/internal/domain/cron"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"

	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(*cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadScyllaDB()
	s.loadRedisClient()
	s.loadPublisher()
	s.loadRepos(nil)
	s.loadLeaderboard()

	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Register(cron.NewExecuteDrawCronJob(
		s.drawRepo,
		s.rewardProfileRepo,
		s.pointTransactionRepo,
		s.pointActivityRepo,
		s.leaderboard,
		s.publisher,
	))
	cronJobManager.Register(cron.NewGuessRoundCronJob(
		s.guessRepo,
		s.rewardProfileRepo,
		s.pointTransactionRepo,
		s.pointActivityRepo,
		s.leaderboard,
		s.publisher,
	))
	cronJobManager.Register(cron.NewTrendingScoreCronJob(s.rewardItemRepo, s.redemptionRepo))
	cronJobManager.Register(cron.NewExpirePointsCronJob(
		s.rewardProfileRepo,
		s.pointTransactionRepo,
		s.pointActivityRepo,
	))

	cronJobManager.Start(s.ctx)

	return nil
}
