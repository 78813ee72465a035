package main

import (
	"github.com/BillixOfficial/rewards-backend/internal/domain"
	"github.com/BillixOfficial/rewards-backend/internal/domain/cron"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/pkg/api/giftcard"
	"github.com/BillixOfficial/rewards-backend/pkg/kafka"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"

	"github.com/urfave/cli/v2"
)

func (s *srv) startWorker(*cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	cfg := xcontext.Configs(s.ctx)
	s.migrateDB()
	s.loadScyllaDB()
	s.loadRedisClient()
	s.loadPublisher()
	s.loadRepos(nil)
	s.loadLeaderboard()

	fulfillmentDomain := domain.NewFulfillmentDomain(
		s.redemptionRepo,
		s.rewardItemRepo,
		s.rewardProfileRepo,
		s.pointTransactionRepo,
		s.pointActivityRepo,
		s.leaderboard,
		giftcard.New(cfg.GiftCard),
		s.publisher,
	)

	// The worker group is shared, one instance handles each redemption.
	subscriber := kafka.NewSubscriber(
		"worker",
		[]string{cfg.Kafka.Addr},
		[]string{model.RedemptionCreatedTopic},
		fulfillmentDomain.HandleRedemptionCreated,
	)
	subscriber.Subscribe(s.ctx)

	// The retry sweep shares the process with the subscriber.
	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Register(cron.NewRetryRedemptionsCronJob(fulfillmentDomain))

	xcontext.Logger(s.ctx).Infof("Start worker successfully")
	cronJobManager.Start(s.ctx)

	return nil
}
