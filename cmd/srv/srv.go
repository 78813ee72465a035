package main

import (
	"context"
	"net/http"

	"github.com/BillixOfficial/rewards-backend/internal/client"
	"github.com/BillixOfficial/rewards-backend/internal/domain"
	"github.com/BillixOfficial/rewards-backend/internal/domain/statistic"
	"github.com/BillixOfficial/rewards-backend/internal/domain/stream"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/migration"
	"github.com/BillixOfficial/rewards-backend/pkg/api/brandsite"
	"github.com/BillixOfficial/rewards-backend/pkg/authenticator"
	"github.com/BillixOfficial/rewards-backend/pkg/cqlutil"
	"github.com/BillixOfficial/rewards-backend/pkg/kafka"
	"github.com/BillixOfficial/rewards-backend/pkg/logger"
	"github.com/BillixOfficial/rewards-backend/pkg/pubsub"
	"github.com/BillixOfficial/rewards-backend/pkg/router"
	"github.com/BillixOfficial/rewards-backend/pkg/storage"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
	"github.com/BillixOfficial/rewards-backend/pkg/xredis"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/scylladb/gocqlx/v2"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	ctx context.Context
	app *cli.App

	userRepo             repository.UserRepository
	refreshTokenRepo     repository.RefreshTokenRepository
	oauth2Repo           repository.OAuth2Repository
	apiKeyRepo           repository.APIKeyRepository
	fileRepo             repository.FileRepository
	categoryRepo         repository.CategoryRepository
	rewardItemRepo       repository.RewardItemRepository
	rewardProfileRepo    repository.RewardProfileRepository
	pointTransactionRepo repository.PointTransactionRepository
	pointActivityRepo    repository.PointActivityRepository
	checkInRepo          repository.CheckInRepository
	drawRepo             repository.DrawRepository
	guessRepo            repository.GuessRepository
	redemptionRepo       repository.RedemptionRepository
	tierAwardRepo        repository.TierAwardRepository

	authDomain       domain.AuthDomain
	userDomain       domain.UserDomain
	apiKeyDomain     domain.APIKeyDomain
	fileDomain       domain.FileDomain
	categoryDomain   domain.CategoryDomain
	rewardItemDomain domain.RewardItemDomain
	redemptionDomain domain.RedemptionDomain
	checkInDomain    domain.CheckInDomain
	tierDomain       domain.TierDomain
	drawDomain       domain.DrawDomain
	guessDomain      domain.GuessDomain
	pointDomain      domain.PointDomain
	statisticDomain  domain.StatisticDomain
	activityDomain   domain.ActivityDomain
	streamDomain     domain.StreamDomain

	leaderboard     statistic.Leaderboard
	streamRouter    *stream.Router
	redisClient     xredis.Client
	scyllaDBSession gocqlx.Session
	publisher       pubsub.Publisher
	storage         storage.Storage
	oauth2Services  []authenticator.IOAuth2Service

	router *router.Router
	server *http.Server
}

func (s *srv) loadLogger() {
	s.ctx = xcontext.WithLogger(s.ctx, logger.NewLogger())
}

func (s *srv) loadEngine() {
	cfg := xcontext.Configs(s.ctx)

	node, err := snowflake.NewNode(cfg.SnowflakeNodeID)
	if err != nil {
		panic(err)
	}

	s.ctx = xcontext.WithSnowFlake(s.ctx, node)
	s.ctx = xcontext.WithTokenEngine(s.ctx, authenticator.NewTokenEngine(cfg.Auth.TokenSecret))
	s.ctx = xcontext.WithSessionStore(s.ctx, sessions.NewCookieStore([]byte(cfg.Session.Secret)))
}

func (s *srv) newDatabase() *gorm.DB {
	db, err := gorm.Open(
		mysql.Open(xcontext.Configs(s.ctx).Database.ConnectionString()), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	return db
}

func (s *srv) migrateDB() {
	if err := migration.Migrate(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadScyllaDB() {
	cfg := xcontext.Configs(s.ctx)
	cluster := cqlutil.CreateCluster(cfg.ScyllaDB.KeySpace, cfg.ScyllaDB.Addr)

	var err error
	s.scyllaDBSession, err = gocqlx.WrapSession(cluster.CreateSession())
	if err != nil {
		panic(err)
	}

	if err := migration.MigrateScyllaDB(s.ctx, s.scyllaDBSession); err != nil {
		panic(err)
	}

	s.pointActivityRepo = repository.NewPointActivityRepository(s.scyllaDBSession)
}

func (s *srv) loadRedisClient() {
	var err error
	s.redisClient, err = xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadStorage() {
	s.storage = storage.NewS3Storage(xcontext.Configs(s.ctx).Storage)
}

func (s *srv) loadPublisher() {
	s.publisher = kafka.NewPublisher(
		uuid.NewString(), []string{xcontext.Configs(s.ctx).Kafka.Addr})
}

// loadRepos sets up every repository backed by mysql. Processes without a
// search service pass a nil caller, they never touch the index.
func (s *srv) loadRepos(searchCaller client.SearchCaller) {
	s.userRepo = repository.NewUserRepository()
	s.refreshTokenRepo = repository.NewRefreshTokenRepository()
	s.oauth2Repo = repository.NewOAuth2Repository()
	s.apiKeyRepo = repository.NewAPIKeyRepository()
	s.fileRepo = repository.NewFileRepository()
	s.categoryRepo = repository.NewCategoryRepository()
	s.rewardItemRepo = repository.NewRewardItemRepository(searchCaller)
	s.rewardProfileRepo = repository.NewRewardProfileRepository()
	s.pointTransactionRepo = repository.NewPointTransactionRepository()
	s.checkInRepo = repository.NewCheckInRepository()
	s.drawRepo = repository.NewDrawRepository()
	s.guessRepo = repository.NewGuessRepository()
	s.redemptionRepo = repository.NewRedemptionRepository()
	s.tierAwardRepo = repository.NewTierAwardRepository()
}

func (s *srv) loadLeaderboard() {
	s.leaderboard = statistic.New(s.pointTransactionRepo, s.redisClient)
}

func (s *srv) loadDomains() {
	cfg := xcontext.Configs(s.ctx)

	google, err := authenticator.NewOAuth2Service(s.ctx, cfg.Auth.Google)
	if err != nil {
		panic(err)
	}
	s.oauth2Services = []authenticator.IOAuth2Service{google}

	s.streamRouter = stream.NewRouter()

	s.authDomain = domain.NewAuthDomain(s.ctx, s.userRepo, s.refreshTokenRepo,
		s.oauth2Repo, s.rewardProfileRepo, s.oauth2Services)
	s.userDomain = domain.NewUserDomain(s.userRepo, s.oauth2Repo, s.rewardProfileRepo, s.storage)
	s.apiKeyDomain = domain.NewAPIKeyDomain(s.apiKeyRepo, s.userRepo)
	s.fileDomain = domain.NewFileDomain(s.fileRepo, s.storage)
	s.categoryDomain = domain.NewCategoryDomain(s.categoryRepo)
	s.rewardItemDomain = domain.NewRewardItemDomain(s.rewardItemRepo, s.categoryRepo,
		s.rewardProfileRepo, brandsite.New(), s.storage)
	s.redemptionDomain = domain.NewRedemptionDomain(s.redemptionRepo, s.rewardItemRepo,
		s.rewardProfileRepo, s.pointTransactionRepo, s.pointActivityRepo, s.userRepo,
		s.publisher, s.streamRouter)
	s.checkInDomain = domain.NewCheckInDomain(s.checkInRepo, s.rewardProfileRepo,
		s.pointTransactionRepo, s.pointActivityRepo, s.tierAwardRepo, s.leaderboard,
		s.publisher, s.streamRouter)
	s.tierDomain = domain.NewTierDomain(s.rewardProfileRepo, s.tierAwardRepo)
	s.drawDomain = domain.NewDrawDomain(s.drawRepo, s.rewardProfileRepo,
		s.pointTransactionRepo, s.pointActivityRepo, s.rewardItemRepo, s.redemptionRepo,
		s.userRepo, s.leaderboard, s.publisher, s.streamRouter)
	s.guessDomain = domain.NewGuessDomain(s.guessRepo)
	s.pointDomain = domain.NewPointDomain(s.rewardProfileRepo, s.pointTransactionRepo,
		s.pointActivityRepo, s.userRepo, s.tierAwardRepo, s.leaderboard, s.publisher,
		s.streamRouter)
	s.statisticDomain = domain.NewStatisticDomain(s.leaderboard, s.userRepo)
	s.activityDomain = domain.NewActivityDomain(s.pointActivityRepo)
	s.streamDomain = domain.NewStreamDomain(s.rewardProfileRepo, s.redemptionRepo,
		s.rewardItemRepo, s.drawRepo, s.streamRouter)
}
