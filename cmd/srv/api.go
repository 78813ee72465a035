package main

import (
	"net/http"

	"github.com/BillixOfficial/rewards-backend/internal/client"
	"github.com/BillixOfficial/rewards-backend/internal/middleware"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/pkg/kafka"
	"github.com/BillixOfficial/rewards-backend/pkg/prometheus"
	"github.com/BillixOfficial/rewards-backend/pkg/router"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	cfg := xcontext.Configs(s.ctx)
	s.migrateDB()
	s.loadScyllaDB()
	s.loadRedisClient()
	s.loadStorage()
	s.loadPublisher()

	rpcSearchClient, err := rpc.DialContext(s.ctx, cfg.SearchServer.Endpoint)
	if err != nil {
		return err
	}

	s.loadRepos(client.NewSearchCaller(rpcSearchClient))
	s.loadLeaderboard()
	s.loadDomains()
	s.loadRouter()

	// Websocket clients hang off this instance, so this instance needs every
	// event. Each subscriber gets its own consumer group for that.
	redemptionSubscriber := kafka.NewSubscriber(
		"api-redemption-"+uuid.NewString(),
		[]string{cfg.Kafka.Addr},
		[]string{model.RedemptionFulfilledTopic},
		s.streamDomain.HandleRedemptionResult,
	)
	drawSubscriber := kafka.NewSubscriber(
		"api-draw-"+uuid.NewString(),
		[]string{cfg.Kafka.Addr},
		[]string{model.DrawSettledTopic},
		s.streamDomain.HandleDrawSettled,
	)
	redemptionSubscriber.Subscribe(s.ctx)
	drawSubscriber.Subscribe(s.ctx)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	s.server = &http.Server{
		Addr:    cfg.ApiServer.Address(),
		Handler: corsHandler.Handler(s.router.Handler()),
	}

	xcontext.Logger(s.ctx).Infof("Starting api server on port: %s", cfg.ApiServer.Port)
	if err := s.server.ListenAndServe(); err != nil {
		panic(err)
	}
	xcontext.Logger(s.ctx).Infof("Server api stopped")

	return nil
}

func (s *srv) loadRouter() {
	s.router = router.New(s.ctx)
	s.router.Before(middleware.WithStartTime())
	s.router.AddCloser(middleware.Logger())
	s.router.AddCloser(middleware.Prometheus())

	// Auth API.
	authRouter := s.router.Branch()
	authRouter.After(middleware.HandleSaveSession())
	authRouter.After(middleware.HandleSetCookie())
	authRouter.After(middleware.HandleRedirect())
	{
		router.GET(authRouter, "/oauth2/login", s.authDomain.OAuth2Login)
		router.GET(authRouter, "/oauth2/callback", s.authDomain.OAuth2Callback)
		router.POST(authRouter, "/oauth2/verify", s.authDomain.OAuth2Verify)
		router.POST(authRouter, "/refreshToken", s.authDomain.Refresh)
	}

	// These following APIs need authentication with only Access Token.
	onlyTokenAuthRouter := s.router.Branch()
	onlyTokenAuthRouter.Before(middleware.NewAuthVerifier().WithAccessToken().Middleware())
	{
		// User API
		router.GET(onlyTokenAuthRouter, "/getMe", s.userDomain.GetMe)
		router.POST(onlyTokenAuthRouter, "/updateUser", s.userDomain.Update)
		router.POST(onlyTokenAuthRouter, "/uploadAvatar", s.userDomain.UploadAvatar)

		// Image API
		router.POST(onlyTokenAuthRouter, "/uploadImage", s.fileDomain.UploadImage)

		// Redemption API
		router.POST(onlyTokenAuthRouter, "/redeemItem", s.redemptionDomain.RedeemItem)
		router.GET(onlyTokenAuthRouter, "/getMyRedemptions", s.redemptionDomain.GetMyRedemptions)
		router.GET(onlyTokenAuthRouter, "/getRedemption", s.redemptionDomain.Get)

		// Check-in API
		router.POST(onlyTokenAuthRouter, "/checkIn", s.checkInDomain.CheckIn)
		router.GET(onlyTokenAuthRouter, "/getMyStreak", s.checkInDomain.GetMyStreak)
		router.GET(onlyTokenAuthRouter, "/getWeekRecap", s.checkInDomain.GetWeekRecap)

		// Tier API
		router.GET(onlyTokenAuthRouter, "/getMyTier", s.tierDomain.GetMyTier)
		router.GET(onlyTokenAuthRouter, "/getMyTierAwards", s.tierDomain.GetMyTierAwards)
		router.POST(onlyTokenAuthRouter, "/markTierAwardsNotified", s.tierDomain.MarkTierAwardsNotified)

		// Draw API
		router.POST(onlyTokenAuthRouter, "/enterDraw", s.drawDomain.EnterDraw)
		router.POST(onlyTokenAuthRouter, "/claimDrawReward", s.drawDomain.ClaimDrawReward)

		// Guess API
		router.POST(onlyTokenAuthRouter, "/submitGuess", s.guessDomain.SubmitGuess)
		router.GET(onlyTokenAuthRouter, "/getMyGuesses", s.guessDomain.GetMyGuesses)

		// Transaction and activity API
		router.GET(onlyTokenAuthRouter, "/getMyTransactions", s.pointDomain.GetMyTransactions)
		router.GET(onlyTokenAuthRouter, "/getMyActivities", s.activityDomain.GetMyActivities)

		// Live event API
		router.Websocket(onlyTokenAuthRouter, "/ws/rewards", s.streamDomain.ServeRewards)
	}

	// These following APIs need authentication with Admin role.
	onlyAdminRouter := s.router.Branch()
	onlyAdminRouter.Before(middleware.NewAuthVerifier().WithAccessToken().Middleware())
	onlyAdminRouter.Before(middleware.NewOnlyAdmin(s.userRepo).Middleware())
	{
		// Reward item API
		router.POST(onlyAdminRouter, "/createRewardItem", s.rewardItemDomain.Create)
		router.POST(onlyAdminRouter, "/updateRewardItem", s.rewardItemDomain.UpdateByID)
		router.POST(onlyAdminRouter, "/deleteRewardItem", s.rewardItemDomain.DeleteByID)

		// Category API
		router.POST(onlyAdminRouter, "/createCategory", s.categoryDomain.Create)
		router.POST(onlyAdminRouter, "/updateCategoryByID", s.categoryDomain.UpdateByID)
		router.POST(onlyAdminRouter, "/deleteCategoryByID", s.categoryDomain.DeleteByID)

		// Draw API
		router.POST(onlyAdminRouter, "/createDrawEvent", s.drawDomain.CreateDrawEvent)

		// API-Key API
		router.POST(onlyAdminRouter, "/generateAPIKey", s.apiKeyDomain.Generate)
		router.POST(onlyAdminRouter, "/regenerateAPIKey", s.apiKeyDomain.Regenerate)
		router.POST(onlyAdminRouter, "/revokeAPIKey", s.apiKeyDomain.Revoke)
	}

	// These following APIs support authentication with both Access Token and API Key.
	tokenAndKeyAuthRouter := s.router.Branch()
	tokenAndKeyAuthRouter.Before(
		middleware.NewAuthVerifier().WithAccessToken().WithAPIKey(s.apiKeyRepo).Middleware())
	{
		router.POST(tokenAndKeyAuthRouter, "/addPoints", s.pointDomain.AddPoints)
	}

	// Public APIs. They read the access token when the client sends one, some
	// responses carry extra fields for a signed in caller.
	publicRouter := s.router.Branch()
	publicRouter.Before(middleware.NewAuthVerifier().WithAccessToken().WithOptional().Middleware())
	{
		router.GET(publicRouter, "/getListCategory", s.categoryDomain.GetList)
		router.GET(publicRouter, "/getRewardItems", s.rewardItemDomain.GetList)
		router.GET(publicRouter, "/getRewardItem", s.rewardItemDomain.Get)
		router.GET(publicRouter, "/searchRewardItems", s.rewardItemDomain.Search)
		router.GET(publicRouter, "/getCurrentDraw", s.drawDomain.GetCurrentDraw)
		router.GET(publicRouter, "/getDrawWinners", s.drawDomain.GetDrawWinners)
		router.GET(publicRouter, "/getTodayGuessRound", s.guessDomain.GetTodayGuessRound)
		router.GET(publicRouter, "/getLeaderBoard", s.statisticDomain.GetLeaderBoard)
	}

	s.router.Handle("/metrics", prometheus.NewHandler())
	s.router.Handle("/", s.homeHandler())
}

func (s *srv) homeHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/" {
			http.NotFound(w, req)
			return
		}

		err := router.WriteJson(w, map[string]string{
			"name": "billix rewards",
			"env":  xcontext.Configs(s.ctx).Env,
		})
		if err != nil {
			xcontext.Logger(s.ctx).Errorf("Cannot write the home response: %v", err)
		}
	})
}
