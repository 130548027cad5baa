package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Offical-Dhiraj/bloodchain/api/swagger"
	"github.com/Offical-Dhiraj/bloodchain/internal/handler"
	"github.com/Offical-Dhiraj/bloodchain/internal/middleware"
	"github.com/Offical-Dhiraj/bloodchain/internal/models"
	"github.com/Offical-Dhiraj/bloodchain/internal/notify"
	"github.com/Offical-Dhiraj/bloodchain/internal/repository"
	"github.com/Offical-Dhiraj/bloodchain/internal/service"
	"github.com/Offical-Dhiraj/bloodchain/pkg/cache"
	"github.com/Offical-Dhiraj/bloodchain/pkg/config"
	"github.com/Offical-Dhiraj/bloodchain/pkg/database"
	"github.com/Offical-Dhiraj/bloodchain/pkg/jobs"
	"github.com/Offical-Dhiraj/bloodchain/pkg/logger"
	corsmiddleware "github.com/Offical-Dhiraj/bloodchain/pkg/middleware/cors"
	reqidmiddleware "github.com/Offical-Dhiraj/bloodchain/pkg/middleware/requestid"
	"github.com/Offical-Dhiraj/bloodchain/pkg/settlement"
)

// @title Bloodchain Matching API
// @version 1.0.0
// @description Donor matching, match lifecycle and donation settlement
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// repositories
	requestRepo := repository.NewRequestRepository(db)
	donorRepo := repository.NewDonorRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	reputationRepo := repository.NewReputationRepository(db)
	donationRepo := repository.NewDonationRepository(db)
	locationRepo := repository.NewLocationRepository(redisClient, cfg.Location.TTL, logr)

	notifier := notify.NewRedisNotifier(redisClient, cfg.Notifications.ChannelPrefix, logr)
	metricsService := service.NewMetricsService()

	var scorer service.ScoringModel = service.HeuristicScorer{}
	if cfg.Scoring.Mode == config.ScoringModeModel && cfg.Scoring.ModelURL != "" {
		scorer = service.NewFallbackScorer(
			service.NewRemoteScorer(cfg.Scoring.ModelURL, cfg.Scoring.Timeout),
			service.HeuristicScorer{},
			logr,
		)
	}

	gateway := settlement.NewClient(cfg.Settlement.GatewayURL, cfg.Settlement.ChainID, cfg.Settlement.Timeout, logr)

	// services
	donorService := service.NewDonorService(donorRepo)
	requestService := service.NewRequestService(requestRepo, matchRepo, cfg.Request, logr)
	matchingService := service.NewMatchingService(
		requestRepo, donorRepo, locationRepo, matchRepo,
		scorer, notifier, metricsService, cfg.Matching, logr,
	)
	lifecycleService := service.NewLifecycleService(matchRepo, requestRepo, donorRepo, notifier, metricsService, cfg.Matching, logr)
	reputationService := service.NewReputationService(reputationRepo, donorRepo, notifier, cfg.Reputation, logr)
	locationService := service.NewLocationService(locationRepo, donorRepo, logr)
	fraudService := service.NewFraudService(donorRepo, logr)

	followups := jobs.NewQueue("donation-followups", func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(service.DonationFollowUp)
		if !ok {
			return fmt.Errorf("unexpected payload for job %s", job.ID)
		}
		if _, err := reputationService.OnDonationCompleted(ctx, payload.DonorID, payload.Urgency); err != nil {
			return err
		}
		if err := reputationRepo.AddReward(ctx, payload.DonorID, payload.RewardTokens); err != nil {
			return err
		}
		if donor, err := donorRepo.GetByID(ctx, payload.DonorID); err == nil {
			notifier.Notify(ctx, notify.Event{
				Type:   notify.EventDonationComplete,
				UserID: donor.UserID,
				Title:  "Donation settled",
				Body:   fmt.Sprintf("Your donation was recorded and %d reward tokens were credited.", payload.RewardTokens),
				Data:   map[string]interface{}{"donation_id": payload.DonationID},
			})
		}
		return nil
	}, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Settlement.MaxRetries,
		RetryDelay: cfg.Settlement.RetryDelay,
		Logger:     logr,
	})
	followups.Start(ctx)
	defer followups.Stop()

	donationService := service.NewDonationService(
		matchRepo, requestRepo, donationRepo, gateway, followups, metricsService, cfg.Settlement, logr,
	)

	go lifecycleService.RunSweeper(ctx)

	// handlers
	requestHandler := handler.NewRequestHandler(requestService, matchingService)
	matchHandler := handler.NewMatchHandler(lifecycleService, donorService)
	donationHandler := handler.NewDonationHandler(donationService, donorService)
	reputationHandler := handler.NewReputationHandler(reputationService, donorService)
	locationHandler := handler.NewLocationHandler(locationService)
	cronHandler := handler.NewCronHandler(lifecycleService, reputationService, matchingService, fraudService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/snapshot", metricsHandler.Snapshot)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	secured := api.Group("", middleware.JWT(cfg.JWT.Secret))

	secured.GET("/requests", requestHandler.List)
	secured.GET("/requests/:id", requestHandler.Get)
	secured.POST("/requests",
		middleware.RequireRoles(models.RoleRecipient, models.RoleAdmin), requestHandler.Create)
	secured.POST("/requests/:id/matches",
		middleware.RequireRoles(models.RoleRecipient, models.RoleAdmin), requestHandler.Match)

	secured.POST("/matches/:id/accept",
		middleware.RequireRoles(models.RoleDonor), matchHandler.Accept)
	secured.POST("/matches/:id/reject",
		middleware.RequireRoles(models.RoleDonor), matchHandler.Reject)
	secured.POST("/matches/:id/donation",
		middleware.RequireRoles(models.RoleDonor), donationHandler.Confirm)

	secured.GET("/donations",
		middleware.RequireRoles(models.RoleDonor), donationHandler.History)
	secured.GET("/donations/export",
		middleware.RequireRoles(models.RoleDonor), donationHandler.Export)

	secured.GET("/reputation/:donorId", reputationHandler.Stats)
	secured.GET("/reputation/:donorId/events", reputationHandler.History)
	secured.POST("/reputation/:donorId/failures",
		middleware.RequireRoles(models.RoleAdmin), reputationHandler.ReportFailure)

	secured.PUT("/location",
		middleware.RequireRoles(models.RoleDonor), locationHandler.Report)

	cron := api.Group("/cron", middleware.CronSecret(cfg.Cron.Secret))
	cron.POST("/expire-matches", cronHandler.ExpireMatches)
	cron.POST("/decay-reputation", cronHandler.DecayReputation)
	cron.POST("/run-matching", cronHandler.RunMatching)
	cron.POST("/detect-fraud", cronHandler.DetectFraud)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}
