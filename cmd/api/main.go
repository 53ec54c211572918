package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/heritage-archive/archive-service/internal/api/http"
	"github.com/heritage-archive/archive-service/internal/api/http/handlers"
	"github.com/heritage-archive/archive-service/internal/auth"
	"github.com/heritage-archive/archive-service/internal/batch"
	"github.com/heritage-archive/archive-service/internal/config"
	"github.com/heritage-archive/archive-service/internal/events"
	"github.com/heritage-archive/archive-service/internal/observability"
	"github.com/heritage-archive/archive-service/internal/persistence"
	"github.com/heritage-archive/archive-service/internal/repository"
	"github.com/heritage-archive/archive-service/internal/service"
	"github.com/heritage-archive/archive-service/internal/storage"
	"github.com/heritage-archive/archive-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	friendshipRepo := repository.NewFriendshipRepository(pool)
	inviteRepo := repository.NewInviteRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	mediaRepo := repository.NewMediaRepository(pool)
	transcriptRepo := repository.NewTranscriptRepository(pool)

	dispatcher := events.NewQueueDispatcher(logger,
		cfg.Notification.QueueSize, cfg.Notification.MaxAttempts, cfg.Notification.RetryDelay())

	batchClient, err := batch.NewClient(ctx, cfg.Batch, logger)
	if err != nil {
		logger.Fatal("failed to init batch client", zap.Error(err))
	}

	var presigner storage.Presigner
	if cfg.Storage.Bucket != "" {
		s3Presigner, err := storage.NewS3Presigner(ctx, cfg.Storage)
		if err != nil {
			logger.Fatal("failed to init storage presigner", zap.Error(err))
		}
		presigner = s3Presigner
	} else {
		logger.Warn("no storage bucket configured, upload URLs disabled")
	}

	validator := auth.NewTokenValidator(cfg.Auth.SessionSecret, cfg.Auth.Issuer)
	identityService := service.NewIdentityService(validator, userRepo, logger)
	authMiddleware := auth.NewAuthMiddleware(identityService)

	friendshipService := service.NewFriendshipService(cfg.Auth, service.FriendshipDependencies{
		FriendshipRepo: friendshipRepo,
		UserRepo:       userRepo,
		InviteRepo:     inviteRepo,
		Dispatcher:     dispatcher,
	})
	notificationService := service.NewNotificationService(notificationRepo)
	taskService := service.NewTaskService(cfg.Batch, service.TaskDependencies{
		TaskRepo:   taskRepo,
		Runner:     batchClient,
		Cache:      redis,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	mediaService := service.NewMediaService(cfg.Storage, service.MediaDependencies{
		MediaRepo:      mediaRepo,
		TranscriptRepo: transcriptRepo,
		UserRepo:       userRepo,
		Friendships:    friendshipService,
		Tasks:          taskService,
		Presigner:      presigner,
		Dispatcher:     dispatcher,
	})

	notificationWorker := worker.NewNotificationWorker(notificationService, dispatcher, logger, cfg.Notification)
	notificationWorker.RegisterHandlers()

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	app.Use(httptransport.RateLimitMiddleware(cfg.RateLimit))
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, batchClient, cfg.Storage.Bucket),
		Me:             handlers.NewMeHandler(notificationService),
		Friends:        handlers.NewFriendsHandler(friendshipService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Media:          handlers.NewMediaHandler(mediaService),
		Tasks:          handlers.NewTasksHandler(taskService),
		Admin:          handlers.NewAdminHandler(mediaService, taskService, metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	if closer, ok := dispatcher.(interface{ Close() }); ok {
		closer.Close()
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
