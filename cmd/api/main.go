package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/gym-targets/internal/api/http"
	"github.com/spec-kit/gym-targets/internal/api/http/handlers"
	"github.com/spec-kit/gym-targets/internal/auth"
	"github.com/spec-kit/gym-targets/internal/config"
	"github.com/spec-kit/gym-targets/internal/events"
	"github.com/spec-kit/gym-targets/internal/observability"
	"github.com/spec-kit/gym-targets/internal/persistence"
	"github.com/spec-kit/gym-targets/internal/repository"
	"github.com/spec-kit/gym-targets/internal/service"
	"github.com/spec-kit/gym-targets/internal/worker"
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
		if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.DefaultMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	pool := pg.Pool
	userRepo := repository.NewUserRepository(pool)
	targetRepo := repository.NewTargetRepository(pool)
	departmentTargetRepo := repository.NewDepartmentTargetRepository(pool)
	trainerTargetRepo := repository.NewTrainerTargetRepository(pool)

	targetService := service.NewTargetService(service.TargetDependencies{
		TargetRepo:           targetRepo,
		DepartmentTargetRepo: departmentTargetRepo,
		TrainerTargetRepo:    trainerTargetRepo,
		UserRepo:             userRepo,
		BranchRepo:           repository.NewBranchRepository(pool),
		DepartmentRepo:       repository.NewDepartmentRepository(pool),
		Transactor:           repository.NewTransactor(pool),
		Dispatcher:           dispatcher,
		Metrics:              metrics,
		Logger:               logger,
	})
	trainerTargetService := service.NewTrainerTargetService(service.TrainerTargetDependencies{
		DepartmentTargetRepo: departmentTargetRepo,
		TrainerTargetRepo:    trainerTargetRepo,
		Dispatcher:           dispatcher,
		Metrics:              metrics,
		Logger:               logger,
	})
	authService := service.NewAuthService(cfg.Auth, userRepo)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	notificationService := service.NewNotificationService(dispatcher, userRepo, service.LogMailer{Logger: logger}, logger, cfg.Notification)
	worker.StartEventWorkers(dispatcher, notificationService, events.NewRedisPublisher(redis.Client, cfg.Events.RedisChannel))

	app := httptransport.NewServer(httptransport.ServerConfig{
		AppName:        cfg.App.Name,
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: cfg.App.RequestTimeout(),
		AllowOrigins:   cfg.App.CORSAllowOrigins,
	}, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Targets:        handlers.NewTargetsHandler(targetService),
		TrainerTargets: handlers.NewTrainerTargetsHandler(trainerTargetService),
		AuthMiddleware: authMiddleware,
		Metrics:        adaptor.HTTPHandler(promhttp.Handler()),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
