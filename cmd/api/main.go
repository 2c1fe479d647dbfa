package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/catalog-hub/catalog-service/internal/api/http"
	"github.com/catalog-hub/catalog-service/internal/api/http/handlers"
	"github.com/catalog-hub/catalog-service/internal/auth"
	"github.com/catalog-hub/catalog-service/internal/config"
	"github.com/catalog-hub/catalog-service/internal/events"
	"github.com/catalog-hub/catalog-service/internal/observability"
	"github.com/catalog-hub/catalog-service/internal/persistence"
	"github.com/catalog-hub/catalog-service/internal/repository"
	"github.com/catalog-hub/catalog-service/internal/service"
	"github.com/catalog-hub/catalog-service/internal/worker"
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

	userRepo := repository.NewMemoryUserRepository()
	if pool := pg.PoolHandle(); pool != nil {
		userRepo = repository.NewUserRepository(pool)
	} else {
		logger.Warn("using in-memory user store; accounts are lost on restart")
	}

	dispatcher := events.NewInMemoryDispatcher()
	var activityWorker *worker.ActivityWorker
	if stream := persistence.NewActivityStream(redis, cfg.Redis.ActivityStream, cfg.Redis.ActivityMaxLen); stream != nil {
		activityWorker = worker.NewActivityWorker(stream, 256, logger)
	}
	worker.StartActivityWorker(dispatcher, service.NewActivityService(dispatcher, logger), activityWorker)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	sessions := auth.NewSessionPolicy(cfg.Auth.SessionCookie, cfg.App.SecureCookies(), authService.TokenManager().TTL())
	extractor := auth.NewIdentityExtractor(authService.TokenManager(), userRepo, sessions.CookieName())
	authMiddleware := auth.NewAuthMiddleware(extractor)

	app := httptransport.NewApp(cfg.App.Name, cfg.App.BodyLimitBytes)
	metrics := observability.NewMetrics()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.CORS.AllowedOrigins)

	health := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version,
		handlers.Check{Name: "postgres", Pinger: pg},
		handlers.Check{Name: "redis", Pinger: redis},
	)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         health,
		Auth:           handlers.NewAuthHandler(authService, sessions, extractor),
		Users:          handlers.NewUsersHandler(authService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", string(cfg.App.Env)))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	if activityWorker != nil {
		activityWorker.Stop()
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
