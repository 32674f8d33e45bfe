package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/community-tickets/internal/api/http"
	"github.com/spec-kit/community-tickets/internal/api/http/handlers"
	"github.com/spec-kit/community-tickets/internal/auth"
	"github.com/spec-kit/community-tickets/internal/config"
	"github.com/spec-kit/community-tickets/internal/events"
	"github.com/spec-kit/community-tickets/internal/gateway"
	"github.com/spec-kit/community-tickets/internal/observability"
	"github.com/spec-kit/community-tickets/internal/persistence"
	"github.com/spec-kit/community-tickets/internal/repository"
	"github.com/spec-kit/community-tickets/internal/sequence"
	"github.com/spec-kit/community-tickets/internal/service"
	"github.com/spec-kit/community-tickets/internal/worker"
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
	ticketRepo := repository.NewTicketRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)

	var allocator sequence.Allocator
	switch cfg.Tickets.SequenceBackend {
	case config.SequenceBackendRedis:
		allocator = sequence.NewRedisAllocator(redis.Client, settingsRepo, logger)
	default:
		allocator = sequence.NewStoreAllocator(settingsRepo)
	}

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	// Stands in for the chat platform until a real gateway adapter is
	// configured.
	stub := gateway.NewLoggingStub(logger)

	teardown := worker.NewTeardownScheduler(stub, logger, cfg.Tickets.TeardownDelay())
	defer teardown.Stop()

	provisioningService := service.NewProvisioningService(service.ProvisioningDependencies{
		TicketRepo:    ticketRepo,
		SettingsRepo:  settingsRepo,
		CategoryRepo:  categoryRepo,
		Allocator:     allocator,
		Routing:       stub,
		Notifications: stub,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		TicketRepo:   ticketRepo,
		SettingsRepo: settingsRepo,
		CategoryRepo: categoryRepo,
		Routing:      stub,
		Dispatcher:   dispatcher,
		Teardown:     teardown,
		Logger:       logger,
	})
	categoryService := service.NewCategoryService(categoryRepo, settingsRepo)
	settingsService := service.NewSettingsService(settingsRepo)

	auditService := service.NewAuditService(dispatcher, ticketRepo, stub, logger)
	transcriptService := service.NewTranscriptService(service.TranscriptDependencies{
		Dispatcher:    dispatcher,
		TicketRepo:    ticketRepo,
		SettingsRepo:  settingsRepo,
		Transcripts:   stub,
		Notifications: stub,
		Logger:        logger,
	})
	worker.StartEventSubscribers(auditService, transcriptService)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewMiddleware(tokens)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:        handlers.NewTicketsHandler(provisioningService, lifecycleService),
		Categories:     handlers.NewCategoriesHandler(categoryService),
		Settings:       handlers.NewSettingsHandler(settingsService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
