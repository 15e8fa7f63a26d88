package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/worker"
)

func main() {
	envFile := flag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	migrate := flag.Bool("migrate", true, "apply SQL migrations on startup (overridden by POSTGRES_RUN_MIGRATIONS=false)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
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

	if *migrate && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var repos repository.Set
	if pg.Enabled() {
		repos = repository.NewPostgresSet(pg.PoolHandle())
	} else {
		logger.Warn("using in-memory store; data is lost on restart")
		repos = memory.NewStore().Set()
	}

	tokenTTL := time.Duration(cfg.Auth.AccessTokenTTLMinutes) * time.Minute
	redisConn, revocations, closeRevocations := revocationStore(ctx, cfg, tokenTTL, logger)
	defer closeRevocations()

	principals, err := auth.NewPrincipalCache(ctx, cfg.Auth.PrincipalCacheTTL())
	if err != nil {
		logger.Fatal("failed to build principal cache", zap.Error(err))
	}
	defer principals.Close() //nolint:errcheck

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, metrics, cfg.Notification), logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		AccountRepo: repos.Accounts,
		Revocations: revocations,
		Principals:  principals,
		Logger:      logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  repos.Tickets,
		ServiceRepo: repos.Services,
		HistoryRepo: repos.History,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	technicianService := service.NewTechnicianService(*cfg, service.TechnicianDependencies{
		AccountRepo:    repos.Accounts,
		TechnicianRepo: repos.Technicians,
		TicketRepo:     repos.Tickets,
		Principals:     principals,
		Logger:         logger,
	})
	catalogService := service.NewCatalogService(service.CatalogDependencies{
		ServiceRepo: repos.Services,
		TicketRepo:  repos.Tickets,
		Logger:      logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.Accounts, revocations, principals)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	baseURL := cfg.App.PublicBaseURL
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisConn, metrics),
		Auth:           handlers.NewAuthHandler(authService, baseURL),
		Tickets:        handlers.NewTicketsHandler(ticketService, baseURL),
		Services:       handlers.NewServicesHandler(catalogService),
		Technicians:    handlers.NewTechniciansHandler(technicianService, baseURL),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.ShutdownWithTimeout(10 * time.Second)
}

// revocationStore prefers Redis and falls back to a process-local cache when
// Redis is unreachable. The returned Redis is nil in the fallback case.
func revocationStore(ctx context.Context, cfg *config.Config, tokenTTL time.Duration, logger *zap.Logger) (*persistence.Redis, auth.RevocationStore, func()) {
	redisConn := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err := redisConn.Ping(ctx); err == nil {
		return redisConn, auth.NewRedisRevocationStore(redisConn.Client), redisConn.Close
	}
	redisConn.Close()

	logger.Warn("redis unavailable; token revocation is process-local")
	local, err := auth.NewLocalRevocationStore(ctx, tokenTTL)
	if err != nil {
		logger.Fatal("failed to build revocation cache", zap.Error(err))
	}
	return nil, local, func() { _ = local.Close() }
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
