package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/comexdesk/broker-portal/internal/api/http"
	"github.com/comexdesk/broker-portal/internal/api/http/handlers"
	"github.com/comexdesk/broker-portal/internal/auth"
	"github.com/comexdesk/broker-portal/internal/config"
	"github.com/comexdesk/broker-portal/internal/events"
	"github.com/comexdesk/broker-portal/internal/observability"
	"github.com/comexdesk/broker-portal/internal/persistence"
	"github.com/comexdesk/broker-portal/internal/provider"
	"github.com/comexdesk/broker-portal/internal/provider/local"
	"github.com/comexdesk/broker-portal/internal/provider/memory"
	pgprofiles "github.com/comexdesk/broker-portal/internal/provider/postgres"
	"github.com/comexdesk/broker-portal/internal/provider/rediscache"
	"github.com/comexdesk/broker-portal/internal/provider/viacep"
	"github.com/comexdesk/broker-portal/internal/repository"
	"github.com/comexdesk/broker-portal/internal/service"
	"github.com/comexdesk/broker-portal/internal/session"
	"github.com/comexdesk/broker-portal/internal/worker"
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

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var profiles provider.ProfileStore
	if pool := pg.PoolHandle(); pool != nil {
		profiles = pgprofiles.NewProfileStore(pool)
	} else {
		logger.Warn("no postgres pool; using in-memory profile store")
		profiles = memory.NewProfileStore()
	}
	if redis.Ping(ctx) == nil {
		profiles = rediscache.New(profiles, redis.Client, cfg.Redis.ProfileCacheExpiry(), logger)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	identities := local.New(tokens, cfg.Auth.BcryptCost, logger)

	resolver := session.NewResolver(identities, profiles, tokens, logger, cfg.Auth.ResolverRetryDelay())
	go resolver.Run(ctx)

	dispatcher := events.NewInMemoryDispatcher()
	objects := memory.NewObjectStore()
	postal := viacep.New(cfg.Postal.BaseURL, cfg.Postal.Timeout())

	registrationService := service.NewRegistrationService(service.RegistrationDependencies{
		IdentityProvider: identities,
		ProfileStore:     profiles,
		PostalLookup:     postal,
	}, logger)
	profileService := service.NewProfileService(profiles, dispatcher, logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketStore: repository.NewMemoryTicketStore(),
		Dispatcher:  dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)
	worker.WireForcedSignOut(dispatcher, resolver)

	metrics := observability.NewMetrics()
	authMiddleware := auth.NewMiddleware(tokens, profiles)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Accounts:       handlers.NewAccountsHandler(registrationService, profileService, identities),
		Tickets:        handlers.NewTicketsHandler(ticketService, profiles, objects),
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
