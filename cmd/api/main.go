package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/inventory-service/internal/api/http"
	"github.com/spec-kit/inventory-service/internal/api/http/handlers"
	"github.com/spec-kit/inventory-service/internal/auth"
	"github.com/spec-kit/inventory-service/internal/config"
	"github.com/spec-kit/inventory-service/internal/events"
	"github.com/spec-kit/inventory-service/internal/mail"
	"github.com/spec-kit/inventory-service/internal/observability"
	"github.com/spec-kit/inventory-service/internal/persistence"
	"github.com/spec-kit/inventory-service/internal/repository"
	"github.com/spec-kit/inventory-service/internal/repository/memory"
	"github.com/spec-kit/inventory-service/internal/service"
	"github.com/spec-kit/inventory-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

type repositories struct {
	users      repository.UserRepository
	categories repository.CategoryRepository
	suppliers  repository.SupplierRepository
	products   repository.ProductRepository
}

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
		if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable; falling back to in-memory storage", zap.Error(err))
	}
	defer redis.Close()

	repos := newRepositories(pg, logger)

	mailer, err := mail.NewSMTPMailer(cfg.SMTP, cfg.Auth.OTPTTL, logger)
	if err != nil {
		logger.Fatal("failed to init mailer", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, mailer, logger, cfg.Auth.MailTimeout)
	worker.StartNotificationWorker(notifications, logger)

	deps := service.AuthDependencies{
		UserRepo:   repos.users,
		Mailer:     mailer,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
	if redis.Enabled() {
		deps.Cooldown = redis
	}
	authService, err := service.NewAuthService(*cfg, deps)
	if err != nil {
		logger.Fatal("failed to init auth service", zap.Error(err))
	}
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.users)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:     cfg.App.RequestTimeout,
		CORSOrigins: cfg.CORS.AllowOrigins,
	})

	var limiterStorage fiber.Storage
	var healthDeps []handlers.Dependency
	if pg.Pool != nil {
		healthDeps = append(healthDeps, handlers.Dependency{Name: "postgres", Pinger: pg})
	}
	if redis.Enabled() {
		limiterStorage = persistence.NewRedisStorage(redis.Client, "limiter:")
		healthDeps = append(healthDeps, handlers.Dependency{Name: "redis", Pinger: redis})
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		BasePath:       cfg.App.BasePath,
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, healthDeps...),
		Auth:           handlers.NewAuthHandler(authService),
		Products:       handlers.NewProductsHandler(service.NewProductService(repos.products)),
		Categories:     handlers.NewCategoriesHandler(service.NewCategoryService(repos.categories, repos.products)),
		Suppliers:      handlers.NewSuppliersHandler(service.NewSupplierService(repos.suppliers, repos.products)),
		AuthMiddleware: authMiddleware,
		AuthLimiter:    httptransport.NewAuthLimiter(cfg.RateLimit, limiterStorage),
	})

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newRepositories(pg *persistence.Postgres, logger *zap.Logger) repositories {
	if pg.Pool == nil {
		logger.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return repositories{
			users:      store.Users(),
			categories: store.Categories(),
			suppliers:  store.Suppliers(),
			products:   store.Products(),
		}
	}
	return repositories{
		users:      repository.NewUserRepository(pg.Pool),
		categories: repository.NewCategoryRepository(pg.Pool),
		suppliers:  repository.NewSupplierRepository(pg.Pool),
		products:   repository.NewProductRepository(pg.Pool),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
