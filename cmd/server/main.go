package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/minseoan/podomarket/internal"
	"github.com/minseoan/podomarket/internal/auth"
	"github.com/minseoan/podomarket/internal/handler"
	"github.com/minseoan/podomarket/internal/middleware"
	"github.com/minseoan/podomarket/internal/postgres"
	"github.com/minseoan/podomarket/internal/router"
	"github.com/minseoan/podomarket/internal/routes"
	"github.com/minseoan/podomarket/internal/service"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for the application
	pool, err := postgres.NewPool(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize stores
	cartStore := postgres.NewCartStore(pool)
	variantStore := postgres.NewVariantStore(pool)
	policyStore := postgres.NewDeliveryPolicyStore(pool)

	// Initialize services
	cartService := service.NewCartService(cartStore, variantStore, policyStore, logger)

	// Initialize auth
	tokens := auth.NewTokenManager(cfg.JWTSecret, 2*time.Hour)

	// Initialize middleware
	metrics := middleware.NewMetrics("podomarket")
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer rateLimiter.Stop()

	// Build the router. Order matters: request ID and metrics wrap
	// everything, authentication runs before the request logger so user IDs
	// land in the log attributes.
	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		metrics.Middleware,
		middleware.MaxBodySize(cfg.MaxBodyBytes),
		middleware.Timeout(time.Duration(cfg.RequestTimeout)*time.Second),
		middleware.WithUser(tokens),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
	)

	routes.Register(r, routes.Deps{
		Cart:        handler.NewCartHandler(cartService, logger),
		Health:      handler.NewHealthHandler(pool),
		Metrics:     metrics,
		RequireUser: middleware.RequireUser,
		RateLimit:   rateLimiter.Middleware,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Starting server", "address", addr, "env", cfg.Env)

	if err := http.ListenAndServe(addr, r); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
