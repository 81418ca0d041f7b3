package main // Entry point package

import (
	"context" // Context for startup deadlines
	"log"     // Bootstrap logging before zap is ready
	"time"    // Timeout values

	"github.com/joho/godotenv" // Loads .env files into the environment
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/ordena/comandero/internal/config"
	"github.com/ordena/comandero/internal/database"
	"github.com/ordena/comandero/internal/events"
	"github.com/ordena/comandero/internal/handler"
	"github.com/ordena/comandero/internal/logger"
	"github.com/ordena/comandero/internal/middleware"
	"github.com/ordena/comandero/internal/repository"
	"github.com/ordena/comandero/internal/router"
)

func main() {
	_ = godotenv.Load() // Load .env if present; real env vars win

	cfg := config.Load() // Load environment config

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	// Open the tenant database and make sure the schema exists before any
	// handler can touch it.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.Open(ctx, database.Config{
		User:            cfg.DBUser,
		Pass:            cfg.DBPass,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpen,
		MaxIdleConns:    cfg.DBMaxIdle,
		ConnMaxLifetime: cfg.DBConnLifetime,
	})
	cancel()
	if err != nil {
		zl.Fatal("database open failed", zap.Error(err))
	}
	defer db.Close()

	// Redis backs the rate limiter and the short-TTL response cache.  A nil
	// client means Redis is unreachable; both middlewares fail open, so the
	// server still starts.
	rdb := config.NewRedisClient()
	if rdb == nil {
		zl.Warn("redis unavailable, rate limiting and response cache disabled")
	}

	// Event publisher: kitchen displays tail the broker queue.  Publishing
	// is best-effort, so an unreachable broker only produces warnings.
	pub := events.NewAMQPPublisher(events.BrokerURL(), zl)

	tickets := repository.NewTicketRepo(db)
	staging := repository.NewStagingRepo(db)
	areas := repository.NewAreaRepo(db)
	products := repository.NewProductRepo(db)
	payments := repository.NewPaymentRepo(db)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	// The response cache keys on the resolved tenant, so it must run after
	// TenantAuth; RegisterAPI mounts it inside the authenticated group.
	var apiMW []echo.MiddlewareFunc
	if rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		apiMW = append(apiMW, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	}

	router.RegisterRoutes(e)
	router.RegisterStaging(e, handler.NewStagingHandler(staging, products, pub, zl))
	router.RegisterAPI(e,
		handler.NewTicketHandler(tickets, pub, zl),
		handler.NewCatalogHandler(areas, products),
		handler.NewPaymentHandler(payments, zl),
		cfg.JWTSecret,
		apiMW...,
	)

	addr := ":" + cfg.Port
	zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))

	if err := e.Start(addr); err != nil { // Start HTTP server
		zl.Fatal("server stopped", zap.Error(err))
	}
}
