package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"opensails/docs"
	"opensails/internal/auth"
	"opensails/internal/cache"
	"opensails/internal/config"
	"opensails/internal/db"
	"opensails/internal/handler"
	"opensails/internal/logger"
	"opensails/internal/metrics"
	"opensails/internal/repository"
	"opensails/internal/router"
	"opensails/internal/service"
)

// @title Open Sails API
// @version 1.0
// @description Hardware marketplace API: collections, bids and the bid acceptance workflow.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	configPath := pflag.StringP("config", "c", "", "path to an optional YAML config file")
	pflag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN, db.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	defer sqlDB.Close()

	if cfg.ResetDB {
		log.Warn("RESET_DB set, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			return fmt.Errorf("reset database: %w", err)
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	log.Info("database ready", zap.String("driver", cfg.DBDriver))

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(context.Background()); err != nil {
		log.Warn("redis unreachable, serving without cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	tracker := metrics.New(true)
	caching := service.Caching{
		Client:      cacheClient,
		Invalidator: cache.NewInvalidator(cacheClient, log.Named("cache"), tracker),
		TTL:         cfg.CacheTTL,
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	collectionRepo := repository.NewCollectionRepository(gormDB)
	bidRepo := repository.NewBidRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	userService := service.NewUserService(userRepo, caching)
	collectionService := service.NewCollectionService(collectionRepo, bidRepo, caching)
	bidService := service.NewBidService(bidRepo, collectionRepo, userRepo, caching, tracker, log.Named("bids"))

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Deps{
		Logger:      log.Named("http"),
		Metrics:     tracker,
		JWT:         jwtService,
		TokenStore:  tokenStore,
		Database:    router.PingFunc(sqlDB.PingContext),
		Cache:       cacheClient,
		Auth:        handler.NewAuthHandler(authService, userService),
		Users:       handler.NewUserHandler(userService, bidService),
		Collections: handler.NewCollectionHandler(collectionService),
		Bids:        handler.NewBidHandler(bidService),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.ServerPort
	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr), zap.String("swagger", "/swagger/index.html"))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
