package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/tour-booking/internal/config"
	"github.com/iliyamo/tour-booking/internal/database"
	"github.com/iliyamo/tour-booking/internal/handler"
	"github.com/iliyamo/tour-booking/internal/logger"
	"github.com/iliyamo/tour-booking/internal/mailer"
	"github.com/iliyamo/tour-booking/internal/middleware"
	"github.com/iliyamo/tour-booking/internal/queue"
	"github.com/iliyamo/tour-booking/internal/repository"
	"github.com/iliyamo/tour-booking/internal/router"
	"github.com/iliyamo/tour-booking/internal/service"
	"github.com/iliyamo/tour-booking/internal/utils"
	"github.com/iliyamo/tour-booking/internal/view"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	db, err := database.Open(cfg.DB)
	if err != nil {
		zl.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(cfg.DB, zl); err != nil {
			zl.Fatal("migrate database", zap.Error(err))
		}
	}

	// Redis is optional: without it rate limiting and caching are skipped.
	rdb := config.NewRedisClient()
	if rdb == nil {
		zl.Warn("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()
	purger := middleware.NewCachePurger(cacheCfg, rdb)

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.ReviewEventsEnabled {
		events = service.NewAMQPPublisher(cfg.RabbitMQURL, zl)
	}

	// repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	tours := repository.NewTourRepo(db)
	reviews := repository.NewReviewRepo(db)

	// services
	authSvc := &service.AuthService{
		Users:  users,
		Resets: service.NewResetTokens(tokens, cfg.Security.ResetTokenTTL),
		Tokens: utils.NewSessionTokens(cfg.JWT.Secret, cfg.JWT.ExpiresIn),
		Creds:  service.Credentials{Cost: cfg.Security.BcryptCost},
		Mailer: mailer.New(cfg.SMTP),
		Logger: zl,
	}
	userSvc := &service.UserService{Users: users, Cache: purger, Logger: zl}
	tourSvc := &service.TourService{Tours: tours, Reviews: reviews, Cache: purger, Logger: zl}
	reviewSvc := &service.ReviewService{
		Reviews:    reviews,
		Tours:      tours,
		Aggregator: &service.RatingAggregator{Reviews: reviews, Tours: tours, Cache: purger, Logger: zl},
		Events:     events,
		Logger:     zl,
	}

	renderer, err := view.New()
	if err != nil {
		zl.Fatal("parse templates", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(zl, cfg.IsProduction())

	e.Use(middleware.RequestID())
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(zl))
	e.Use(echomw.SecureWithConfig(echomw.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		HSTSMaxAge:         31536000,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	protect := middleware.Protect(authSvc)
	isLoggedIn := middleware.IsLoggedIn(authSvc)
	cache := middleware.NewRedisCache(cacheCfg, rdb, service.CacheGroupTours)

	api := e.Group("/api/v1",
		echomw.BodyLimit("10K"),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, zl),
	)

	authH := handler.NewAuthHandler(cfg, authSvc)
	userH := handler.NewUserHandler(userSvc)
	tourH := handler.NewTourHandler(tourSvc)
	reviewH := handler.NewReviewHandler(reviewSvc)

	router.RegisterRoutes(e)
	router.RegisterUsers(api, authH, userH, protect)
	router.RegisterTours(api, tourH, reviewH, protect, cache)
	router.RegisterReviews(api, reviewH, protect)
	router.RegisterViews(e, handler.NewViewHandler(tourSvc, userSvc), protect, isLoggedIn)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ReviewEventsEnabled {
		consumer := queue.ReviewConsumer{URL: cfg.RabbitMQURL, LogDir: "logs", Logger: zl}
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zl.Error("review consumer stopped", zap.Error(err))
			}
		}()
	}

	addr := ":" + cfg.Port
	go func() {
		zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}
