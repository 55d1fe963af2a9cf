package main

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/rizqapp/rizq-server/internal/booking"
	"github.com/rizqapp/rizq-server/internal/config"
	"github.com/rizqapp/rizq-server/internal/database"
	"github.com/rizqapp/rizq-server/internal/handler"
	"github.com/rizqapp/rizq-server/internal/logger"
	"github.com/rizqapp/rizq-server/internal/middleware"
	"github.com/rizqapp/rizq-server/internal/otp"
	"github.com/rizqapp/rizq-server/internal/queue"
	"github.com/rizqapp/rizq-server/internal/repository"
	"github.com/rizqapp/rizq-server/internal/router"
	"github.com/rizqapp/rizq-server/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if cfg.Migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		if err := database.Migrate(ctx, db, cfg.MigrationsDir); err != nil {
			cancel()
			log.Fatal("migrations failed", zap.Error(err))
		}
		cancel()
		if v, err := database.MigrationVersion(context.Background(), db); err == nil {
			log.Info("migrations applied", zap.Int64("version", v))
		}
	}

	// Redis is optional: without it caching is off, rate limiting falls
	// back in process and OTP login answers 503.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; caching disabled, limits in process, otp login offline")
	}

	var codes *otp.Store
	if rdb != nil {
		codes, err = otp.NewStore(rdb, time.Duration(cfg.OTPTTLMin)*time.Minute, cfg.BcryptCost)
		if err != nil {
			log.Fatal("otp store init failed", zap.Error(err))
		}
	}

	// Repositories.
	tutors := repository.NewTutorRepo(db)
	lessons := repository.NewLessonRepo(db)
	linkTokens := repository.NewLinkTokenRepo(db)
	resched := repository.NewRescheduleRepo(db)
	ratings := repository.NewRatingRepo(db)
	notes := repository.NewNotificationRepo(db)
	messages := repository.NewMessageRepo(db)
	availability := repository.NewAvailabilityRepo(db)
	sessions := repository.NewTokenRepo(db)

	notifier := service.NewNotifier(log)
	engine := booking.NewEngine(lessons, linkTokens, resched, ratings, tutors, notes, notifier, log)

	// Per-concern request budgets.
	rlCfg := config.LoadRateLimitConfig()
	bookingLimiter := middleware.NewLimiter(rlCfg, rlCfg.BookingMax, rdb)
	otpLimiter := middleware.NewLimiter(rlCfg, rlCfg.OTPMax, rdb)
	ratingLimiter := middleware.NewLimiter(rlCfg, rlCfg.RatingMax, rdb)

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, tutors, sessions, codes, otpLimiter, log), cfg.JWTSecret)
	router.RegisterPublic(e,
		handler.NewDiscoverHandler(tutors, ratings, availability),
		handler.NewPublicBookingHandler(engine, tutors, ratingLimiter, log),
		cache, bookingLimiter)
	router.RegisterTutor(e, cfg.JWTSecret,
		handler.NewTutorLessonHandler(engine, lessons, resched, cfg.BaseURL, log),
		handler.NewAvailabilityHandler(availability, lessons),
		handler.NewNotificationHandler(notes),
		handler.NewMessageHandler(messages),
		handler.NewProfileHandler(tutors, sessions, log))

	// Background consumer draining lifecycle events to logs/lessons.log.
	go queue.StartLessonConsumer(log.Named("queue"))

	addr := ":" + cfg.Port
	log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
