package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"campus-lms/backend/config"
	"campus-lms/backend/internal/api/handler"
	"campus-lms/backend/internal/api/middleware"
	"campus-lms/backend/internal/api/router"
	"campus-lms/backend/internal/repository"
	"campus-lms/backend/internal/service"
	"campus-lms/backend/pkg/database"
	applogger "campus-lms/backend/pkg/logger"
	"campus-lms/backend/pkg/mq"
	"campus-lms/backend/pkg/redis"
	"campus-lms/backend/pkg/tracing"
)

func main() {
	// 1. config
	cfg, err := config.Load(os.Getenv("CAMPUS_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. tracing
	shutdownTracer, err := tracing.InitTracer(context.Background(), &cfg.Tracing)
	if err != nil {
		logger.Fatal("init tracing failed", zap.Error(err))
	}

	// 4. database
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("connect database failed", zap.Error(err))
	}
	logger.Info("database connected")

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB failed", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("run migrations failed", zap.Error(err))
	}

	// 5. redis (optional: rate limiting is skipped without it)
	var (
		limiter middleware.Limiter
		cache   handler.Pinger
	)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
	} else {
		limiter, cache = rdb, rdb
	}

	// 6. message broker (optional: events are only logged without it)
	notifier := service.NewLogNotifier(logger)
	var publisher *mq.Publisher
	if cfg.MQ.Enabled {
		publisher, err = mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange)
		if err != nil {
			logger.Warn("rabbitmq unavailable, lecture events will only be logged", zap.Error(err))
		} else {
			notifier = service.NewMQNotifier(publisher)
			logger.Info("rabbitmq connected", zap.String("exchange", cfg.MQ.Exchange))
		}
	}

	// 7. wiring: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, notifier, logger)
	h := handler.NewHandler(svc, repo, cache)

	// 8. router
	engine := router.Setup(cfg, h, limiter, logger)

	// 9. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	if publisher != nil {
		publisher.Close()
	}
	if rdb != nil {
		rdb.Close()
	}
	sqlDB.Close()

	if err := shutdownTracer(ctx); err != nil {
		logger.Error("tracer shutdown failed", zap.Error(err))
	}

	logger.Info("server stopped")
}
