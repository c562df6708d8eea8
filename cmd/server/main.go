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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meetlite/meetlite/internal/events"
	"github.com/meetlite/meetlite/internal/handler"
	"github.com/meetlite/meetlite/internal/repository"
	"github.com/meetlite/meetlite/internal/service"
	"github.com/meetlite/meetlite/pkg/config"
	"github.com/meetlite/meetlite/pkg/database"
	"github.com/meetlite/meetlite/pkg/logger"
	"github.com/meetlite/meetlite/pkg/middleware"
	pkgredis "github.com/meetlite/meetlite/pkg/redis"
	"github.com/meetlite/meetlite/pkg/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       logLevel(cfg),
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := logger.Get()
	defer func() { _ = log.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   2 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	redisClient, err := pkgredis.New(ctx, &pkgredis.Config{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		// The limiter fails open without Redis; admission control does not
		// depend on it.
		log.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		kafkaPub, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, log)
		if err != nil {
			log.Warn("kafka unavailable, domain events disabled", zap.Error(err))
		} else {
			publisher = kafkaPub
			defer kafkaPub.Close()
		}
	}

	pool := db.Pool()
	ledgerRepo := repository.NewPostgresLedgerRepository(pool)
	attendanceRepo := repository.NewPostgresAttendanceRepository(pool)
	eventRepo := repository.NewPostgresEventRepository(pool)
	userRepo := repository.NewPostgresUserRepository(pool)

	rsvpService := service.NewRSVPService(ledgerRepo, attendanceRepo, eventRepo, publisher, log, service.RSVPOptions{
		CompensationRetries: cfg.RSVP.CompensationRetries,
		CompensationBackoff: cfg.RSVP.CompensationBackoff,
	})
	eventService := service.NewEventService(eventRepo, publisher)
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)

	rateLimit := middleware.DefaultRateLimitConfig()
	rateLimit.RequestsPerSecond = cfg.RSVP.JoinRatePerSecond
	rateLimit.BurstSize = cfg.RSVP.JoinBurst
	rateLimit.RedisClient = redisClient

	router := handler.NewRouter(&handler.RouterConfig{
		Logger:    log,
		JWTSecret: cfg.JWT.Secret,
		RateLimit: rateLimit,
		DB:        db,
		Redis:     redisClient,
	},
		handler.NewAuthHandler(authService),
		handler.NewEventHandler(eventService),
		handler.NewRSVPHandler(rsvpService),
	)

	if cfg.RSVP.ReconcileInterval > 0 {
		reconciler := service.NewReconciler(ledgerRepo, log, cfg.RSVP.ReconcileInterval)
		go reconciler.Run(ctx)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.App.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func logLevel(cfg *config.Config) string {
	if cfg.App.Debug {
		return "debug"
	}
	return "info"
}
