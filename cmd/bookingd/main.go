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

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"facility-booking-backend/config"
	"facility-booking-backend/internal/api"
	"facility-booking-backend/internal/archiver"
	"facility-booking-backend/internal/db"
	"facility-booking-backend/internal/document"
	"facility-booking-backend/internal/events"
	"facility-booking-backend/internal/metrics"
	"facility-booking-backend/internal/notification"
	"facility-booking-backend/internal/service"
	"facility-booking-backend/internal/store"
)

func main() {
	// A missing .env is fine; the variables may come from the environment.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	logger.Info().Str("path", configPath).Str("env", cfg.Env).Msg("configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gormDB, err := db.Init(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database initialized")

	appStore := store.NewGormStore(gormDB)

	var facilities store.FacilityDirectory = appStore
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, facility cache disabled")
		} else {
			ttl := time.Duration(cfg.Redis.FacilityCacheTTLSeconds) * time.Second
			facilities = store.NewCachedDirectory(appStore, rdb, ttl, logger)
			logger.Info().Str("addr", cfg.Redis.Addr).Msg("facility cache enabled")
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			logger.Warn().Err(err).Msg("amqp unavailable, booking events disabled")
		} else {
			publisher = p
			logger.Info().Str("exchange", cfg.Events.Exchange).Msg("booking events enabled")
		}
	}
	defer publisher.Close()

	var webpushOptions *webpush.Options
	var notifier service.Notifier
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appStore, webpushOptions, cfg.Location(), logger)
		pool.Start(ctx)
		notifier = pool
	} else {
		logger.Warn().Msg("VAPID keys not configured, push notifications disabled")
	}

	if cfg.Metrics.Enabled {
		metrics.Register(prometheus.DefaultRegisterer)
	}

	bookings := service.NewBookingService(
		appStore,
		facilities,
		document.NewIntake(cfg.Documents.MaxBytes, cfg.Documents.AllowedTypes),
		publisher,
		notifier,
		service.Options{
			Location:        cfg.Location(),
			PerItem:         cfg.ProcessingPerItem(),
			EnforceFacility: cfg.Booking.EnforceFacility,
		},
		logger,
	)

	if cfg.Archiver.Enabled {
		sweeper := archiver.NewService(bookings, cfg.Archiver.Interval, cfg.Archiver.BatchSize, logger)
		go sweeper.Run(ctx)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := api.NewHandler(api.Deps{
		Bookings:      bookings,
		Facilities:    facilities,
		Subscriptions: appStore,
		DB:            appStore,
		WebPush:       webpushOptions,
		Location:      cfg.Location(),
	}, logger)

	routerOpts := api.Options{
		RateLimit:      rate.Limit(cfg.Server.RateLimitPerSec),
		RateBurst:      cfg.Server.RateLimitBurst,
		CacheTTL:       cfg.CacheTTL(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}
	if cfg.Metrics.Enabled {
		routerOpts.MetricsPath = cfg.Metrics.Path
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(handler, routerOpts, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server ListenAndServe")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutdown signal received, stopping services")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server Shutdown")
		return
	}

	logger.Info().Msg("server gracefully stopped")
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Str("service", "bookingd").Logger()
}
