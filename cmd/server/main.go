package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"frontdesk/internal/api"
	"frontdesk/internal/audit"
	"frontdesk/internal/cache"
	"frontdesk/internal/config"
	"frontdesk/internal/database"
	"frontdesk/internal/events"
	"frontdesk/internal/ledger"
	"frontdesk/internal/metrics"
	"frontdesk/internal/notify"
	"frontdesk/internal/schedule"
	"frontdesk/internal/scheduling"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("FRONTDESK_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	roomsCfg, err := config.LoadRoomsConfig(cfg.RoomsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load rooms config")
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.SyncReferenceData(ctx, roomsCfg); err != nil {
		logger.Fatal().Err(err).Msg("sync rooms and weekly grid")
	}

	var rdb *redis.Client
	var availCache *cache.AvailabilityCache
	if cfg.Redis.Address != "" && cfg.Redis.CacheTTLSeconds > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		availCache = cache.New(rdb, time.Duration(cfg.Redis.CacheTTLSeconds)*time.Second, logger)
		logger.Info().Str("address", cfg.Redis.Address).Msg("availability cache enabled")
	}

	bus := events.NewBus()
	audit.NewRecorder(db, logger).SubscribeAll(bus)

	var notifier *notify.Notifier
	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" {
		notifier, err = notify.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("create telegram notifier")
		}
		notifier.SubscribeAll(bus)
		logger.Info().Int64("chat_id", cfg.Telegram.ChatID).Msg("telegram notifications enabled")
	}

	led := ledger.New(db, logger)
	catalog := schedule.NewCatalog(db, db)
	svc := scheduling.NewService(catalog, led, db, db, db, availCache, bus, scheduling.Options{
		GranularityMinutes: cfg.Booking.GranularityMinutes,
		AllowedDurations:   cfg.Booking.AllowedDurations,
	}, logger)

	if notifier != nil {
		go notify.NewDigest(notifier, svc, cfg.Telegram.DigestHour, logger).Start(ctx)
	}

	go database.NewBackupService(db, database.BackupOptions{
		Enabled:       cfg.Backup.Enabled,
		StoragePath:   cfg.Backup.StoragePath,
		Interval:      time.Duration(cfg.Backup.IntervalHours) * time.Hour,
		RetentionDays: cfg.Backup.RetentionDays,
	}, logger).Start(ctx)

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	server := api.NewHTTPServer(svc, api.Options{
		Address:        cfg.Server.Address,
		APIKey:         cfg.Server.APIKey,
		RateLimit:      cfg.Server.RateLimit,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	}, logger)

	logger.Info().Msg("front desk service started")
	if err := server.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("HTTP server error")
	}
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
