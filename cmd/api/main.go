package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"labmanager/internal/api"
	"labmanager/internal/config"
	"labmanager/internal/database"
	"labmanager/internal/events"
	"labmanager/internal/logging"
	"labmanager/internal/metrics"
	"labmanager/internal/repository"
	"labmanager/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("database init failed")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := events.NewEventBus()
	subscribeAuditLog(eventBus, &logger)

	metrics.Register()

	bookingService := service.NewBookingService(db, eventBus, &logger)
	userService := service.NewUserService(db, eventBus, &logger)
	resourceService := service.NewResourceService(db, &logger)
	sessionService := initSessionService(ctx, cfg, &logger)

	if err := resourceService.EnsureSeeded(ctx, cfg.Seed.ResourceCount, cfg.Seed.NameTemplate); err != nil {
		logger.Error().Err(err).Msg("resource seeding failed")
		return err
	}
	if err := userService.BootstrapAdmin(ctx, cfg.Admin.ExternalID, cfg.Admin.Password, cfg.Admin.Name); err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
		return err
	}

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	httpServer := api.NewHTTPServer(cfg.API, cfg.Exports, bookingService, userService, sessionService, resourceService, &logger)
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("API server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logging.Component(baseLogger, "api-main"), closer, nil
}

// initSessionService builds the Redis-backed session store with an in-memory
// fallback. When Redis is unreachable at start, sessions live in memory only.
func initSessionService(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *service.SessionService {
	ttl := time.Duration(cfg.API.SessionTTL) * time.Second
	memoryRepo := repository.NewMemorySessionRepository(ttl)

	if cfg.Redis.Address == "" {
		logger.Warn().Msg("redis address not configured, using in-memory sessions")
		return service.NewSessionService(memoryRepo, logger)
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable at start, sessions will fail over to memory")
	}

	redisRepo := repository.NewRedisSessionRepository(redisClient, ttl)
	failover := repository.NewFailoverSessionRepository(redisRepo, memoryRepo, logger)
	return service.NewSessionService(failover, logger)
}

func subscribeAuditLog(bus *events.EventBus, logger *zerolog.Logger) {
	auditLogger := logging.Component(logger, "audit")
	handler := func(event *events.Event) error {
		auditLogger.Info().
			Str("event_type", event.Type).
			RawJSON("payload", event.Payload).
			Msg("domain event")
		return nil
	}

	for _, eventType := range []string{
		events.EventBookingAdmitted,
		events.EventBookingRefused,
		events.EventUserRegistered,
		events.EventUserApproved,
		events.EventUserRemoved,
	} {
		bus.Subscribe(eventType, handler)
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("metrics listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
