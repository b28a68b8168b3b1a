// Command server runs the disaster warning service: a Kafka pipeline that
// scores incoming telemetry and an HTTP API for on-demand assessment and
// alert management.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"

	httpadapter "github.com/couchcryptid/disaster-warning-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/disaster-warning-service/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-warning-service/internal/adapter/model"
	"github.com/couchcryptid/disaster-warning-service/internal/alert"
	"github.com/couchcryptid/disaster-warning-service/internal/config"
	"github.com/couchcryptid/disaster-warning-service/internal/domain"
	"github.com/couchcryptid/disaster-warning-service/internal/observability"
	"github.com/couchcryptid/disaster-warning-service/internal/pipeline"
	"github.com/couchcryptid/disaster-warning-service/internal/risk"
	"github.com/couchcryptid/disaster-warning-service/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Stores: Postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		regions     store.RegionStore
		telemetry   store.TelemetryStore
		predictions store.PredictionStore
		alerts      store.AlertStore
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close() //nolint:errcheck
		if err := db.Ping(); err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		pg := store.NewPostgres(db)
		regions, telemetry, predictions, alerts = pg.Regions, pg.Telemetry, pg.Predictions, pg.Alerts
		logger.Info("using postgres stores")
	} else {
		mem := store.NewMemory(clock)
		regions, telemetry, predictions, alerts = mem.Regions, mem.Telemetry, mem.Predictions, mem.Alerts
		logger.Info("using in-memory stores", "hint", "set DATABASE_URL for persistence")
	}

	// ML model client (feature-flagged via MODEL_URL / MODEL_ENABLED).
	var predictor domain.Predictor
	if cfg.ModelEnabled {
		predictor = model.NewClient(cfg.ModelURL, cfg.ModelTimeout, logger, metrics)
		metrics.ModelEnabled.Set(1)
		logger.Info("ml model enabled", "url", cfg.ModelURL, "timeout", cfg.ModelTimeout)
	} else {
		logger.Info("ml model disabled, using rule-based scoring")
	}

	engine := risk.NewEngine(clock, logger)

	limiter := alert.NewRateLimiter(cfg.AlertCooldown, clock)
	delivery := alert.NewDeliveryLog(cfg.DeliveryLogPath)
	alertSvc := alert.NewService(limiter, predictions, alerts, delivery, logger, metrics, clock)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	assessor := pipeline.NewTelemetryAssessor(regions, telemetry, engine, predictor, alertSvc, logger, metrics)

	p := pipeline.New(reader, assessor, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, regions, engine, predictor, alertSvc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
