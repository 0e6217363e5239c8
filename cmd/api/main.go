package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"docingest/internal/auth"
	"docingest/internal/classifier"
	"docingest/internal/classifier/gemini"
	"docingest/internal/config"
	"docingest/internal/database"
	"docingest/internal/database/migration"
	"docingest/internal/derivative"
	"docingest/internal/events"
	handlers "docingest/internal/http/handler"
	"docingest/internal/http/middleware"
	"docingest/internal/logging"
	"docingest/internal/metrics"
	"docingest/internal/otel"
	"docingest/internal/repository/postgres"
	"docingest/internal/resilience"
	"docingest/internal/service"
	"docingest/internal/storage"
)

// @title Document Ingestion API
// @version 1.0
// @description Classifies and stores medical document images.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	db, err := database.NewPostgres(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, logger); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	files, err := newStorage(cfg)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}

	oracle, err := gemini.New(gemini.Options{
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.Model,
		APIKey:  cfg.Gemini.APIKey,
		Timeout: cfg.Gemini.Timeout,
	})
	if err != nil {
		return fmt.Errorf("initialize classifier: %w", err)
	}
	policy := resilience.DefaultPolicy()
	policy.MaxAttempts = cfg.Classifier.RetryMaxAttempts
	policy.BreakerEnabled = cfg.Classifier.BreakerEnabled
	classify := classifier.New(oracle,
		classifier.WithRateLimit(cfg.Classifier.RatePerSecond, cfg.Classifier.Burst),
		classifier.WithPolicy(policy),
		classifier.WithTimeout(cfg.Classifier.CallTimeout),
		classifier.WithLogger(logger.Named("classifier")),
	)

	store := postgres.NewStore(db)
	tokens, err := auth.NewJWT(cfg.Auth.JWTSecret, store)
	if err != nil {
		return fmt.Errorf("initialize auth: %w", err)
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.NATS.URL != "" {
		nc, err := events.NewNATS(cfg.NATS.URL, cfg.NATS.Subject, events.Options{}, logger.Named("events"))
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		defer nc.Close()
		publisher = nc
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ingestMetrics, err := metrics.NewIngestion(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	svc := service.NewIngestService(service.Deps{
		Generator:  derivative.New(),
		Classifier: classify,
		Store:      store,
		Files:      files,
		Auth:       tokens,
		Tokens:     tokens,
		Events:     publisher,
		Metrics:    ingestMetrics,
		Log:        logger.Named("ingest"),
	}, service.Limits{
		MaxFiles:    cfg.Upload.MaxFiles,
		MaxFileSize: cfg.Upload.MaxFileSize,
		Concurrency: cfg.Classifier.Concurrency,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// A full batch plus room for the text fields.
		BodyLimit:    cfg.Upload.MaxFiles*int(cfg.Upload.MaxFileSize) + 1<<20,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger.Named("http")))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	handlers.RegisterRoutes(app, db, svc, logger)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", handlers.SwaggerUI())

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("port", cfg.Port), zap.String("storage", cfg.Storage.Backend))
		errc <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return app.ShutdownWithTimeout(30 * time.Second)
}

func newStorage(cfg *config.AppConfig) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "local", "":
		return storage.NewLocal(cfg.Storage.LocalDir)
	case "minio":
		return storage.NewMinIO(cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
