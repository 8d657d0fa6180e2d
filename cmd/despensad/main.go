package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/despensa-app/despensa/internal/async"
	"github.com/despensa-app/despensa/internal/common"
	"github.com/despensa-app/despensa/internal/enrich"
	"github.com/despensa-app/despensa/internal/export"
	"github.com/despensa-app/despensa/internal/lookup"
	"github.com/despensa-app/despensa/internal/ocr"
	"github.com/despensa-app/despensa/internal/pipeline"
	"github.com/despensa-app/despensa/internal/reconcile"
	"github.com/despensa-app/despensa/internal/repository"
	"github.com/despensa-app/despensa/internal/server"
)

type dbHealth struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func (d dbHealth) HealthCheck(ctx context.Context) error {
	return repository.HealthCheck(ctx, d.pool, d.logger)
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.HealthCheck(ctx, pool, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	repo := repository.NewPostgresRepository(pool, logger)

	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract: cfg.OCR.Tesseract,
		Language:  cfg.OCR.Language,
		PSM:       cfg.OCR.PSM,
	}, logger)

	catalog := lookup.NewHTTPClient(cfg.Lookup.BaseURL, cfg.Lookup.Timeout, logger)
	enricher := enrich.NewEnricher(catalog, cfg.Lookup.Timeout, logger)
	engine := reconcile.NewEngine(repo, logger)
	processor := pipeline.NewProcessor(logger, extractor, enricher, engine)

	queue := async.NewProcessorQueue(processor, logger,
		async.WithQueueSize(64),
		async.WithProcessTimeout(2*time.Minute),
	)

	threshold := decimal.NewFromFloat(cfg.Stock.LowStockThreshold)
	srv := server.New(server.Options{
		Processor:         processor,
		Queue:             queue,
		Repository:        repo,
		Exporter:          export.NewService(repo, logger),
		Catalog:           catalog,
		Health:            dbHealth{pool: pool, logger: logger},
		LowStockThreshold: threshold,
		Logger:            logger,
	})

	go func() {
		if err := srv.Listen(cfg.Server.Addr); err != nil {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
}
