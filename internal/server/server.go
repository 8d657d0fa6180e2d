// Package server exposes the ingestion pipeline and the inventory over HTTP.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/despensa-app/despensa/internal/async"
	"github.com/despensa-app/despensa/internal/common"
	"github.com/despensa-app/despensa/internal/export"
	"github.com/despensa-app/despensa/internal/lookup"
	"github.com/despensa-app/despensa/internal/pipeline"
	"github.com/despensa-app/despensa/internal/repository"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Server struct {
	app       *fiber.App
	logger    *slog.Logger
	validator *validator.Validate

	processor *pipeline.Processor
	queue     async.Queue
	repo      repository.InventoryRepository
	exporter  *export.Service
	catalog   lookup.Client
	health    HealthChecker

	lowStockThreshold decimal.Decimal
	previews          *previewStore
}

type Options struct {
	Processor         *pipeline.Processor
	Queue             async.Queue
	Repository        repository.InventoryRepository
	Exporter          *export.Service
	Catalog           lookup.Client
	Health            HealthChecker
	LowStockThreshold decimal.Decimal
	Logger            *slog.Logger
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		logger:            logger,
		validator:         validator.New(),
		processor:         opts.Processor,
		queue:             opts.Queue,
		repo:              opts.Repository,
		exporter:          opts.Exporter,
		catalog:           opts.Catalog,
		health:            opts.Health,
		lowStockThreshold: opts.LowStockThreshold,
		previews:          newPreviewStore(10 * time.Minute),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "despensad",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Use(s.requestID)

	s.app.Get("/healthz", s.handleHealth)

	s.app.Post("/receipts", s.handleReceiptPreview)
	s.app.Post("/receipts/confirm", s.handleReceiptConfirm)

	s.app.Get("/items", s.handleListItems)
	s.app.Post("/items", s.handleCreateItem)
	s.app.Post("/items/:id/adjust", s.handleAdjustStock)
	s.app.Get("/shopping-list", s.handleShoppingList)
	s.app.Get("/export/stock.xlsx", s.handleExportStock)
}

// requestID stamps every request so pipeline logs can be correlated.
func (s *Server) requestID(c *fiber.Ctx) error {
	id := c.Get("X-Request-Id")
	if id == "" {
		id = uuid.NewString()
	}
	c.Locals("request_id", id)
	c.Set("X-Request-Id", id)
	c.SetUserContext(common.WithRequestID(c.UserContext(), id))
	return c.Next()
}

// user reads the submitting user's identity. An empty value surfaces later
// as ErrNoSession in the pipeline, or here for inventory routes. The header
// value is backed by fiber's reused request buffer, so it is copied before
// it can outlive the handler (preview store, worker queue).
func (s *Server) user(c *fiber.Ctx) string {
	return utils.CopyString(c.Get("X-User"))
}

// Listen blocks serving HTTP until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	if s.health != nil {
		if err := s.health.HealthCheck(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"error":  err.Error(),
			})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
