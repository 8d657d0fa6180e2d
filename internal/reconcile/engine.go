// Package reconcile writes enriched line items into the inventory store:
// create-or-update per item, with per-item failure isolation.
package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/despensa-app/despensa/constants"
	"github.com/despensa-app/despensa/internal/common"
	"github.com/despensa-app/despensa/internal/entity"
	"github.com/despensa-app/despensa/internal/repository"
)

// FallbackBarcode is stored when enrichment found no catalog match.
const FallbackBarcode = "N/A"

// Result aggregates the outcome of one batch for the user-facing summary.
type Result struct {
	SuccessCount int
	Failures     []entity.ItemFailure
}

// Engine owns the LineItem -> InventoryRecord transition; no other component
// writes inventory records.
type Engine struct {
	repo   repository.InventoryRepository
	logger *slog.Logger
}

func NewEngine(repo repository.InventoryRepository, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{repo: repo, logger: logger}
}

// Reconcile processes items strictly in extraction order. Each item is
// matched against existing records by exact description: a hit increments
// that record's stock, a miss inserts a new record into the staging
// collection. One item's store failure never stops the rest of the batch.
func (e *Engine) Reconcile(ctx context.Context, items []entity.LineItem) Result {
	var res Result
	for _, item := range items {
		if err := e.reconcileOne(ctx, item); err != nil {
			e.logger.Error("reconcile.item_failed",
				"description", item.Description,
				"error", err,
			)
			res.Failures = append(res.Failures, entity.ItemFailure{Item: item, Error: err.Error()})
			continue
		}
		res.SuccessCount++
	}
	e.logger.Info("reconcile.batch_done",
		"items", len(items),
		"success", res.SuccessCount,
		"failures", len(res.Failures),
	)
	return res
}

func (e *Engine) reconcileOne(ctx context.Context, item entity.LineItem) error {
	barcode := item.Barcode
	if barcode == "" {
		barcode = FallbackBarcode
	}

	existing, err := e.repo.FindByDescription(ctx, item.Description)
	switch {
	case err == nil:
		return e.repo.ApplyPurchase(ctx, existing.ID, repository.PurchaseUpdate{
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			Barcode:       barcode,
			Establishment: item.Establishment,
			PurchasedAt:   item.PurchaseDate,
		})
	case errors.Is(err, common.ErrNotFound):
		_, err := e.repo.Create(ctx, &entity.InventoryRecord{
			Collection:      constants.Tiquet,
			Description:     item.Description,
			StockQuantity:   item.Quantity,
			UnitPrice:       item.UnitPrice,
			Barcode:         barcode,
			Establishment:   item.Establishment,
			InternalCode:    item.InternalCode,
			CreatedAt:       item.PurchaseDate,
			LastPurchasedAt: item.PurchaseDate,
		})
		return err
	default:
		return err
	}
}
