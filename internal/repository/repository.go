// Package repository persists inventory records. The store is a set of named
// collections (storage areas) supporting equality queries, inserts, and
// field updates by id; no cross-document transactions.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/despensa-app/despensa/constants"
	"github.com/despensa-app/despensa/internal/entity"
)

// PurchaseUpdate carries the fields a successful reconciliation-as-update
// overwrites on an existing record. CreatedAt is never touched.
type PurchaseUpdate struct {
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	Barcode       string
	Establishment constants.Establishment
	PurchasedAt   time.Time
}

type InventoryRepository interface {
	// FindByDescription scans every collection in constants.ScanOrder for an
	// exact description match and returns the first hit, or ErrNotFound.
	FindByDescription(ctx context.Context, description string) (*entity.InventoryRecord, error)

	// Create inserts a new record into rec.Collection.
	Create(ctx context.Context, rec *entity.InventoryRecord) (*entity.InventoryRecord, error)

	// ApplyPurchase increments stock by upd.Quantity and overwrites price,
	// barcode, establishment and last_purchased_at on the record.
	ApplyPurchase(ctx context.Context, id uuid.UUID, upd PurchaseUpdate) error

	GetByID(ctx context.Context, id uuid.UUID) (*entity.InventoryRecord, error)
	List(ctx context.Context, collection constants.Collection) ([]*entity.InventoryRecord, error)

	// AdjustStock adds delta (negative for withdrawals) to a record's stock.
	// A withdrawal that would drive stock negative fails with
	// common.ErrInsufficientStock and leaves the record untouched.
	AdjustStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal, at time.Time) (*entity.InventoryRecord, error)

	// LowStock returns records at or below threshold across all collections.
	LowStock(ctx context.Context, threshold decimal.Decimal) ([]*entity.InventoryRecord, error)
}
