package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/despensa-app/despensa/constants"
	"github.com/despensa-app/despensa/internal/common"
	"github.com/despensa-app/despensa/internal/entity"
)

// MemoryRepository is an in-process InventoryRepository used by tests and
// as a scratch store. Behavior mirrors the SQL implementations, including
// the fixed collection scan order.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[uuid.UUID]*entity.InventoryRecord

	// FailCreateFor makes Create fail for the named descriptions, to
	// exercise partial-failure paths.
	FailCreateFor map[string]error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[uuid.UUID]*entity.InventoryRecord)}
}

func clone(rec *entity.InventoryRecord) *entity.InventoryRecord {
	out := *rec
	if rec.LastWithdrawnAt != nil {
		t := *rec.LastWithdrawnAt
		out.LastWithdrawnAt = &t
	}
	return &out
}

func (m *MemoryRepository) FindByDescription(_ context.Context, description string) (*entity.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, col := range constants.ScanOrder() {
		for _, rec := range m.records {
			if rec.Collection == col && rec.Description == description {
				return clone(rec), nil
			}
		}
	}
	return nil, common.ErrNotFound
}

func (m *MemoryRepository) Create(_ context.Context, rec *entity.InventoryRecord) (*entity.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailCreateFor[rec.Description]; ok {
		return nil, err
	}
	stored := clone(rec)
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	m.records[stored.ID] = stored
	return clone(stored), nil
}

func (m *MemoryRepository) ApplyPurchase(_ context.Context, id uuid.UUID, upd PurchaseUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return common.ErrNotFound
	}
	rec.StockQuantity = rec.StockQuantity.Add(upd.Quantity)
	rec.UnitPrice = upd.UnitPrice
	rec.Barcode = upd.Barcode
	rec.Establishment = upd.Establishment
	rec.LastPurchasedAt = upd.PurchasedAt
	return nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*entity.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return clone(rec), nil
}

func (m *MemoryRepository) List(_ context.Context, collection constants.Collection) ([]*entity.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.InventoryRecord
	for _, rec := range m.records {
		if rec.Collection == collection {
			out = append(out, clone(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Description < out[j].Description })
	return out, nil
}

func (m *MemoryRepository) AdjustStock(_ context.Context, id uuid.UUID, delta decimal.Decimal, at time.Time) (*entity.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	newStock := rec.StockQuantity.Add(delta)
	if newStock.IsNegative() {
		return nil, common.ErrInsufficientStock
	}
	rec.StockQuantity = newStock
	if delta.IsNegative() {
		t := at
		rec.LastWithdrawnAt = &t
	} else {
		rec.LastPurchasedAt = at
	}
	return clone(rec), nil
}

func (m *MemoryRepository) LowStock(_ context.Context, threshold decimal.Decimal) ([]*entity.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.InventoryRecord
	for _, rec := range m.records {
		if rec.StockQuantity.LessThanOrEqual(threshold) {
			out = append(out, clone(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Collection != out[j].Collection {
			return out[i].Collection < out[j].Collection
		}
		return out[i].Description < out[j].Description
	})
	return out, nil
}
