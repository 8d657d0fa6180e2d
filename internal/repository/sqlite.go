package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/despensa-app/despensa/constants"
	"github.com/despensa-app/despensa/internal/common"
	"github.com/despensa-app/despensa/internal/entity"
)

// sqliteRepository is the local single-file store behind the one-shot CLI.
// Decimals are stored as text; timestamps as RFC 3339 strings.
type sqliteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS inventory_items (
	id TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	description TEXT NOT NULL,
	stock_quantity TEXT NOT NULL,
	unit_price TEXT NOT NULL,
	barcode TEXT NOT NULL DEFAULT 'N/A',
	establishment TEXT NOT NULL,
	internal_code TEXT,
	created_at TEXT NOT NULL,
	last_purchased_at TEXT NOT NULL,
	last_withdrawn_at TEXT,
	UNIQUE (collection, description)
);
`

// OpenSQLite opens (and initializes, if needed) a local store at path.
func OpenSQLite(path string, logger *slog.Logger) (InventoryRepository, *sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &sqliteRepository{db: db, logger: logger}, db, nil
}

type sqliteRow interface {
	Scan(dest ...any) error
}

func (r *sqliteRepository) scan(row sqliteRow) (*entity.InventoryRecord, error) {
	var rec entity.InventoryRecord
	var id, collection, establishment, stockStr, priceStr, createdAt, purchasedAt string
	var internalCode, withdrawnAt *string
	err := row.Scan(&id, &collection, &rec.Description, &stockStr, &priceStr,
		&rec.Barcode, &establishment, &internalCode, &createdAt, &purchasedAt, &withdrawnAt)
	if err != nil {
		return nil, err
	}
	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	rec.Collection = constants.Collection(collection)
	rec.Establishment = constants.Establishment(establishment)
	if internalCode != nil {
		rec.InternalCode = *internalCode
	}
	if rec.StockQuantity, err = decimal.NewFromString(stockStr); err != nil {
		return nil, fmt.Errorf("parse stock_quantity: %w", err)
	}
	if rec.UnitPrice, err = decimal.NewFromString(priceStr); err != nil {
		return nil, fmt.Errorf("parse unit_price: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.LastPurchasedAt, err = time.Parse(time.RFC3339Nano, purchasedAt); err != nil {
		return nil, fmt.Errorf("parse last_purchased_at: %w", err)
	}
	if withdrawnAt != nil {
		t, err := time.Parse(time.RFC3339Nano, *withdrawnAt)
		if err != nil {
			return nil, fmt.Errorf("parse last_withdrawn_at: %w", err)
		}
		rec.LastWithdrawnAt = &t
	}
	return &rec, nil
}

const sqliteColumns = `id, collection, description, stock_quantity, unit_price,
	barcode, establishment, internal_code, created_at, last_purchased_at, last_withdrawn_at`

func (r *sqliteRepository) FindByDescription(ctx context.Context, description string) (*entity.InventoryRecord, error) {
	for _, col := range constants.ScanOrder() {
		row := r.db.QueryRowContext(ctx,
			`SELECT `+sqliteColumns+` FROM inventory_items
			 WHERE collection = ? AND description = ? LIMIT 1`, string(col), description)
		rec, err := r.scan(row)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("find in %s: %w", col, err)
		}
		return rec, nil
	}
	return nil, common.ErrNotFound
}

func (r *sqliteRepository) Create(ctx context.Context, rec *entity.InventoryRecord) (*entity.InventoryRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	var internalCode *string
	if rec.InternalCode != "" {
		internalCode = &rec.InternalCode
	}
	var withdrawnAt *string
	if rec.LastWithdrawnAt != nil {
		s := rec.LastWithdrawnAt.UTC().Format(time.RFC3339Nano)
		withdrawnAt = &s
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO inventory_items
		 (id, collection, description, stock_quantity, unit_price, barcode,
		  establishment, internal_code, created_at, last_purchased_at, last_withdrawn_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID.String(), string(rec.Collection), rec.Description,
		rec.StockQuantity.String(), rec.UnitPrice.String(), rec.Barcode,
		string(rec.Establishment), internalCode,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.LastPurchasedAt.UTC().Format(time.RFC3339Nano), withdrawnAt)
	if err != nil {
		r.logger.Error("repository.create_failed", "description", rec.Description, "error", err)
		return nil, fmt.Errorf("insert inventory item: %w", err)
	}
	return rec, nil
}

func (r *sqliteRepository) ApplyPurchase(ctx context.Context, id uuid.UUID, upd PurchaseUpdate) error {
	// sqlite has no native decimal type; read-modify-write keeps the stored
	// text representation exact.
	rec, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	newStock := rec.StockQuantity.Add(upd.Quantity)
	_, err = r.db.ExecContext(ctx,
		`UPDATE inventory_items
		 SET stock_quantity = ?, unit_price = ?, barcode = ?, establishment = ?, last_purchased_at = ?
		 WHERE id = ?`,
		newStock.String(), upd.UnitPrice.String(), upd.Barcode,
		string(upd.Establishment), upd.PurchasedAt.UTC().Format(time.RFC3339Nano), id.String())
	if err != nil {
		return fmt.Errorf("apply purchase: %w", err)
	}
	return nil
}

func (r *sqliteRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.InventoryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sqliteColumns+` FROM inventory_items WHERE id = ?`, id.String())
	rec, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	return rec, nil
}

func (r *sqliteRepository) List(ctx context.Context, collection constants.Collection) ([]*entity.InventoryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM inventory_items
		 WHERE collection = ? ORDER BY description`, string(collection))
	if err != nil {
		return nil, fmt.Errorf("list inventory items: %w", err)
	}
	defer rows.Close()
	var out []*entity.InventoryRecord
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *sqliteRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal, at time.Time) (*entity.InventoryRecord, error) {
	rec, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	newStock := rec.StockQuantity.Add(delta)
	if newStock.IsNegative() {
		return nil, common.ErrInsufficientStock
	}
	stampCol := "last_purchased_at"
	if delta.IsNegative() {
		stampCol = "last_withdrawn_at"
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE inventory_items SET stock_quantity = ?, `+stampCol+` = ? WHERE id = ?`,
		newStock.String(), at.UTC().Format(time.RFC3339Nano), id.String())
	if err != nil {
		return nil, fmt.Errorf("adjust stock: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *sqliteRepository) LowStock(ctx context.Context, threshold decimal.Decimal) ([]*entity.InventoryRecord, error) {
	// decimals are stored as text, so the threshold comparison happens in Go
	// with decimal semantics. Casting the column to REAL would round.
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM inventory_items
		 ORDER BY collection, description`)
	if err != nil {
		return nil, fmt.Errorf("query low stock: %w", err)
	}
	defer rows.Close()
	var out []*entity.InventoryRecord
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		if rec.StockQuantity.LessThanOrEqual(threshold) {
			out = append(out, rec)
		}
	}
	return out, rows.Err()
}
