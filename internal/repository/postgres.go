package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/despensa-app/despensa/constants"
	"github.com/despensa-app/despensa/internal/common"
	"github.com/despensa-app/despensa/internal/entity"
)

// numeric columns come back as text and are parsed into decimals on scan.
const recordColumns = `id, collection, description, stock_quantity::text, unit_price::text,
	barcode, establishment, internal_code, created_at, last_purchased_at, last_withdrawn_at`

type postgresRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresRepository(pool *pgxpool.Pool, logger *slog.Logger) InventoryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &postgresRepository{pool: pool, logger: logger}
}

func scanRecord(row pgx.Row) (*entity.InventoryRecord, error) {
	var rec entity.InventoryRecord
	var collection, establishment string
	var internalCode *string
	var stockStr, priceStr string
	err := row.Scan(&rec.ID, &collection, &rec.Description, &stockStr, &priceStr,
		&rec.Barcode, &establishment, &internalCode, &rec.CreatedAt,
		&rec.LastPurchasedAt, &rec.LastWithdrawnAt)
	if err != nil {
		return nil, err
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
	return &rec, nil
}

func (r *postgresRepository) FindByDescription(ctx context.Context, description string) (*entity.InventoryRecord, error) {
	for _, col := range constants.ScanOrder() {
		row := r.pool.QueryRow(ctx,
			`SELECT `+recordColumns+`
			 FROM inventory_items
			 WHERE collection = $1 AND description = $2
			 LIMIT 1`, string(col), description)
		rec, err := scanRecord(row)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("find in %s: %w", col, err)
		}
		return rec, nil
	}
	return nil, common.ErrNotFound
}

func (r *postgresRepository) Create(ctx context.Context, rec *entity.InventoryRecord) (*entity.InventoryRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	var internalCode *string
	if rec.InternalCode != "" {
		internalCode = &rec.InternalCode
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO inventory_items
		 (id, collection, description, stock_quantity, unit_price, barcode,
		  establishment, internal_code, created_at, last_purchased_at, last_withdrawn_at)
		 VALUES ($1,$2,$3,$4::numeric,$5::numeric,$6,$7,$8,$9,$10,$11)`,
		rec.ID, string(rec.Collection), rec.Description,
		rec.StockQuantity.String(), rec.UnitPrice.String(), rec.Barcode,
		string(rec.Establishment), internalCode, rec.CreatedAt,
		rec.LastPurchasedAt, rec.LastWithdrawnAt)
	if err != nil {
		r.logger.Error("repository.create_failed", "description", rec.Description, "error", err)
		return nil, fmt.Errorf("insert inventory item: %w", err)
	}
	return rec, nil
}

func (r *postgresRepository) ApplyPurchase(ctx context.Context, id uuid.UUID, upd PurchaseUpdate) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE inventory_items
		 SET stock_quantity = stock_quantity + $1::numeric,
		     unit_price = $2::numeric,
		     barcode = $3,
		     establishment = $4,
		     last_purchased_at = $5
		 WHERE id = $6`,
		upd.Quantity.String(), upd.UnitPrice.String(), upd.Barcode,
		string(upd.Establishment), upd.PurchasedAt, id)
	if err != nil {
		return fmt.Errorf("apply purchase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.InventoryRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM inventory_items WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	return rec, nil
}

func (r *postgresRepository) List(ctx context.Context, collection constants.Collection) ([]*entity.InventoryRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+`
		 FROM inventory_items
		 WHERE collection = $1
		 ORDER BY description`, string(collection))
	if err != nil {
		return nil, fmt.Errorf("list inventory items: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (r *postgresRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal, at time.Time) (*entity.InventoryRecord, error) {
	// Timestamp column depends on direction: purchases refresh
	// last_purchased_at, withdrawals last_withdrawn_at.
	stampCol := "last_purchased_at"
	if delta.IsNegative() {
		stampCol = "last_withdrawn_at"
	}
	row := r.pool.QueryRow(ctx,
		`UPDATE inventory_items
		 SET stock_quantity = stock_quantity + $1::numeric, `+stampCol+` = $2
		 WHERE id = $3 AND stock_quantity + $1::numeric >= 0
		 RETURNING `+recordColumns,
		delta.String(), at, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing record from a rejected withdrawal.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, common.ErrInsufficientStock
	}
	if err != nil {
		return nil, fmt.Errorf("adjust stock: %w", err)
	}
	return rec, nil
}

func (r *postgresRepository) LowStock(ctx context.Context, threshold decimal.Decimal) ([]*entity.InventoryRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+`
		 FROM inventory_items
		 WHERE stock_quantity <= $1::numeric
		 ORDER BY collection, description`, threshold.String())
	if err != nil {
		return nil, fmt.Errorf("query low stock: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]*entity.InventoryRecord, error) {
	var out []*entity.InventoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
