package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/despensa-app/despensa/constants"
)

// LineItem is a draft purchase line extracted from a receipt. It is built by
// the extractor, enriched with a barcode and internal code, and then consumed
// by the reconciliation engine.
type LineItem struct {
	Description   string                  `json:"description"`
	Quantity      decimal.Decimal         `json:"quantity"`
	UnitPrice     decimal.Decimal         `json:"unit_price"`
	Establishment constants.Establishment `json:"establishment"`
	Barcode       string                  `json:"barcode,omitempty"`
	InternalCode  string                  `json:"internal_code,omitempty"`
	PurchaseDate  time.Time               `json:"purchase_date"`
}

// InventoryRecord is a persisted stock entry, logically unique per
// (description, collection).
type InventoryRecord struct {
	ID              uuid.UUID               `json:"id"`
	Collection      constants.Collection    `json:"collection"`
	Description     string                  `json:"description"`
	StockQuantity   decimal.Decimal         `json:"stock_quantity"`
	UnitPrice       decimal.Decimal         `json:"unit_price"`
	Barcode         string                  `json:"barcode"`
	Establishment   constants.Establishment `json:"establishment"`
	InternalCode    string                  `json:"internal_code,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	LastPurchasedAt time.Time               `json:"last_purchased_at"`
	LastWithdrawnAt *time.Time              `json:"last_withdrawn_at,omitempty"`
}
