package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/despensa-app/despensa/constants"
	"github.com/despensa-app/despensa/internal/common"
	"github.com/despensa-app/despensa/internal/entity"
)

// handleListItems lists one collection (?collection=, default the staging
// collection) in alphabetical order.
func (s *Server) handleListItems(c *fiber.Ctx) error {
	if s.user(c) == "" {
		return common.ErrNoSession
	}

	col := constants.Tiquet
	if q := c.Query("collection"); q != "" {
		parsed, ok := constants.ParseCollection(q)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "unknown collection "+q)
		}
		col = parsed
	}

	recs, err := s.repo.List(c.UserContext(), col)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"collection": col, "items": recs})
}

type createItemRequest struct {
	Collection    string `json:"collection" validate:"required"`
	Description   string `json:"description" validate:"required_without=Barcode"`
	StockQuantity string `json:"stock_quantity" validate:"required"`
	UnitPrice     string `json:"unit_price" validate:"required"`
	Barcode       string `json:"barcode,omitempty"`
	Establishment string `json:"establishment,omitempty"`
}

// handleCreateItem files a record by hand, outside any receipt. This is how
// items move out of the staging collection. A barcode without a description
// is resolved through the product catalog.
func (s *Server) handleCreateItem(c *fiber.Ctx) error {
	if s.user(c) == "" {
		return common.ErrNoSession
	}

	var req createItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed body: "+err.Error())
	}
	if err := s.validator.Struct(&req); err != nil {
		return err
	}

	col, ok := constants.ParseCollection(req.Collection)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "unknown collection "+req.Collection)
	}
	qty, err := decimal.NewFromString(req.StockQuantity)
	if err != nil || qty.IsNegative() {
		return fiber.NewError(fiber.StatusBadRequest, "stock_quantity must be a non-negative number")
	}
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil || price.IsNegative() {
		return fiber.NewError(fiber.StatusBadRequest, "unit_price must be a non-negative number")
	}
	est := constants.UnknownEstablishment
	if req.Establishment != "" {
		if est, ok = constants.ParseEstablishment(req.Establishment); !ok {
			return fiber.NewError(fiber.StatusBadRequest, "unknown establishment "+req.Establishment)
		}
	}

	description := req.Description
	if description == "" {
		if s.catalog == nil {
			return fiber.NewError(fiber.StatusBadRequest, "description is required")
		}
		product, err := s.catalog.GetByBarcode(c.UserContext(), req.Barcode)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "barcode "+req.Barcode+" not in catalog")
			}
			return fiber.NewError(fiber.StatusBadGateway, "barcode lookup failed: "+err.Error())
		}
		if product == nil || product.Name == "" {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "barcode "+req.Barcode+" not in catalog")
		}
		description = product.Name
	}

	rec, err := s.repo.Create(c.UserContext(), &entity.InventoryRecord{
		Collection:      col,
		Description:     description,
		StockQuantity:   qty,
		UnitPrice:       price,
		Barcode:         req.Barcode,
		Establishment:   est,
		LastPurchasedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	s.logger.Info("item created", "id", rec.ID, "collection", col, "description", rec.Description)
	return c.Status(fiber.StatusCreated).JSON(rec)
}

type adjustStockRequest struct {
	Delta string `json:"delta" validate:"required"`
}

// handleAdjustStock applies a signed stock delta. Withdrawals that would
// drive stock negative are rejected whole.
func (s *Server) handleAdjustStock(c *fiber.Ctx) error {
	if s.user(c) == "" {
		return common.ErrNoSession
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "id must be a UUID")
	}

	var req adjustStockRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed body: "+err.Error())
	}
	if err := s.validator.Struct(&req); err != nil {
		return err
	}
	delta, err := decimal.NewFromString(req.Delta)
	if err != nil || delta.IsZero() {
		return fiber.NewError(fiber.StatusBadRequest, "delta must be a non-zero number")
	}

	rec, err := s.repo.AdjustStock(c.UserContext(), id, delta, time.Now().UTC())
	if err != nil {
		return err
	}
	s.logger.Info("stock adjusted", "id", id, "delta", delta, "stock", rec.StockQuantity)
	return c.JSON(rec)
}

// handleShoppingList returns every item at or below the low-stock threshold.
func (s *Server) handleShoppingList(c *fiber.Ctx) error {
	if s.user(c) == "" {
		return common.ErrNoSession
	}

	recs, err := s.repo.LowStock(c.UserContext(), s.lowStockThreshold)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"threshold": s.lowStockThreshold, "items": recs})
}
