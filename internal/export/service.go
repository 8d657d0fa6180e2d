package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/despensa-app/despensa/constants"
	"github.com/despensa-app/despensa/internal/entity"
	"github.com/despensa-app/despensa/internal/repository"
)

// Service is a tiny façade over the inventory repository that produces XLSX
// bytes for exports.
type Service struct {
	repo   repository.InventoryRepository
	logger *slog.Logger
}

func NewService(repo repository.InventoryRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

var stockHeaders = []string{
	"Description",
	"Stock",
	"Unit Price",
	"Barcode",
	"Internal Code",
	"Establishment",
	"Last Purchased",
	"Last Withdrawn",
}

// ExportStockXLSX returns an XLSX workbook (as bytes) with one sheet per
// collection, in scan order, plus a trailing "Shopping List" sheet of items
// at or below the given threshold.
func (s *Service) ExportStockXLSX(ctx context.Context, lowStockThreshold decimal.Decimal) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	rows := 0

	for i, col := range constants.ScanOrder() {
		sheet := string(col)
		if i == 0 {
			// excelize starts every workbook with "Sheet1"; rename instead of add.
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}

		recs, err := s.repo.List(ctx, col)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", col, err)
		}
		if err := writeSheet(f, sheet, recs); err != nil {
			return nil, err
		}
		rows += len(recs)
	}

	const shoppingSheet = "Shopping List"
	if _, err := f.NewSheet(shoppingSheet); err != nil {
		return nil, err
	}
	low, err := s.repo.LowStock(ctx, lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("query low stock: %w", err)
	}
	if err := writeSheet(f, shoppingSheet, low); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", rows,
		"low_stock", len(low),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, recs []*entity.InventoryRecord) error {
	for i, h := range stockHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.Description)
		write(2, r.StockQuantity.String())
		write(3, r.UnitPrice.String())
		write(4, r.Barcode)
		write(5, r.InternalCode)
		write(6, string(r.Establishment))
		write(7, r.LastPurchasedAt.Format("2006-01-02"))
		if r.LastWithdrawnAt != nil {
			write(8, r.LastWithdrawnAt.Format("2006-01-02"))
		} else {
			write(8, "")
		}
		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 36) // description
	_ = f.SetColWidth(sheet, "B", "C", 12) // quantities
	_ = f.SetColWidth(sheet, "D", "E", 22) // codes
	_ = f.SetColWidth(sheet, "F", "F", 20) // establishment
	_ = f.SetColWidth(sheet, "G", "H", 16) // dates
	return nil
}
