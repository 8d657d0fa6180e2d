package export_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/despensa-app/despensa/constants"
	"github.com/despensa-app/despensa/internal/entity"
	"github.com/despensa-app/despensa/internal/export"
	"github.com/despensa-app/despensa/internal/repository"
)

func TestExportStockXLSX(t *testing.T) {
	repo := repository.NewMemoryRepository()
	now := time.Now().UTC()

	_, err := repo.Create(context.Background(), &entity.InventoryRecord{
		Collection:      constants.Fresco,
		Description:     "LECHE ENTERA",
		StockQuantity:   decimal.NewFromInt(4),
		UnitPrice:       decimal.RequireFromString("1.05"),
		Barcode:         "8410128750145",
		Establishment:   constants.Mercadona,
		LastPurchasedAt: now,
	})
	require.NoError(t, err)

	_, err = repo.Create(context.Background(), &entity.InventoryRecord{
		Collection:      constants.Seco,
		Description:     "ARROZ REDONDO",
		StockQuantity:   decimal.NewFromInt(0),
		UnitPrice:       decimal.RequireFromString("1.39"),
		Establishment:   constants.Lidl,
		LastPurchasedAt: now,
	})
	require.NoError(t, err)

	svc := export.NewService(repo, nil)
	raw, err := svc.ExportStockXLSX(context.Background(), decimal.NewFromInt(1))
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	want := make([]string, 0, 6)
	for _, c := range constants.ScanOrder() {
		want = append(want, string(c))
	}
	want = append(want, "Shopping List")
	assert.Equal(t, want, f.GetSheetList())

	// the Fresco item landed on its sheet
	got, err := f.GetCellValue(string(constants.Fresco), "A2")
	require.NoError(t, err)
	assert.Equal(t, "LECHE ENTERA", got)

	// the depleted item shows up on the shopping list
	got, err = f.GetCellValue("Shopping List", "A2")
	require.NoError(t, err)
	assert.Equal(t, "ARROZ REDONDO", got)

	// header row is present everywhere
	got, err = f.GetCellValue(string(constants.Tiquet), "B1")
	require.NoError(t, err)
	assert.Equal(t, "Stock", got)
}
