package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/despensa-app/despensa/internal/common"
	"github.com/despensa-app/despensa/internal/export"
)

var (
	shoppingThreshold string
	exportOut         string
)

var shoppingCmd = &cobra.Command{
	Use:   "shopping-list",
	Short: "List items running low",
	RunE:  runShoppingList,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the stock workbook (XLSX)",
	RunE:  runExport,
}

func init() {
	shoppingCmd.Flags().StringVarP(&shoppingThreshold, "threshold", "t", "", "override the low-stock threshold")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "stock.xlsx", "output file")
	rootCmd.AddCommand(shoppingCmd, exportCmd)
}

func threshold() (decimal.Decimal, error) {
	if shoppingThreshold != "" {
		return decimal.NewFromString(shoppingThreshold)
	}
	return decimal.NewFromFloat(common.LoadConfig().Stock.LowStockThreshold), nil
}

func runShoppingList(cmd *cobra.Command, args []string) error {
	th, err := threshold()
	if err != nil {
		return fmt.Errorf("bad threshold: %w", err)
	}

	repo, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	recs, err := repo.LowStock(cmd.Context(), th)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		cmd.Println("Nothing to buy.")
		return nil
	}
	for _, r := range recs {
		cmd.Printf("%-36s  x%s left  (%s)\n", r.Description, r.StockQuantity, r.Collection)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	th, err := threshold()
	if err != nil {
		return fmt.Errorf("bad threshold: %w", err)
	}

	repo, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	raw, err := export.NewService(repo, nil).ExportStockXLSX(cmd.Context(), th)
	if err != nil {
		return err
	}
	if err := os.WriteFile(exportOut, raw, 0o644); err != nil {
		return err
	}
	cmd.Printf("Wrote %s (%d bytes)\n", exportOut, len(raw))
	return nil
}
