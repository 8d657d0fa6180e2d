package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/despensa-app/despensa/constants"
	"github.com/despensa-app/despensa/internal/common"
	"github.com/despensa-app/despensa/internal/entity"
)

var (
	itemsCollection string

	addCollection    string
	addQuantity      string
	addPrice         string
	addBarcode       string
	addEstablishment string
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Inspect and edit the inventory",
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List one collection",
	RunE:  runItemsList,
}

var itemsAddCmd = &cobra.Command{
	Use:   "add [description]",
	Short: "File an item by hand",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemsAdd,
}

var itemsAdjustCmd = &cobra.Command{
	Use:   "adjust [id] [delta]",
	Short: "Add to or withdraw from an item's stock",
	Long: `Applies a signed stock delta, e.g. "adjust <id> -1" after using one
unit. Withdrawals that would leave negative stock are rejected.`,
	Args: cobra.ExactArgs(2),
	RunE: runItemsAdjust,
}

func init() {
	itemsListCmd.Flags().StringVarP(&itemsCollection, "collection", "c", "Tiquet", "collection to list")

	itemsAddCmd.Flags().StringVarP(&addCollection, "collection", "c", "Seco", "target collection")
	itemsAddCmd.Flags().StringVarP(&addQuantity, "quantity", "q", "1", "initial stock quantity")
	itemsAddCmd.Flags().StringVarP(&addPrice, "price", "p", "0", "unit price")
	itemsAddCmd.Flags().StringVar(&addBarcode, "barcode", "", "EAN barcode, if known")
	itemsAddCmd.Flags().StringVarP(&addEstablishment, "establishment", "e", "", "where it is usually bought")

	itemsCmd.AddCommand(itemsListCmd, itemsAddCmd, itemsAdjustCmd)
	rootCmd.AddCommand(itemsCmd)
}

func runItemsList(cmd *cobra.Command, args []string) error {
	col, ok := constants.ParseCollection(itemsCollection)
	if !ok {
		return fmt.Errorf("unknown collection %q", itemsCollection)
	}

	repo, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	recs, err := repo.List(cmd.Context(), col)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		cmd.Printf("%s is empty.\n", col)
		return nil
	}
	for _, r := range recs {
		cmd.Printf("%s  %-36s  x%s  %s €\n", r.ID, r.Description, r.StockQuantity, r.UnitPrice)
	}
	return nil
}

func runItemsAdd(cmd *cobra.Command, args []string) error {
	col, ok := constants.ParseCollection(addCollection)
	if !ok {
		return fmt.Errorf("unknown collection %q", addCollection)
	}
	qty, err := decimal.NewFromString(addQuantity)
	if err != nil || qty.IsNegative() {
		return fmt.Errorf("quantity must be a non-negative number")
	}
	price, err := decimal.NewFromString(addPrice)
	if err != nil || price.IsNegative() {
		return fmt.Errorf("price must be a non-negative number")
	}
	est := constants.UnknownEstablishment
	if addEstablishment != "" {
		if est, ok = constants.ParseEstablishment(addEstablishment); !ok {
			return fmt.Errorf("unknown establishment %q", addEstablishment)
		}
	}

	repo, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := repo.Create(cmd.Context(), &entity.InventoryRecord{
		Collection:      col,
		Description:     args[0],
		StockQuantity:   qty,
		UnitPrice:       price,
		Barcode:         addBarcode,
		Establishment:   est,
		LastPurchasedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	cmd.Printf("Filed %s into %s (%s)\n", rec.Description, rec.Collection, rec.ID)
	return nil
}

func runItemsAdjust(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("id must be a UUID")
	}
	delta, err := decimal.NewFromString(args[1])
	if err != nil || delta.IsZero() {
		return fmt.Errorf("delta must be a non-zero number")
	}

	repo, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := repo.AdjustStock(cmd.Context(), id, delta, time.Now().UTC())
	if err != nil {
		if errors.Is(err, common.ErrInsufficientStock) {
			if cur, getErr := repo.GetByID(cmd.Context(), id); getErr == nil {
				return fmt.Errorf("%w: only %s in stock", common.ErrInsufficientStock, cur.StockQuantity)
			}
		}
		return err
	}
	cmd.Printf("%s now at x%s\n", rec.Description, rec.StockQuantity)
	return nil
}
