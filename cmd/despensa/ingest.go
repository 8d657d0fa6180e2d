package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/despensa-app/despensa/constants"
	"github.com/despensa-app/despensa/internal/common"
	"github.com/despensa-app/despensa/internal/enrich"
	"github.com/despensa-app/despensa/internal/entity"
	"github.com/despensa-app/despensa/internal/lookup"
	"github.com/despensa-app/despensa/internal/ocr"
	"github.com/despensa-app/despensa/internal/pipeline"
	"github.com/despensa-app/despensa/internal/reconcile"
)

var (
	ingestYes           bool
	ingestEstablishment string
	ingestOffline       bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [image]",
	Short: "OCR a receipt photo and reconcile it into the inventory",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestYes, "yes", "y", false, "accept the detected establishment without asking")
	ingestCmd.Flags().StringVarP(&ingestEstablishment, "establishment", "e", "", "skip detection and use this establishment")
	ingestCmd.Flags().BoolVar(&ingestOffline, "offline", false, "skip the product catalog lookup")
	rootCmd.AddCommand(ingestCmd)
}

// nopCatalog stands in when --offline is set; every item then carries the
// fallback barcode.
type nopCatalog struct{}

func (nopCatalog) SearchByName(context.Context, string) ([]lookup.Product, error) {
	return nil, nil
}

func (nopCatalog) GetByBarcode(context.Context, string) (*lookup.Product, error) {
	return nil, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	if userName == "" {
		return common.ErrNoSession
	}

	var override constants.Establishment
	if ingestEstablishment != "" {
		parsed, ok := constants.ParseEstablishment(ingestEstablishment)
		if !ok {
			return fmt.Errorf("unknown establishment %q", ingestEstablishment)
		}
		override = parsed
	}

	repo, db, err := openStore()
	if err != nil {
		return fmt.Errorf("open inventory: %w", err)
	}
	defer db.Close()

	cfg := common.LoadConfig()
	logger := slog.Default()

	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract: cfg.OCR.Tesseract,
		Language:  cfg.OCR.Language,
		PSM:       cfg.OCR.PSM,
	}, logger)

	var catalog lookup.Client = nopCatalog{}
	if !ingestOffline {
		catalog = lookup.NewHTTPClient(cfg.Lookup.BaseURL, cfg.Lookup.Timeout, logger)
	}

	proc := pipeline.NewProcessor(logger, extractor,
		enrich.NewEnricher(catalog, cfg.Lookup.Timeout, logger),
		reconcile.NewEngine(repo, logger),
	)

	req := pipeline.Request{
		ImagePath:     args[0],
		User:          userName,
		Establishment: override,
	}
	if !ingestYes {
		req.Confirm = confirmOnTerminal(cmd)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	summary, err := proc.Run(ctx, req)
	if err != nil {
		printSummary(cmd, summary)
		return err
	}
	printSummary(cmd, summary)
	return nil
}

func confirmOnTerminal(cmd *cobra.Command) pipeline.ConfirmFunc {
	return func(_ context.Context, est constants.Establishment) (bool, error) {
		cmd.Printf("Detected establishment: %s. Proceed? [y/N] ", est)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	}
}

func printSummary(cmd *cobra.Command, s *entity.IngestSummary) {
	if s == nil {
		return
	}
	cmd.Printf("State:         %s\n", s.State)
	if s.Establishment != constants.UnknownEstablishment {
		cmd.Printf("Establishment: %s\n", s.Establishment)
	}
	cmd.Printf("Items:         %d extracted, %d reconciled\n", s.ItemsExtracted, s.SuccessCount)
	for _, f := range s.Failures {
		cmd.Printf("  failed: %s (%s)\n", f.Item.Description, f.Error)
	}
}
