// Package enrich augments draft line items with a best-match barcode from
// the product catalog and a weakly-unique internal code.
package enrich

import (
	"context"
	"log/slog"
	"time"

	"github.com/despensa-app/despensa/internal/entity"
	"github.com/despensa-app/despensa/internal/lookup"
)

type Enricher struct {
	catalog lookup.Client
	timeout time.Duration
	logger  *slog.Logger
}

func NewEnricher(catalog lookup.Client, timeout time.Duration, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Enricher{catalog: catalog, timeout: timeout, logger: logger}
}

// Enrich attaches the first catalog match's code as the item barcode and
// stamps the internal code. Lookup failures and empty results leave the
// barcode unset; they are logged, never surfaced, and never abort the batch.
func (e *Enricher) Enrich(ctx context.Context, item *entity.LineItem) {
	lookupCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	products, err := e.catalog.SearchByName(lookupCtx, item.Description)
	switch {
	case err != nil:
		e.logger.Warn("enrich.barcode.lookup_failed", "description", item.Description, "error", err)
	case len(products) == 0:
		e.logger.Debug("enrich.barcode.no_candidates", "description", item.Description)
	default:
		item.Barcode = products[0].Code
	}

	item.InternalCode = InternalCode(item.Description)
}

// EnrichAll enriches items in extraction order, one lookup at a time.
func (e *Enricher) EnrichAll(ctx context.Context, items []entity.LineItem) {
	for i := range items {
		e.Enrich(ctx, &items[i])
	}
}
