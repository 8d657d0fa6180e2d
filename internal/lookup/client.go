// Package lookup queries an OpenFoodFacts-compatible product catalog to
// enrich extracted items with barcodes. All calls are best-effort for the
// ingestion pipeline: a failed lookup never fails the item.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/despensa-app/despensa/internal/common"
)

// Product is one catalog candidate.
type Product struct {
	Code string `json:"code"`
	Name string `json:"product_name"`
}

// Client resolves products by free-text name or by barcode.
type Client interface {
	SearchByName(ctx context.Context, name string) ([]Product, error)
	GetByBarcode(ctx context.Context, code string) (*Product, error)
}

// HTTPClient talks to an OpenFoodFacts v0 API.
type HTTPClient struct {
	base   string
	hc     *http.Client
	logger *slog.Logger
}

func NewHTTPClient(base string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		base:   base,
		hc:     &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type searchEnvelope struct {
	Products []Product `json:"products"`
}

type productEnvelope struct {
	Status  int      `json:"status"`
	Product *Product `json:"product"`
}

// SearchByName queries /search?q=<name> and returns the candidates in the
// catalog's own ranking order; callers take the first.
func (c *HTTPClient) SearchByName(ctx context.Context, name string) ([]Product, error) {
	raw, err := c.getJSON(ctx, fmt.Sprintf("%s/search?q=%s", c.base, url.QueryEscape(name)))
	if err != nil {
		return nil, err
	}
	if err := validateSearchEnvelope(raw); err != nil {
		return nil, fmt.Errorf("search response: %w", err)
	}
	var env searchEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return env.Products, nil
}

// GetByBarcode queries /product/<code>.json. A status other than 1 means the
// catalog does not know the code.
func (c *HTTPClient) GetByBarcode(ctx context.Context, code string) (*Product, error) {
	raw, err := c.getJSON(ctx, fmt.Sprintf("%s/product/%s.json", c.base, url.PathEscape(code)))
	if err != nil {
		return nil, err
	}
	var env productEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode product response: %w", err)
	}
	if env.Status != 1 || env.Product == nil {
		return nil, fmt.Errorf("barcode %s not in catalog: %w", code, common.ErrNotFound)
	}
	return env.Product, nil
}

// getJSON issues a GET and returns the raw body on any 2xx status.
func (c *HTTPClient) getJSON(ctx context.Context, fullURL string) ([]byte, error) {
	reqID := uuid.New().String()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		c.logger.Error("lookup.http.build_request_error", "req_id", reqID, "error", err)
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		c.logger.Error("lookup.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn("lookup.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	c.logger.Debug("lookup.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	return raw, nil
}
