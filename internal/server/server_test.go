package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/despensa-app/despensa/constants"
	"github.com/despensa-app/despensa/internal/async"
	"github.com/despensa-app/despensa/internal/enrich"
	"github.com/despensa-app/despensa/internal/entity"
	"github.com/despensa-app/despensa/internal/export"
	"github.com/despensa-app/despensa/internal/lookup"
	"github.com/despensa-app/despensa/internal/ocr"
	"github.com/despensa-app/despensa/internal/pipeline"
	"github.com/despensa-app/despensa/internal/reconcile"
	"github.com/despensa-app/despensa/internal/repository"
	"github.com/despensa-app/despensa/internal/server"
)

type fixedOCR struct{ text string }

func (f fixedOCR) Extract(context.Context, string) (ocr.TextExtractionResult, error) {
	return ocr.TextExtractionResult{Text: f.text, Method: "image-ocr"}, nil
}

type emptyCatalog struct{}

func (emptyCatalog) SearchByName(context.Context, string) ([]lookup.Product, error) {
	return nil, nil
}

func (emptyCatalog) GetByBarcode(_ context.Context, code string) (*lookup.Product, error) {
	if code == "8480000123456" {
		return &lookup.Product{Code: code, Name: "ACEITE OLIVA VIRGEN"}, nil
	}
	return nil, nil
}

type okHealth struct{}

func (okHealth) HealthCheck(context.Context) error { return nil }

func newTestServer(t *testing.T, ocrText string) (*server.Server, *repository.MemoryRepository) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	proc := pipeline.NewProcessor(nil,
		fixedOCR{text: ocrText},
		enrich.NewEnricher(emptyCatalog{}, time.Second, nil),
		reconcile.NewEngine(repo, nil),
	)
	queue := async.NewProcessorQueue(proc, nil, async.WithQueueSize(4))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		queue.Shutdown(ctx)
	})

	return server.New(server.Options{
		Processor:         proc,
		Queue:             queue,
		Repository:        repo,
		Exporter:          export.NewService(repo, nil),
		Catalog:           emptyCatalog{},
		Health:            okHealth{},
		LowStockThreshold: decimal.NewFromInt(1),
	}), repo
}

func doJSON(t *testing.T, s *server.Server, method, path, user string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User", user)
	}
	resp, err := s.App().Test(req, 10_000)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, "")
	resp := doJSON(t, s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReceiptPreviewAndConfirm(t *testing.T) {
	s, repo := newTestServer(t, "MERCADONA S.A.\n3 LECHE ENTERA 1,05\n2 PAN DE MOLDE 1,15")

	resp := doJSON(t, s, http.MethodPost, "/receipts", "alba", map[string]string{"image_path": "ticket.png"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	prev := decode[struct {
		PreviewID     string `json:"preview_id"`
		Establishment string `json:"establishment"`
	}](t, resp)
	assert.Equal(t, string(constants.Mercadona), prev.Establishment)

	resp = doJSON(t, s, http.MethodPost, "/receipts/confirm", "alba", map[string]any{
		"preview_id": prev.PreviewID,
		"accept":     true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decode[entity.IngestSummary](t, resp)
	assert.Equal(t, constants.StateCompleted, summary.State)
	assert.Equal(t, 2, summary.SuccessCount)

	rec, err := repo.FindByDescription(context.Background(), "PAN DE MOLDE")
	require.NoError(t, err)
	assert.Equal(t, constants.Tiquet, rec.Collection)

	// a preview can only be confirmed once
	resp = doJSON(t, s, http.MethodPost, "/receipts/confirm", "alba", map[string]any{
		"preview_id": prev.PreviewID,
		"accept":     true,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReceiptConfirmRejection(t *testing.T) {
	s, repo := newTestServer(t, "MERCADONA\n3 LECHE ENTERA 1,05")

	resp := doJSON(t, s, http.MethodPost, "/receipts", "alba", map[string]string{"image_path": "ticket.png"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	prev := decode[struct {
		PreviewID string `json:"preview_id"`
	}](t, resp)

	resp = doJSON(t, s, http.MethodPost, "/receipts/confirm", "alba", map[string]any{
		"preview_id": prev.PreviewID,
		"accept":     false,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decode[entity.IngestSummary](t, resp)
	assert.Equal(t, constants.StateEstablishmentRejected, summary.State)

	_, err := repo.FindByDescription(context.Background(), "LECHE ENTERA")
	assert.Error(t, err, "rejected previews must write nothing")
}

func TestReceiptPreviewRequiresUser(t *testing.T) {
	s, _ := newTestServer(t, "MERCADONA\n3 LECHE ENTERA 1,05")
	resp := doJSON(t, s, http.MethodPost, "/receipts", "", map[string]string{"image_path": "ticket.png"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestReceiptConfirmWrongUser(t *testing.T) {
	s, _ := newTestServer(t, "MERCADONA\n3 LECHE ENTERA 1,05")

	resp := doJSON(t, s, http.MethodPost, "/receipts", "alba", map[string]string{"image_path": "ticket.png"})
	prev := decode[struct {
		PreviewID string `json:"preview_id"`
	}](t, resp)

	resp = doJSON(t, s, http.MethodPost, "/receipts/confirm", "marc", map[string]any{
		"preview_id": prev.PreviewID,
		"accept":     true,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestItemLifecycle(t *testing.T) {
	s, _ := newTestServer(t, "")

	resp := doJSON(t, s, http.MethodPost, "/items", "alba", map[string]string{
		"collection":     "Congelado",
		"description":    "GUISANTES",
		"stock_quantity": "2",
		"unit_price":     "1.10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[entity.InventoryRecord](t, resp)
	assert.Equal(t, constants.Congelado, created.Collection)

	resp = doJSON(t, s, http.MethodGet, "/items?collection=Congelado", "alba", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listing := decode[struct {
		Items []entity.InventoryRecord `json:"items"`
	}](t, resp)
	require.Len(t, listing.Items, 1)

	// withdraw one unit
	resp = doJSON(t, s, http.MethodPost, fmt.Sprintf("/items/%s/adjust", created.ID), "alba", map[string]string{"delta": "-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	adjusted := decode[entity.InventoryRecord](t, resp)
	assert.True(t, adjusted.StockQuantity.Equal(decimal.NewFromInt(1)))
	assert.NotNil(t, adjusted.LastWithdrawnAt)

	// overdraw is rejected whole
	resp = doJSON(t, s, http.MethodPost, fmt.Sprintf("/items/%s/adjust", created.ID), "alba", map[string]string{"delta": "-5"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// now at 1 unit it makes the shopping list
	resp = doJSON(t, s, http.MethodGet, "/shopping-list", "alba", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	low := decode[struct {
		Items []entity.InventoryRecord `json:"items"`
	}](t, resp)
	require.Len(t, low.Items, 1)
	assert.Equal(t, "GUISANTES", low.Items[0].Description)
}

func TestCreateItemFromBarcode(t *testing.T) {
	s, _ := newTestServer(t, "")

	resp := doJSON(t, s, http.MethodPost, "/items", "alba", map[string]string{
		"collection":     "Seco",
		"barcode":        "8480000123456",
		"stock_quantity": "1",
		"unit_price":     "4.50",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[entity.InventoryRecord](t, resp)
	assert.Equal(t, "ACEITE OLIVA VIRGEN", created.Description)

	// a barcode the catalog does not know cannot name the item
	resp = doJSON(t, s, http.MethodPost, "/items", "alba", map[string]string{
		"collection":     "Seco",
		"barcode":        "000",
		"stock_quantity": "1",
		"unit_price":     "4.50",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCreateItemValidation(t *testing.T) {
	s, _ := newTestServer(t, "")

	resp := doJSON(t, s, http.MethodPost, "/items", "alba", map[string]string{
		"collection": "Congelado",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, s, http.MethodPost, "/items", "alba", map[string]string{
		"collection":     "Nevera",
		"description":    "GUISANTES",
		"stock_quantity": "2",
		"unit_price":     "1.10",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportStockEndpoint(t *testing.T) {
	s, repo := newTestServer(t, "")
	_, err := repo.Create(context.Background(), &entity.InventoryRecord{
		Collection:      constants.Seco,
		Description:     "ARROZ",
		StockQuantity:   decimal.NewFromInt(3),
		UnitPrice:       decimal.RequireFromString("1.39"),
		LastPurchasedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	resp := doJSON(t, s, http.MethodGet, "/export/stock.xlsx", "alba", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}
