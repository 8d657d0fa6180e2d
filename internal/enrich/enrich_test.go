package enrich_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/despensa-app/despensa/internal/enrich"
	"github.com/despensa-app/despensa/internal/entity"
	"github.com/despensa-app/despensa/internal/lookup"
)

type stubCatalog struct {
	products []lookup.Product
	err      error
	queries  []string
}

func (s *stubCatalog) SearchByName(_ context.Context, name string) ([]lookup.Product, error) {
	s.queries = append(s.queries, name)
	return s.products, s.err
}

func (s *stubCatalog) GetByBarcode(context.Context, string) (*lookup.Product, error) {
	return nil, errors.New("not implemented")
}

func draftItem(desc string) entity.LineItem {
	return entity.LineItem{
		Description:  desc,
		Quantity:     decimal.NewFromInt(1),
		UnitPrice:    decimal.NewFromFloat(1.05),
		PurchaseDate: time.Now(),
	}
}

func TestEnrich_AttachesFirstCandidate(t *testing.T) {
	catalog := &stubCatalog{products: []lookup.Product{
		{Code: "8480000123456", Name: "Leche Entera"},
		{Code: "8480000999999", Name: "Leche Desnatada"},
	}}
	e := enrich.NewEnricher(catalog, time.Second, nil)

	item := draftItem("LECHE ENTERA")
	e.Enrich(context.Background(), &item)

	assert.Equal(t, "8480000123456", item.Barcode)
	assert.Equal(t, []string{"LECHE ENTERA"}, catalog.queries)
	assert.NotEmpty(t, item.InternalCode)
}

func TestEnrich_LookupFailureIsNonFatal(t *testing.T) {
	e := enrich.NewEnricher(&stubCatalog{err: errors.New("network down")}, time.Second, nil)

	item := draftItem("PAN DE MOLDE")
	e.Enrich(context.Background(), &item)

	assert.Empty(t, item.Barcode)
	// internal code still assigned on the failure path
	assert.NotEmpty(t, item.InternalCode)
}

func TestEnrich_NoCandidatesLeavesBarcodeUnset(t *testing.T) {
	e := enrich.NewEnricher(&stubCatalog{}, time.Second, nil)

	item := draftItem("PRODUCTO RARO")
	e.Enrich(context.Background(), &item)

	assert.Empty(t, item.Barcode)
}

func TestInternalCode_Format(t *testing.T) {
	code := enrich.InternalCode("LECHE ENTERA")
	require.Regexp(t, regexp.MustCompile(`^LEC-\d{13}-\d{1,4}$`), code)
}

func TestInternalCode_ShortDescription(t *testing.T) {
	code := enrich.InternalCode("ajo")
	assert.Regexp(t, `^AJO-\d+-\d+$`, code)

	code = enrich.InternalCode("by")
	assert.Regexp(t, `^BY-\d+-\d+$`, code)
}
