package grammar_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/despensa-app/despensa/constants"
	"github.com/despensa-app/despensa/internal/grammar"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestExtract_Mercadona(t *testing.T) {
	text := "MERCADONA S.A.\n3 LECHE ENTERA 1,05\nTOTAL 3,15"
	items, err := grammar.Extract(text, constants.Mercadona)
	require.NoError(t, err)
	require.Len(t, items, 1)

	it := items[0]
	assert.Equal(t, "LECHE ENTERA", it.Description)
	assert.True(t, it.Quantity.Equal(dec("3")), "quantity = %s", it.Quantity)
	assert.True(t, it.UnitPrice.Equal(dec("1.05")), "unit price = %s", it.UnitPrice)
	assert.Equal(t, constants.Mercadona, it.Establishment)
	assert.False(t, it.PurchaseDate.IsZero())
}

func TestExtract_CarrefourQuantityLookahead(t *testing.T) {
	text := "CARREFOUR EXPRESS\nYOGUR NATURAL 2,40\n4\nPAN DE MOLDE 1,15\nTOTAL 10,75"
	items, err := grammar.Extract(text, constants.Carrefour)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "YOGUR NATURAL", items[0].Description)
	assert.True(t, items[0].Quantity.Equal(dec("4")))
	assert.True(t, items[0].UnitPrice.Equal(dec("2.40")))

	// no bare-integer follow-up: quantity defaults to 1
	assert.Equal(t, "PAN DE MOLDE", items[1].Description)
	assert.True(t, items[1].Quantity.Equal(dec("1")))
	assert.True(t, items[1].UnitPrice.Equal(dec("1.15")))
}

func TestExtract_Lidl(t *testing.T) {
	text := "LIDL\nQUESO CURADO 3,49 2 6,98"
	items, err := grammar.Extract(text, constants.Lidl)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "QUESO CURADO", items[0].Description)
	assert.True(t, items[0].Quantity.Equal(dec("2")))
	assert.True(t, items[0].UnitPrice.Equal(dec("3.49")))
}

func TestExtract_AmetllerWeightQuantity(t *testing.T) {
	text := "TOMATE RAMA 0,485 2,95 1,43"
	items, err := grammar.Extract(text, constants.Ametller)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "TOMATE RAMA", items[0].Description)
	assert.True(t, items[0].Quantity.Equal(dec("0.485")), "quantity = %s", items[0].Quantity)
	assert.True(t, items[0].UnitPrice.Equal(dec("2.95")))
}

func TestExtract_SkipsNoiseLines(t *testing.T) {
	text := "MERCADONA S.A.\nAVDA DIAGONAL 123\n" +
		"2 ACEITE OLIVA 4,75\n" +
		"FACTURA SIMPLIFICADA\n" +
		"TARJETA ****1234\n" +
		"0 GRATIS 0,00\n" + // non-positive quantity: never an item
		"1 AGUA 1L 0,60"
	items, err := grammar.Extract(text, constants.Mercadona)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "ACEITE OLIVA", items[0].Description)
	assert.Equal(t, "AGUA 1L", items[1].Description)
}

func TestExtract_FiltersSummaryLines(t *testing.T) {
	// Every one of these fits the description-price shape; none is an item.
	text := "CONDIS SUPERMERCADOS\n" +
		"LENTEJAS COCIDAS 0,89\n" +
		"SUBTOTAL 0,89\n" +
		"TOTAL 0,89\n" +
		"IVA 4% 0,04\n" +
		"TARJETA 0,89\n" +
		"ENTREGA 5,00\n" +
		"CAMBIO 4,11\n" +
		"29/08/26 18:02"
	items, err := grammar.Extract(text, constants.Condis)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "LENTEJAS COCIDAS", items[0].Description)
	assert.True(t, items[0].UnitPrice.Equal(dec("0.89")))
}

func TestExtract_UnsupportedEstablishment(t *testing.T) {
	items, err := grammar.Extract("3 LECHE ENTERA 1,05", constants.UnknownEstablishment)
	assert.Nil(t, items)

	var unsupported *grammar.ErrUnsupportedEstablishment
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, constants.UnknownEstablishment, unsupported.Establishment)
}

func TestSupported(t *testing.T) {
	for _, est := range []constants.Establishment{
		constants.Mercadona, constants.Carrefour, constants.BonPreu,
		constants.Lidl, constants.Condis, constants.Ametller,
	} {
		assert.True(t, grammar.Supported(est), "%s should have a grammar", est)
	}
	assert.False(t, grammar.Supported(constants.UnknownEstablishment))
}
