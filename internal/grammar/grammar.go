// Package grammar turns raw receipt text into draft line items using one
// positional line grammar per establishment.
package grammar

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/despensa-app/despensa/constants"
)

// fields is a successfully parsed receipt line before it becomes a LineItem.
type fields struct {
	description string
	quantity    decimal.Decimal
	unitPrice   decimal.Decimal
}

// lineGrammar describes how one establishment lays out quantity, description
// and price on a receipt line.
type lineGrammar struct {
	re    *regexp.Regexp
	build func(groups []string) (fields, bool)

	// quantityLookahead: when set, a bare-integer line immediately after a
	// match becomes the quantity and is consumed.
	quantityLookahead bool
}

var (
	// "3 LECHE ENTERA 1,05"
	reQtyDescPrice = regexp.MustCompile(`^(\d+)\s+(.+?)\s+(\d+[.,]\d{2})$`)
	// "LECHE ENTERA 1,05"
	reDescPrice = regexp.MustCompile(`^(.+?)\s+(\d+[.,]\d{2})$`)
	// "LECHE ENTERA 1,05 3 3,15"
	reDescPriceQtyTotal = regexp.MustCompile(`^(.+?)\s+(\d+[.,]\d{2})\s+(\d+)\s+(\d+[.,]\d{2})$`)
	// "TOMATE RAMA 0,485 2,95 1,43"
	reDescQtyPriceTotal = regexp.MustCompile(`^(.+?)\s+(\d+(?:[.,]\d+)?)\s+(\d+[.,]\d{2})\s+(\d+[.,]\d{2})$`)

	reBareInt = regexp.MustCompile(`^\d+$`)
)

// excludePatterns filters summary, payment and footer lines before any
// grammar runs. Spanish receipts close with lines like "TOTAL 10,75" or
// "ENTREGA 20,00" that fit the description-price shape exactly.
var excludePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(TOTAL|SUBTOTAL|SUB\s*TOTAL|IVA|I\.V\.A\.?|BASE\s+IMPONIBLE|CUOTA|IMPORTE|TARJETA|EFECTIVO|ENTREGA(?:DO)?|CAMBIO|DEVOLUCI[OÓ]N|PAGO|VISA|MASTERCARD|MAESTRO|SALDO|DESCUENTO|CUP[OÓ]N|AHORRO|PROPINA|FACTURA|GRACIAS)\b`),
	regexp.MustCompile(`^\s*[-=*]+\s*$`),
	regexp.MustCompile(`^\s*\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
	regexp.MustCompile(`^\s*\d{1,2}:\d{2}\b`),
}

func isNoise(line string) bool {
	for _, re := range excludePatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func buildQtyDescPrice(g []string) (fields, bool) {
	qty, ok := parseNumber(g[1])
	if !ok {
		return fields{}, false
	}
	price, ok := parseNumber(g[3])
	if !ok {
		return fields{}, false
	}
	return fields{description: strings.TrimSpace(g[2]), quantity: qty, unitPrice: price}, true
}

func buildDescPrice(g []string) (fields, bool) {
	price, ok := parseNumber(g[2])
	if !ok {
		return fields{}, false
	}
	return fields{description: strings.TrimSpace(g[1]), quantity: decimal.NewFromInt(1), unitPrice: price}, true
}

func buildDescPriceQtyTotal(g []string) (fields, bool) {
	price, ok := parseNumber(g[2])
	if !ok {
		return fields{}, false
	}
	qty, ok := parseNumber(g[3])
	if !ok {
		return fields{}, false
	}
	return fields{description: strings.TrimSpace(g[1]), quantity: qty, unitPrice: price}, true
}

func buildDescQtyPriceTotal(g []string) (fields, bool) {
	qty, ok := parseNumber(g[2])
	if !ok {
		return fields{}, false
	}
	price, ok := parseNumber(g[3])
	if !ok {
		return fields{}, false
	}
	return fields{description: strings.TrimSpace(g[1]), quantity: qty, unitPrice: price}, true
}

// grammars maps each establishment to its single line grammar. Anything not
// in this table (the unknown sentinel included) is unsupported and must be
// refused, never parsed with a fallback shape.
var grammars = map[constants.Establishment]lineGrammar{
	constants.Mercadona: {re: reQtyDescPrice, build: buildQtyDescPrice},
	constants.Carrefour: {re: reDescPrice, build: buildDescPrice, quantityLookahead: true},
	constants.Condis:    {re: reDescPrice, build: buildDescPrice, quantityLookahead: true},
	constants.BonPreu:   {re: reDescPrice, build: buildDescPrice, quantityLookahead: true},
	constants.Lidl:      {re: reDescPriceQtyTotal, build: buildDescPriceQtyTotal},
	constants.Ametller:  {re: reDescQtyPriceTotal, build: buildDescQtyPriceTotal},
}

// Supported reports whether a line grammar is registered for est.
func Supported(est constants.Establishment) bool {
	_, ok := grammars[est]
	return ok
}

// parseNumber normalizes the decimal comma and parses. Returns false for
// anything non-positive, so zero-quantity noise lines never become items.
func parseNumber(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil || !d.IsPositive() {
		return decimal.Decimal{}, false
	}
	return d, true
}
