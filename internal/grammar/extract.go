package grammar

import (
	"fmt"
	"strings"
	"time"

	"github.com/despensa-app/despensa/constants"
	"github.com/despensa-app/despensa/internal/entity"
)

// ErrUnsupportedEstablishment is returned when no grammar is registered for
// the resolved establishment.
type ErrUnsupportedEstablishment struct {
	Establishment constants.Establishment
}

func (e *ErrUnsupportedEstablishment) Error() string {
	return fmt.Sprintf("no line grammar registered for establishment %q", e.Establishment)
}

// Extract applies est's line grammar to every OCR line, top to bottom.
// Summary and payment lines are filtered out first, since "TOTAL 10,75"
// fits the description-price shape. Other non-matching lines are headers,
// footers or noise and are skipped. Lines parsing to non-positive numbers
// are skipped the same way. For grammars
// with quantity lookahead, a bare-integer line right after a match is
// consumed as that item's quantity.
func Extract(ocrText string, est constants.Establishment) ([]entity.LineItem, error) {
	g, ok := grammars[est]
	if !ok {
		return nil, &ErrUnsupportedEstablishment{Establishment: est}
	}

	lines := strings.Split(ocrText, "\n")
	now := time.Now().UTC()
	var items []entity.LineItem
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || isNoise(line) {
			continue
		}
		groups := g.re.FindStringSubmatch(line)
		if groups == nil {
			continue
		}
		f, ok := g.build(groups)
		if !ok || f.description == "" {
			continue
		}
		if g.quantityLookahead && i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if reBareInt.MatchString(next) {
				if qty, ok := parseNumber(next); ok {
					f.quantity = qty
					i++ // consume the quantity line
				}
			}
		}
		items = append(items, entity.LineItem{
			Description:   f.description,
			Quantity:      f.quantity,
			UnitPrice:     f.unitPrice,
			Establishment: est,
			PurchaseDate:  now,
		})
	}
	return items, nil
}
