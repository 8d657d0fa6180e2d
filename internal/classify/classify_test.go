package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/despensa-app/despensa/constants"
	"github.com/despensa-app/despensa/internal/classify"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want constants.Establishment
	}{
		{
			name: "mercadona header",
			text: "MERCADONA S.A.\nC/ MAYOR 12\n3 LECHE ENTERA 1,05",
			want: constants.Mercadona,
		},
		{
			name: "carrefour express variant",
			text: "bienvenido\nCARREFOUR EXPRESS\nTOTAL 12,30",
			want: constants.Carrefour,
		},
		{
			name: "keyword survives punctuation and digits",
			text: "**LIDL** 2024-01-02",
			want: constants.Lidl,
		},
		{
			name: "bon preu two-word keyword",
			text: "factura simplificada\nBON PREU SUPERMERCAT",
			want: constants.BonPreu,
		},
		{
			name: "lowercase condis",
			text: "condis supermercats",
			want: constants.Condis,
		},
		{
			name: "no keyword",
			text: "SUPERMERCAT DEL BARRI\nTOTAL 4,50",
			want: constants.UnknownEstablishment,
		},
		{
			name: "empty text",
			text: "",
			want: constants.UnknownEstablishment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify.Classify(tt.text))
		})
	}
}

// Earlier line wins when several keyword lines are present.
func TestClassify_FirstLineWins(t *testing.T) {
	text := "CONDIS SUPERMERCATS\nMERCADONA S.A."
	assert.Equal(t, constants.Condis, classify.Classify(text))
}

func TestClassify_KeywordOrderBreaksTiesWithinLine(t *testing.T) {
	// Both keywords on the same line: scan order decides.
	text := "CARREFOUR MERCADONA"
	assert.Equal(t, constants.Mercadona, classify.Classify(text))
}
