package constants

import (
	"strings"
)

// Establishment is the normalized name of the store a receipt came from.
// It selects which line grammar the extractor applies.
type Establishment string

// Stable values (store these exact strings in DB).
const (
	Mercadona Establishment = "MERCADONA"
	Carrefour Establishment = "CARREFOUR"
	BonPreu   Establishment = "BON PREU"
	Lidl      Establishment = "LIDL"
	Condis    Establishment = "CONDIS"
	Ametller  Establishment = "AMETLLER"

	// UnknownEstablishment is the fallback sentinel. Receipts classified as
	// unknown are never extracted with a default grammar.
	UnknownEstablishment Establishment = "OTROS_SUPERMERCADOS"
)

// classifierKeywords are scanned in order against each normalized OCR line;
// the first keyword found wins. Ametller is deliberately absent: its receipts
// carry no reliable header keyword and must be selected by the user.
var classifierKeywords = []Establishment{
	Mercadona,
	Carrefour,
	BonPreu,
	Lidl,
	Condis,
}

// ClassifierKeywords returns the keyword scan order for the classifier.
func ClassifierKeywords() []Establishment {
	out := make([]Establishment, len(classifierKeywords))
	copy(out, classifierKeywords)
	return out
}

var allEstablishments = []Establishment{
	Mercadona,
	Carrefour,
	BonPreu,
	Lidl,
	Condis,
	Ametller,
}

// ParseEstablishment canonicalizes free-form input to a known establishment.
// Returns (UnknownEstablishment, false) when the input matches nothing.
func ParseEstablishment(input string) (Establishment, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(input))
	if normalized == "" {
		return UnknownEstablishment, false
	}
	if normalized == string(UnknownEstablishment) {
		return UnknownEstablishment, true
	}
	for _, e := range allEstablishments {
		if normalized == string(e) {
			return e, true
		}
	}
	return UnknownEstablishment, false
}
