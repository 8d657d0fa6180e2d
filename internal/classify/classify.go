// Package classify resolves which establishment a receipt came from by
// scanning its OCR text for known store keywords.
package classify

import (
	"strings"

	"github.com/despensa-app/despensa/constants"
)

// Classify scans OCR lines top to bottom and returns the first establishment
// whose keyword appears in a normalized line. Lines are uppercased and
// stripped of everything outside A-Z and whitespace before matching, so OCR
// noise like "MERCAD0NA S.A." still resolves when the keyword survives.
// Returns the unknown sentinel when no line matches; callers must treat that
// as a refusal to extract, never as a default grammar.
func Classify(ocrText string) constants.Establishment {
	keywords := constants.ClassifierKeywords()
	for _, line := range strings.Split(ocrText, "\n") {
		normalized := normalizeLine(line)
		if normalized == "" {
			continue
		}
		for _, kw := range keywords {
			if strings.Contains(normalized, string(kw)) {
				return kw
			}
		}
	}
	return constants.UnknownEstablishment
}

// normalizeLine uppercases and keeps only A-Z and whitespace, collapsing the
// rest, then trims.
func normalizeLine(line string) string {
	upper := strings.ToUpper(line)
	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || r == ' ' || r == '\t' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
