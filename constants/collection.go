package constants

import "strings"

// Collection is a named storage area within the household inventory.
type Collection string

// Stable values (store these exact strings in DB).
const (
	Congelado Collection = "Productos_Congelado"
	Fresco    Collection = "Productos_Fresco"
	Seco      Collection = "Productos_Seco"
	Limpieza  Collection = "Productos_Limpieza"

	// Tiquet is the staging area: items reconciled from a receipt that match
	// no existing record land here until the user files them elsewhere.
	Tiquet Collection = "Productos_Tiquet"
)

// scanOrder is the fixed order in which the reconciliation engine searches
// collections for an existing description. Tiquet goes last so items already
// filed into a real storage area win over staged duplicates.
var scanOrder = []Collection{
	Congelado,
	Fresco,
	Seco,
	Limpieza,
	Tiquet,
}

// ScanOrder returns the collection search order for duplicate checks.
func ScanOrder() []Collection {
	out := make([]Collection, len(scanOrder))
	copy(out, scanOrder)
	return out
}

// ParseCollection canonicalizes user input ("fresco", "Productos_Fresco")
// to a known collection.
func ParseCollection(input string) (Collection, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}
	synonyms := map[string]Collection{
		"congelado": Congelado,
		"fresco":    Fresco,
		"seco":      Seco,
		"limpieza":  Limpieza,
		"tiquet":    Tiquet,
	}
	if c, ok := synonyms[normalized]; ok {
		return c, true
	}
	for _, c := range scanOrder {
		if normalized == strings.ToLower(string(c)) {
			return c, true
		}
	}
	return "", false
}
