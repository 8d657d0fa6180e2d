package enrich

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// InternalCode derives a short identifier used to match items across
// duplicate descriptions: the first three uppercased characters of the
// description, the current epoch millis, and a random 0..9999 suffix.
// Uniqueness is deliberately weak (two calls in the same millisecond can
// collide); collisions only cost dedup convenience, never stock accuracy.
func InternalCode(description string) string {
	prefix := strings.ToUpper(strings.TrimSpace(description))
	prefix = strings.ReplaceAll(prefix, " ", "")
	if r := []rune(prefix); len(r) > 3 {
		prefix = string(r[:3])
	}
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixMilli(), rand.IntN(10000))
}
