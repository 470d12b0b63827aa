package schedule

import (
	"strings"
	"unicode"
)

// NormalizePlate strips all whitespace (including full-width spaces) from a
// plate string and uppercases it. Matching between reservations and detected
// plates always goes through this form.
func NormalizePlate(plate string) string {
	var b strings.Builder
	b.Grow(len(plate))
	for _, r := range plate {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}
