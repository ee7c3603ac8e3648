package ocr

import (
	"strings"

	"github.com/acmefin/policyscan/internal/common"
)

// ParseEntry maps each glyph slot through the table and concatenates the
// results, substituting '?' for unrecognized glyphs. The entry must
// already be sliced into nine 9-cell patterns; anything else is a caller
// bug reported as an invalid-argument error.
func ParseEntry(e Entry) (string, error) {
	if len(e) != EntryDigits {
		return "", common.InvalidInputf("entry has %d glyphs, want %d", len(e), EntryDigits)
	}
	var b strings.Builder
	b.Grow(EntryDigits)
	for i, p := range e {
		if len(p) != PatternCells {
			return "", common.InvalidInputf("glyph %d has %d cells, want %d", i, len(p), PatternCells)
		}
		d, ok := DigitFor(p)
		if !ok {
			d = Unknown
		}
		b.WriteByte(d)
	}
	return b.String(), nil
}
