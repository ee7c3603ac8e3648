// Package ocr decodes fixed-format ASCII renderings of 9-digit policy
// numbers: glyph recognition, checksum validation, and single-cell
// error correction.
package ocr

import "github.com/acmefin/policyscan/internal/common"

const (
	// PatternCells is the number of character cells in one glyph
	// (three rows of three cells, concatenated top to bottom).
	PatternCells = 9
	// EntryDigits is the number of glyphs in one policy number.
	EntryDigits = 9
	// Unknown marks a slot whose glyph matched no known pattern.
	Unknown = '?'
)

// Pattern is the 9-cell rendering of one digit over {space, underscore, pipe}.
type Pattern string

// Entry is the ordered group of nine patterns for one policy number,
// left-to-right digit order.
type Entry []Pattern

// digitPatterns maps digit value to its rendering. The table is fixed
// data: exactly ten patterns, bijective with '0'..'9'.
var digitPatterns = [10]Pattern{
	" _ " + "| |" + "|_|", // 0
	"   " + "  |" + "  |", // 1
	" _ " + " _|" + "|_ ", // 2
	" _ " + " _|" + " _|", // 3
	"   " + "|_|" + "  |", // 4
	" _ " + "|_ " + " _|", // 5
	" _ " + "|_ " + "|_|", // 6
	" _ " + "  |" + "  |", // 7
	" _ " + "|_|" + "|_|", // 8
	" _ " + "|_|" + " _|", // 9
}

var patternDigits = func() map[Pattern]byte {
	m := make(map[Pattern]byte, len(digitPatterns))
	for d, p := range digitPatterns {
		m[p] = byte('0' + d)
	}
	return m
}()

// DigitFor resolves a pattern to its digit character. ok is false for
// anything outside the ten known renderings, including blank or
// malformed patterns.
func DigitFor(p Pattern) (byte, bool) {
	d, ok := patternDigits[p]
	return d, ok
}

// PatternFor returns the rendering of a digit character '0'..'9'.
func PatternFor(digit byte) (Pattern, bool) {
	if digit < '0' || digit > '9' {
		return "", false
	}
	return digitPatterns[digit-'0'], true
}

// EntryFor renders a 9-digit number back into its glyph entry.
func EntryFor(number string) (Entry, error) {
	if len(number) != EntryDigits {
		return nil, common.InvalidInputf("number %q has length %d, want %d", number, len(number), EntryDigits)
	}
	e := make(Entry, 0, EntryDigits)
	for i := 0; i < len(number); i++ {
		p, ok := PatternFor(number[i])
		if !ok {
			return nil, common.InvalidInputf("number %q contains non-digit %q", number, number[i])
		}
		e = append(e, p)
	}
	return e, nil
}
