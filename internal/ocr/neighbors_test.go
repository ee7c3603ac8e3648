package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func digitsOf(t *testing.T, patterns []Pattern) string {
	t.Helper()
	var out []byte
	for _, p := range patterns {
		d, ok := DigitFor(p)
		require.True(t, ok)
		out = append(out, d)
	}
	return string(out)
}

func TestNeighborsOfKnownPatterns(t *testing.T) {
	// expected single-cell confusions within the fixed table
	tests := []struct {
		digit byte
		want  string
	}{
		{'0', "8"},
		{'1', "7"},
		{'2', ""},
		{'3', "9"},
		{'5', "69"},
		{'6', "58"},
		{'7', "1"},
		{'8', "069"},
		{'9', "358"},
	}
	for _, tt := range tests {
		p, _ := PatternFor(tt.digit)
		got := digitsOf(t, Neighbors(p))
		assert.Equal(t, tt.want, got, "neighbors of %q", tt.digit)
	}
}

func TestNeighborsOfCorruptedPattern(t *testing.T) {
	// the glyph for '5' with one cell dropped is unknown but still one
	// cell away from '5'
	p, _ := PatternFor('5')
	corrupted := Pattern(string(p[:3]) + " _ " + string(p[6:]))
	_, known := DigitFor(corrupted)
	require.False(t, known)

	got := digitsOf(t, Neighbors(corrupted))
	assert.Contains(t, got, "5")
}

func TestNeighborsOfBlankPattern(t *testing.T) {
	// no digit rendering is a single cell away from an all-blank glyph
	assert.Empty(t, Neighbors("         "))
}

func TestNeighborsOfWrongLength(t *testing.T) {
	assert.Empty(t, Neighbors(""))
	assert.Empty(t, Neighbors("| |"))
}
