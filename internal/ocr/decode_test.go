package ocr

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmefin/policyscan/internal/common"
)

func TestRenderReadRoundTrip(t *testing.T) {
	doc, err := Render("123456789")
	require.NoError(t, err)

	entries, err := ReadDocument(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got, err := ParseEntry(entries[0])
	require.NoError(t, err)
	assert.Equal(t, "123456789", got)
}

func TestReadDocumentMultipleBlocks(t *testing.T) {
	var b strings.Builder
	for _, number := range []string{"345882865", "000000000", "111111111"} {
		block, err := Render(number)
		require.NoError(t, err)
		b.WriteString(block)
	}

	entries, err := ReadDocument(strings.NewReader(b.String()))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	want := []string{"345882865", "000000000", "111111111"}
	for i, e := range entries {
		got, err := ParseEntry(e)
		require.NoError(t, err)
		assert.Equal(t, want[i], got)
	}
}

func TestReadDocumentMissingTrailingSeparator(t *testing.T) {
	doc, err := Render("123456789")
	require.NoError(t, err)
	doc = strings.TrimSuffix(doc, "\n") // drop the final blank line

	entries, err := ReadDocument(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReadDocumentPadsTrimmedRows(t *testing.T) {
	// scanners trim trailing blanks; an all-1 block loses its first row
	// entirely and most of the others
	doc, err := Render("111111111")
	require.NoError(t, err)
	var trimmed []string
	for _, line := range strings.Split(doc, "\n") {
		trimmed = append(trimmed, strings.TrimRight(line, " "))
	}

	entries, err := ReadDocument(strings.NewReader(strings.Join(trimmed, "\n")))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got, err := ParseEntry(entries[0])
	require.NoError(t, err)
	assert.Equal(t, "111111111", got)
}

func TestReadDocumentMalformedShape(t *testing.T) {
	// five lines is neither a whole block nor a block missing its separator
	doc := strings.Repeat("   \n", 5)
	_, err := ReadDocument(strings.NewReader(doc))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestReadDocumentNonBlankSeparator(t *testing.T) {
	block, err := Render("123456789")
	require.NoError(t, err)
	doc := strings.TrimSuffix(block, "\n") + "oops\n"

	_, err = ReadDocument(strings.NewReader(doc))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestReadDocumentOverlongRow(t *testing.T) {
	block, err := Render("123456789")
	require.NoError(t, err)
	lines := strings.Split(block, "\n")
	lines[0] += "   |"

	_, err = ReadDocument(strings.NewReader(strings.Join(lines, "\n")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestReadDocumentEmpty(t *testing.T) {
	_, err := ReadDocument(strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}
