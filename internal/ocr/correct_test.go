package ocr

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmefin/policyscan/internal/common"
)

func mustEntry(t *testing.T, number string) Entry {
	t.Helper()
	e, err := EntryFor(number)
	require.NoError(t, err)
	return e
}

func TestCorrectAlreadyValid(t *testing.T) {
	for _, number := range []string{"345882865", "000000000", "123456789"} {
		got, st, err := Correct(mustEntry(t, number))
		require.NoError(t, err)
		assert.Equal(t, number, got)
		assert.Equal(t, StatusNone, st)
	}
}

func TestCorrectSingleCellFlipOnIllegibleSlot(t *testing.T) {
	// drop one cell from the final '5' so the glyph no longer matches
	e := mustEntry(t, "345882865")
	p := e[8]
	e[8] = Pattern(string(p[:3]) + " _ " + string(p[6:]))

	raw, err := ParseEntry(e)
	require.NoError(t, err)
	require.Equal(t, "34588286?", raw)

	got, st, err := Correct(e)
	require.NoError(t, err)
	assert.Equal(t, "345882865", got)
	assert.Equal(t, StatusNone, st)
}

func TestCorrectSingleCellFlipOnChecksumFailure(t *testing.T) {
	// "111111111" fails the checksum; the only single-cell repair reads
	// the first glyph as '7'
	got, st, err := Correct(mustEntry(t, "111111111"))
	require.NoError(t, err)
	assert.Equal(t, "711111111", got)
	assert.Equal(t, StatusNone, st)
}

func TestCorrectUnrecoverableBlankSlot(t *testing.T) {
	e := mustEntry(t, "345882865")
	e[0] = "         "

	got, st, err := Correct(e)
	require.NoError(t, err)
	assert.Equal(t, "?45882865", got)
	assert.Equal(t, StatusIllegible, st)
}

func TestCorrectTwoIllegibleSlotsStayIllegible(t *testing.T) {
	e := mustEntry(t, "345882865")
	e[0] = "         "
	e[1] = "         "

	got, st, err := Correct(e)
	require.NoError(t, err)
	assert.Equal(t, "??5882865", got)
	assert.Equal(t, StatusIllegible, st)
}

func TestCorrectNoRepairKeepsErrTag(t *testing.T) {
	// '2' has no single-cell confusions, so an all-2 entry cannot be
	// repaired at all
	got, st, err := Correct(mustEntry(t, "222222222"))
	require.NoError(t, err)
	assert.Equal(t, "222222222", got)
	assert.Equal(t, StatusInvalid, st)
}

func TestCorrectTieBreakPicksUniqueMod13Candidate(t *testing.T) {
	// "888888888" has three valid repairs: 888888880, 888886888 and
	// 888888988; only the last is divisible by 13
	got, st, err := Correct(mustEntry(t, "888888888"))
	require.NoError(t, err)
	assert.Equal(t, "888888988", got)
	assert.Equal(t, StatusNone, st)
}

func TestCorrectAmbiguousWhenTieBreakFails(t *testing.T) {
	// "555555555" repairs to both 555655555 and 559555555, and both are
	// divisible by 13, so neither wins
	got, st, err := Correct(mustEntry(t, "555555555"))
	require.NoError(t, err)
	assert.Equal(t, "555555555", got)
	assert.Equal(t, StatusAmbiguous, st)
}

func TestCorrectMalformedEntry(t *testing.T) {
	_, _, err := Correct(Entry{"         "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestCorrectBatchThroughput(t *testing.T) {
	e := mustEntry(t, "000000000")
	start := time.Now()
	for i := 0; i < 500; i++ {
		got, st, err := Correct(e)
		require.NoError(t, err)
		require.Equal(t, "000000000", got)
		require.Equal(t, StatusNone, st)
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, StatusNone, Classify("345882865"))
	assert.Equal(t, StatusIllegible, Classify("34588286?"))
	assert.Equal(t, StatusInvalid, Classify("111111111"))
}

func TestLine(t *testing.T) {
	assert.Equal(t, "345882865", Line("345882865", StatusNone))
	assert.Equal(t, "34588286? ILL", Line("34588286?", StatusIllegible))
	assert.Equal(t, "111111111 ERR", Line("111111111", StatusInvalid))
	assert.Equal(t, "555555555 AMB", Line("555555555", StatusAmbiguous))
}
