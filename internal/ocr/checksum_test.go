package ocr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmefin/policyscan/internal/common"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		number string
		want   int
	}{
		{"345882865", 0},
		{"000000000", 0},
		{"123456789", 0},
		{"111111111", 1},
		{"222222222", 2},
		{"888888888", 8},
	}
	for _, tt := range tests {
		got, err := Checksum(tt.number)
		require.NoError(t, err, tt.number)
		assert.Equal(t, tt.want, got, tt.number)
	}
}

func TestChecksumInvalidArgument(t *testing.T) {
	for _, number := range []string{
		"",
		"123",
		"1234567890",
		"abcd56789",
		"34588286?",
	} {
		_, err := Checksum(number)
		require.Error(t, err, number)
		assert.True(t, errors.Is(err, common.ErrInvalidInput), number)
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("345882865"))
	assert.True(t, IsValid("000000000"))
	assert.True(t, IsValid("123456789"))

	assert.False(t, IsValid("111111111"))
	// malformed input is absorbed, never an error
	assert.False(t, IsValid("123"))
	assert.False(t, IsValid("34588286?"))
	assert.False(t, IsValid(""))
}
