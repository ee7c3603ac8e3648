package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"345882865", "345882865"},
		{"000000000", "000000000"},
		{"111111111", "111111111 ERR"},
		{"34588286?", "34588286? ILL"},
		{"?????????", "????????? ILL"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.raw))
	}
}
