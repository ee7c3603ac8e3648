package ocr

import "github.com/acmefin/policyscan/internal/common"

// Checksum computes the weighted mod-11 checksum of a 9-digit number:
// the rightmost digit carries weight 1, each digit to its left one more.
// Returns an invalid-argument error for inputs that are not exactly nine
// ASCII digits; the '?' sentinel counts as a non-digit here.
func Checksum(number string) (int, error) {
	if len(number) != EntryDigits {
		return 0, common.InvalidInputf("number %q has length %d, want %d", number, len(number), EntryDigits)
	}
	sum := 0
	for i := 0; i < len(number); i++ {
		c := number[i]
		if c < '0' || c > '9' {
			return 0, common.InvalidInputf("number %q contains non-digit %q at position %d", number, c, i)
		}
		sum += int(c-'0') * (len(number) - i)
	}
	return sum % 11, nil
}

// IsValid reports whether number passes the checksum. The predicate is
// total: malformed input answers false instead of propagating the
// invalid-argument condition.
func IsValid(number string) bool {
	sum, err := Checksum(number)
	return err == nil && sum == 0
}
