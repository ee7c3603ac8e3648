package ocr

import (
	"strconv"
	"strings"
)

// Status tags a decoded entry.
type Status string

const (
	StatusNone      Status = ""    // all digits present, checksum valid
	StatusIllegible Status = "ILL" // contains at least one '?'
	StatusInvalid   Status = "ERR" // all digits present, checksum failed
	StatusAmbiguous Status = "AMB" // more than one repair survived the tie-break
)

// Classify derives the status tag of a parsed number without searching
// for repairs.
func Classify(raw string) Status {
	if strings.ContainsRune(raw, Unknown) {
		return StatusIllegible
	}
	if !IsValid(raw) {
		return StatusInvalid
	}
	return StatusNone
}

// Line renders the per-entry output line: the bare number for a clean
// decode, otherwise the number followed by its tag.
func Line(number string, st Status) string {
	if st == StatusNone {
		return number
	}
	return number + " " + string(st)
}

// Correct decodes an entry and, when it is illegible or fails the
// checksum, searches for a repair one character cell away.
//
// For each of the nine glyph slots, every known pattern at Hamming
// distance 1 from the slot's reading is tried in isolation; trials that
// still contain '?' or fail the checksum are discarded, and the distinct
// survivors form the candidate set. Exactly one candidate repairs the
// entry and clears the tag. Among several, a single candidate divisible
// by 13 wins; otherwise the raw string is reported as AMB. With no
// candidates the original ILL/ERR tag stands.
func Correct(e Entry) (string, Status, error) {
	raw, err := ParseEntry(e)
	if err != nil {
		return "", StatusNone, err
	}
	tag := Classify(raw)
	if tag == StatusNone {
		return raw, StatusNone, nil
	}

	candidates := make(map[string]struct{})
	trial := make(Entry, len(e))
	copy(trial, e)
	for slot := range e {
		orig := trial[slot]
		for _, n := range Neighbors(orig) {
			trial[slot] = n
			num, err := ParseEntry(trial)
			if err != nil {
				trial[slot] = orig
				return "", StatusNone, err
			}
			if strings.ContainsRune(num, Unknown) || !IsValid(num) {
				continue
			}
			candidates[num] = struct{}{}
		}
		trial[slot] = orig
	}

	switch len(candidates) {
	case 0:
		return raw, tag, nil
	case 1:
		for num := range candidates {
			return num, StatusNone, nil
		}
	}

	var winner string
	survivors := 0
	for num := range candidates {
		if divisibleBy13(num) {
			winner = num
			survivors++
		}
	}
	if survivors == 1 {
		return winner, StatusNone, nil
	}
	return raw, StatusAmbiguous, nil
}

func divisibleBy13(number string) bool {
	n, err := strconv.ParseUint(number, 10, 64)
	return err == nil && n%13 == 0
}
