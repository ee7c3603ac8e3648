package ocr

// Format tags a parsed number for the plain, non-correcting output path:
// " ILL" is appended when any digit is unreadable, " ERR" when the
// checksum fails, and a valid number passes through unchanged.
func Format(raw string) string {
	return Line(raw, Classify(raw))
}
