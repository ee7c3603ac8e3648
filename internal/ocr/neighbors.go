package ocr

// Neighbors returns every known pattern whose cell-wise Hamming distance
// from p is exactly 1. p itself may be a corrupted reading outside the
// table; all comparisons run against the fixed ten-pattern universe, so
// the scan is O(10×9) per call.
func Neighbors(p Pattern) []Pattern {
	var out []Pattern
	for _, known := range digitPatterns {
		if oneCellApart(p, known) {
			out = append(out, known)
		}
	}
	return out
}

func oneCellApart(a, b Pattern) bool {
	if len(a) != len(b) {
		return false
	}
	diff := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			diff++
			if diff > 1 {
				return false
			}
		}
	}
	return diff == 1
}
