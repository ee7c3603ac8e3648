package ocr

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/acmefin/policyscan/internal/common"
)

const (
	rowsPerEntry  = 3
	linesPerBlock = 4 // three glyph rows plus one blank separator
	lineWidth     = EntryDigits * 3
)

// ReadDocument slices a scan stream into entries. Lines come in runs of
// four: three glyph rows of up to 27 cells plus a blank separator; the
// separator after the final block may be missing, and rows are padded
// with trailing spaces since scanners tend to trim them. A stream whose
// shape does not fit that grid is rejected with an invalid-argument
// error before any entry is decoded.
func ReadDocument(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if len(lines)%linesPerBlock == rowsPerEntry {
		lines = append(lines, "")
	}
	if len(lines) == 0 || len(lines)%linesPerBlock != 0 {
		return nil, common.InvalidInputf("document has %d lines, want a multiple of %d", len(lines), linesPerBlock)
	}

	entries := make([]Entry, 0, len(lines)/linesPerBlock)
	for block := 0; block < len(lines); block += linesPerBlock {
		var rows [rowsPerEntry]string
		for i := 0; i < rowsPerEntry; i++ {
			row := lines[block+i]
			if len(row) > lineWidth {
				return nil, common.InvalidInputf("line %d is %d cells wide, want at most %d", block+i+1, len(row), lineWidth)
			}
			rows[i] = row + strings.Repeat(" ", lineWidth-len(row))
		}
		if sep := lines[block+rowsPerEntry]; strings.TrimSpace(sep) != "" {
			return nil, common.InvalidInputf("line %d should be a blank separator", block+rowsPerEntry+1)
		}

		e := make(Entry, EntryDigits)
		for d := 0; d < EntryDigits; d++ {
			col := d * 3
			e[d] = Pattern(rows[0][col:col+3] + rows[1][col:col+3] + rows[2][col:col+3])
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Render writes a 9-digit number as its four-line scan block, the
// inverse of ReadDocument for a single entry.
func Render(number string) (string, error) {
	e, err := EntryFor(number)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for r := 0; r < rowsPerEntry; r++ {
		for _, p := range e {
			b.WriteString(string(p[r*3 : r*3+3]))
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.String(), nil
}
