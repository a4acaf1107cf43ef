package pattern

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Parse reads a text grid. Each non-empty line is one row; '#', '1', '+',
// 'X' and 'x' are true, '.', '0', '-' and 'o' are false. Spaces and tabs
// inside a line are ignored, and lines starting with "//" are comments.
//
// A single row yields a one-dimensional pattern; several rows yield a
// rows x cols pattern.
func Parse(r io.Reader) (Pattern, error) {
	var rows [][]bool
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		row := make([]bool, 0, len(line))
		for _, c := range line {
			switch c {
			case '#', '1', '+', 'X', 'x':
				row = append(row, true)
			case '.', '0', '-', 'o':
				row = append(row, false)
			case ' ', '\t':
			default:
				return Pattern{}, fmt.Errorf("line %d: unexpected symbol %q", lineNo, c)
			}
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return Pattern{}, fmt.Errorf("reading pattern: %w", err)
	}

	switch len(rows) {
	case 0:
		return Pattern{}, &ShapeError{Reason: "pattern text has no rows"}
	case 1:
		shape, err := NewShape(len(rows[0]))
		if err != nil {
			return Pattern{}, err
		}
		return New(shape, rows[0])
	default:
		return FromRows(rows)
	}
}

// ParseString is a convenience wrapper around Parse.
func ParseString(s string) (Pattern, error) {
	return Parse(strings.NewReader(s))
}

// MustParse is like ParseString but panics on error. Intended for tests.
func MustParse(s string) Pattern {
	p, err := ParseString(s)
	if err != nil {
		panic(err)
	}
	return p
}
