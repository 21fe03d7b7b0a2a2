package game

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnFromIndex maps a 1-based column index onto its letter (1 -> "A").
func ColumnFromIndex(n int) (string, error) {
	if n < 1 || n > 26 {
		return "", fmt.Errorf("column index %d out of range", n)
	}
	return string(rune('A' + n - 1)), nil
}

// NormalizeColumn accepts a letter in any case or a numeric index written as
// a string and returns the canonical single uppercase letter.
func NormalizeColumn(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		return ColumnFromIndex(n)
	}
	if len(s) != 1 || s[0] < 'A' || s[0] > 'Z' {
		return "", fmt.Errorf("invalid column %q", s)
	}
	return s, nil
}

// NormalizeRow parses a row sent as a string.
func NormalizeRow(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid row %q", s)
	}
	return n, nil
}

// PartOf derives the canonical part tag. Either an explicit "head" tag or the
// legacy isHead flag marks the critical cell.
func PartOf(tag string, isHead bool) Part {
	if isHead || strings.EqualFold(strings.TrimSpace(tag), string(PartHead)) {
		return PartHead
	}
	return PartBody
}
