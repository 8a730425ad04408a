package report

import "strings"

// formulaPrefixes are leading characters that make spreadsheet applications
// evaluate a cell as a formula.
const formulaPrefixes = "=+-@|%\t\r\n"

// EscapeCell prefixes a single quote to values a spreadsheet would treat as
// a formula. Negative numbers are left alone.
func EscapeCell(value string) string {
	if value == "" || !strings.ContainsRune(formulaPrefixes, rune(value[0])) {
		return value
	}
	if value[0] == '-' && isNumber(value[1:]) {
		return value
	}
	return "'" + value
}

// EscapeRow escapes every cell of row into a new slice.
func EscapeRow(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = EscapeCell(c)
	}
	return out
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	dot := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return true
}
