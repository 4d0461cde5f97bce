// Package parse provides explicit optional numeric coercion for tabular
// source data. A failed parse yields nil, never zero, so downstream code can
// distinguish "missing" from "0".
package parse

import (
	"strconv"
	"strings"
)

// Float parses a string as a float64. Returns nil for empty strings and
// values that fail to parse.
func Float(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Currency parses a monetary cell value ("$1,234.50") as a float64.
// Returns nil if the cleaned value fails to parse.
func Currency(s string) *float64 {
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	return Float(s)
}

// Int64 parses a string as an int64. Returns nil on failure.
func Int64(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Store IDs sometimes arrive as "1023.0" from spreadsheet exports.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return nil
		}
		i := int64(f)
		return &i
	}
	return &v
}

// normalizeCol lowercases and trims a header cell for cross-format matching.
func normalizeCol(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MapColumns builds a normalized column name → index map from a header row.
func MapColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		m[normalizeCol(col)] = i
	}
	return m
}

// Col gets a cell by normalized column name, or "" when the column is
// missing or the row is short.
func Col(record []string, colIdx map[string]int, name string) string {
	idx, ok := colIdx[normalizeCol(name)]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// HasColumns reports whether every named column is present in the map.
func HasColumns(colIdx map[string]int, names ...string) bool {
	for _, n := range names {
		if _, ok := colIdx[normalizeCol(n)]; !ok {
			return false
		}
	}
	return true
}
