package util

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// ParseTerm converts a command line argument to an index term.
// Indexes ending in "_int" get integer terms, all other indexes get the string as is.
func ParseTerm(indexName, raw string) (any, error) {
	if !strings.HasSuffix(indexName, "_int") {
		return raw, nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i, nil
	}
	if b, ok := new(big.Int).SetString(raw, 10); ok {
		return b, nil
	}
	return nil, fmt.Errorf("index %s expects integer terms, got %q", indexName, raw)
}

// ParseValue converts a command line argument to a time series value:
// "null" → nil, "true"/"false" → bool, integers → int64, decimals → float64,
// RFC 3339 timestamps → time.Time and everything else → string.
// A value can be forced to a string by quoting it with single quotes.
func ParseValue(raw string) any {
	if len(raw) >= 2 && strings.HasPrefix(raw, "'") && strings.HasSuffix(raw, "'") {
		return raw[1 : len(raw)-1]
	}
	switch raw {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && strings.ContainsAny(raw, ".eE") {
		return f
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t
	}
	return raw
}

// ParseValues applies ParseValue to every argument
func ParseValues(raw []string) []any {
	values := make([]any, len(raw))
	for i, r := range raw {
		values[i] = ParseValue(r)
	}
	return values
}

// FormatValue renders a decoded value for the terminal
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}
