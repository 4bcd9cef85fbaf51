package parser

import (
	"strconv"
	"strings"
)

// ParsePrice parses a numeric literal as it appears in bulletin prose,
// like "6,950" or "1.1880" or "54.", into a float. Returns nil when the
// input is empty or not numeric; it never fails loudly, an unparseable
// price leaves the field null on the record.
func ParsePrice(s string) *float64 {
	if s == "" {
		return nil
	}
	cleaned := strings.ReplaceAll(s, ",", "")
	cleaned = strings.TrimRight(cleaned, ".")
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}
