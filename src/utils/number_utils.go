package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseGermanDecimal parses a German-formatted number ("1.234,56" -> 1234.56).
// Thousands separators and embedded spaces are stripped; the decimal comma
// becomes a decimal point. An empty string is an error so callers decide
// whether a missing amount is legitimate.
func ParseGermanDecimal(value string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty number")
	}
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q: %w", value, err)
	}
	return d, nil
}

// ParseDotDecimal parses a plain dot-decimal number ("1234.56").
func ParseDotDecimal(value string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty number")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q: %w", value, err)
	}
	return d, nil
}

// RoundToCents rounds to the currency minor unit. Independent rounding in two
// export formats must not defeat duplicate detection, so fingerprints always
// hash the cent-rounded amount.
func RoundToCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
