package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseNumber reads a spreadsheet numeric cell. Cells may come as 1234,
// 1234.0 or with thousands separators (1,234.00).
func ParseNumber(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}

	// format: 1.234,56
	if strings.Contains(raw, ".") && strings.Contains(raw, ",") &&
		strings.LastIndex(raw, ",") > strings.LastIndex(raw, ".") {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	} else {
		raw = strings.ReplaceAll(raw, ",", "")
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse number %q: %w", raw, err)
	}
	return d, nil
}

// ParseInt truncates a numeric cell to an integer.
func ParseInt(raw string) (int, error) {
	d, err := ParseNumber(raw)
	if err != nil {
		return 0, err
	}
	return int(d.IntPart()), nil
}

// ParseCents reads an integer amount in cents and returns pesos.
func ParseCents(raw string) (decimal.Decimal, error) {
	d, err := ParseNumber(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(d.IntPart()).Shift(-2), nil
}
