// Package utils provides small helpers shared by the keystats packages:
// snapshot timestamps, calendar dates, ticker keys and cell formatting.
package utils

import (
	"strconv"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// FormatFloat renders a float in its shortest round-trip decimal form,
// without exponent notation (1.5e9 → "1500000000").
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatValue renders a metric cell, writing missing for an absent value.
func FormatValue(v null.Float, missing string) string {
	if !v.Valid {
		return missing
	}
	return FormatFloat(v.Float64)
}

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
)

// FormatCompact formats a magnitude with the K/M/B suffixes used by the
// snapshot pages, e.g. 1500000000 → "1.50B", 250000 → "250.00K".
// The shortest decimal form of v is scaled and rounded half away from zero,
// so 1005 shows as "1.01K".
func FormatCompact(v float64) string {
	d := decimal.NewFromFloat(v)
	abs := d.Abs()

	switch {
	case abs.GreaterThanOrEqual(billion):
		return d.Div(billion).StringFixed(2) + "B"
	case abs.GreaterThanOrEqual(million):
		return d.Div(million).StringFixed(2) + "M"
	case abs.GreaterThanOrEqual(thousand):
		return d.Div(thousand).StringFixed(2) + "K"
	default:
		return d.StringFixed(2)
	}
}
