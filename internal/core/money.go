// Package core provides money parsing and formatting utilities.
//
// Amounts are carried as decimal.Decimal end to end. Formatting follows the
// dashboard conventions: whole dollar values print without decimals, fractional
// values with two, and incomes with thousands separators.
package core

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// ParseAmount parses a signed ledger amount such as "-12.50", "$3,200" or
// "+87.3". Thousands separators and a leading currency sign are ignored.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, ErrZeroAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ParseIncome converts user input to an income value. Anything that is not a
// number becomes zero so the engine falls into its guarded branch instead of
// failing.
//
// Examples:
//
//	ParseIncome("4000")    -> 4000
//	ParseIncome("4,250.5") -> 4250.5
//	ParseIncome("abc")     -> 0
func ParseIncome(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatAmount renders an amount the way advice text interpolates it:
// 200 -> "200", 99.8 -> "99.80".
func FormatAmount(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(0)
	}
	return d.StringFixed(2)
}

// FormatWhole rounds to whole dollars: 3884.4 -> "3884".
func FormatWhole(d decimal.Decimal) string {
	return d.StringFixed(0)
}

// FormatGrouped adds thousands separators: 4000 -> "4,000", 4250.5 -> "4,250.5".
func FormatGrouped(d decimal.Decimal) string {
	return humanize.Commaf(d.InexactFloat64())
}

// FormatPercent renders a savings rate with one decimal: 75 -> "75.0".
func FormatPercent(d decimal.Decimal) string {
	return d.StringFixed(1)
}
