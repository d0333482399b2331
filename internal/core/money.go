// Package core provides the normalized record types shared by every report
// and the field normalizers that turn raw spreadsheet cells into them.
//
// This file contains the numeric parsers. Sheet cells arrive as display text
// ("1,234.50", "(500)", "2%") and must never abort a batch, so every parser
// here is total and falls back to zero.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseNumber converts a spreadsheet cell to a decimal amount.
//
// Thousands separators and whitespace are removed, and a value fully wrapped
// in parentheses is read as negative (accounting notation). Empty or
// non-numeric input yields zero; the function never fails.
//
// Examples:
//
//	ParseNumber("1,234.50") -> 1234.5
//	ParseNumber("(500)")    -> -500
//	ParseNumber("abc")      -> 0
func ParseNumber(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}
	s = strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	negate := false
	if len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' {
		s = s[1 : len(s)-1]
		// Accounting notation carries no sign inside the parentheses.
		if s != "" && (s[0] == '-' || s[0] == '+') {
			return decimal.Zero
		}
		negate = true
	}
	if !isPlainNumber(s) {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if negate {
		return d.Neg()
	}
	return d
}

// ParseRate parses a commission rate expressed in percent. A single trailing
// "%" is accepted, so "2%" and "2" both yield 2.
func ParseRate(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "%")
	return ParseNumber(s)
}

// isPlainNumber accepts an optional sign, digits and at most one decimal
// point, with an optional exponent. decimal.NewFromString is more lenient
// than the sheets warrant (it has no notion of NaN or Inf, but rejects
// little else), so the shape is checked first.
func isPlainNumber(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
	}
	digits, dot := 0, false
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot:
			dot = true
		case (c == 'e' || c == 'E') && digits > 0:
			return isExponent(s[i+1:])
		default:
			return false
		}
	}
	return digits > 0
}

func isExponent(s string) bool {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	if s == "" || len(s) > 4 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// FormatAmount renders an amount with two decimals for tables and exports.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
