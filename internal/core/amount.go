// Package core provides the record types and the pure computations behind
// the dashboard and summary views.
//
// This file contains functions for parsing monetary amounts from user input.
// ParseAmount is strict and used before anything is saved; Coerce is lenient
// and used by the calculators, which must keep working while the user types.
package core

import (
	"encoding/json"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to an amount.
//
// Input follows the en-PH convention: dot is the decimal separator and commas
// or spaces group thousands. An optional leading peso sign is ignored. A
// leading minus is accepted only when allowNegative is set (bank balances are
// signed, income and expenses are not).
//
// Examples:
//
//	ParseAmount("12.34", false)   -> 12.34, nil
//	ParseAmount("₱1,500.5", false) -> 1500.5, nil
//	ParseAmount("-3", false)      -> 0, ErrInvalidAmount
func ParseAmount(s string, allowNegative bool) (decimal.Decimal, error) {
	s, ok := normalizeAmount(s)
	if !ok || s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	neg := false
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		if !allowNegative {
			return decimal.Zero, ErrInvalidAmount
		}
		neg = true
		s = s[1:]
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 || (len(parts) == 1 && parts[0] == "") || (len(parts) == 2 && parts[1] == "") {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// Coerce turns a string-or-number into a finite decimal, defaulting to zero.
// It never fails.
func Coerce(v any) decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return val
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero
		}
		return *val
	case string:
		d, err := ParseAmount(val, true)
		if err != nil {
			return decimal.Zero
		}
		return d
	case json.Number:
		return Coerce(string(val))
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(val)
	case float32:
		return Coerce(float64(val))
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case int32:
		return decimal.NewFromInt(int64(val))
	default:
		return decimal.Zero
	}
}

// normalizeAmount drops the currency prefix and the grouping separators. It
// reports false when separators do not split the integer part into groups of
// three digits.
func normalizeAmount(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₱")
	s = strings.TrimPrefix(s, "PHP")
	s = strings.TrimSpace(s)

	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		sign, s = s[:1], s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if strings.ContainsAny(frac, groupSeparators) {
		return "", false
	}
	if strings.ContainsAny(intPart, groupSeparators) {
		groups := strings.FieldsFunc(intPart, func(r rune) bool {
			return strings.ContainsRune(groupSeparators, r)
		})
		if len(groups) == 0 || len(groups[0]) > 3 || utf8.RuneCountInString(intPart) != groupedLen(groups) {
			return "", false
		}
		for _, g := range groups[1:] {
			if len(g) != 3 {
				return "", false
			}
		}
		intPart = strings.Join(groups, "")
	}
	if hasFrac {
		return sign + intPart + "." + frac, true
	}
	return sign + intPart, true
}

const groupSeparators = ", \u00a0"

// groupedLen is the rune length of groups joined by single separators.
func groupedLen(groups []string) int {
	n := len(groups) - 1
	for _, g := range groups {
		n += len(g)
	}
	return n
}
