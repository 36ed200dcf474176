// Package core provides money and count parsing utilities.
//
// This file contains the lenient integer parsing used for form inputs and
// the es-ES euro formatting used for every monetary figure.
package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseCount converts user input to a non-negative count.
//
// It reads the leading run of digits (an optional sign is accepted) and
// ignores anything after it, so "12 lect." parses as 12. Empty, unparsable
// and negative inputs yield 0.
//
// Examples:
//   ParseCount("42")    -> 42
//   ParseCount(" 7abc") -> 7
//   ParseCount("-3")    -> 0
//   ParseCount("")      -> 0
func ParseCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	end := 0
	if s[0] == '+' || s[0] == '-' {
		end = 1
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// FormatEuros renders an amount the way es-ES locales do: comma decimals,
// dot thousands separators from five integer digits up, trailing euro sign.
//
// Examples:
//   FormatEuros(49.3)     -> "49,30 €"
//   FormatEuros(7186)     -> "7186,00 €"
//   FormatEuros(35427.98) -> "35.427,98 €"
func FormatEuros(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	if len(intPart) > 4 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}
	out := intPart + "," + frac + " €"
	if neg {
		return "-" + out
	}
	return out
}
