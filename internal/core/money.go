// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from user text and
// model output, and for formatting them back for chat replies.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// arabicDigits maps Arabic-Indic and Eastern Arabic-Indic digits to ASCII.
var arabicDigits = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٫", ".", "٬", "",
)

// ParseAmount converts a decimal string into a non-negative amount.
//
// It accepts ASCII and Arabic-Indic digits, dot or comma decimal separators
// and a trailing or leading currency code, which is ignored. Negative values,
// exponents and anything non-numeric are rejected.
//
// Examples:
//
//	ParseAmount("15")      -> 15, nil
//	ParseAmount("١٥٫٥")    -> 15.5, nil
//	ParseAmount("12,50")   -> 12.5, nil
//	ParseAmount("1,250")   -> 1250, nil
//	ParseAmount("SAR 40")  -> 40, nil
//	ParseAmount("-3")      -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(arabicDigits.Replace(s))
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsSpace(r)
	})
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return decimal.Zero, ErrInvalidAmount
	}
	// A single comma followed by one or two digits is a decimal separator,
	// anything else groups thousands.
	if i := strings.Index(s, ","); i >= 0 && strings.Count(s, ",") == 1 &&
		!strings.Contains(s, ".") && len(s)-i-1 <= 2 {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders whole amounts without decimals and everything else with
// two, e.g. "15" and "12.50".
func FormatAmount(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.Truncate(0).String()
	}
	return d.StringFixed(2)
}
