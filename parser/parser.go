// Package parser turns raw listing text into typed prices and sizes.
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Money is a non-negative amount in the listing currency. Zero means absent.
type Money float64

// Unit is a package-size unit.
type Unit string

const (
	Milliliter Unit = "ml"
	FluidOunce Unit = "oz"
)

// Size is a package size. The zero value means absent.
type Size struct {
	Magnitude float64
	Unit      Unit
}

// IsZero reports whether s carries no size.
func (s Size) IsZero() bool {
	return s.Magnitude <= 0 || s.Unit == ""
}

// String renders s as a compact token such as "3.4oz" or "100ml".
func (s Size) String() string {
	if s.IsZero() {
		return ""
	}
	return strconv.FormatFloat(s.Magnitude, 'f', -1, 64) + string(s.Unit)
}

var (
	priceRe = regexp.MustCompile(`\d+\.?\d*`)
	sizeRe  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(fl\.?\s*oz|ml|oz)\b`)
	groupRe = regexp.MustCompile(`(\d),(\d{3})\b`)
)

// ExtractPrice returns the first decimal number found in text.
// Thousands separators are ignored and any surrounding text is skipped.
func ExtractPrice(text string) (Money, bool) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if text == "" {
		return 0, false
	}
	match := priceRe.FindString(text)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return Money(value), true
}

// ExtractSize returns the first "<number> <unit>" size found in text with
// a positive magnitude. Digit grouping commas are ignored and "fl oz" is
// reported as ounces.
func ExtractSize(text string) (Size, bool) {
	text = groupRe.ReplaceAllString(text, "$1$2")
	for _, m := range sizeRe.FindAllStringSubmatch(text, -1) {
		magnitude, err := strconv.ParseFloat(m[1], 64)
		if err != nil || magnitude <= 0 {
			continue
		}
		unit := FluidOunce
		if strings.EqualFold(m[2], "ml") {
			unit = Milliliter
		}
		return Size{Magnitude: magnitude, Unit: unit}, true
	}
	return Size{}, false
}

// NormalizeText collapses runs of whitespace and trims the result.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
