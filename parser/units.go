package parser

import "math"

// MillilitersPerFluidOunce is the fixed conversion used for ounce sizes.
const MillilitersPerFluidOunce = 29.5735

// ToCanonical converts s to milliliters.
func ToCanonical(s Size) float64 {
	if s.Unit == FluidOunce {
		return s.Magnitude * MillilitersPerFluidOunce
	}
	return s.Magnitude
}

// UnitPrice returns the price per milliliter rounded to cents.
// It reports false when either input is absent.
func UnitPrice(price Money, size Size) (float64, bool) {
	if price <= 0 || size.IsZero() {
		return 0, false
	}
	ml := ToCanonical(size)
	if ml <= 0 {
		return 0, false
	}
	return RoundPrice(float64(price) / ml), true
}

// RoundPrice rounds v to two decimal places, halves to even.
func RoundPrice(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
