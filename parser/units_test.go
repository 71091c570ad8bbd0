package parser

import (
	"math"
	"testing"
)

func TestToCanonical(t *testing.T) {
	tests := []struct {
		name string
		size Size
		want float64
	}{
		{name: "milliliters unchanged", size: Size{Magnitude: 100, Unit: Milliliter}, want: 100},
		{name: "one ounce", size: Size{Magnitude: 1, Unit: FluidOunce}, want: 29.5735},
		{name: "3.4 ounces", size: Size{Magnitude: 3.4, Unit: FluidOunce}, want: 3.4 * 29.5735},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToCanonical(tt.size); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("ToCanonical(%v) = %v, want %v", tt.size, got, tt.want)
			}
		})
	}
}

func TestUnitPrice(t *testing.T) {
	ml100 := Size{Magnitude: 100, Unit: Milliliter}

	tests := []struct {
		name   string
		price  Money
		size   Size
		want   float64
		wantOK bool
	}{
		{name: "89.99 per 100ml", price: 89.99, size: ml100, want: 0.90, wantOK: true},
		{name: "79.95 per 100ml", price: 79.95, size: ml100, want: 0.80, wantOK: true},
		{name: "ounces converted", price: 50, size: Size{Magnitude: 3.4, Unit: FluidOunce}, want: 0.50, wantOK: true},
		{name: "exact ounce", price: 29.5735, size: Size{Magnitude: 1, Unit: FluidOunce}, want: 1, wantOK: true},
		{name: "absent price", price: 0, size: ml100, wantOK: false},
		{name: "absent size", price: 10, size: Size{}, wantOK: false},
		{name: "zero magnitude", price: 10, size: Size{Magnitude: 0, Unit: Milliliter}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := UnitPrice(tt.price, tt.size)
			if ok != tt.wantOK {
				t.Fatalf("UnitPrice ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Fatalf("UnitPrice = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoundPriceHalvesToEven(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 0.125, want: 0.12},
		{in: 0.375, want: 0.38},
		{in: 0.625, want: 0.62},
		{in: 0.875, want: 0.88},
		{in: 0.126, want: 0.13},
		{in: 0.124, want: 0.12},
	}

	for _, tt := range tests {
		if got := RoundPrice(tt.in); got != tt.want {
			t.Errorf("RoundPrice(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestUnitPriceHalfBoundary(t *testing.T) {
	// 12.5 / 100 is exactly 0.125.
	got, ok := UnitPrice(12.5, Size{Magnitude: 100, Unit: Milliliter})
	if !ok || got != 0.12 {
		t.Fatalf("UnitPrice(12.5, 100ml) = %v, %v; want 0.12, true", got, ok)
	}
}
