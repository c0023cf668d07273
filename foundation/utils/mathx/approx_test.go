// File: approx_test.go
// Title: Comparison Helper Tests
// Description: Tests for the magnitude-scaled equality predicate.
// Author: msto63
// Version: v0.3.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.3.0: Initial implementation

package mathx

import (
	"math"
	"testing"
)

func TestApproxEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want bool
	}{
		{"identical", 1.5, 1.5, true},
		{"reference weight", 0.1867648544, 0.18676485440930451, true},
		{"reference exponent", 1.1266216172, 1.1266216171862111, true},
		{"ninth digit differs", 0.1867648544, 0.1867648554, false},
		{"scales with magnitude", 1.0e6, 1.0e6 + 5e-5, true},
		{"too far at large magnitude", 1.0e6, 1.0e6 + 1e-3, false},
		{"tiny values", 1e-300, 1.00000000001e-300, true},
		{"zeros", 0, -0, true},
		{"nan", math.NaN(), math.NaN(), false},
		{"inf", math.Inf(1), math.Inf(1), true},
		{"inf vs max", math.Inf(1), math.MaxFloat64, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApproxEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("ApproxEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := ApproxEqual(tt.b, tt.a); got != tt.want {
				t.Errorf("ApproxEqual is not symmetric for %v, %v", tt.a, tt.b)
			}
		})
	}
}

func TestApproxEqualSlices(t *testing.T) {
	a := []float64{0.0505014, 0.156024, 0.396858}
	b := []float64{0.05050134546828047, 0.15602361695866543, 0.39685728440784185}
	if !ApproxEqualSlices(a, b, 5) {
		t.Error("slices should agree to 5 digits")
	}
	if ApproxEqualSlices(a, b, 10) {
		t.Error("slices should not agree to 10 digits")
	}
	if ApproxEqualSlices(a, b[:2], 1) {
		t.Error("different lengths must not compare equal")
	}
}

func TestMatchingDigits(t *testing.T) {
	if got := MatchingDigits(1, 1); got != 17 {
		t.Errorf("MatchingDigits(1, 1) = %d, want 17", got)
	}
	if got := MatchingDigits(1.0, 1.001); got != 3 {
		t.Errorf("MatchingDigits(1, 1.001) = %d, want 3", got)
	}
	if got := RelDiff(0, 0); got != 0 {
		t.Errorf("RelDiff(0, 0) = %v", got)
	}
}
