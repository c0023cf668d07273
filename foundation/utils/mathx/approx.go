// File: approx.go
// Title: Magnitude-Scaled Floating-Point Comparison
// Description: Equality predicates whose tolerance scales with the binary
//              exponent of the larger operand.
// Author: msto63
// Version: v0.3.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.3.0: Initial implementation

package mathx

import "math"

// DefaultDigits is the number of decimal digits ApproxEqual demands
const DefaultDigits = 10

// ApproxEqual reports whether a and b agree to DefaultDigits decimal digits,
// measured against the binary exponent of the larger magnitude.
func ApproxEqual(a, b float64) bool {
	return ApproxEqualDigits(a, b, DefaultDigits)
}

// ApproxEqualDigits reports whether |a-b| <= 10^-digits * 2^e where e is the
// frexp exponent of max(|a|, |b|). NaN never compares equal; equal infinities do.
func ApproxEqualDigits(a, b float64, digits int) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	if a == b {
		return true
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return false
	}
	_, e := math.Frexp(math.Max(math.Abs(a), math.Abs(b)))
	tol := math.Ldexp(math.Pow(10, -float64(digits)), e)
	return math.Abs(a-b) <= tol
}

// ApproxEqualSlices applies ApproxEqualDigits element-wise. Slices of
// different length are never equal.
func ApproxEqualSlices(a, b []float64, digits int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !ApproxEqualDigits(a[i], b[i], digits) {
			return false
		}
	}
	return true
}

// RelDiff returns |a-b| / max(|a|, |b|), or 0 when both are zero
func RelDiff(a, b float64) float64 {
	m := math.Max(math.Abs(a), math.Abs(b))
	if m == 0 {
		return 0
	}
	return math.Abs(a-b) / m
}

// MatchingDigits returns the number of leading decimal digits a and b share,
// capped at 17.
func MatchingDigits(a, b float64) int {
	d := RelDiff(a, b)
	if d == 0 {
		return 17
	}
	n := int(math.Floor(-math.Log10(d)))
	switch {
	case n < 0:
		return 0
	case n > 17:
		return 17
	}
	return n
}
