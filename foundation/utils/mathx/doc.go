// File: doc.go
// Title: Package Documentation for mathx
// Description: Floating-point comparison helpers shared by tests and result
//              validation.
// Author: msto63
// Version: v0.3.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with decimal arithmetic and business functions
// - 2025-01-26 v0.2.0: Enhanced documentation
// - 2026-10-15 v0.3.0: Replaced decimal arithmetic with magnitude-scaled comparison

// Package mathx provides floating-point comparison helpers.
//
// The central predicate is ApproxEqual: two doubles are equal when they differ
// by at most 1e-10 scaled by the binary exponent of the larger magnitude. The
// tolerance therefore follows the size of the compared values instead of being
// an absolute bound.
//
//	mathx.ApproxEqual(0.1867648544, 0.18676485440930451) // true
//	mathx.ApproxEqualDigits(1.0, 1.0001, 3)               // true
package mathx
