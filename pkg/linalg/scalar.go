// ============================================================================
// laplace - Minimax Exponential Sums
// ============================================================================
//
// Package:     linalg
// Description: Generic dense linear algebra over pluggable scalar types
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

// Package linalg provides dense matrices, LU factorization, a one-sided
// Jacobi SVD and least-squares solves for any element type that implements
// Scalar. All computation stays in the element type; nothing is narrowed
// to float64 on the way.
//
// An element type plugs in with two pieces: its values implement Scalar
// and a Traits value supplies its constants. The zero value of the element
// type must be the additive zero.
package linalg

import "math"

// Scalar is the arithmetic of a matrix element type. Values are immutable;
// every operation returns a new value.
type Scalar[T any] interface {
	Add(T) T
	Sub(T) T
	Mul(T) T
	Quo(T) T
	Neg() T
	Abs() T
	Sqrt() T
	Cmp(T) int
	Sign() int
	Float64() float64
}

// Traits supplies the constants of an element type
type Traits[T any] interface {
	FromFloat64(float64) T
	// Epsilon is the gap between 1 and the next representable value
	Epsilon() T
	// Highest is the largest finite value
	Highest() T
	// Lowest is the most negative finite value
	Lowest() T
	// Digits10 is the number of decimal digits represented faithfully
	Digits10() int
}

// Float64 adapts float64 to Scalar
type Float64 float64

func (x Float64) Add(y Float64) Float64 { return x + y }
func (x Float64) Sub(y Float64) Float64 { return x - y }
func (x Float64) Mul(y Float64) Float64 { return x * y }
func (x Float64) Quo(y Float64) Float64 { return x / y }
func (x Float64) Neg() Float64          { return -x }
func (x Float64) Abs() Float64          { return Float64(math.Abs(float64(x))) }
func (x Float64) Sqrt() Float64         { return Float64(math.Sqrt(float64(x))) }
func (x Float64) Float64() float64      { return float64(x) }

func (x Float64) Cmp(y Float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func (x Float64) Sign() int { return x.Cmp(0) }

// Float64Traits describes Float64
type Float64Traits struct{}

func (Float64Traits) FromFloat64(f float64) Float64 { return Float64(f) }
func (Float64Traits) Epsilon() Float64              { return Float64(math.Nextafter(1, 2) - 1) }
func (Float64Traits) Highest() Float64              { return math.MaxFloat64 }
func (Float64Traits) Lowest() Float64               { return -math.MaxFloat64 }
func (Float64Traits) Digits10() int                 { return 15 }

// maxOf returns the larger of a and b under Cmp
func maxOf[T Scalar[T]](a, b T) T {
	if a.Cmp(b) < 0 {
		return b
	}
	return a
}
