// ============================================================================
// laplace - Minimax Exponential Sums
// ============================================================================
//
// Package:     quad
// Description: 113-bit binary floating point with IEEE binary128 range
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

// Package quad implements Float, an immutable floating-point value with the
// precision and exponent range of IEEE 754 binary128: a 113-bit significand,
// normal exponents from MinExp to MaxExp, gradual underflow, signed zeros,
// infinities and NaN.
//
// Arithmetic is correctly rounded to nearest-even. Transcendental functions
// are evaluated in a wider working precision and rounded once. Domain errors
// yield NaN; no function panics on special values.
//
// The zero value of Float is +0 and is ready to use.
package quad

import (
	"math"
	"math/big"
)

const (
	// Digits is the significand size in bits, including the hidden bit
	Digits = 113
	// Digits10 is the number of decimal digits that survive a decimal→binary→decimal trip
	Digits10 = 33
	// MaxDigits10 is the number of decimal digits needed for an exact binary→decimal→binary trip
	MaxDigits10 = 36
	// MinExp is one more than the smallest normal binary exponent (min normal = 2^(MinExp-1))
	MinExp = -16381
	// MaxExp is one more than the largest binary exponent (max < 2^MaxExp)
	MaxExp = 16384
	// MinExp10 is the smallest power of ten that is a normal number, truncated
	MinExp10 = MinExp * 301 / 1000
	// MaxExp10 is the largest power of ten that is finite, truncated
	MaxExp10 = MaxExp * 301 / 1000

	// workPrec is the precision of intermediate results inside elementary functions
	workPrec = Digits + 64
)

// Float is an immutable binary128-class floating-point value.
type Float struct {
	// v is never mutated after construction; nil means +0
	v   *big.Float
	nan bool
}

var (
	nanValue = Float{nan: true}
	posInf   = Float{v: new(big.Float).SetInf(false)}
	negInf   = Float{v: new(big.Float).SetInf(true)}
	one      = FromInt(1)
)

// NaN returns a quiet not-a-number
func NaN() Float { return nanValue }

// Inf returns +Inf if sign >= 0 and -Inf otherwise
func Inf(sign int) Float {
	if sign < 0 {
		return negInf
	}
	return posInf
}

// One returns 1
func One() Float { return one }

// FromFloat64 converts f exactly
func FromFloat64(f float64) Float {
	switch {
	case math.IsNaN(f):
		return nanValue
	case math.IsInf(f, 1):
		return posInf
	case math.IsInf(f, -1):
		return negInf
	}
	return Float{v: new(big.Float).SetPrec(Digits).SetFloat64(f)}
}

// FromInt converts i, rounding when |i| needs more than Digits bits
func FromInt(i int64) Float {
	return Float{v: new(big.Float).SetPrec(Digits).SetInt64(i)}
}

// FromBig rounds x to the nearest Float. A nil x yields NaN.
func FromBig(x *big.Float) Float {
	if x == nil {
		return nanValue
	}
	return finish(new(big.Float).Copy(x))
}

// Big returns a copy of x at Digits precision. NaN yields nil.
func (x Float) Big() *big.Float {
	if x.nan {
		return nil
	}
	return new(big.Float).SetPrec(Digits).Set(x.big())
}

// Float64 returns the float64 nearest to x
func (x Float) Float64() float64 {
	if x.nan {
		return math.NaN()
	}
	f, _ := x.big().Float64()
	return f
}

// Int64 returns x truncated toward zero; ok is false when x is NaN, infinite
// or out of int64 range.
func (x Float) Int64() (i int64, ok bool) {
	if x.nan || x.IsInf(0) {
		return 0, false
	}
	n, _ := x.big().Int(nil)
	if !n.IsInt64() {
		return 0, false
	}
	return n.Int64(), true
}

var zeroBig = new(big.Float).SetPrec(Digits)

// big returns the underlying value, treating the zero Float as +0. Callers
// must not modify the result.
func (x Float) big() *big.Float {
	if x.v == nil {
		return zeroBig
	}
	return x.v
}

func newBig(prec uint) *big.Float {
	return new(big.Float).SetPrec(prec)
}

// finish rounds z to binary128: 113 bits for normal numbers, fewer for
// subnormals, ±Inf above the largest finite value and ±0 below half the
// smallest subnormal. z is consumed.
func finish(z *big.Float) Float {
	if z.IsInf() || z.Sign() == 0 {
		return Float{v: z.SetPrec(Digits)}
	}

	e := z.MantExp(nil)
	if e > MaxExp {
		return Inf(z.Sign())
	}
	if e >= MinExp {
		z.SetPrec(Digits)
		if z.MantExp(nil) > MaxExp {
			return Inf(z.Sign())
		}
		return Float{v: z}
	}

	p := Digits - (MinExp - e)
	if p <= 0 {
		// below the smallest subnormal; round to it or to zero
		neg := z.Signbit()
		half := new(big.Float).SetMantExp(big.NewFloat(0.5), MinExp-Digits)
		if p == 0 && new(big.Float).Abs(z).Cmp(half) > 0 {
			return smallestSubnormal(neg)
		}
		r := newBig(Digits)
		if neg {
			r.Neg(r)
		}
		return Float{v: r}
	}
	z.SetPrec(uint(p))
	return Float{v: z.SetPrec(Digits)}
}

func smallestSubnormal(neg bool) Float {
	r := new(big.Float).SetPrec(Digits).SetMantExp(big.NewFloat(0.5), MinExp-Digits+1)
	if neg {
		r.Neg(r)
	}
	return Float{v: r}
}

// arith evaluates op into a 113-bit destination and rounds the result. When
// the result lands in the subnormal range op is re-evaluated at the reduced
// precision so that it is rounded only once.
func arith(op func(z *big.Float)) Float {
	z := newBig(Digits)
	op(z)
	if z.IsInf() || z.Sign() == 0 {
		return finish(z)
	}
	if e := z.MantExp(nil); e < MinExp {
		if p := Digits - (MinExp - e); p > 0 {
			z = newBig(uint(p))
			op(z)
		}
	}
	return finish(z)
}

// IsNaN reports whether x is not-a-number
func (x Float) IsNaN() bool { return x.nan }

// IsInf reports whether x is an infinity with the given sign; sign 0 matches either
func (x Float) IsInf(sign int) bool {
	if x.nan || !x.big().IsInf() {
		return false
	}
	return sign == 0 || (sign > 0) == (x.big().Sign() > 0)
}

// IsZero reports whether x is ±0
func (x Float) IsZero() bool { return !x.nan && x.big().Sign() == 0 }

// IsFinite reports whether x is neither NaN nor infinite
func (x Float) IsFinite() bool { return !x.nan && !x.big().IsInf() }

// IsInt reports whether x is a finite integer
func (x Float) IsInt() bool { return x.IsFinite() && x.big().IsInt() }

// Signbit reports whether x is negative or negative zero
func (x Float) Signbit() bool { return !x.nan && x.big().Signbit() }

// Sign returns -1, 0 or +1. NaN and ±0 yield 0.
func (x Float) Sign() int {
	if x.nan {
		return 0
	}
	return x.big().Sign()
}

// Neg returns -x
func (x Float) Neg() Float {
	if x.nan {
		return x
	}
	return Float{v: new(big.Float).Neg(x.big())}
}

// Abs returns |x|
func (x Float) Abs() Float {
	if x.nan || !x.big().Signbit() {
		return x
	}
	return Float{v: new(big.Float).Abs(x.big())}
}

// Add returns x+y
func (x Float) Add(y Float) Float {
	if x.nan || y.nan {
		return nanValue
	}
	a, b := x.big(), y.big()
	if a.IsInf() && b.IsInf() && a.Signbit() != b.Signbit() {
		return nanValue
	}
	return arith(func(z *big.Float) { z.Add(a, b) })
}

// Sub returns x-y
func (x Float) Sub(y Float) Float {
	if x.nan || y.nan {
		return nanValue
	}
	a, b := x.big(), y.big()
	if a.IsInf() && b.IsInf() && a.Signbit() == b.Signbit() {
		return nanValue
	}
	return arith(func(z *big.Float) { z.Sub(a, b) })
}

// Mul returns x*y
func (x Float) Mul(y Float) Float {
	if x.nan || y.nan {
		return nanValue
	}
	a, b := x.big(), y.big()
	if (a.IsInf() && b.Sign() == 0) || (b.IsInf() && a.Sign() == 0) {
		return nanValue
	}
	return arith(func(z *big.Float) { z.Mul(a, b) })
}

// Quo returns x/y. A nonzero x divided by ±0 gives a signed infinity.
func (x Float) Quo(y Float) Float {
	if x.nan || y.nan {
		return nanValue
	}
	a, b := x.big(), y.big()
	if (a.Sign() == 0 && b.Sign() == 0) || (a.IsInf() && b.IsInf()) {
		return nanValue
	}
	return arith(func(z *big.Float) { z.Quo(a, b) })
}

// Sqrt returns the square root of x; NaN for x < 0
func (x Float) Sqrt() Float {
	if x.nan {
		return x
	}
	a := x.big()
	switch {
	case a.Sign() == 0:
		return x
	case a.Signbit():
		return nanValue
	case a.IsInf():
		return x
	}
	return arith(func(z *big.Float) { z.Sqrt(a) })
}

// Ldexp returns x * 2^exp
func (x Float) Ldexp(exp int) Float {
	if !x.IsFinite() || x.IsZero() {
		return x
	}
	const limit = 4 * (MaxExp + Digits)
	if exp > limit {
		exp = limit
	} else if exp < -limit {
		exp = -limit
	}
	return finish(new(big.Float).SetPrec(Digits).SetMantExp(x.big(), exp))
}

// Frexp breaks x into a fraction in [0.5, 1) and a power of two
func (x Float) Frexp() (frac Float, exp int) {
	if !x.IsFinite() || x.IsZero() {
		return x, 0
	}
	m := newBig(Digits)
	exp = x.big().MantExp(m)
	return Float{v: m}, exp
}

// Cmp compares x and y and returns -1, 0 or +1. It imposes a total order for
// sorting: NaN sorts below every number and equal to itself, -0 equals +0.
// Use Less, Eq and friends for IEEE comparison semantics.
func (x Float) Cmp(y Float) int {
	switch {
	case x.nan && y.nan:
		return 0
	case x.nan:
		return -1
	case y.nan:
		return 1
	}
	return x.big().Cmp(y.big())
}

// Eq reports x == y; false if either is NaN
func (x Float) Eq(y Float) bool { return !x.nan && !y.nan && x.big().Cmp(y.big()) == 0 }

// Ne reports x != y; true if either is NaN
func (x Float) Ne(y Float) bool { return !x.Eq(y) }

// Less reports x < y; false if either is NaN
func (x Float) Less(y Float) bool { return !x.nan && !y.nan && x.big().Cmp(y.big()) < 0 }

// LessEq reports x <= y; false if either is NaN
func (x Float) LessEq(y Float) bool { return !x.nan && !y.nan && x.big().Cmp(y.big()) <= 0 }

// Greater reports x > y; false if either is NaN
func (x Float) Greater(y Float) bool { return y.Less(x) }

// GreaterEq reports x >= y; false if either is NaN
func (x Float) GreaterEq(y Float) bool { return y.LessEq(x) }

// Identical reports whether x and y have the same representation, treating
// all NaNs as identical and distinguishing -0 from +0.
func (x Float) Identical(y Float) bool {
	if x.nan || y.nan {
		return x.nan == y.nan
	}
	return x.big().Cmp(y.big()) == 0 && x.big().Signbit() == y.big().Signbit()
}

// Max returns the larger of x and y; NaN if either is NaN
func Max(x, y Float) Float {
	if x.nan || y.nan {
		return nanValue
	}
	if x.Less(y) {
		return y
	}
	return x
}

// Min returns the smaller of x and y; NaN if either is NaN
func Min(x, y Float) Float {
	if x.nan || y.nan {
		return nanValue
	}
	if y.Less(x) {
		return y
	}
	return x
}

// Trunc returns the integer part of x
func (x Float) Trunc() Float {
	if !x.IsFinite() || x.big().IsInt() {
		return x
	}
	n, _ := x.big().Int(nil)
	r := newBig(Digits).SetInt(n)
	if n.Sign() == 0 && x.Signbit() {
		r.Neg(r)
	}
	return Float{v: r}
}

// Floor returns the greatest integer value <= x
func (x Float) Floor() Float {
	t := x.Trunc()
	if x.IsFinite() && x.Sign() < 0 && !t.Eq(x) {
		return t.Sub(one)
	}
	return t
}

// Ceil returns the least integer value >= x
func (x Float) Ceil() Float {
	t := x.Trunc()
	if x.IsFinite() && x.Sign() > 0 && !t.Eq(x) {
		return t.Add(one)
	}
	return t
}

// Round returns the nearest integer, rounding half away from zero
func (x Float) Round() Float {
	if !x.IsFinite() || x.big().IsInt() {
		return x
	}
	half := newBig(Digits+2).Abs(x.big())
	half.Add(half, big.NewFloat(0.5))
	r := Float{v: half}.Trunc()
	if x.Signbit() {
		return r.Neg()
	}
	return r
}

// Sum adds xs left to right in working precision and rounds once
func Sum(xs ...Float) Float {
	for _, x := range xs {
		if !x.IsFinite() {
			var r Float
			for _, y := range xs {
				r = r.Add(y)
			}
			return r
		}
	}
	acc := newBig(workPrec)
	for _, x := range xs {
		acc.Add(acc, x.big())
	}
	return finish(acc)
}
