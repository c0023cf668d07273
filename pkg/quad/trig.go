package quad

import (
	"math/big"
)

// reduceHalfPi writes x = k·π/2 + r with |r| <= π/4 and returns r together
// with k mod 4. π is taken with enough bits to cover the integer part of
// x/(π/2) so that huge arguments keep full relative accuracy in r.
func reduceHalfPi(x *big.Float, prec uint) (*big.Float, int) {
	extra := 0
	if e := x.MantExp(nil); e > 0 {
		extra = e
	}
	p := prec + uint(extra) + 64
	halfPi := newBig(p).SetMantExp(piConst.at(p), -1)

	t := newBig(p).Quo(x, halfPi)
	half := big.NewFloat(0.5)
	if t.Sign() < 0 {
		t.Sub(t, half)
	} else {
		t.Add(t, half)
	}
	k, _ := t.Int(nil)

	r := newBig(p).Set(x)
	if k.Sign() != 0 {
		r.Sub(r, newBig(p).Mul(newBig(p).SetInt(k), halfPi))
	}
	q := new(big.Int).And(k, big.NewInt(3)).Int64()
	return newBig(prec).Set(r), int(q)
}

// sinSeries returns sin r for |r| <= π/4
func sinSeries(r *big.Float, prec uint) *big.Float {
	return trigSeries(r, newBig(prec).Set(r), 2, prec)
}

// cosSeries returns cos r for |r| <= π/4
func cosSeries(r *big.Float, prec uint) *big.Float {
	return trigSeries(r, newBig(prec).SetInt64(1), 1, prec)
}

// trigSeries sums the alternating Taylor series whose first term is first
// and whose next factorial factor is n.
func trigSeries(r, first *big.Float, n int64, prec uint) *big.Float {
	sum := newBig(prec).Set(first)
	if r.Sign() == 0 {
		return sum
	}
	r2 := newBig(prec).Mul(r, r)
	term := newBig(prec).Set(first)
	for ; ; n += 2 {
		term.Mul(term, r2)
		term.Quo(term, newBig(prec).SetInt64(n*(n+1)))
		term.Neg(term)
		if term.Sign() == 0 || term.MantExp(nil) < sum.MantExp(nil)-int(prec)-2 {
			break
		}
		sum.Add(sum, term)
	}
	return sum
}

// sinCosW returns sin x and cos x for finite x
func sinCosW(x *big.Float, prec uint) (sin, cos *big.Float) {
	r, q := reduceHalfPi(x, prec+8)
	s := sinSeries(r, prec+8)
	c := cosSeries(r, prec+8)
	switch q {
	case 1:
		s, c = c, s.Neg(s)
	case 2:
		s, c = s.Neg(s), c.Neg(c)
	case 3:
		s, c = c.Neg(c), s
	}
	return s, c
}

// Sin returns the sine of x in radians
func Sin(x Float) Float {
	switch {
	case x.nan || x.IsInf(0):
		return nanValue
	case x.IsZero():
		return x
	}
	s, _ := sinCosW(x.big(), workPrec)
	return finish(s)
}

// Cos returns the cosine of x in radians
func Cos(x Float) Float {
	switch {
	case x.nan || x.IsInf(0):
		return nanValue
	case x.IsZero():
		return one
	}
	_, c := sinCosW(x.big(), workPrec)
	return finish(c)
}

// Tan returns the tangent of x in radians
func Tan(x Float) Float {
	switch {
	case x.nan || x.IsInf(0):
		return nanValue
	case x.IsZero():
		return x
	}
	s, c := sinCosW(x.big(), workPrec)
	return finish(s.Quo(s, c))
}

// atanW returns atan x for finite x
func atanW(x *big.Float, prec uint) *big.Float {
	p := prec + 16
	z := newBig(p).Abs(x)
	neg := x.Sign() < 0
	one := newBig(p).SetInt64(1)

	reflect := z.Cmp(one) > 0
	if reflect {
		z.Quo(one, z)
	}

	// atan z = 2·atan(z/(1+sqrt(1+z²))), three times
	const halvings = 3
	tmp := newBig(p)
	for i := 0; i < halvings; i++ {
		tmp.Mul(z, z)
		tmp.Add(tmp, one)
		tmp.Sqrt(tmp)
		tmp.Add(tmp, one)
		z.Quo(z, tmp)
	}

	sum := newBig(p).Set(z)
	if z.Sign() != 0 {
		z2 := newBig(p).Mul(z, z)
		pow := newBig(p).Set(z)
		term := newBig(p)
		for k := int64(3); ; k += 2 {
			pow.Mul(pow, z2)
			pow.Neg(pow)
			term.Quo(pow, newBig(p).SetInt64(k))
			if term.Sign() == 0 || term.MantExp(nil) < sum.MantExp(nil)-int(p)-2 {
				break
			}
			sum.Add(sum, term)
		}
	}
	sum.SetMantExp(sum, halvings)

	if reflect {
		halfPi := newBig(p).SetMantExp(piConst.at(p), -1)
		sum.Sub(halfPi, sum)
	}
	if neg {
		sum.Neg(sum)
	}
	return newBig(prec).Set(sum)
}

// halfPiSigned returns ±π/2 rounded to Digits
func halfPiSigned(neg bool) Float {
	h := Pi().Ldexp(-1)
	if neg {
		return h.Neg()
	}
	return h
}

// Atan returns the arctangent of x in (-π/2, π/2)
func Atan(x Float) Float {
	switch {
	case x.nan || x.IsZero():
		return x
	case x.IsInf(0):
		return halfPiSigned(x.Signbit())
	}
	return finish(atanW(x.big(), workPrec))
}

// Asin returns the arcsine of x; NaN for |x| > 1
func Asin(x Float) Float {
	switch {
	case x.nan || x.IsZero():
		return x
	case x.Abs().Greater(one):
		return nanValue
	case x.Abs().Eq(one):
		return halfPiSigned(x.Signbit())
	}
	p := uint(workPrec + 16)
	b := x.big()
	one := newBig(p).SetInt64(1)
	// 1-x² = (1-x)(1+x)
	d := newBig(p).Mul(newBig(p).Sub(one, b), newBig(p).Add(one, b))
	d.Sqrt(d)
	return finish(atanW(d.Quo(b, d), workPrec))
}

// Acos returns the arccosine of x in [0, π]; NaN for |x| > 1
func Acos(x Float) Float {
	switch {
	case x.nan:
		return x
	case x.Abs().Greater(one):
		return nanValue
	case x.Eq(one):
		return Float{}
	case x.Eq(one.Neg()):
		return Pi()
	}
	p := uint(workPrec + 16)
	b := x.big()
	one := newBig(p).SetInt64(1)
	t := newBig(p).Quo(newBig(p).Sub(one, b), newBig(p).Add(one, b))
	t.Sqrt(t)
	r := atanW(t, p)
	return finish(r.SetMantExp(r, 1))
}

// Atan2 returns the angle of the point (x, y) in [-π, π] with the special
// cases of C99 atan2.
func Atan2(y, x Float) Float {
	if x.nan || y.nan {
		return nanValue
	}
	neg := y.Signbit()
	signed := func(v Float) Float {
		if neg {
			return v.Neg()
		}
		return v
	}
	pi := Pi()

	switch {
	case y.IsZero():
		if x.Signbit() {
			return signed(pi)
		}
		return signed(Float{})
	case x.IsZero():
		return halfPiSigned(neg)
	case x.IsInf(0) && y.IsInf(0):
		q := pi.Ldexp(-2)
		if x.IsInf(-1) {
			q = q.Mul(FromInt(3))
		}
		return signed(q)
	case x.IsInf(1):
		return signed(Float{})
	case x.IsInf(-1):
		return signed(pi)
	case y.IsInf(0):
		return halfPiSigned(neg)
	}

	p := uint(workPrec + 16)
	q := newBig(p).Quo(y.big(), x.big())
	a := atanW(q.Abs(q), p)
	if x.Sign() < 0 {
		a.Sub(piConst.at(p), a)
	}
	if neg {
		a.Neg(a)
	}
	return finish(a)
}
