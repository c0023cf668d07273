package quad

import "math/big"

// Sinh returns the hyperbolic sine of x
func Sinh(x Float) Float {
	switch {
	case x.nan || x.IsZero() || x.IsInf(0):
		return x
	case x.Abs().Greater(FromInt(expRange)):
		return Inf(x.Sign())
	}
	// sinh|x| = em·(em+2) / (2·(em+1)) with em = expm1|x|
	p := uint(workPrec + 16)
	em := expm1W(x.Abs().big(), p)
	one := newBig(p).SetInt64(1)
	num := newBig(p).Mul(em, newBig(p).Add(em, newBig(p).SetInt64(2)))
	den := newBig(p).Add(em, one)
	den.SetMantExp(den, 1)
	r := num.Quo(num, den)
	if x.Sign() < 0 {
		r.Neg(r)
	}
	return finish(r)
}

// Cosh returns the hyperbolic cosine of x
func Cosh(x Float) Float {
	switch {
	case x.nan:
		return x
	case x.IsInf(0):
		return posInf
	case x.IsZero():
		return one
	case x.Abs().Greater(FromInt(expRange)):
		return posInf
	}
	p := uint(workPrec + 16)
	e := expW(x.Abs().big(), p)
	inv := newBig(p).Quo(newBig(p).SetInt64(1), e)
	e.Add(e, inv)
	return finish(e.SetMantExp(e, -1))
}

// Tanh returns the hyperbolic tangent of x
func Tanh(x Float) Float {
	switch {
	case x.nan || x.IsZero():
		return x
	case x.Abs().Greater(FromInt(60)):
		// |tanh x - 1| < 2^-170
		if x.Sign() < 0 {
			return one.Neg()
		}
		return one
	}
	// tanh|x| = em/(em+2) with em = expm1(2|x|)
	p := uint(workPrec + 16)
	a := newBig(p).SetMantExp(x.Abs().big(), 1)
	em := expm1W(a, p)
	r := newBig(p).Quo(em, newBig(p).Add(em, newBig(p).SetInt64(2)))
	if x.Sign() < 0 {
		r.Neg(r)
	}
	return finish(r)
}

// Asinh returns the inverse hyperbolic sine of x
func Asinh(x Float) Float {
	switch {
	case x.nan || x.IsZero() || x.IsInf(0):
		return x
	}
	p := uint(workPrec + 16)
	a := newBig(p).Abs(x.big())
	var r *big.Float
	if a.MantExp(nil) > Digits {
		// sqrt(1+a²) == a at this precision
		r = logW(a, p)
		r.Add(r, ln2Const.at(p))
	} else {
		// asinh a = log1p(a + a²/(1+sqrt(1+a²)))
		one := newBig(p).SetInt64(1)
		a2 := newBig(p).Mul(a, a)
		s := newBig(p).Add(a2, one)
		s.Sqrt(s)
		s.Add(s, one)
		a2.Quo(a2, s)
		a2.Add(a2, a)
		r = log1pW(a2, p)
	}
	if x.Sign() < 0 {
		r.Neg(r)
	}
	return finish(r)
}

// Acosh returns the inverse hyperbolic cosine of x; NaN for x < 1
func Acosh(x Float) Float {
	switch {
	case x.nan:
		return x
	case x.Less(one):
		return nanValue
	case x.Eq(one):
		return Float{}
	case x.IsInf(1):
		return x
	}
	p := uint(workPrec + 16)
	a := x.big()
	if a.MantExp(nil) > Digits {
		r := logW(a, p)
		return finish(r.Add(r, ln2Const.at(p)))
	}
	// acosh a = log1p(t + sqrt(t·(t+2))) with t = a-1
	t := newBig(p).Sub(a, big.NewFloat(1))
	s := newBig(p).Add(t, big.NewFloat(2))
	s.Mul(s, t)
	s.Sqrt(s)
	s.Add(s, t)
	return finish(log1pW(s, p))
}

// Atanh returns the inverse hyperbolic tangent of x; NaN for |x| > 1
func Atanh(x Float) Float {
	switch {
	case x.nan || x.IsZero():
		return x
	case x.Abs().Greater(one):
		return nanValue
	case x.Abs().Eq(one):
		return Inf(x.Sign())
	}
	// atanh x = log1p(2x/(1-x)) / 2
	p := uint(workPrec + 16)
	b := x.big()
	t := newBig(p).Sub(big.NewFloat(1), b)
	t.Quo(newBig(p).SetMantExp(b, 1), t)
	r := log1pW(t, p)
	return finish(r.SetMantExp(r, -1))
}
