package quad

import "math/big"

const (
	// erfOne is the magnitude from which erf rounds to ±1
	erfOne = 9
	// erfcFraction is where erfc switches from 1-erf to the continued fraction
	erfcFraction = 8
	// erfcGuard is the extra precision covering the cancellation in 1-erf below erfcFraction
	erfcGuard = 128
)

// erfSeries returns erf a for a >= 0 using the series
// erf a = 2/√π · e^(-a²) · Σ 2^n a^(2n+1) / (2n+1)!!
// whose terms are all positive.
func erfSeries(a *big.Float, prec uint) *big.Float {
	p := prec + 16
	a2 := newBig(p).Mul(a, a)
	twoA2 := newBig(p).SetMantExp(a2, 1)
	sum := newBig(p).Set(a)
	term := newBig(p).Set(a)
	for n := int64(1); ; n++ {
		term.Mul(term, twoA2)
		term.Quo(term, newBig(p).SetInt64(2*n+1))
		if term.MantExp(nil) < sum.MantExp(nil)-int(p)-2 {
			break
		}
		sum.Add(sum, term)
	}
	e := expW(newBig(p).Neg(a2), p)
	sum.Mul(sum, e)
	sum.Quo(sum, sqrtPi(p))
	sum.SetMantExp(sum, 1)
	return newBig(prec).Set(sum)
}

// erfcFractionW returns erfc a for large a >= 0 from the continued fraction
// erfc a = e^(-a²)/√π · 1/(a + (1/2)/(a + 1/(a + (3/2)/(a + …)))),
// evaluated with the modified Lentz method.
func erfcFractionW(a *big.Float, prec uint) *big.Float {
	p := prec + 16
	tiny := newBig(p).SetMantExp(big.NewFloat(1), -4*int(p))
	one := newBig(p).SetInt64(1)
	half := big.NewFloat(0.5)

	f := newBig(p).Set(a)
	c := newBig(p).Set(f)
	d := newBig(p)
	an := newBig(p)
	delta := newBig(p)
	for n := int64(1); n < 100000; n++ {
		an.Mul(newBig(p).SetInt64(n), half)

		d.Mul(an, d)
		d.Add(d, a)
		if d.Sign() == 0 {
			d.Set(tiny)
		}
		c.Quo(an, c)
		c.Add(c, a)
		if c.Sign() == 0 {
			c.Set(tiny)
		}
		d.Quo(one, d)
		delta.Mul(c, d)
		f.Mul(f, delta)

		delta.Sub(delta, one)
		if delta.Sign() == 0 || delta.MantExp(nil) < -int(p) {
			break
		}
	}

	a2 := newBig(p).Mul(a, a)
	e := expW(a2.Neg(a2), p)
	e.Quo(e, sqrtPi(p))
	return newBig(prec).Quo(e, f)
}

func sqrtPi(prec uint) *big.Float {
	return newBig(prec).Sqrt(piConst.at(prec))
}

// Erf returns the error function of x
func Erf(x Float) Float {
	switch {
	case x.nan || x.IsZero():
		return x
	case x.Abs().GreaterEq(FromInt(erfOne)):
		if x.Sign() < 0 {
			return one.Neg()
		}
		return one
	}
	r := erfSeries(newBig(workPrec).Abs(x.big()), workPrec)
	if x.Sign() < 0 {
		r.Neg(r)
	}
	return finish(r)
}

// Erfc returns the complementary error function 1 - erf x without the
// cancellation of the direct difference for large x.
func Erfc(x Float) Float {
	switch {
	case x.nan:
		return x
	case x.IsInf(1):
		return Float{}
	case x.IsInf(-1):
		return FromInt(2)
	case x.IsZero():
		return one
	}
	return finish(erfcW(x.big(), workPrec))
}

func erfcW(x *big.Float, prec uint) *big.Float {
	if x.Sign() < 0 {
		r := erfcW(newBig(prec).Neg(x), prec+8)
		return newBig(prec).Sub(big.NewFloat(2), r)
	}
	if x.Cmp(big.NewFloat(erfcFraction)) >= 0 {
		return erfcFractionW(x, prec)
	}
	p := prec + erfcGuard
	r := erfSeries(x, p)
	return newBig(prec).Sub(big.NewFloat(1), r)
}
