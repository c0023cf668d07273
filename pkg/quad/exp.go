package quad

import (
	"math"
	"math/big"
)

// expRange bounds the arguments for which exp is evaluated; beyond it the
// result is certainly ±Inf or 0 in this format.
const expRange = 12000

// scaleSteps is the number of halvings applied before the Taylor series
const scaleSteps = 8

// atanhSeries returns z + z³/3 + z⁵/5 + … for |z| < 1
func atanhSeries(z *big.Float, prec uint) *big.Float {
	sum := newBig(prec).Set(z)
	if z.Sign() == 0 {
		return sum
	}
	z2 := newBig(prec).Mul(z, z)
	pow := newBig(prec).Set(z)
	term := newBig(prec)
	for k := int64(3); ; k += 2 {
		pow.Mul(pow, z2)
		term.Quo(pow, newBig(prec).SetInt64(k))
		if term.Sign() == 0 || term.MantExp(nil) < sum.MantExp(nil)-int(prec)-2 {
			break
		}
		sum.Add(sum, term)
	}
	return sum
}

// expm1Small returns e^r − 1 for |r| below about 1. The argument is scaled
// by 2^-scaleSteps, the series is summed, and the result is brought back
// with e^(2y) − 1 = s·(s+2) which never cancels.
func expm1Small(r *big.Float, prec uint) *big.Float {
	p := prec + 2*scaleSteps
	y := newBig(p).SetMantExp(r, -scaleSteps)
	if y.Sign() == 0 {
		return newBig(prec).Set(r)
	}

	sum := newBig(p).Set(y)
	term := newBig(p).Set(y)
	for n := int64(2); ; n++ {
		term.Mul(term, y)
		term.Quo(term, newBig(p).SetInt64(n))
		if term.Sign() == 0 || term.MantExp(nil) < sum.MantExp(nil)-int(p)-2 {
			break
		}
		sum.Add(sum, term)
	}

	two := newBig(p).SetInt64(2)
	tmp := newBig(p)
	for i := 0; i < scaleSteps; i++ {
		tmp.Add(sum, two)
		sum.Mul(sum, tmp)
	}
	return newBig(prec).Set(sum)
}

// expW returns e^x for finite x in precision prec
func expW(x *big.Float, prec uint) *big.Float {
	if x.Sign() == 0 {
		return newBig(prec).SetInt64(1)
	}
	if x.Cmp(big.NewFloat(expRange)) > 0 {
		return newBig(prec).SetInf(false)
	}
	if x.Cmp(big.NewFloat(-expRange)) < 0 {
		return newBig(prec)
	}

	// x = n·ln2 + r with |r| <= ln2/2
	xf, _ := x.Float64()
	n := int64(math.Round(xf / math.Ln2))
	p := prec + 32
	r := newBig(p).Set(x)
	if n != 0 {
		nl := newBig(p).Mul(newBig(p).SetInt64(n), ln2Const.at(p))
		r.Sub(r, nl)
	}

	s := expm1Small(r, prec+8)
	s.Add(s, newBig(prec+8).SetInt64(1))
	return newBig(prec).SetMantExp(s, int(n))
}

// expm1W returns e^x − 1 for finite x in precision prec
func expm1W(x *big.Float, prec uint) *big.Float {
	if new(big.Float).Abs(x).Cmp(big.NewFloat(0.5)) < 0 {
		return expm1Small(x, prec)
	}
	if x.Cmp(big.NewFloat(-expRange)) < 0 {
		return newBig(prec).SetInt64(-1)
	}
	e := expW(x, prec+8)
	if e.IsInf() {
		return e
	}
	return newBig(prec).Sub(e, newBig(prec).SetInt64(1))
}

var sqrtHalf = big.NewFloat(math.Sqrt2 / 2)

// logW returns ln x for finite x > 0 in precision prec
func logW(x *big.Float, prec uint) *big.Float {
	p := prec + 8
	m := newBig(p)
	e := x.MantExp(m)
	if m.Cmp(sqrtHalf) < 0 {
		m.SetMantExp(m, 1)
		e--
	}

	// ln m = 2·atanh((m-1)/(m+1)), |z| <= 0.172
	one := newBig(p).SetInt64(1)
	num := newBig(p).Sub(m, one)
	den := newBig(p).Add(m, one)
	z := newBig(p).Quo(num, den)
	s := atanhSeries(z, p)
	s.SetMantExp(s, 1)

	if e != 0 {
		el := newBig(p+32).Mul(newBig(p+32).SetInt64(int64(e)), ln2Const.at(p+32))
		s.Add(s, el)
	}
	return newBig(prec).Set(s)
}

// log1pW returns ln(1+x) for finite x > -1 in precision prec
func log1pW(x *big.Float, prec uint) *big.Float {
	p := prec + 8
	if new(big.Float).Abs(x).Cmp(big.NewFloat(0.5)) < 0 {
		two := newBig(p).SetInt64(2)
		z := newBig(p).Quo(x, newBig(p).Add(two, x))
		s := atanhSeries(z, p)
		s.SetMantExp(s, 1)
		return newBig(prec).Set(s)
	}
	return logW(newBig(p+uint(bitLenAbove(x))).Add(x, big.NewFloat(1)), prec)
}

// bitLenAbove returns the binary exponent of x when positive, else 0. It
// sizes the precision needed to hold 1+x exactly enough.
func bitLenAbove(x *big.Float) int {
	if e := x.MantExp(nil); e > 0 {
		return e
	}
	return 0
}

// Exp returns e^x
func Exp(x Float) Float {
	switch {
	case x.nan:
		return x
	case x.IsInf(1):
		return posInf
	case x.IsInf(-1):
		return Float{}
	}
	return finish(expW(x.big(), workPrec))
}

// Expm1 returns e^x − 1, accurate also for x near zero
func Expm1(x Float) Float {
	switch {
	case x.nan, x.IsZero(), x.IsInf(1):
		return x
	case x.IsInf(-1):
		return one.Neg()
	}
	return finish(expm1W(x.big(), workPrec))
}

// Exp2 returns 2^x
func Exp2(x Float) Float {
	switch {
	case x.nan:
		return x
	case x.IsInf(1):
		return posInf
	case x.IsInf(-1):
		return Float{}
	case x.IsInt():
		if n, ok := x.Int64(); ok && n > -4*MaxExp && n < 4*MaxExp {
			return one.Ldexp(int(n))
		}
	}
	p := uint(workPrec + 32)
	t := newBig(p).Mul(x.big(), ln2Const.at(p))
	return finish(expW(t, workPrec))
}

// Log returns the natural logarithm of x
func Log(x Float) Float {
	if r, ok := logSpecial(x); ok {
		return r
	}
	return finish(logW(x.big(), workPrec))
}

// logSpecial handles the arguments shared by all logarithms
func logSpecial(x Float) (Float, bool) {
	switch {
	case x.nan:
		return x, true
	case x.IsZero():
		return negInf, true
	case x.Sign() < 0:
		return nanValue, true
	case x.IsInf(1):
		return posInf, true
	case x.Eq(one):
		return Float{}, true
	}
	return Float{}, false
}

// Log1p returns ln(1+x), accurate also for x near zero
func Log1p(x Float) Float {
	switch {
	case x.nan, x.IsZero(), x.IsInf(1):
		return x
	case x.Less(one.Neg()):
		return nanValue
	case x.Eq(one.Neg()):
		return negInf
	}
	return finish(log1pW(x.big(), workPrec))
}

// Log10 returns the decimal logarithm of x
func Log10(x Float) Float {
	if r, ok := logSpecial(x); ok {
		return r
	}
	p := uint(workPrec + 16)
	l := logW(x.big(), p)
	return finish(l.Quo(l, ln10Const.at(p)))
}

// Log2 returns the binary logarithm of x; exact for powers of two
func Log2(x Float) Float {
	if r, ok := logSpecial(x); ok {
		return r
	}
	frac, exp := x.Frexp()
	if frac.Eq(FromFloat64(0.5)) {
		return FromInt(int64(exp - 1))
	}
	p := uint(workPrec + 16)
	l := logW(x.big(), p)
	return finish(l.Quo(l, ln2Const.at(p)))
}

// maxIntPow is the largest integer exponent evaluated by repeated squaring
const maxIntPow = 1 << 20

// Pow returns x^y following the special cases of C99 pow
func Pow(x, y Float) Float {
	switch {
	case y.IsZero():
		return one
	case x.Eq(one):
		return one
	case x.nan || y.nan:
		return nanValue
	}

	yOddInt := isOddInt(y)
	switch {
	case x.IsZero():
		switch {
		case y.Sign() < 0 && yOddInt:
			return Inf(signOf(x))
		case y.Sign() < 0:
			return posInf
		case yOddInt:
			return x
		default:
			return Float{}
		}
	case y.IsInf(0):
		ax := x.Abs()
		switch {
		case ax.Eq(one):
			return one
		case ax.Less(one) == y.IsInf(1):
			return Float{}
		default:
			return posInf
		}
	case x.IsInf(0):
		neg := x.Sign() < 0 && yOddInt
		if y.Sign() < 0 {
			if neg {
				return Float{}.Neg()
			}
			return Float{}
		}
		if neg {
			return negInf
		}
		return posInf
	case x.Sign() < 0 && !y.IsInt():
		return nanValue
	}

	if y.IsInt() {
		if n, ok := y.Int64(); ok && n >= -maxIntPow && n <= maxIntPow {
			return powInt(x, n)
		}
	}

	p := uint(workPrec + 32)
	l := logW(x.Abs().big(), p)
	l.Mul(l, y.big())
	r := finish(expW(l, workPrec))
	if x.Sign() < 0 && yOddInt {
		return r.Neg()
	}
	return r
}

// powInt evaluates x^n by binary powering in working precision
func powInt(x Float, n int64) Float {
	neg := n < 0
	if neg {
		n = -n
	}
	p := uint(workPrec + 2*64)
	result := newBig(p).SetInt64(1)
	base := newBig(p).Set(x.big())
	for n > 0 {
		if n&1 == 1 {
			result.Mul(result, base)
		}
		n >>= 1
		if n > 0 {
			base.Mul(base, base)
		}
	}
	if neg {
		if result.Sign() == 0 {
			return Inf(signOfBig(result))
		}
		result.Quo(newBig(p).SetInt64(1), result)
	}
	return finish(result)
}

func isOddInt(y Float) bool {
	if !y.IsInt() {
		return false
	}
	n, _ := y.big().Int(nil)
	return n.Bit(0) == 1
}

func signOf(x Float) int {
	if x.Signbit() {
		return -1
	}
	return 1
}

func signOfBig(x *big.Float) int {
	if x.Signbit() {
		return -1
	}
	return 1
}

// Hypot returns sqrt(x²+y²) without intermediate rounding to Digits
func Hypot(x, y Float) Float {
	switch {
	case x.IsInf(0) || y.IsInf(0):
		return posInf
	case x.nan || y.nan:
		return nanValue
	}
	p := uint(2*Digits + 8)
	s := newBig(p).Mul(x.big(), x.big())
	s.Add(s, newBig(p).Mul(y.big(), y.big()))
	return finish(newBig(Digits + 8).Sqrt(s))
}
