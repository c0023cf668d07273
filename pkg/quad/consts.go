package quad

import (
	"math"
	"math/big"
	"sync"
)

// constant is a mathematical constant evaluated lazily to any precision. The
// cached value only grows; returned values are shared and must not be modified.
type constant struct {
	mu      sync.Mutex
	prec    uint
	val     *big.Float
	compute func(prec uint) *big.Float
}

func (c *constant) at(prec uint) *big.Float {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.prec < prec {
		p := prec
		if p < 2*c.prec {
			p = 2 * c.prec
		}
		c.val = c.compute(p + 32)
		c.prec = p
	}
	return c.val
}

var (
	ln2Const  = &constant{compute: computeLn2}
	piConst   = &constant{compute: computePi}
	ln10Const = &constant{compute: computeLn10}
)

// computeLn2 sums ln 2 = Σ 1/(k·2^k)
func computeLn2(prec uint) *big.Float {
	sum := newBig(prec)
	pow := newBig(prec).SetInt64(1)
	term := newBig(prec)
	for k := int64(1); ; k++ {
		pow.SetMantExp(pow, -1)
		term.Quo(pow, newBig(prec).SetInt64(k))
		if term.Sign() == 0 || term.MantExp(nil) < sum.MantExp(nil)-int(prec)-2 {
			break
		}
		sum.Add(sum, term)
	}
	return sum
}

// arctanInv returns atan(1/n) for an integer n > 1
func arctanInv(n int64, prec uint) *big.Float {
	sum := newBig(prec)
	nn := newBig(prec).SetInt64(n * n)
	pow := newBig(prec).Quo(newBig(prec).SetInt64(1), newBig(prec).SetInt64(n))
	term := newBig(prec)
	for k := int64(0); ; k++ {
		term.Quo(pow, newBig(prec).SetInt64(2*k+1))
		if term.Sign() == 0 || (k > 0 && term.MantExp(nil) < sum.MantExp(nil)-int(prec)-2) {
			break
		}
		if k%2 == 0 {
			sum.Add(sum, term)
		} else {
			sum.Sub(sum, term)
		}
		pow.Quo(pow, nn)
	}
	return sum
}

// computePi uses Machin's formula π = 16·atan(1/5) − 4·atan(1/239)
func computePi(prec uint) *big.Float {
	a := arctanInv(5, prec)
	b := arctanInv(239, prec)
	a.SetMantExp(a, 4)
	b.SetMantExp(b, 2)
	return a.Sub(a, b)
}

// computeLn10 uses ln 10 = 3·ln 2 + 2·atanh(1/9)
func computeLn10(prec uint) *big.Float {
	z := newBig(prec).Quo(newBig(prec).SetInt64(1), newBig(prec).SetInt64(9))
	r := atanhSeries(z, prec)
	r.SetMantExp(r, 1)
	l2 := newBig(prec).Mul(ln2Const.at(prec), newBig(prec).SetInt64(3))
	return r.Add(r, l2)
}

// Pi returns π rounded to Digits bits
func Pi() Float { return finish(newBig(Digits).Set(piConst.at(workPrec))) }

// Ln2 returns ln 2 rounded to Digits bits
func Ln2() Float { return finish(newBig(Digits).Set(ln2Const.at(workPrec))) }

// Ln10 returns ln 10 rounded to Digits bits
func Ln10() Float { return finish(newBig(Digits).Set(ln10Const.at(workPrec))) }

// E returns Euler's number rounded to Digits bits
func E() Float { return Exp(one) }

// Limits of the format. They are built once at start-up: the extreme
// magnitudes are composed from float64 limits by repeated multiplication,
// the same way they would be built in a format without a wider type to
// stage the computation in.
var (
	minNormal       Float
	maxFinite       Float
	lowest          Float
	epsilon         Float
	dummyPrecision  Float
	smallestNonzero Float
)

func init() {
	dblMin := FromFloat64(math.SmallestNonzeroFloat64 * (1 << 52)) // DBL_MIN
	m := one
	for i := 0; i < 16; i++ {
		m = m.Mul(dblMin)
	}
	minNormal = m.Quo(FromInt(1 << 30))

	dblMult := FromFloat64(math.MaxFloat64 / 2).Add(FromFloat64(math.Ldexp(1, 970))) // 2^1023
	x := one.Sub(one.Ldexp(-Digits))
	for i := 0; i < 16; i++ {
		x = x.Mul(dblMult)
	}
	maxFinite = x.Mul(FromInt(65536))
	lowest = maxFinite.Neg()

	epsilon = one.Ldexp(1 - Digits)
	dummyPrecision = FromInt(1000).Mul(epsilon)
	smallestNonzero = smallestSubnormal(false)

	// warm the constant caches used by the elementary functions
	ln2Const.at(2 * workPrec)
	piConst.at(2 * workPrec)
	ln10Const.at(2 * workPrec)
}

// MinNormal returns the smallest positive normal value, 2^(MinExp-1)
func MinNormal() Float { return minNormal }

// MaxFinite returns the largest finite value, (1 − 2^-113)·2^MaxExp
func MaxFinite() Float { return maxFinite }

// Lowest returns the most negative finite value
func Lowest() Float { return lowest }

// Epsilon returns the gap between 1 and the next larger value, 2^-112
func Epsilon() Float { return epsilon }

// DummyPrecision returns the default tolerance for fuzzy comparisons, 1000·Epsilon
func DummyPrecision() Float { return dummyPrecision }

// SmallestNonzero returns the smallest positive subnormal value, 2^(MinExp-Digits)
func SmallestNonzero() Float { return smallestNonzero }
