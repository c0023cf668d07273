package quad

import (
	"math/big"
	"strings"

	mdwerror "github.com/msto63/laplace/foundation/core/error"
)

// ErrInvalidFormat matches every parse failure under errors.Is
var ErrInvalidFormat = mdwerror.New("invalid number format").WithCode(mdwerror.CodeInvalidFormat)

const (
	// maxSigDigits bounds the decimal digits kept in the mantissa; later
	// digits cannot change the rounded result.
	maxSigDigits = 120
	// maxExpValue caps the exponent magnitude during accumulation
	maxExpValue = 1_000_000_000
	// pow10Floor is the smallest power of ten whose product with a
	// mantissa below 10 can still be nonzero after rounding.
	pow10Floor = MinExp10 - Digits10 - 3
	// splitThreshold is the decimal exponent from which scaling is done in
	// two steps.
	splitThreshold = MinExp10 + 2
	// parsePrec is the precision of the decimal to binary conversion
	parsePrec = 2*Digits + 32
)

// scanState is a state of the literal scanner
type scanState int

const (
	stSign scanState = iota
	stInt
	stPoint
	stFrac
	stExpMark
	stExpSign
	stExpDigits
)

// literal collects the parts of a decimal literal as the scanner sees them
type literal struct {
	neg    bool
	mant   big.Int
	sig    int // significant digits held in mant
	digits int // mantissa digits seen, including leading zeros
	scale  int // decimal exponent adjustment from dropped or fractional digits
	expNeg bool
	exp    int
}

// Parse converts a decimal literal to the nearest Float. Accepted input is
// an optional sign followed by either nan, inf or infinity in any case, or
// digits with an optional fractional part and an optional exponent marked
// by e, E, d or D. At least one mantissa digit is required and the whole
// string must be consumed.
func Parse(s string) (Float, error) {
	var lit literal
	state := stSign
	ten := big.NewInt(10)
	digit := new(big.Int)

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch state {
		case stSign:
			if c == '+' || c == '-' {
				lit.neg = c == '-'
				state = stInt
				if special, ok := parseSpecial(s[i+1:], lit.neg); ok {
					return special, nil
				}
				continue
			}
			if special, ok := parseSpecial(s, false); ok {
				return special, nil
			}
			state = stInt
			fallthrough
		case stInt, stFrac:
			switch {
			case isDigit(c):
				lit.digits++
				if lit.sig < maxSigDigits {
					if lit.sig > 0 || c != '0' {
						lit.mant.Mul(&lit.mant, ten)
						lit.mant.Add(&lit.mant, digit.SetInt64(int64(c-'0')))
						lit.sig++
					}
					if state == stFrac {
						lit.scale--
					}
				} else if state == stInt {
					lit.scale++
				}
			case c == '.' && state == stInt:
				state = stPoint
			case isExpMark(c) && lit.digits > 0:
				state = stExpMark
			default:
				return Float{}, parseError(s, i, "unexpected character")
			}
		case stPoint:
			switch {
			case isDigit(c):
				state = stFrac
				i--
			case isExpMark(c) && lit.digits > 0:
				state = stExpMark
			default:
				return Float{}, parseError(s, i, "unexpected character after decimal point")
			}
		case stExpMark:
			if c == '+' || c == '-' {
				lit.expNeg = c == '-'
				state = stExpSign
				continue
			}
			state = stExpSign
			fallthrough
		case stExpSign, stExpDigits:
			if !isDigit(c) {
				return Float{}, parseError(s, i, "invalid exponent")
			}
			state = stExpDigits
			if lit.exp < maxExpValue {
				lit.exp = lit.exp*10 + int(c-'0')
			}
		}
	}

	switch {
	case len(s) == 0:
		return Float{}, parseError(s, 0, "empty input")
	case lit.digits == 0:
		return Float{}, parseError(s, len(s), "missing digits")
	case state == stExpMark || state == stExpSign:
		return Float{}, parseError(s, len(s), "missing exponent digits")
	}
	return lit.value(), nil
}

// MustParse is like Parse but panics on malformed input. It is meant for
// constants in code and tests.
func MustParse(s string) Float {
	x, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return x
}

func (lit *literal) value() Float {
	if lit.mant.Sign() == 0 {
		z := newBig(Digits)
		if lit.neg {
			z.Neg(z)
		}
		return Float{v: z}
	}

	exp := lit.exp
	if lit.expNeg {
		exp = -exp
	}
	expon := exp + lit.scale

	z := newBig(parsePrec).SetInt(&lit.mant)
	if lit.neg {
		z.Neg(z)
	}

	if expon <= splitThreshold {
		// Scaling by a single tiny power of ten would flush it to zero
		// before the mantissa digits are applied, so the power is split
		// in two around the digit count.
		d := lit.sig
		z.Mul(z, pow10(expon+d+1))
		z.Mul(z, pow10(-d-1))
	} else {
		z.Mul(z, pow10(expon))
	}
	return finish(z)
}

// pow10 returns 10^n in parse precision. Below pow10Floor the result is 0
// and above the largest finite power it is +Inf.
func pow10(n int) *big.Float {
	switch {
	case n < pow10Floor:
		return newBig(parsePrec)
	case n > MaxExp10+1:
		return newBig(parsePrec).SetInf(false)
	}
	neg := n < 0
	if neg {
		n = -n
	}
	r := newBig(parsePrec).SetInt64(1)
	base := newBig(parsePrec).SetInt64(10)
	for n > 0 {
		if n&1 == 1 {
			r.Mul(r, base)
		}
		n >>= 1
		if n > 0 {
			base.Mul(base, base)
		}
	}
	if neg {
		r.Quo(newBig(parsePrec).SetInt64(1), r)
	}
	return r
}

// parseSpecial recognises nan, inf and infinity
func parseSpecial(s string, neg bool) (Float, bool) {
	switch strings.ToLower(s) {
	case "nan":
		return nanValue, true
	case "inf", "infinity":
		if neg {
			return negInf, true
		}
		return posInf, true
	}
	return Float{}, false
}

func parseError(s string, pos int, reason string) error {
	return mdwerror.Newf("invalid number %q: %s at position %d", s, reason, pos).
		WithCode(mdwerror.CodeInvalidFormat).
		WithDetail("input", s).
		WithDetail("position", pos).
		WithDetail("reason", reason).
		WithOperation("quad.Parse")
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isExpMark(c byte) bool { return c == 'e' || c == 'E' || c == 'd' || c == 'D' }
