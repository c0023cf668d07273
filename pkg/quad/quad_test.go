package quad

import (
	"math"
	"sort"
	"testing"
)

// relErr returns |got-want|/|want|, or |got| when want is zero
func relErr(got, want Float) Float {
	d := got.Sub(want).Abs()
	if want.IsZero() {
		return d
	}
	return d.Quo(want.Abs())
}

func assertClose(t *testing.T, name string, got, want Float, ulps int64) {
	t.Helper()
	tol := Epsilon().Mul(FromInt(ulps))
	if r := relErr(got, want); !r.LessEq(tol) {
		t.Errorf("%s = %v, want %v (rel err %v)", name, got, want, r)
	}
}

func TestLimits(t *testing.T) {
	if !one.Add(Epsilon()).Greater(one) {
		t.Error("1 + Epsilon should exceed 1")
	}
	if !one.Add(Epsilon().Ldexp(-1)).Eq(one) {
		t.Error("1 + Epsilon/2 should round to 1")
	}
	if frac, exp := MinNormal().Frexp(); !frac.Eq(FromFloat64(0.5)) || exp != MinExp {
		t.Errorf("MinNormal = %v·2^%d, want 0.5·2^%d", frac, exp, MinExp)
	}
	if frac, exp := SmallestNonzero().Frexp(); !frac.Eq(FromFloat64(0.5)) || exp != MinExp-Digits+1 {
		t.Errorf("SmallestNonzero = %v·2^%d", frac, exp)
	}
	if !MaxFinite().IsFinite() || !MaxFinite().Mul(FromInt(2)).IsInf(1) {
		t.Error("MaxFinite should be the largest finite value")
	}
	if _, exp := MaxFinite().Frexp(); exp != MaxExp {
		t.Errorf("MaxFinite exponent = %d, want %d", exp, MaxExp)
	}
	if !Lowest().Eq(MaxFinite().Neg()) {
		t.Error("Lowest should be -MaxFinite")
	}
	if Lowest().Eq(MinNormal()) {
		t.Error("Lowest must not equal MinNormal")
	}
	if !DummyPrecision().Eq(Epsilon().Mul(FromInt(1000))) {
		t.Error("DummyPrecision should be 1000·Epsilon")
	}
	if MinExp10 != -4930 || MaxExp10 != 4931 {
		t.Errorf("decimal exponent range = [%d, %d]", MinExp10, MaxExp10)
	}
}

func TestSubnormals(t *testing.T) {
	tiny := SmallestNonzero()

	if !tiny.Quo(FromInt(2)).IsZero() {
		t.Error("half the smallest subnormal should round to zero (ties to even)")
	}
	if !tiny.Mul(FromFloat64(0.75)).Eq(tiny) {
		t.Error("0.75·SmallestNonzero should round up to SmallestNonzero")
	}
	if !tiny.Mul(FromFloat64(1.5)).Eq(tiny.Mul(FromInt(2))) {
		t.Error("1.5·SmallestNonzero should round to even")
	}

	half := MinNormal().Ldexp(-1)
	if half.IsZero() || !half.Less(MinNormal()) {
		t.Fatal("MinNormal/2 should be a nonzero subnormal")
	}
	if !half.Ldexp(1).Eq(MinNormal()) {
		t.Error("scaling a subnormal back should be exact")
	}

	third := MinNormal().Quo(FromInt(3))
	back := third.Mul(FromInt(3))
	if d := back.Sub(MinNormal()).Abs(); !d.LessEq(tiny.Mul(FromInt(2))) {
		t.Errorf("subnormal division lost too much: %v", d)
	}
	if !tiny.Neg().Quo(FromInt(4)).Signbit() {
		t.Error("underflow should keep the sign")
	}
}

func TestSpecialValues(t *testing.T) {
	inf, ninf, nan := Inf(1), Inf(-1), NaN()
	zero, two := Float{}, FromInt(2)

	tests := []struct {
		name string
		got  Float
		want Float
	}{
		{"inf-inf", inf.Sub(inf), nan},
		{"inf+(-inf)", inf.Add(ninf), nan},
		{"0*inf", zero.Mul(inf), nan},
		{"0/0", zero.Quo(zero), nan},
		{"inf/inf", inf.Quo(ninf), nan},
		{"1/0", one.Quo(zero), inf},
		{"1/-0", one.Quo(zero.Neg()), ninf},
		{"-2/0", two.Neg().Quo(zero), ninf},
		{"2/inf", two.Quo(inf), zero},
		{"inf+2", inf.Add(two), inf},
		{"sqrt(-1)", one.Neg().Sqrt(), nan},
		{"sqrt(inf)", inf.Sqrt(), inf},
		{"sqrt(-0)", zero.Neg().Sqrt(), zero.Neg()},
		{"nan+1", nan.Add(one), nan},
		{"max overflow", MaxFinite().Add(MaxFinite()), inf},
		{"min overflow", Lowest().Sub(MaxFinite()), ninf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.Identical(tt.want) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestComparisons(t *testing.T) {
	nan := NaN()
	a, b := FromInt(1), FromInt(2)

	if !a.Less(b) || !b.Greater(a) || !a.LessEq(a) || !a.GreaterEq(a) || !a.Eq(a) || a.Ne(a) {
		t.Error("ordinary comparisons are wrong")
	}
	if nan.Eq(nan) || nan.Less(a) || a.Less(nan) || nan.GreaterEq(a) || !nan.Ne(nan) {
		t.Error("comparisons with NaN must be false except Ne")
	}
	pz, nz := Float{}, Float{}.Neg()
	if !pz.Eq(nz) || pz.Identical(nz) {
		t.Error("-0 equals +0 but is not identical")
	}

	vals := []Float{b, nan, Inf(-1), a, Inf(1), Float{}.Neg()}
	sort.Slice(vals, func(i, j int) bool { return vals[i].Cmp(vals[j]) < 0 })
	if !vals[0].IsNaN() || !vals[1].IsInf(-1) || !vals[5].IsInf(1) || !vals[3].Eq(a) {
		t.Errorf("Cmp order wrong: %v", vals)
	}

	if !Max(a, b).Eq(b) || !Min(a, b).Eq(a) || !Max(a, nan).IsNaN() {
		t.Error("Max/Min wrong")
	}
}

func TestArithmeticPrecision(t *testing.T) {
	// 1/3 + 1/3 + 1/3 rounds back to 1 but keeps 113 bits on the way
	third := one.Quo(FromInt(3))
	if got := third.Add(third).Add(third); !got.Eq(one) {
		t.Errorf("3·(1/3) = %v", got)
	}
	if got := third.Mul(FromInt(3)).Sub(one).Abs(); !got.LessEq(Epsilon()) {
		t.Errorf("3·(1/3)-1 = %v", got)
	}

	// digits beyond float64 survive
	x := one.Add(FromFloat64(math.Ldexp(1, -100)))
	if x.Eq(one) {
		t.Error("1 + 2^-100 should be distinguishable from 1")
	}
	if x.Float64() != 1 {
		t.Error("narrowing to float64 should lose 2^-100")
	}

	assertClose(t, "sqrt(2)^2", FromInt(2).Sqrt().Mul(FromInt(2).Sqrt()), FromInt(2), 2)
}

func TestRounding(t *testing.T) {
	tests := []struct {
		in                        float64
		trunc, floor, ceil, round float64
	}{
		{2.5, 2, 2, 3, 3},
		{-2.5, -2, -3, -2, -3},
		{2.4, 2, 2, 3, 2},
		{-0.3, 0, -1, 0, 0},
		{7, 7, 7, 7, 7},
	}
	for _, tt := range tests {
		x := FromFloat64(tt.in)
		if got := x.Trunc().Float64(); got != tt.trunc {
			t.Errorf("Trunc(%v) = %v", tt.in, got)
		}
		if got := x.Floor().Float64(); got != tt.floor {
			t.Errorf("Floor(%v) = %v", tt.in, got)
		}
		if got := x.Ceil().Float64(); got != tt.ceil {
			t.Errorf("Ceil(%v) = %v", tt.in, got)
		}
		if got := x.Round().Float64(); got != tt.round {
			t.Errorf("Round(%v) = %v", tt.in, got)
		}
	}
	if !FromFloat64(-0.3).Trunc().Signbit() {
		t.Error("Trunc(-0.3) should be -0")
	}
}

func TestConversions(t *testing.T) {
	if n, ok := FromFloat64(-42.9).Int64(); !ok || n != -42 {
		t.Errorf("Int64(-42.9) = %d, %v", n, ok)
	}
	if _, ok := Inf(1).Int64(); ok {
		t.Error("Int64(inf) should fail")
	}
	if !math.IsNaN(NaN().Float64()) || !math.IsInf(Inf(-1).Float64(), -1) {
		t.Error("special values should narrow to float64 specials")
	}
	if !FromBig(nil).IsNaN() {
		t.Error("FromBig(nil) should be NaN")
	}
	if b := FromInt(12).Big(); b.Prec() != Digits {
		t.Errorf("Big precision = %d", b.Prec())
	}
	if got := FromInt(1).Ldexp(MaxExp); !got.IsInf(1) {
		t.Errorf("2^MaxExp = %v, want +inf", got)
	}
}

func TestSum(t *testing.T) {
	huge := FromFloat64(1e30)
	if got := Sum(huge, one, huge.Neg()); !got.Eq(one) {
		t.Errorf("Sum should not lose the small term, got %v", got)
	}
	if !Sum(Inf(1), one).IsInf(1) {
		t.Error("Sum with infinity should be infinite")
	}
	if !Sum(Inf(1), Inf(-1)).IsNaN() {
		t.Error("Sum of opposite infinities should be NaN")
	}
}
