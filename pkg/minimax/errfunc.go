package minimax

import (
	"github.com/msto63/laplace/pkg/quad"
)

var (
	one  = quad.One()
	two  = quad.FromInt(2)
	half = quad.FromFloat64(0.5)
)

// expSum is Σ ω_i·exp(-α_i·t) on the normalized interval
type expSum struct {
	w, a []quad.Float
}

func (s expSum) order() int { return len(s.w) }

func (s expSum) clone() expSum {
	w := make([]quad.Float, len(s.w))
	a := make([]quad.Float, len(s.a))
	copy(w, s.w)
	copy(a, s.a)
	return expSum{w: w, a: a}
}

// terms returns ω_i·exp(-α_i·t) for every i
func (s expSum) terms(t quad.Float) []quad.Float {
	out := make([]quad.Float, len(s.w))
	for i := range s.w {
		out[i] = s.w[i].Mul(quad.Exp(s.a[i].Mul(t).Neg()))
	}
	return out
}

// eval returns the sum at t
func (s expSum) eval(t quad.Float) quad.Float {
	return quad.Sum(s.terms(t)...)
}

// delta is the error curve at t
func (s expSum) delta(t quad.Float, norm Norm) quad.Float {
	sum := s.eval(t)
	if norm == NormRelative {
		return one.Sub(t.Mul(sum))
	}
	return one.Quo(t).Sub(sum)
}

// slope is the derivative of the error curve at t
func (s expSum) slope(t quad.Float, norm Norm) quad.Float {
	terms := s.terms(t)
	acc := make([]quad.Float, 0, len(terms)+1)
	if norm == NormRelative {
		for i, e := range terms {
			acc = append(acc, e.Mul(s.a[i].Mul(t).Sub(one)))
		}
		return quad.Sum(acc...)
	}
	acc = append(acc, one.Quo(t.Mul(t)).Neg())
	for i, e := range terms {
		acc = append(acc, e.Mul(s.a[i]))
	}
	return quad.Sum(acc...)
}

// extremum is a local extremum of the error curve
type extremum struct {
	t, d quad.Float
}

// scan samples the error curve on a logarithmic grid over [1, R], refines
// each interior extremum to a root of the slope and always includes both
// endpoints.
func (s expSum) scan(r quad.Float, m int, norm Norm) []extremum {
	n := 16 * m
	if n < 200 {
		n = 200
	}
	lr := quad.Log(r)
	nf := quad.FromInt(int64(n))
	ts := make([]quad.Float, n+1)
	ds := make([]quad.Float, n+1)
	for i := range ts {
		switch i {
		case 0:
			ts[i] = one
		case n:
			ts[i] = r
		default:
			ts[i] = quad.Exp(lr.Mul(quad.FromInt(int64(i))).Quo(nf))
		}
		ds[i] = s.delta(ts[i], norm)
	}

	pts := []extremum{{t: ts[0], d: ds[0]}}
	slope := func(t quad.Float) quad.Float { return s.slope(t, norm) }
	for i := 1; i < n; i++ {
		left, right := ds[i].Sub(ds[i-1]), ds[i+1].Sub(ds[i])
		if left.Mul(right).Sign() > 0 || left.Sign() == 0 {
			continue
		}
		x, ok := illinois(slope, ts[i-1], ts[i+1])
		if !ok {
			x = ts[i]
		}
		pts = append(pts, extremum{t: x, d: s.delta(x, norm)})
	}
	return append(pts, extremum{t: ts[n], d: ds[n]})
}

var rootTolerance = quad.MustParse("1e-30")

// illinois finds a root of f in [a, b] by regula falsi with the Illinois
// modification. It reports false when f(a) and f(b) have the same sign.
func illinois(f func(quad.Float) quad.Float, a, b quad.Float) (quad.Float, bool) {
	fa, fb := f(a), f(b)
	switch {
	case fa.IsZero():
		return a, true
	case fb.IsZero():
		return b, true
	case fa.Sign() == fb.Sign():
		return quad.Float{}, false
	}

	side := 0
	for i := 0; i < 200; i++ {
		c := a.Mul(fb).Sub(b.Mul(fa)).Quo(fb.Sub(fa))
		if !(quad.Min(a, b).Less(c) && c.Less(quad.Max(a, b))) {
			c = a.Add(b).Mul(half)
		}
		fc := f(c)
		if fc.IsZero() {
			return c, true
		}
		if fc.Sign() == fb.Sign() {
			b, fb = c, fc
			if side == -1 {
				fa = fa.Mul(half)
			}
			side = -1
		} else {
			a, fa = c, fc
			if side == 1 {
				fb = fb.Mul(half)
			}
			side = 1
		}
		if b.Sub(a).Abs().Less(rootTolerance.Mul(b.Abs())) {
			break
		}
	}
	return a.Add(b).Mul(half), true
}

// alternation picks m extrema of alternating sign from the scanned points,
// keeping the largest magnitudes. It reports false when fewer than m sign
// changes exist.
func alternation(pts []extremum, m int) ([]extremum, bool) {
	var nodes []extremum
	var group []extremum
	flush := func() {
		best := group[0]
		for _, p := range group[1:] {
			if p.d.Abs().Greater(best.d.Abs()) {
				best = p
			}
		}
		nodes = append(nodes, best)
		group = group[:0]
	}
	for _, p := range pts {
		if len(group) > 0 && (p.d.Sign() > 0) != (group[0].d.Sign() > 0) {
			flush()
		}
		group = append(group, p)
	}
	if len(group) > 0 {
		flush()
	}
	if len(nodes) < m {
		return nil, false
	}

	for len(nodes) > m {
		if len(nodes) == m+1 {
			if nodes[0].d.Abs().Greater(nodes[len(nodes)-1].d.Abs()) {
				nodes = nodes[:len(nodes)-1]
			} else {
				nodes = nodes[1:]
			}
			continue
		}
		// drop the adjacent pair with the smallest combined magnitude
		drop := 0
		var least quad.Float
		for i := 0; i+1 < len(nodes); i++ {
			sum := nodes[i].d.Abs().Add(nodes[i+1].d.Abs())
			if i == 0 || sum.Less(least) {
				drop, least = i, sum
			}
		}
		switch drop {
		case 0:
			nodes = nodes[1:]
		case len(nodes) - 2:
			nodes = nodes[:len(nodes)-1]
		default:
			nodes = append(nodes[:drop:drop], nodes[drop+2:]...)
		}
	}
	return nodes, true
}
