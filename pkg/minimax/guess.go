package minimax

import (
	"math"

	mdwlog "github.com/msto63/laplace/foundation/core/log"
	"github.com/msto63/laplace/pkg/quad"
)

var (
	continuationTol  = quad.MustParse("1e-10")
	minLogStep       = quad.MustParse("1e-3")
	edgeSpread       = half
	maxContinuations = 60
)

// stepExchanges bounds the exchanges of one intermediate continuation step.
// A well predicted step converges in two or three.
const stepExchanges = 10

// raiseRatio is the ratio on which order j is built from order j-1. Past
// the ratio where order j-1 saturates, near exp(π·√(2(j-1)))/8, the best
// sums of both orders share their slowest term and the inserted term has
// nothing to lock onto; raising at the square root of that ratio keeps
// well clear of it.
func raiseRatio(j int) quad.Float {
	if j <= 1 {
		return two
	}
	sat := math.Exp(math.Pi*math.Sqrt(float64(2*(j-1)))) / 8
	return quad.FromFloat64(math.Round(math.Max(2, math.Sqrt(sat))*1000) / 1000)
}

// firstOrder returns the order-one starting sum: the exponential through
// 1/t at b and c, with c near the left end of [1, R] where 1/t bends most.
func firstOrder(r quad.Float) expSum {
	c := quad.Min(two, one.Add(r).Mul(half))
	b := one.Add(c.Sub(one).Quo(quad.FromInt(8)))
	alpha := quad.Log(c.Quo(b)).Quo(c.Sub(b))
	omega := quad.Exp(alpha.Mul(b)).Quo(b)
	return expSum{w: []quad.Float{omega}, a: []quad.Float{alpha}}
}

// scannedNodes returns the alternation points of s, or fallback when the
// error curve of s does not alternate often enough.
func (e *engine) scannedNodes(s expSum, r quad.Float, fallback []quad.Float) []quad.Float {
	m := 2*s.order() + 1
	ext, ok := alternation(s.scan(r, m, e.norm), m)
	if !ok {
		return fallback
	}
	nodes := make([]quad.Float, m)
	for i, x := range ext {
		nodes[i] = x.t
	}
	return nodes
}

// interpolate resamples vals, given at cell centres (i+½)/n, at the cell
// centres of a grid with one more cell, extrapolating linearly at the ends.
func interpolate(vals []quad.Float) []quad.Float {
	n := len(vals)
	out := make([]quad.Float, n+1)
	if n == 1 {
		out[0], out[1] = vals[0], vals[0]
		return out
	}
	at := func(i, cells int) quad.Float {
		return quad.FromInt(int64(2*i + 1)).Quo(quad.FromInt(int64(2 * cells)))
	}
	for i := range out {
		u := at(i, n+1)
		j := 0
		for j < n-2 && u.Greater(at(j+1, n)) {
			j++
		}
		x0, x1 := at(j, n), at(j+1, n)
		f := u.Sub(x0).Quo(x1.Sub(x0))
		out[i] = vals[j].Add(vals[j+1].Sub(vals[j]).Mul(f))
	}
	return out
}

// nextOrder builds a starting point for order k+1 from a converged order k
// solution. Exponents and weights are spread in p = -ln α and c = ln(ω/α),
// which vary smoothly with the term index; the outer terms are pushed
// further out to cover the ends of the interval.
func nextOrder(sol *solution) (expSum, []quad.Float) {
	s := sol.sum
	k := s.order()
	p := make([]quad.Float, k)
	c := make([]quad.Float, k)
	for i := range p {
		p[i] = quad.Log(s.a[i]).Neg()
		c[i] = quad.Log(s.w[i].Quo(s.a[i]))
	}

	var np, nc []quad.Float
	if k == 1 {
		np = []quad.Float{p[0].Add(one), p[0].Sub(one)}
		nc = []quad.Float{c[0].Add(quad.FromFloat64(0.3)), c[0].Sub(quad.FromFloat64(0.7))}
	} else {
		np = interpolate(p)
		nc = interpolate(c)
		np[0] = np[0].Add(p[0].Sub(p[1]).Mul(half).Mul(edgeSpread))
		np[k] = np[k].Sub(p[k-2].Sub(p[k-1]).Mul(half).Mul(edgeSpread))
		shift := quad.Log(quad.FromInt(int64(k)).Quo(quad.FromInt(int64(k + 1))))
		for i := range nc {
			nc[i] = nc[i].Add(shift)
		}
	}

	next := expSum{w: make([]quad.Float, k+1), a: make([]quad.Float, k+1)}
	for i := range np {
		next.a[i] = quad.Exp(np[i].Neg())
		next.w[i] = quad.Exp(nc[i]).Mul(next.a[i])
	}
	return next, resampleNodes(sol.nodes, 2*k+3, sol.r)
}

// resampleNodes interpolates the nodes to m points in log t, pinning the
// interval ends.
func resampleNodes(nodes []quad.Float, m int, r quad.Float) []quad.Float {
	n := len(nodes)
	logs := make([]quad.Float, n)
	for i, t := range nodes {
		logs[i] = quad.Log(t)
	}
	out := make([]quad.Float, m)
	for i := range out {
		num := i * (n - 1)
		j := num / (m - 1)
		if j > n-2 {
			j = n - 2
		}
		f := quad.FromInt(int64(num - j*(m-1))).Quo(quad.FromInt(int64(m - 1)))
		out[i] = quad.Exp(logs[j].Mul(one.Sub(f)).Add(logs[j+1].Mul(f)))
	}
	out[0], out[m-1] = one, r
	return out
}

// remapNodes moves nodes from [1, r0] to [1, r1] by scaling log t
func remapNodes(nodes []quad.Float, r0, r1 quad.Float) []quad.Float {
	ratio := quad.Log(r1).Quo(quad.Log(r0))
	out := make([]quad.Float, len(nodes))
	for i, t := range nodes {
		out[i] = quad.Exp(quad.Log(t).Mul(ratio))
	}
	out[0], out[len(out)-1] = one, r1
	return out
}

// logForm returns ln ω, ln α and the node positions ln t / ln R of sol
func (sol *solution) logForm() (lw, la, u []quad.Float, lr quad.Float) {
	lr = quad.Log(sol.r)
	k := sol.sum.order()
	lw, la = make([]quad.Float, k), make([]quad.Float, k)
	for i := range lw {
		lw[i] = quad.Log(sol.sum.w[i])
		la[i] = quad.Log(sol.sum.a[i])
	}
	u = make([]quad.Float, len(sol.nodes))
	for i, t := range sol.nodes {
		u[i] = quad.Log(t).Quo(lr)
	}
	return lw, la, u, lr
}

// predict extrapolates two solutions of the same order linearly in ln R to
// ln R = l. Parameters move in log form, nodes in relative log position.
func predict(prev, cur *solution, l quad.Float) (expSum, []quad.Float) {
	pw, pa, pu, pl := prev.logForm()
	cw, ca, cu, cl := cur.logForm()
	f := l.Sub(cl).Quo(cl.Sub(pl))
	extend := func(p, c []quad.Float) []quad.Float {
		out := make([]quad.Float, len(c))
		for i := range c {
			out[i] = c[i].Add(c[i].Sub(p[i]).Mul(f))
		}
		return out
	}
	w, a, u := extend(pw, cw), extend(pa, ca), extend(pu, cu)
	s := expSum{w: make([]quad.Float, len(w)), a: make([]quad.Float, len(a))}
	for i := range w {
		s.w[i], s.a[i] = quad.Exp(w[i]), quad.Exp(a[i])
	}
	nodes := make([]quad.Float, len(u))
	for i := range u {
		nodes[i] = quad.Exp(u[i].Mul(l))
	}
	nodes[0], nodes[len(nodes)-1] = one, quad.Exp(l)
	return s, nodes
}

// continuation carries a solution from its ratio to r1 in geometric steps.
// Each step starts from the secant through the last two solutions. The step
// halves on failure and doubles on success, except on the success right
// after a failure. The first step has no secant and keeps to 1/k² in ln R.
// Intermediate solutions are levelled loosely and without damped node
// moves, since a step that needs them is cheaper to retry shorter; the one
// at r1 is refined to the engine tolerance.
func (e *engine) continuation(sol *solution, r1 quad.Float) (*solution, bool) {
	var prev *solution
	var held bool
	cur := sol
	target := quad.Log(r1)
	step := target.Sub(quad.Log(sol.r))
	k := int64(sol.sum.order())
	if first := one.Quo(quad.FromInt(k * k)); step.Abs().Greater(first) {
		step = first.Mul(quad.FromInt(int64(step.Sign())))
	}
	for n := 0; !cur.r.Eq(r1); n++ {
		if n == maxContinuations || e.stopped() {
			return nil, false
		}
		lnext := quad.Log(cur.r).Add(step)
		next := quad.Exp(lnext)
		if (step.Sign() > 0 && !lnext.Less(target)) || (step.Sign() < 0 && !lnext.Greater(target)) {
			next, lnext = r1, target
		}
		var guess expSum
		var nodes []quad.Float
		if prev == nil {
			guess, nodes = cur.sum.clone(), remapNodes(cur.nodes, cur.r, next)
		} else {
			guess, nodes = predict(prev, cur, lnext)
		}
		moved, ok := e.exchange(guess, nodes, next, pass{tol: continuationTol, limit: min(stepExchanges, e.maxIter)})
		if !ok {
			step, held = step.Mul(half), true
			if step.Abs().Less(minLogStep) {
				return nil, false
			}
			continue
		}
		prev, cur = cur, moved
		if !held {
			step = step.Mul(two)
		}
		held = false
	}
	return e.remez(cur.sum, cur.nodes, r1, e.tol)
}

// raise solves order k+1 on the same ratio from a converged order k
func (e *engine) raise(sol *solution) (*solution, bool) {
	r := sol.r
	guess, nodes := nextOrder(sol)
	if next, ok := e.remez(guess.clone(), nodes, r, e.tol); ok {
		return next, true
	}
	if e.stopped() {
		return nil, false
	}
	e.trace("retrying with scanned nodes", mdwlog.Fields{"order": guess.order()})
	return e.remez(guess, e.scannedNodes(guess, r, nodes), r, e.tol)
}
