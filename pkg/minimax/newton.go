package minimax

import (
	"github.com/msto63/laplace/pkg/linalg"
	"github.com/msto63/laplace/pkg/quad"
)

// Step control for the equioscillation solve. The unknowns are u = ln ω,
// v = ln α and the levelled error E; steps in u and v are capped so that no
// parameter changes by more than a factor e^3 at once.
var (
	maxLogStep    = quad.FromInt(3)
	armijo        = quad.MustParse("1e-4")
	minDamping    = quad.MustParse("1e-12")
	floorDamping  = quad.MustParse("1e-3")
	slowRatio     = quad.MustParse("0.81")
	maxBend       = quad.MustParse("0.75")
	newtonStepTol = quad.MustParse("1e-25")
	newtonResTol  = quad.MustParse("1e-26")
	lmInitialMu   = quad.MustParse("1e-6")
	lmMinMu       = quad.MustParse("1e-40")
	lmMaxMu       = quad.MustParse("1e20")
	lmResTol      = quad.MustParse("1e-24")
	lmStepTol     = quad.MustParse("1e-26")
	ten           = quad.FromInt(10)
)

const (
	newtonMaxIter = 80
	lmMaxIter     = 40
)

// system is the nonlinear equioscillation system on fixed nodes T:
//
//	δ(T_j) = (-1)^j·E,  j = 0..2k
//
// A solution is accepted once ‖F‖ ≤ accept·|E|. With patience > 0, Newton
// gives up after that many consecutive steps that cut ‖F‖ by less than 10%.
type system struct {
	nodes    []quad.Float
	norm     Norm
	accept   quad.Float
	patience int
}

// outcome of a Newton run
type outcome int

const (
	levelled outcome = iota
	stalled
	singular
)

// settled reports whether the residual norm √nf is small against the level
func (sys system) settled(nf, e quad.Float) bool {
	return nf.Sqrt().LessEq(e.Abs().Mul(sys.accept))
}

// residual returns F_j = δ(T_j) - (-1)^j·E
func (sys system) residual(s expSum, e quad.Float) []quad.Float {
	f := make([]quad.Float, len(sys.nodes))
	for j, t := range sys.nodes {
		level := e
		if j%2 == 1 {
			level = e.Neg()
		}
		f[j] = s.delta(t, sys.norm).Sub(level)
	}
	return f
}

// jacobian returns ∂F/∂(u, v, E)
func (sys system) jacobian(s expSum) *linalg.Dense[quad.Float] {
	k := s.order()
	n := 2*k + 1
	jac := linalg.NewDense[quad.Float](len(sys.nodes), n, nil)
	for j, t := range sys.nodes {
		terms := s.terms(t)
		for i, e := range terms {
			du := e.Neg()
			dv := t.Mul(e).Mul(s.a[i])
			if sys.norm == NormRelative {
				du, dv = du.Mul(t), dv.Mul(t)
			}
			jac.Set(j, i, du)
			jac.Set(j, k+i, dv)
		}
		if j%2 == 0 {
			jac.Set(j, 2*k, one.Neg())
		} else {
			jac.Set(j, 2*k, one)
		}
	}
	return jac
}

// curvature returns the second derivative of F along d,
//
//	F''[d,d]_j = -Σ_i T_i·((du_i - α_i·t·dv_i)² - α_i·t·dv_i²)
//
// with T_i = ω_i·exp(-α_i·t), times t for the relative norm.
func (sys system) curvature(s expSum, d []quad.Float) []quad.Float {
	k := s.order()
	out := make([]quad.Float, len(sys.nodes))
	for j, t := range sys.nodes {
		acc := make([]quad.Float, k)
		for i, e := range s.terms(t) {
			at := s.a[i].Mul(t)
			g := d[i].Sub(at.Mul(d[k+i]))
			acc[i] = e.Mul(g.Mul(g).Sub(at.Mul(d[k+i]).Mul(d[k+i])))
		}
		c := quad.Sum(acc...).Neg()
		if sys.norm == NormRelative {
			c = c.Mul(t)
		}
		out[j] = c
	}
	return out
}

// along returns the point λ·d + ½λ²·acc on the geodesic path
func along(d, acc []quad.Float, lambda quad.Float) []quad.Float {
	out := make([]quad.Float, len(d))
	bend := lambda.Mul(lambda).Mul(half)
	for i := range d {
		out[i] = lambda.Mul(d[i]).Add(bend.Mul(acc[i]))
	}
	return out
}

// advance applies step to (s, e)
func advance(s expSum, e quad.Float, step []quad.Float) (expSum, quad.Float) {
	k := s.order()
	next := expSum{w: make([]quad.Float, k), a: make([]quad.Float, k)}
	for i := 0; i < k; i++ {
		next.w[i] = s.w[i].Mul(quad.Exp(step[i]))
		next.a[i] = s.a[i].Mul(quad.Exp(step[k+i]))
	}
	return next, e.Add(step[2*k])
}

func sumSquares(f []quad.Float) quad.Float {
	return linalg.Dot(f, f)
}

func negate(f []quad.Float) []quad.Float {
	out := make([]quad.Float, len(f))
	for i, v := range f {
		out[i] = v.Neg()
	}
	return out
}

// solve levels the error on the nodes. It runs damped Newton and falls
// back to Levenberg-Marquardt when the Jacobian is singular.
func (sys system) solve(s expSum, e quad.Float) (expSum, quad.Float, bool) {
	ns, ne, out := sys.newton(s, e)
	switch out {
	case levelled:
		return ns, ne, true
	case singular:
		return sys.levenbergMarquardt(s, e)
	}
	return s, e, false
}

// newton runs damped Newton with geodesic acceleration and an Armijo
// backtracking line search on ‖F‖². The error curve is a near cancellation
// of terms of order one, so second-order changes of single terms swamp the
// residual unless the step bends along the second derivative of F. Once the
// line search cannot reduce a residual that is already settled, rounding
// dominates and the iterate is returned as levelled.
func (sys system) newton(s expSum, e quad.Float) (expSum, quad.Float, outcome) {
	k := s.order()
	f := sys.residual(s, e)
	nf := sumSquares(f)
	slow := 0
	for it := 0; it < newtonMaxIter; it++ {
		if nf.Sqrt().LessEq(e.Abs().Mul(newtonResTol)) {
			return s, e, levelled
		}
		lu, err := linalg.FactorizeLU(sys.jacobian(s))
		if err != nil {
			return s, e, singular
		}
		d, err := lu.Solve(negate(f))
		if err != nil {
			return s, e, singular
		}
		stepSize := linalg.MaxAbs(d[:2*k])
		acc, err := lu.Solve(negate(sys.curvature(s, d)))
		if err != nil || linalg.MaxAbs(acc[:2*k]).Greater(stepSize.Mul(maxBend)) {
			acc = make([]quad.Float, len(d))
		}

		lambda := one
		var ns expSum
		var ne, nn quad.Float
		var nf2 []quad.Float
		for {
			if scaled := stepSize.Mul(lambda); scaled.Greater(maxLogStep) {
				lambda = lambda.Mul(maxLogStep).Quo(scaled)
			}
			ns, ne = advance(s, e, along(d, acc, lambda))
			nf2 = sys.residual(ns, ne)
			nn = sumSquares(nf2)
			if nn.IsZero() || nn.Less(nf.Mul(one.Sub(armijo.Mul(lambda)))) {
				break
			}
			lambda = lambda.Mul(half)
			if lambda.Less(floorDamping) && sys.settled(nf, e) {
				return s, e, levelled
			}
			if lambda.Less(minDamping) {
				return s, e, stalled
			}
		}
		if nn.Greater(nf.Mul(slowRatio)) {
			slow++
		} else {
			slow = 0
		}
		s, e, f, nf = ns, ne, nf2, nn

		if lambda.Eq(one) && stepSize.Less(newtonStepTol) {
			break
		}
		if sys.patience > 0 && slow == sys.patience {
			break
		}
	}
	if sys.settled(nf, e) {
		return s, e, levelled
	}
	return s, e, stalled
}

// levenbergMarquardt minimizes ‖F‖² with an SVD-based damped step
//
//	d = -Σ σ_i/(σ_i²+μ)·(u_iᵀF)·v_i
//
// adapting μ by factors of ten. The result counts only if it settles.
func (sys system) levenbergMarquardt(s expSum, e quad.Float) (expSum, quad.Float, bool) {
	k := s.order()
	f := sys.residual(s, e)
	nf := sumSquares(f)
	var mu quad.Float
	for it := 0; it < lmMaxIter; it++ {
		svd, err := linalg.FactorizeSVD(sys.jacobian(s), quad.Traits{})
		if err != nil {
			return s, e, false
		}
		smax2 := svd.S[0].Mul(svd.S[0])
		if it == 0 {
			mu = smax2.Mul(lmInitialMu)
		}
		uf := make([]quad.Float, len(svd.S))
		for j := range uf {
			uf[j] = linalg.Dot(svd.U.Col(j), f)
		}

		var d []quad.Float
		var ns expSum
		var ne, nn quad.Float
		var nf2 []quad.Float
		for {
			if mu.Greater(smax2.Mul(lmMaxMu)) {
				return s, e, sys.settled(nf, e)
			}
			d = sys.lmStep(svd, uf, mu)
			if linalg.MaxAbs(d[:2*k]).Greater(maxLogStep) {
				mu = mu.Mul(ten)
				continue
			}
			ns, ne = advance(s, e, d)
			nf2 = sys.residual(ns, ne)
			nn = sumSquares(nf2)
			if nn.Less(nf) {
				mu = quad.Max(mu.Quo(ten), smax2.Mul(lmMinMu))
				break
			}
			mu = mu.Mul(ten)
		}
		s, e, f, nf = ns, ne, nf2, nn

		if nf.Sqrt().LessEq(e.Abs().Mul(lmResTol)) || linalg.MaxAbs(d[:2*k]).Less(lmStepTol) {
			break
		}
	}
	return s, e, sys.settled(nf, e)
}

func (sys system) lmStep(svd *linalg.SVD[quad.Float], uf []quad.Float, mu quad.Float) []quad.Float {
	n, _ := svd.V.Dims()
	coef := make([]quad.Float, len(svd.S))
	for j, sv := range svd.S {
		if sv.IsZero() {
			continue
		}
		coef[j] = sv.Quo(sv.Mul(sv).Add(mu)).Mul(uf[j]).Neg()
	}
	d := make([]quad.Float, n)
	for i := 0; i < n; i++ {
		d[i] = linalg.Dot(svd.V.Row(i), coef)
	}
	return d
}
