// ============================================================================
// laplace - Minimax Exponential Sums
// ============================================================================
//
// Package:     minimax
// Description: Exchange iteration with a per-call step budget
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

package minimax

import (
	"context"

	mdwlog "github.com/msto63/laplace/foundation/core/log"
	"github.com/msto63/laplace/pkg/quad"
)

// acceptFraction scales the exchange tolerance to the residual at which a
// levelling counts as solved
var acceptFraction = quad.MustParse("0.01")

// minNodeMove is the smallest fraction of an exchange tried before the
// levelling gives up
var minNodeMove = quad.MustParse("0.03125")

// resolution is the smallest residual a levelling can be asked to reach
var resolution = quad.Epsilon().Mul(quad.FromInt(100))

// exchangePatience bounds crawling Newton runs after an exchange while a
// shorter node move is still available, or none is allowed. The shortest
// move of a damped pass runs to the end.
const exchangePatience = 5

// solution is a levelled exponential sum on [1, R] together with its
// alternation nodes.
type solution struct {
	sum   expSum
	err   quad.Float
	nodes []quad.Float
	r     quad.Float
	iter  int
}

// engine runs the exchange for one Compute call. Every exchange step
// counts against maxSteps across all levelling runs of the call.
type engine struct {
	ctx      context.Context
	norm     Norm
	tol      quad.Float
	maxIter  int
	maxSteps int
	steps    int
	log      *mdwlog.Logger
	verbose  bool
}

func (e *engine) trace(msg string, fields mdwlog.Fields) {
	if e.verbose {
		e.log.Debug(msg, fields)
	}
}

func (e *engine) canceled() bool { return e.ctx.Err() != nil }

func (e *engine) exhausted() bool { return e.steps >= e.maxSteps }

// stopped reports whether no further exchange step may run
func (e *engine) stopped() bool { return e.canceled() || e.exhausted() }

// pass configures one remez run
type pass struct {
	tol   quad.Float
	limit int
	// damped allows shortened node moves after a failed exchange
	damped bool
}

// level solves the equioscillation system on nodes. If that fails right
// after an exchange of a damped pass, the nodes are pulled back toward the
// previous set prev, halving the move each time.
func (e *engine) level(s expSum, lev quad.Float, prev, nodes []quad.Float, p pass) (expSum, quad.Float, []quad.Float, bool) {
	target := nodes
	theta := one
	for {
		if e.stopped() {
			return s, lev, nodes, false
		}
		e.steps++
		sys := system{nodes: nodes, norm: e.norm, accept: p.tol.Mul(acceptFraction)}
		if prev != nil && (!p.damped || !theta.Mul(half).Less(minNodeMove)) {
			sys.patience = exchangePatience
		}
		if ns, nl, ok := sys.solve(s, lev); ok {
			return ns, nl, nodes, true
		}
		if prev == nil || !p.damped {
			return s, lev, nodes, false
		}
		theta = theta.Mul(half)
		if theta.Less(minNodeMove) {
			return s, lev, nodes, false
		}
		nodes = between(prev, target, theta)
		e.trace("damping exchange", mdwlog.Fields{"order": s.order(), "theta": theta.Float64()})
	}
}

// between moves each node a fraction theta of the way from a to b in log t.
// The ends stay pinned.
func between(a, b []quad.Float, theta quad.Float) []quad.Float {
	out := make([]quad.Float, len(a))
	for i := range a {
		la, lb := quad.Log(a[i]), quad.Log(b[i])
		out[i] = quad.Exp(la.Add(lb.Sub(la).Mul(theta)))
	}
	out[0], out[len(out)-1] = b[0], b[len(b)-1]
	return out
}

// remez alternates between levelling the error on the current nodes and
// moving the nodes to the extrema of the new error curve, until the extrema
// agree in magnitude to within tol.
func (e *engine) remez(s expSum, nodes []quad.Float, r quad.Float, tol quad.Float) (*solution, bool) {
	return e.exchange(s, nodes, r, pass{tol: tol, limit: e.maxIter, damped: true})
}

// exchange is remez under the limits of p
func (e *engine) exchange(s expSum, nodes []quad.Float, r quad.Float, p pass) (*solution, bool) {
	k := s.order()
	m := 2*k + 1
	if len(nodes) != m {
		return nil, false
	}

	// start from the mean signed error on the nodes
	level := make([]quad.Float, m)
	for j, t := range nodes {
		d := s.delta(t, e.norm)
		if j%2 == 1 {
			d = d.Neg()
		}
		level[j] = d
	}
	lev := quad.Sum(level...).Quo(quad.FromInt(int64(m)))
	if lev.Abs().Mul(p.tol).Mul(acceptFraction).Less(resolution) {
		e.trace("error below resolution", mdwlog.Fields{"order": k, "error": lev.Float64()})
		return nil, false
	}

	var prev []quad.Float
	for it := 0; it < p.limit; it++ {
		var ok bool
		s, lev, nodes, ok = e.level(s, lev, prev, nodes, p)
		if !ok {
			e.trace("levelling failed", mdwlog.Fields{"order": k, "iteration": it})
			return nil, false
		}
		prev = nodes

		ext, ok := alternation(s.scan(r, m, e.norm), m)
		if !ok {
			e.trace("too few alternations", mdwlog.Fields{"order": k, "iteration": it})
			return nil, false
		}
		hi, lo := ext[0].d.Abs(), ext[0].d.Abs()
		nodes = make([]quad.Float, m)
		for j, x := range ext {
			nodes[j] = x.t
			a := x.d.Abs()
			hi, lo = quad.Max(hi, a), quad.Min(lo, a)
		}
		spread := hi.Sub(lo).Quo(hi)
		e.trace("exchange", mdwlog.Fields{
			"order":     k,
			"iteration": it,
			"error":     lev.Float64(),
			"spread":    spread.Float64(),
		})
		if spread.Less(p.tol) {
			return &solution{sum: s, err: hi, nodes: nodes, r: r, iter: it + 1}, true
		}
	}
	return nil, false
}
