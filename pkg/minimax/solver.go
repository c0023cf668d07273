// ============================================================================
// laplace - Minimax Exponential Sums
// ============================================================================
//
// Package:     minimax
// Description: Public solver API, options and results
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

package minimax

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	mdwerror "github.com/msto63/laplace/foundation/core/error"
	mdwlog "github.com/msto63/laplace/foundation/core/log"
	"github.com/msto63/laplace/pkg/linalg"
	"github.com/msto63/laplace/pkg/quad"
)

// Mode selects diagnostic output. It never changes numerical results.
type Mode int

const (
	// Quiet logs nothing beyond warnings on the configured logger
	Quiet Mode = iota
	// Verbose traces every exchange iteration at debug level
	Verbose
)

// Norm selects the error measure that is minimized
type Norm int

const (
	// NormAbsolute minimizes max |1/x - Σ w·exp(-a·x)|
	NormAbsolute Norm = iota
	// NormRelative minimizes max |1 - x·Σ w·exp(-a·x)|
	NormRelative
)

// String returns the configuration name of the norm
func (n Norm) String() string {
	switch n {
	case NormAbsolute:
		return "absolute"
	case NormRelative:
		return "relative"
	}
	return fmt.Sprintf("norm(%d)", int(n))
}

// ParseNorm parses "absolute" or "relative"
func ParseNorm(s string) (Norm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "absolute", "abs", "":
		return NormAbsolute, nil
	case "relative", "rel":
		return NormRelative, nil
	}
	return 0, mdwerror.Newf("unknown norm %q", s).
		WithCode(mdwerror.CodeInvalidInput).
		WithOperation("minimax.ParseNorm")
}

// MarshalText implements encoding.TextMarshaler
func (n Norm) MarshalText() ([]byte, error) {
	if n != NormAbsolute && n != NormRelative {
		return nil, mdwerror.Newf("unknown norm %d", int(n)).WithCode(mdwerror.CodeInvalidInput)
	}
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (n *Norm) UnmarshalText(text []byte) error {
	v, err := ParseNorm(string(text))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// Sentinel errors for errors.Is
var (
	ErrInvalidInput = mdwerror.New("invalid solver input").WithCode(mdwerror.CodeInvalidInput)
	ErrConvergence  = mdwerror.New("minimax iteration did not converge").WithCode(mdwerror.CodeConvergenceFailed)
	ErrNotComputed  = mdwerror.New("no result computed").WithCode(mdwerror.CodeNotComputed)
)

// Options tune a Solver
type Options struct {
	// Norm is the error measure, NormAbsolute by default
	Norm Norm
	// MaxIterations bounds the exchange steps of one levelling run. A whole
	// Compute of order k takes at most stepBudget·(k+2)·MaxIterations
	// exchange steps across all orders and ratios it passes through.
	MaxIterations int
	// Tolerance is the relative spread of the extremal errors at which the
	// exchange stops
	Tolerance float64
	// Logger receives diagnostics. Nil logs nothing in Quiet mode and to
	// stderr in Verbose mode.
	Logger *mdwlog.Logger
	// Seeds supplies stored solutions as starting points and receives new
	// ones. Nil disables warm starts.
	Seeds SeedStore
}

// stepBudget scales MaxIterations to the exchange steps allowed per order
const stepBudget = 4

// DefaultOptions returns the options used by New
func DefaultOptions() Options {
	return Options{
		Norm:          NormAbsolute,
		MaxIterations: 40,
		Tolerance:     1e-12,
	}
}

// Solver computes minimax exponential sums. A Solver must not be used from
// several goroutines at once; independent Solvers share nothing.
type Solver struct {
	mode   Mode
	opts   Options
	log    *mdwlog.Logger
	result *Result
}

// New creates a solver with DefaultOptions
func New(mode Mode) *Solver {
	return NewWithOptions(mode, DefaultOptions())
}

// NewWithOptions creates a solver; zero MaxIterations and Tolerance take
// their defaults.
func NewWithOptions(mode Mode, opts Options) *Solver {
	def := DefaultOptions()
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = def.Tolerance
	}

	logger := opts.Logger
	switch {
	case logger != nil:
		logger = logger.WithName("minimax")
	case mode == Verbose:
		logger = mdwlog.NewWithConfig(mdwlog.Config{
			Level:  mdwlog.LevelDebug,
			Format: mdwlog.FormatText,
			Name:   "minimax",
		})
	default:
		logger = mdwlog.Discard()
	}
	return &Solver{mode: mode, opts: opts, log: logger}
}

// Mode returns the diagnostic mode
func (s *Solver) Mode() Mode { return s.mode }

// Options returns the effective options
func (s *Solver) Options() Options { return s.opts }

// Compute solves for order k on [ymin, ymax]
func (s *Solver) Compute(k int, ymin, ymax float64) error {
	iv, err := NewInterval(quad.FromFloat64(ymin), quad.FromFloat64(ymax))
	if err != nil {
		s.result = nil
		return err
	}
	return s.ComputeContext(context.Background(), k, iv)
}

// ComputeFromEnergies derives the interval from four orbital energies, see
// IntervalFromEnergies, and solves for order k.
func (s *Solver) ComputeFromEnergies(emin, ehomo, elumo, emax float64, k int) error {
	iv, err := IntervalFromEnergies(quad.FromFloat64(emin), quad.FromFloat64(ehomo),
		quad.FromFloat64(elumo), quad.FromFloat64(emax))
	if err != nil {
		s.result = nil
		return err
	}
	return s.ComputeContext(context.Background(), k, iv)
}

// ComputeContext solves for order k on iv. Cancelling ctx aborts between
// exchange steps. On failure the previous result is discarded.
func (s *Solver) ComputeContext(ctx context.Context, k int, iv Interval) error {
	s.result = nil
	if k < 1 {
		return invalidInput("order k must be at least 1").WithDetail("k", k)
	}
	iv, err := NewInterval(iv.Ymin, iv.Ymax)
	if err != nil {
		return err
	}

	r := iv.Ratio()
	log := s.log.WithFields(mdwlog.Fields{"k": k, "ratio": r.Float64(), "norm": s.opts.Norm.String()})
	timer := log.StartTimer("minimax compute")

	eng := &engine{
		ctx:      ctx,
		norm:     s.opts.Norm,
		tol:      quad.FromFloat64(s.opts.Tolerance),
		maxIter:  s.opts.MaxIterations,
		maxSteps: stepBudget * (k + 2) * s.opts.MaxIterations,
		log:      log,
		verbose:  s.mode == Verbose,
	}
	sol, err := s.solve(eng, k, r)
	if err != nil {
		timer.StopWithError(err)
		return err
	}
	timer.Stop()

	s.result = newResult(k, iv, s.opts.Norm, sol)
	if s.opts.Seeds != nil {
		if err := s.opts.Seeds.Save(ctx, s.result.Seed()); err != nil {
			log.WarnWithErr("storing seed failed", err)
		}
	}
	return nil
}

// solve builds order k from order one. Order j is inserted on the ratio
// raiseRatio(j), which grows with j, and the order k solution is then
// carried to r.
func (s *Solver) solve(eng *engine, k int, r quad.Float) (*solution, error) {
	if sol := s.warmStart(eng, k, r); sol != nil {
		return sol, nil
	}

	r1 := raiseRatio(1)
	first := firstOrder(r1)
	fallback := []quad.Float{one, one.Add(r1).Mul(half), r1}
	sol, ok := eng.remez(first, eng.scannedNodes(first, r1, fallback), r1, eng.tol)
	if !ok {
		return nil, s.failure(eng, k, 1, r)
	}
	eng.trace("order converged", mdwlog.Fields{"order": 1, "ratio": r1.Float64(), "error": sol.err.Float64()})

	for j := 2; j <= k; j++ {
		if rj := raiseRatio(j); !rj.Eq(sol.r) {
			if sol, ok = eng.continuation(sol, rj); !ok {
				return nil, s.failure(eng, k, j-1, r)
			}
		}
		if sol, ok = eng.raise(sol); !ok {
			return nil, s.failure(eng, k, j, r)
		}
		eng.trace("order converged", mdwlog.Fields{
			"order": j,
			"ratio": sol.r.Float64(),
			"error": sol.err.Float64(),
			"steps": eng.steps,
		})
	}
	if !sol.r.Eq(r) {
		if sol, ok = eng.continuation(sol, r); !ok {
			return nil, s.failure(eng, k, k, r)
		}
	}
	return sol, nil
}

// warmStart continues the nearest stored solution of the same order to r
func (s *Solver) warmStart(eng *engine, k int, r quad.Float) *solution {
	if s.opts.Seeds == nil {
		return nil
	}
	seed, err := s.opts.Seeds.Nearest(eng.ctx, k, s.opts.Norm, r.Float64())
	if err != nil {
		eng.log.WarnWithErr("seed lookup failed", err)
		return nil
	}
	if seed == nil {
		return nil
	}
	start, ok := seed.solution()
	if !ok {
		eng.log.Warn("ignoring malformed seed", mdwlog.Fields{"seed_ratio": seed.Ratio})
		return nil
	}
	sol, ok := eng.remez(start.sum, start.nodes, start.r, eng.tol)
	if ok {
		sol, ok = eng.continuation(sol, r)
	}
	if !ok {
		eng.trace("warm start failed", mdwlog.Fields{"seed_ratio": seed.Ratio})
		return nil
	}
	eng.trace("warm start", mdwlog.Fields{"seed_ratio": seed.Ratio})
	return sol
}

func (s *Solver) failure(eng *engine, k, order int, r quad.Float) error {
	if err := eng.ctx.Err(); err != nil {
		code := mdwerror.CodeCanceled
		if errors.Is(err, context.DeadlineExceeded) {
			code = mdwerror.CodeTimeout
		}
		return mdwerror.Wrap(err, "minimax computation aborted").
			WithCode(code).
			WithDetail("k", k).
			WithOperation("minimax.Compute")
	}
	if eng.exhausted() {
		return mdwerror.Newf("no solution of order %d within %d exchange steps", order, eng.maxSteps).
			WithCode(mdwerror.CodeConvergenceFailed).
			WithDetail("k", k).
			WithDetail("order", order).
			WithDetail("ratio", r.Float64()).
			WithDetail("steps", eng.steps).
			WithOperation("minimax.Compute")
	}
	return mdwerror.Newf("no equioscillating solution of order %d for R = %s", order, r.String()).
		WithCode(mdwerror.CodeConvergenceFailed).
		WithDetail("k", k).
		WithDetail("order", order).
		WithDetail("ratio", r.Float64()).
		WithOperation("minimax.Compute")
}

// Result returns the last successful result
func (s *Solver) Result() (*Result, error) {
	if s.result == nil {
		return nil, mdwerror.New("no result computed").
			WithCode(mdwerror.CodeNotComputed).
			WithOperation("minimax.Result")
	}
	return s.result, nil
}

// Weights returns the weights of the last result in ascending order of
// exponent, or nil before a successful Compute.
func (s *Solver) Weights() []float64 {
	if s.result == nil {
		return nil
	}
	return s.result.Weights()
}

// Exponents returns the exponents of the last result in ascending order,
// or nil before a successful Compute.
func (s *Solver) Exponents() []float64 {
	if s.result == nil {
		return nil
	}
	return s.result.Exponents()
}

// MaxError returns the maximum error of the last result on [ymin, ymax],
// or NaN before a successful Compute.
func (s *Solver) MaxError() float64 {
	if s.result == nil {
		return quad.NaN().Float64()
	}
	return s.result.MaxError().Float64()
}

// Result is a converged exponential sum. It is immutable; accessors return
// copies.
type Result struct {
	k          int
	interval   Interval
	norm       Norm
	iterations int

	// normalized to [1, R]
	sum   expSum
	err   quad.Float
	nodes []quad.Float
	ratio quad.Float
}

func newResult(k int, iv Interval, norm Norm, sol *solution) *Result {
	sum := sol.sum.clone()
	sort.Sort(byExponent(sum))
	return &Result{
		k:          k,
		interval:   iv,
		norm:       norm,
		iterations: sol.iter,
		sum:        sum,
		err:        sol.err,
		nodes:      append([]quad.Float(nil), sol.nodes...),
		ratio:      sol.r,
	}
}

type byExponent expSum

func (b byExponent) Len() int           { return len(b.a) }
func (b byExponent) Less(i, j int) bool { return b.a[i].Less(b.a[j]) }
func (b byExponent) Swap(i, j int) {
	b.a[i], b.a[j] = b.a[j], b.a[i]
	b.w[i], b.w[j] = b.w[j], b.w[i]
}

// Order returns k
func (r *Result) Order() int { return r.k }

// Interval returns the approximation interval
func (r *Result) Interval() Interval { return r.interval }

// Norm returns the minimized error measure
func (r *Result) Norm() Norm { return r.norm }

// Iterations returns the exchange steps of the final order
func (r *Result) Iterations() int { return r.iterations }

// WeightsQuad returns w_i = ω_i/ymin in full precision
func (r *Result) WeightsQuad() []quad.Float {
	out := make([]quad.Float, r.k)
	for i, w := range r.sum.w {
		out[i] = w.Quo(r.interval.Ymin)
	}
	return out
}

// ExponentsQuad returns a_i = α_i/ymin in full precision
func (r *Result) ExponentsQuad() []quad.Float {
	out := make([]quad.Float, r.k)
	for i, a := range r.sum.a {
		out[i] = a.Quo(r.interval.Ymin)
	}
	return out
}

// Weights returns the weights narrowed to float64
func (r *Result) Weights() []float64 { return linalg.Float64s(r.WeightsQuad()) }

// Exponents returns the exponents narrowed to float64
func (r *Result) Exponents() []float64 { return linalg.Float64s(r.ExponentsQuad()) }

// Nodes returns the 2k+1 alternation points in [ymin, ymax]
func (r *Result) Nodes() []float64 {
	out := make([]float64, len(r.nodes))
	for i, t := range r.nodes {
		out[i] = t.Mul(r.interval.Ymin).Float64()
	}
	return out
}

// NormalizedError returns the levelled error on [1, R]
func (r *Result) NormalizedError() quad.Float { return r.err }

// MaxError returns the maximum error on [ymin, ymax]. The absolute error
// scales with 1/ymin; the relative error is scale free.
func (r *Result) MaxError() quad.Float {
	if r.norm == NormRelative {
		return r.err
	}
	return r.err.Quo(r.interval.Ymin)
}

// ErrorAt evaluates the error curve at x in [ymin, ymax]
func (r *Result) ErrorAt(x quad.Float) quad.Float {
	t := x.Quo(r.interval.Ymin)
	d := r.sum.delta(t, r.norm)
	if r.norm == NormRelative {
		return d
	}
	return d.Quo(r.interval.Ymin)
}

// Extremum is a local extremum of the error curve
type Extremum struct {
	X     float64
	Error float64
}

// Equioscillation rescans the error curve and returns its 2k+1 alternation
// points. ok reports whether their signs alternate and their magnitudes agree
// to within tol relative to the largest.
func (r *Result) Equioscillation(tol float64) (ext []Extremum, ok bool) {
	m := 2*r.k + 1
	pts, found := alternation(r.sum.scan(r.ratio, m, r.norm), m)
	if !found {
		return nil, false
	}
	scale := one
	if r.norm == NormAbsolute {
		scale = one.Quo(r.interval.Ymin)
	}
	hi, lo := pts[0].d.Abs(), pts[0].d.Abs()
	ok = true
	ext = make([]Extremum, len(pts))
	for i, p := range pts {
		ext[i] = Extremum{X: p.t.Mul(r.interval.Ymin).Float64(), Error: p.d.Mul(scale).Float64()}
		hi, lo = quad.Max(hi, p.d.Abs()), quad.Min(lo, p.d.Abs())
		if i > 0 && p.d.Sign() == pts[i-1].d.Sign() {
			ok = false
		}
	}
	if hi.Sub(lo).Quo(hi).Greater(quad.FromFloat64(tol)) {
		ok = false
	}
	return ext, ok
}
