// ============================================================================
// laplace - Minimax Exponential Sums
// ============================================================================
//
// Package:     minimax
// Description: Tests for convergence, accuracy and error reporting
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

package minimax

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	mdwerror "github.com/msto63/laplace/foundation/core/error"
	mdwlog "github.com/msto63/laplace/foundation/core/log"
	"github.com/msto63/laplace/foundation/utils/mathx"
	"github.com/msto63/laplace/pkg/quad"
)

func TestComputeFromEnergies(t *testing.T) {
	tests := []struct {
		name                     string
		emin, ehomo, elumo, emax float64
		k                        int
		digits                   int
		weights, exponents       []float64
	}{
		{
			name: "k3 reference table",
			emin: -2, ehomo: -1, elumo: 1, emax: 2,
			k:         3,
			digits:    mathx.DefaultDigits,
			weights:   []float64{0.1867648544, 0.4897225836, 1.0404470994},
			exponents: []float64{0.0718733276, 0.4011592651, 1.1266216172},
		},
		{
			name: "k5 molecular gap",
			emin: -20.5519, ehomo: -0.493214, elumo: 0.186114, emax: 4.14902,
			k:         5,
			digits:    9,
			weights:   []float64{0.05050134546828047, 0.15602361695866543, 0.39685728440784185, 0.965861833145943, 2.417023475194677},
			exponents: []float64{0.019071064615026508, 0.11608509793987402, 0.37527764998388735, 1.0165903149352342, 2.581417188294129},
		},
		{
			name: "k5 printed to six digits",
			emin: -20.5519, ehomo: -0.493214, elumo: 0.186114, emax: 4.14902,
			k:         5,
			digits:    5,
			weights:   []float64{0.0505014, 0.156024, 0.396858, 0.965863, 2.41703},
			exponents: []float64{0.0190711, 0.116085, 0.375278, 1.01659, 2.58142},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Quiet)
			if err := s.ComputeFromEnergies(tt.emin, tt.ehomo, tt.elumo, tt.emax, tt.k); err != nil {
				t.Fatalf("ComputeFromEnergies() error = %v", err)
			}
			w, a := s.Weights(), s.Exponents()
			if len(w) != tt.k || len(a) != tt.k {
				t.Fatalf("got %d weights and %d exponents, want %d", len(w), len(a), tt.k)
			}
			for i := range w {
				if !mathx.ApproxEqualDigits(w[i], tt.weights[i], tt.digits) {
					t.Errorf("weight[%d] = %.16g, want %.16g", i, w[i], tt.weights[i])
				}
				if !mathx.ApproxEqualDigits(a[i], tt.exponents[i], tt.digits) {
					t.Errorf("exponent[%d] = %.16g, want %.16g", i, a[i], tt.exponents[i])
				}
				if i > 0 && !(a[i] > a[i-1]) {
					t.Errorf("exponents not ascending at %d: %v", i, a)
				}
			}
		})
	}
}

func TestComputeNormalizedError(t *testing.T) {
	s := New(Quiet)
	if err := s.Compute(3, 4, 8); err != nil {
		t.Fatal(err)
	}
	res, err := s.Result()
	if err != nil {
		t.Fatal(err)
	}
	if got := res.NormalizedError().Float64(); mathx.RelDiff(got, 1.8342267982e-06) > 1e-9 {
		t.Errorf("NormalizedError() = %g, want 1.8342267982e-06", got)
	}
	if got, want := s.MaxError(), 1.8342267982e-06/4; mathx.RelDiff(got, want) > 1e-9 {
		t.Errorf("MaxError() = %g, want %g", got, want)
	}
	if res.Order() != 3 || res.Norm() != NormAbsolute || res.Iterations() < 1 {
		t.Errorf("unexpected metadata: order %d norm %v iterations %d", res.Order(), res.Norm(), res.Iterations())
	}
}

// TestMonotonicAccuracy checks that each extra term lowers the error and
// pins the errors of a molecular-size interval.
func TestMonotonicAccuracy(t *testing.T) {
	const ratio = 36.36
	want := map[int]float64{2: 1.768e-2, 3: 3.021e-3, 4: 4.731e-4, 5: 7.204e-5}

	prev := math.Inf(1)
	for k := 1; k <= 5; k++ {
		s := New(Quiet)
		if err := s.Compute(k, 1, ratio); err != nil {
			t.Fatalf("k=%d: %v", k, err)
		}
		got := s.MaxError()
		if !(got < prev) {
			t.Errorf("k=%d error %g does not improve on %g", k, got, prev)
		}
		if w, ok := want[k]; ok && mathx.RelDiff(got, w) > 1e-3 {
			t.Errorf("k=%d error = %.4g, want %.4g", k, got, w)
		}
		prev = got
	}
}

func TestScaleInvariance(t *testing.T) {
	base := New(Quiet)
	if err := base.Compute(3, 4, 8); err != nil {
		t.Fatal(err)
	}
	scaled := New(Quiet)
	if err := scaled.Compute(3, 40, 80); err != nil {
		t.Fatal(err)
	}

	bw, ba := base.Weights(), base.Exponents()
	sw, sa := scaled.Weights(), scaled.Exponents()
	for i := range bw {
		if mathx.RelDiff(sw[i]*10, bw[i]) > 1e-14 {
			t.Errorf("weight[%d]: %g·10 != %g", i, sw[i], bw[i])
		}
		if mathx.RelDiff(sa[i]*10, ba[i]) > 1e-14 {
			t.Errorf("exponent[%d]: %g·10 != %g", i, sa[i], ba[i])
		}
	}
	if mathx.RelDiff(scaled.MaxError()*10, base.MaxError()) > 1e-14 {
		t.Errorf("absolute error does not scale: %g vs %g", scaled.MaxError(), base.MaxError())
	}
}

func TestEquioscillation(t *testing.T) {
	s := New(Quiet)
	if err := s.Compute(4, 2, 72.72); err != nil {
		t.Fatal(err)
	}
	res, _ := s.Result()

	ext, ok := res.Equioscillation(1e-9)
	if !ok {
		t.Fatalf("error curve does not equioscillate: %+v", ext)
	}
	if len(ext) != 9 {
		t.Fatalf("got %d extrema, want 9", len(ext))
	}
	if ext[0].X != 2 || ext[len(ext)-1].X != 72.72 {
		t.Errorf("extrema do not include both ends: %v .. %v", ext[0].X, ext[len(ext)-1].X)
	}
	maxErr := s.MaxError()
	for i, e := range ext {
		if mathx.RelDiff(math.Abs(e.Error), maxErr) > 1e-9 {
			t.Errorf("extremum %d has |error| %g, want %g", i, math.Abs(e.Error), maxErr)
		}
	}
	if nodes := res.Nodes(); len(nodes) != 9 || nodes[0] != 2 {
		t.Errorf("Nodes() = %v", nodes)
	}

	// no sample exceeds the levelled error
	limit := quad.FromFloat64(maxErr * (1 + 1e-9))
	lo, hi := math.Log(2), math.Log(72.72)
	for i := 0; i <= 2000; i++ {
		x := quad.FromFloat64(math.Exp(lo + (hi-lo)*float64(i)/2000))
		if e := res.ErrorAt(x).Abs(); e.Greater(limit) {
			t.Fatalf("|error(%v)| = %v exceeds %g", x, e, maxErr)
		}
	}
}

func TestRelativeNorm(t *testing.T) {
	opts := DefaultOptions()
	opts.Norm = NormRelative
	s := NewWithOptions(Quiet, opts)
	if err := s.Compute(3, 1, 36.36); err != nil {
		t.Fatal(err)
	}
	if got := s.MaxError(); mathx.RelDiff(got, 1.771026909446e-02) > 1e-9 {
		t.Errorf("MaxError() = %.13g, want 1.771026909446e-02", got)
	}
	wantW := []float64{0.09468633432609432, 0.4244042764034493, 1.9819687024976849}
	wantA := []float64{0.03453179341551582, 0.256042778338395, 1.259842121636533}
	w, a := s.Weights(), s.Exponents()
	for i := range wantW {
		if !mathx.ApproxEqualDigits(w[i], wantW[i], 8) || !mathx.ApproxEqualDigits(a[i], wantA[i], 8) {
			t.Errorf("term %d = (%g, %g), want (%g, %g)", i, w[i], a[i], wantW[i], wantA[i])
		}
	}

	res, _ := s.Result()
	if _, ok := res.Equioscillation(1e-9); !ok {
		t.Error("relative error curve does not equioscillate")
	}
	// the relative error is scale free
	x := quad.FromFloat64(3)
	if res.ErrorAt(x).Abs().Float64() > s.MaxError()*(1+1e-9) {
		t.Error("ErrorAt exceeds MaxError")
	}
}

func TestInvalidInput(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name string
		run  func(s *Solver) error
	}{
		{"zero order", func(s *Solver) error { return s.Compute(0, 1, 2) }},
		{"negative order", func(s *Solver) error { return s.Compute(-3, 1, 2) }},
		{"zero ymin", func(s *Solver) error { return s.Compute(2, 0, 2) }},
		{"negative ymin", func(s *Solver) error { return s.Compute(2, -1, 2) }},
		{"empty interval", func(s *Solver) error { return s.Compute(2, 2, 2) }},
		{"reversed interval", func(s *Solver) error { return s.Compute(2, 3, 2) }},
		{"nan bound", func(s *Solver) error { return s.Compute(2, 1, nan) }},
		{"infinite bound", func(s *Solver) error { return s.Compute(2, 1, math.Inf(1)) }},
		{"homo above lumo", func(s *Solver) error { return s.ComputeFromEnergies(-2, 1, -1, 2, 3) }},
		{"homo equals lumo", func(s *Solver) error { return s.ComputeFromEnergies(-2, 0, 0, 2, 3) }},
		{"emin above homo", func(s *Solver) error { return s.ComputeFromEnergies(-0.5, -1, 1, 2, 3) }},
		{"single denominator", func(s *Solver) error { return s.ComputeFromEnergies(-1, -1, 1, 1, 3) }},
		{"zero interval value", func(s *Solver) error {
			return s.ComputeContext(context.Background(), 2, Interval{})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Quiet)
			err := tt.run(s)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("error = %v, want invalid input", err)
			}
			if errors.Is(err, ErrConvergence) {
				t.Error("invalid input reported as convergence failure")
			}
			if s.Weights() != nil || s.Exponents() != nil {
				t.Error("accessors return data after a failed Compute")
			}
		})
	}
}

func TestNotComputed(t *testing.T) {
	s := New(Quiet)
	if _, err := s.Result(); !errors.Is(err, ErrNotComputed) {
		t.Errorf("Result() error = %v", err)
	}
	if s.Weights() != nil || s.Exponents() != nil {
		t.Error("accessors return data before Compute")
	}
	if !math.IsNaN(s.MaxError()) {
		t.Errorf("MaxError() = %g before Compute", s.MaxError())
	}

	// a failure discards an earlier result
	if err := s.Compute(1, 1, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.Compute(0, 1, 2); err == nil {
		t.Fatal("Compute(0, ...) succeeded")
	}
	if _, err := s.Result(); !errors.Is(err, ErrNotComputed) {
		t.Errorf("stale result survived a failed Compute: %v", err)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	s := New(Quiet)
	if err := s.Compute(2, 1, 10); err != nil {
		t.Fatal(err)
	}
	w := s.Weights()
	w[0] = 42
	if s.Weights()[0] == 42 {
		t.Error("Weights() exposes internal state")
	}
	res, _ := s.Result()
	wq := res.WeightsQuad()
	wq[0] = quad.FromInt(42)
	if res.WeightsQuad()[0].Eq(quad.FromInt(42)) {
		t.Error("WeightsQuad() exposes internal state")
	}
}

func TestModeDoesNotChangeResults(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Logger = mdwlog.NewWithConfig(mdwlog.Config{Level: mdwlog.LevelTrace, Format: mdwlog.FormatText, Output: &buf})
	verbose := NewWithOptions(Verbose, opts)
	quiet := New(Quiet)

	if err := verbose.Compute(3, 1, 20); err != nil {
		t.Fatal(err)
	}
	if err := quiet.Compute(3, 1, 20); err != nil {
		t.Fatal(err)
	}
	vw, qw := verbose.Weights(), quiet.Weights()
	for i := range vw {
		if vw[i] != qw[i] {
			t.Errorf("weight[%d] differs between modes: %v vs %v", i, vw[i], qw[i])
		}
	}
	if !strings.Contains(buf.String(), "exchange") {
		t.Error("verbose mode produced no iteration trace")
	}

	// quiet mode with a logger still reports timing but no iterations
	buf.Reset()
	opts.Logger = mdwlog.NewWithConfig(mdwlog.Config{Level: mdwlog.LevelTrace, Format: mdwlog.FormatText, Output: &buf})
	if err := NewWithOptions(Quiet, opts).Compute(2, 1, 20); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "exchange") {
		t.Error("quiet mode traced iterations")
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	iv, err := NewInterval(quad.One(), quad.FromInt(100))
	if err != nil {
		t.Fatal(err)
	}
	s := New(Quiet)
	err = s.ComputeContext(ctx, 4, iv)
	if !mdwerror.HasCode(err, mdwerror.CodeCanceled) {
		t.Fatalf("error = %v, want canceled", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("cause is not context.Canceled")
	}
}

// TestConvergesAcrossRatios covers the ends of the order schedule: orders
// raised far beyond a narrow target, and orders carried out to wide ones.
func TestConvergesAcrossRatios(t *testing.T) {
	tests := []struct {
		name   string
		k      int
		ymax   float64
		maxErr float64
		rel    float64
		long   bool
	}{
		{"k1 nearly degenerate", 1, 1.01, 6.1574e-06, 1e-4, false},
		{"k1 very wide", 1, 1e6, 8.5564e-02, 1e-4, false},
		{"k2 nearly degenerate", 2, 1.001, 1.2988e-15, 1e-3, false},
		{"k5 wide", 5, 1000, 6.3846e-04, 1e-4, false},
		{"k6 narrow", 6, 1.5, 2.0074e-15, 1e-3, true},
		{"k8 wide", 8, 57500, 5.3925e-05, 1e-4, true},
		{"k10 narrow", 10, 5, 2.3436e-14, 1e-3, true},
		{"k12 wide", 12, 57500, 3.0225e-06, 1e-4, true},
		{"k15 carried down", 15, 10, 1.6845e-17, 1e-3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.long && testing.Short() {
				t.Skip("high order")
			}
			s := New(Quiet)
			if err := s.Compute(tt.k, 1, tt.ymax); err != nil {
				t.Fatal(err)
			}
			if got := s.MaxError(); mathx.RelDiff(got, tt.maxErr) > tt.rel {
				t.Errorf("MaxError() = %.5g, want %.5g", got, tt.maxErr)
			}
			checkMinimax(t, s)
		})
	}
}

func TestHighOrderWideRatio(t *testing.T) {
	if testing.Short() {
		t.Skip("k=25 at R=57500 takes a while")
	}
	s := New(Quiet)
	if err := s.Compute(25, 1, 57500); err != nil {
		t.Fatal(err)
	}
	if got := s.MaxError(); mathx.RelDiff(got, 1.3417e-10) > 1e-4 {
		t.Errorf("MaxError() = %.5g, want 1.3417e-10", got)
	}
	checkMinimax(t, s)
}

// checkMinimax asserts the defining properties of a best approximation:
// 2k+1 alternating extrema of equal size, and positive terms.
func checkMinimax(t *testing.T, s *Solver) {
	t.Helper()
	res, err := s.Result()
	if err != nil {
		t.Fatal(err)
	}
	ext, ok := res.Equioscillation(1e-9)
	if !ok {
		t.Fatalf("error curve of order %d does not equioscillate", res.Order())
	}
	if len(ext) != 2*res.Order()+1 {
		t.Errorf("got %d extrema, want %d", len(ext), 2*res.Order()+1)
	}
	for i, w := range s.Weights() {
		if !(w > 0) {
			t.Errorf("weight[%d] = %g", i, w)
		}
	}
	a := s.Exponents()
	for i := range a {
		if !(a[i] > 0) || (i > 0 && !(a[i] > a[i-1])) {
			t.Errorf("exponents not positive and ascending: %v", a)
			break
		}
	}
}

func TestStepBudget(t *testing.T) {
	s := New(Quiet)
	eng := &engine{
		ctx:      context.Background(),
		norm:     NormAbsolute,
		tol:      quad.FromFloat64(1e-12),
		maxIter:  40,
		maxSteps: 30,
		log:      mdwlog.Discard(),
	}
	// order 12 needs well over a hundred exchange steps
	_, err := s.solve(eng, 12, quad.FromInt(1000))
	if !mdwerror.HasCode(err, mdwerror.CodeConvergenceFailed) {
		t.Fatalf("error = %v, want convergence failure", err)
	}
	if eng.steps != eng.maxSteps {
		t.Errorf("ran %d exchange steps, budget %d", eng.steps, eng.maxSteps)
	}
	var merr *mdwerror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("error %T is not *mdwerror.Error", err)
	}
	if steps, _ := merr.Detail("steps"); steps != 30 {
		t.Errorf("steps detail = %v, want 30", steps)
	}
}

func TestLevelBelowResolution(t *testing.T) {
	eng := &engine{
		ctx:      context.Background(),
		norm:     NormAbsolute,
		tol:      quad.FromFloat64(1e-12),
		maxIter:  40,
		maxSteps: 100,
		log:      mdwlog.Discard(),
	}
	r := raiseRatio(1)
	first := firstOrder(r)
	nodes := eng.scannedNodes(first, r, []quad.Float{one, one.Add(r).Mul(half), r})
	// no error of order 1 can be levelled to 1e-30 of itself in quad
	if _, ok := eng.remez(first, nodes, r, quad.MustParse("1e-30")); ok {
		t.Fatal("levelled below quad resolution")
	}
	if eng.steps != 0 {
		t.Errorf("ran %d exchange steps, want none", eng.steps)
	}
	if _, ok := eng.remez(first, nodes, r, eng.tol); !ok {
		t.Error("order 1 on [1, 2] did not level")
	}
}

func TestMaxIterationsBoundsCompute(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxIterations = 1
	s := NewWithOptions(Quiet, opts)

	// one exchange step per levelling cannot reach the tolerance
	err := s.Compute(25, 1, 57500)
	if !errors.Is(err, ErrConvergence) {
		t.Fatalf("error = %v, want convergence failure", err)
	}
	if s.Weights() != nil {
		t.Error("failed Compute left a result")
	}
}

func TestNormText(t *testing.T) {
	for _, n := range []Norm{NormAbsolute, NormRelative} {
		text, err := n.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back Norm
		if err := back.UnmarshalText(text); err != nil || back != n {
			t.Errorf("round trip of %v gave %v, %v", n, back, err)
		}
	}
	if _, err := ParseNorm("chebyshev"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ParseNorm error = %v", err)
	}
	if _, err := Norm(7).MarshalText(); err == nil {
		t.Error("MarshalText accepted an unknown norm")
	}
}
