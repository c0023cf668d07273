package minimax

import (
	"context"
	"math"

	"github.com/msto63/laplace/pkg/linalg"
	"github.com/msto63/laplace/pkg/quad"
)

// Seed is a converged solution on the normalized interval [1, Ratio],
// stored so that later computations of the same order can start from it.
type Seed struct {
	K         int       `json:"k" yaml:"k"`
	Norm      Norm      `json:"norm" yaml:"norm"`
	Ratio     float64   `json:"ratio" yaml:"ratio"`
	Weights   []float64 `json:"weights" yaml:"weights"`
	Exponents []float64 `json:"exponents" yaml:"exponents"`
	Nodes     []float64 `json:"nodes" yaml:"nodes"`
	Error     float64   `json:"error" yaml:"error"`
}

// SeedStore persists seeds. Nearest returns the stored seed of order k and
// the given norm whose ratio is closest to ratio on a log scale, or nil.
type SeedStore interface {
	Nearest(ctx context.Context, k int, norm Norm, ratio float64) (*Seed, error)
	Save(ctx context.Context, seed *Seed) error
}

// Seed returns the normalized solution for storage
func (r *Result) Seed() *Seed {
	return &Seed{
		K:         r.k,
		Norm:      r.norm,
		Ratio:     r.ratio.Float64(),
		Weights:   linalg.Float64s(r.sum.w),
		Exponents: linalg.Float64s(r.sum.a),
		Nodes:     linalg.Float64s(r.nodes),
		Error:     r.err.Float64(),
	}
}

// Valid reports whether the seed is structurally usable
func (s *Seed) Valid() bool {
	if s == nil || s.K < 1 || !(s.Ratio > 1) || math.IsInf(s.Ratio, 0) {
		return false
	}
	if len(s.Weights) != s.K || len(s.Exponents) != s.K || len(s.Nodes) != 2*s.K+1 {
		return false
	}
	for i := 0; i < s.K; i++ {
		if !(s.Weights[i] > 0) || !(s.Exponents[i] > 0) || math.IsInf(s.Weights[i], 0) || math.IsInf(s.Exponents[i], 0) {
			return false
		}
	}
	prev := 0.0
	for _, t := range s.Nodes {
		if !(t > prev) {
			return false
		}
		prev = t
	}
	return true
}

// LogDistance returns |ln(ratio/s.Ratio)|
func (s *Seed) LogDistance(ratio float64) float64 {
	return math.Abs(math.Log(ratio / s.Ratio))
}

func (s *Seed) solution() (*solution, bool) {
	if !s.Valid() {
		return nil, false
	}
	r := quad.FromFloat64(s.Ratio)
	sum := expSum{w: make([]quad.Float, s.K), a: make([]quad.Float, s.K)}
	for i := 0; i < s.K; i++ {
		sum.w[i] = quad.FromFloat64(s.Weights[i])
		sum.a[i] = quad.FromFloat64(s.Exponents[i])
	}
	nodes := make([]quad.Float, len(s.Nodes))
	for i, t := range s.Nodes {
		nodes[i] = quad.FromFloat64(t)
	}
	nodes[0], nodes[len(nodes)-1] = one, r
	return &solution{sum: sum, nodes: nodes, r: r, err: quad.FromFloat64(s.Error)}, true
}
