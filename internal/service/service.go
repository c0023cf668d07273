// ============================================================================
// laplace - Minimax Exponential Sums
// ============================================================================
//
// Package:     service
// Description: Solver service with result cache, seed store and statistics
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

// Package service runs minimax computations for the CLI and the gRPC server.
// It adds request validation, a result cache, per-request timeouts and
// concurrent multi-order tables on top of pkg/minimax.
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	mdwerror "github.com/msto63/laplace/foundation/core/error"
	"github.com/msto63/laplace/pkg/core/cache"
	"github.com/msto63/laplace/pkg/core/config"
	"github.com/msto63/laplace/pkg/core/logging"
	"github.com/msto63/laplace/pkg/minimax"
	"github.com/msto63/laplace/pkg/quad"
)

// SeedStore is the persistence the service needs; *store.SQLiteSeedStore
// satisfies it
type SeedStore interface {
	minimax.SeedStore
	Count(ctx context.Context) (int64, error)
}

// Config holds service configuration
type Config struct {
	Norm          minimax.Norm
	MaxIterations int
	Tolerance     float64
	Timeout       time.Duration
	MaxOrder      int
	CacheEnabled  bool
	Cache         cache.Config
	// Verbose traces every exchange step at debug level
	Verbose bool
}

// DefaultConfig returns default service configuration
func DefaultConfig() Config {
	opts := minimax.DefaultOptions()
	cc := cache.DefaultConfig()
	return Config{
		Norm:          opts.Norm,
		MaxIterations: opts.MaxIterations,
		Tolerance:     opts.Tolerance,
		Timeout:       5 * time.Minute,
		MaxOrder:      30,
		CacheEnabled:  true,
		Cache:         cc,
	}
}

// ConfigFrom derives the service configuration from the application config
func ConfigFrom(cfg *config.Config) (Config, error) {
	norm, err := minimax.ParseNorm(cfg.Solver.Norm)
	if err != nil {
		return Config{}, err
	}
	c := DefaultConfig()
	c.Norm = norm
	c.MaxIterations = cfg.Solver.MaxIterations
	c.Tolerance = cfg.Solver.Tolerance
	c.Timeout = cfg.Solver.Timeout.Duration
	c.MaxOrder = cfg.Server.MaxOrder
	c.CacheEnabled = cfg.Cache.Enabled
	c.Cache.MaxItems = cfg.Cache.MaxItems
	c.Cache.TTL = cfg.Cache.TTL.Duration
	return c, nil
}

// Request asks for the order-K approximation on [Ymin, Ymax]
type Request struct {
	K    int     `json:"k" yaml:"k"`
	Ymin float64 `json:"ymin" yaml:"ymin"`
	Ymax float64 `json:"ymax" yaml:"ymax"`
	// Norm is "absolute" or "relative"; empty selects the configured norm
	Norm string `json:"norm,omitempty" yaml:"norm,omitempty"`
	// Extrema requests the equioscillation points in the response
	Extrema bool `json:"extrema,omitempty" yaml:"extrema,omitempty"`
}

// EnergiesRequest derives the interval from orbital energies
type EnergiesRequest struct {
	K       int     `json:"k" yaml:"k"`
	Emin    float64 `json:"emin" yaml:"emin"`
	Ehomo   float64 `json:"ehomo" yaml:"ehomo"`
	Elumo   float64 `json:"elumo" yaml:"elumo"`
	Emax    float64 `json:"emax" yaml:"emax"`
	Norm    string  `json:"norm,omitempty" yaml:"norm,omitempty"`
	Extrema bool    `json:"extrema,omitempty" yaml:"extrema,omitempty"`
}

// Extremum is one alternation point of the error curve
type Extremum struct {
	X     float64 `json:"x" yaml:"x"`
	Error float64 `json:"error" yaml:"error"`
}

// Response is a solved approximation 1/x ≈ Σ w_i·exp(-a_i·x)
type Response struct {
	ID         string        `json:"id" yaml:"id"`
	K          int           `json:"k" yaml:"k"`
	Ymin       float64       `json:"ymin" yaml:"ymin"`
	Ymax       float64       `json:"ymax" yaml:"ymax"`
	Ratio      float64       `json:"ratio" yaml:"ratio"`
	Norm       string        `json:"norm" yaml:"norm"`
	Weights    []float64     `json:"weights" yaml:"weights"`
	Exponents  []float64     `json:"exponents" yaml:"exponents"`
	MaxError   float64       `json:"max_error" yaml:"max_error"`
	Iterations int           `json:"iterations" yaml:"iterations"`
	Extrema    []Extremum    `json:"extrema,omitempty" yaml:"extrema,omitempty"`
	Alternates bool          `json:"alternates,omitempty" yaml:"alternates,omitempty"`
	Cached     bool          `json:"cached" yaml:"cached"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// TableRequest asks for several orders on one interval
type TableRequest struct {
	Ymin   float64 `json:"ymin" yaml:"ymin"`
	Ymax   float64 `json:"ymax" yaml:"ymax"`
	Norm   string  `json:"norm,omitempty" yaml:"norm,omitempty"`
	Orders []int   `json:"orders" yaml:"orders"`
}

// TableEntry is the outcome for one order; exactly one of Response and
// Error is set
type TableEntry struct {
	K        int       `json:"k" yaml:"k"`
	Response *Response `json:"response,omitempty" yaml:"response,omitempty"`
	Error    string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// TableResponse holds one entry per requested order, in request order
type TableResponse struct {
	ID       string        `json:"id" yaml:"id"`
	Entries  []TableEntry  `json:"entries" yaml:"entries"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Stats summarizes service activity
type Stats struct {
	Requests    int64   `json:"requests" yaml:"requests"`
	Failures    int64   `json:"failures" yaml:"failures"`
	CacheHits   int64   `json:"cache_hits" yaml:"cache_hits"`
	CacheMisses int64   `json:"cache_misses" yaml:"cache_misses"`
	CacheSize   int     `json:"cache_size" yaml:"cache_size"`
	HitRate     float64 `json:"hit_rate" yaml:"hit_rate"`
	StoredSeeds int64   `json:"stored_seeds" yaml:"stored_seeds"`
}

// Service computes minimax approximations. It is safe for concurrent use;
// every computation runs on its own solver.
type Service struct {
	cfg    Config
	seeds  SeedStore
	cache  *cache.ResultCache[*Response]
	logger *logging.Logger

	requests atomic.Int64
	failures atomic.Int64
}

// NewService creates a new service. seeds may be nil to disable warm starts
// and logger may be nil for the default service logger.
func NewService(cfg Config, seeds SeedStore, logger *logging.Logger) (*Service, error) {
	def := DefaultConfig()
	if cfg.MaxOrder <= 0 {
		cfg.MaxOrder = def.MaxOrder
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = def.Tolerance
	}
	if _, err := cfg.Norm.MarshalText(); err != nil {
		return nil, mdwerror.Wrap(err, "invalid service configuration").
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("service.New")
	}
	if logger == nil {
		logger = logging.New("laplace")
	}

	s := &Service{
		cfg:    cfg,
		seeds:  seeds,
		logger: logger,
	}
	if cfg.CacheEnabled {
		s.cache = cache.NewResultCache[*Response](cfg.Cache)
	}
	return s, nil
}

// Config returns the effective configuration
func (s *Service) Config() Config {
	return s.cfg
}

// Compute solves one request, answering repeated requests from the cache
func (s *Service) Compute(ctx context.Context, req Request) (*Response, error) {
	s.requests.Add(1)
	resp, err := s.compute(ctx, req)
	if err != nil {
		s.failures.Add(1)
		s.logger.Warn("Compute failed", "k", req.K, "ymin", req.Ymin, "ymax", req.Ymax, "error", err)
		return nil, err
	}
	return resp, nil
}

// ComputeFromEnergies derives [ymin, ymax] from orbital energies and solves
func (s *Service) ComputeFromEnergies(ctx context.Context, req EnergiesRequest) (*Response, error) {
	iv, err := minimax.IntervalFromEnergies(quad.FromFloat64(req.Emin), quad.FromFloat64(req.Ehomo),
		quad.FromFloat64(req.Elumo), quad.FromFloat64(req.Emax))
	if err != nil {
		s.requests.Add(1)
		s.failures.Add(1)
		return nil, err
	}
	return s.Compute(ctx, Request{
		K:       req.K,
		Ymin:    iv.Ymin.Float64(),
		Ymax:    iv.Ymax.Float64(),
		Norm:    req.Norm,
		Extrema: req.Extrema,
	})
}

// Table computes every requested order concurrently. A failing order is
// reported in its entry and does not abort the others.
func (s *Service) Table(ctx context.Context, req TableRequest) (*TableResponse, error) {
	if len(req.Orders) == 0 {
		return nil, mdwerror.New("no orders requested").
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("service.Table")
	}
	for _, k := range req.Orders {
		if err := s.checkOrder(k); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	id := uuid.New().String()
	s.logger.Info("Table started", "id", id, "orders", len(req.Orders), "ymin", req.Ymin, "ymax", req.Ymax)

	entries := make([]TableEntry, len(req.Orders))
	var wg sync.WaitGroup
	for i, k := range req.Orders {
		wg.Add(1)
		go func(i, k int) {
			defer wg.Done()
			entries[i].K = k
			resp, err := s.Compute(ctx, Request{K: k, Ymin: req.Ymin, Ymax: req.Ymax, Norm: req.Norm})
			if err != nil {
				entries[i].Error = err.Error()
				return
			}
			entries[i].Response = resp
		}(i, k)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, mdwerror.Wrap(err, "table computation aborted").
			WithCode(contextCode(err)).
			WithOperation("service.Table")
	}

	s.logger.Info("Table finished", "id", id, "duration", time.Since(start).String())
	return &TableResponse{ID: id, Entries: entries, Duration: time.Since(start)}, nil
}

// Stats returns request, cache and store statistics
func (s *Service) Stats(ctx context.Context) Stats {
	st := Stats{
		Requests: s.requests.Load(),
		Failures: s.failures.Load(),
	}
	if s.cache != nil {
		m := s.cache.Stats()
		st.CacheHits, _ = m["results_hits"].(int64)
		st.CacheMisses, _ = m["results_misses"].(int64)
		st.CacheSize, _ = m["results_cache_size"].(int)
		st.HitRate, _ = m["results_hit_rate"].(float64)
	}
	if s.seeds != nil {
		if n, err := s.seeds.Count(ctx); err == nil {
			st.StoredSeeds = n
		} else {
			s.logger.Warn("Counting seeds failed", "error", err)
		}
	}
	return st
}

// Close releases the result cache
func (s *Service) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}

func (s *Service) compute(ctx context.Context, req Request) (*Response, error) {
	if err := s.checkOrder(req.K); err != nil {
		return nil, err
	}
	norm := s.cfg.Norm
	if req.Norm != "" {
		var err error
		if norm, err = minimax.ParseNorm(req.Norm); err != nil {
			return nil, err
		}
	}
	iv, err := minimax.NewInterval(quad.FromFloat64(req.Ymin), quad.FromFloat64(req.Ymax))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if s.cache != nil {
		if hit, ok := s.cache.Get(req.K, req.Ymin, req.Ymax, norm.String()); ok && (!req.Extrema || hit.Extrema != nil) {
			resp := hit.clone()
			resp.ID = uuid.New().String()
			resp.Cached = true
			resp.Duration = time.Since(start)
			if !req.Extrema {
				resp.Extrema, resp.Alternates = nil, false
			}
			s.logger.Debug("Served from cache", "id", resp.ID, "k", req.K)
			return resp, nil
		}
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	mode := minimax.Quiet
	if s.cfg.Verbose {
		mode = minimax.Verbose
	}
	opts := minimax.Options{
		Norm:          norm,
		MaxIterations: s.cfg.MaxIterations,
		Tolerance:     s.cfg.Tolerance,
		Logger:        s.logger.Foundation(),
	}
	if s.seeds != nil {
		opts.Seeds = s.seeds
	}
	solver := minimax.NewWithOptions(mode, opts)
	if err := solver.ComputeContext(ctx, req.K, iv); err != nil {
		return nil, err
	}
	res, err := solver.Result()
	if err != nil {
		return nil, err
	}

	resp := &Response{
		ID:         uuid.New().String(),
		K:          req.K,
		Ymin:       req.Ymin,
		Ymax:       req.Ymax,
		Ratio:      iv.Ratio().Float64(),
		Norm:       norm.String(),
		Weights:    res.Weights(),
		Exponents:  res.Exponents(),
		MaxError:   res.MaxError().Float64(),
		Iterations: res.Iterations(),
	}
	if req.Extrema {
		ext, ok := res.Equioscillation(1e-6)
		resp.Alternates = ok
		resp.Extrema = make([]Extremum, len(ext))
		for i, e := range ext {
			resp.Extrema[i] = Extremum{X: e.X, Error: e.Error}
		}
	}
	resp.Duration = time.Since(start)

	if s.cache != nil {
		s.cache.Set(req.K, req.Ymin, req.Ymax, norm.String(), resp.clone())
	}
	s.logger.Info("Computed", "id", resp.ID, "k", resp.K, "ratio", resp.Ratio,
		"max_error", resp.MaxError, "iterations", resp.Iterations, "duration", resp.Duration.String())
	return resp, nil
}

// clone copies r including its slices, so cached entries never share
// memory with a response handed to a caller
func (r *Response) clone() *Response {
	c := *r
	c.Weights = append([]float64(nil), r.Weights...)
	c.Exponents = append([]float64(nil), r.Exponents...)
	if r.Extrema != nil {
		c.Extrema = append([]Extremum(nil), r.Extrema...)
	}
	return &c
}

func (s *Service) checkOrder(k int) error {
	if k < 1 || k > s.cfg.MaxOrder {
		return mdwerror.Newf("order %d outside 1..%d", k, s.cfg.MaxOrder).
			WithCode(mdwerror.CodeValueOutOfRange).
			WithOperation("service.Compute").
			WithDetail("k", k)
	}
	return nil
}

func contextCode(err error) mdwerror.Code {
	if err == context.DeadlineExceeded {
		return mdwerror.CodeTimeout
	}
	return mdwerror.CodeCanceled
}
