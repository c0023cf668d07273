// ============================================================================
// laplace - Minimax Exponential Sums
// ============================================================================
//
// Package:     service
// Description: Tests for the solver service
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mdwerror "github.com/msto63/laplace/foundation/core/error"
	mdwlog "github.com/msto63/laplace/foundation/core/log"
	"github.com/msto63/laplace/pkg/core/config"
	"github.com/msto63/laplace/pkg/core/logging"
	"github.com/msto63/laplace/pkg/minimax"
)

// memSeeds is an in-memory SeedStore
type memSeeds struct {
	mu    sync.Mutex
	seeds []*minimax.Seed
}

func (m *memSeeds) Nearest(_ context.Context, k int, norm minimax.Norm, ratio float64) (*minimax.Seed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *minimax.Seed
	for _, s := range m.seeds {
		if s.K == k && s.Norm == norm && (best == nil || s.LogDistance(ratio) < best.LogDistance(ratio)) {
			best = s
		}
	}
	return best, nil
}

func (m *memSeeds) Save(_ context.Context, s *minimax.Seed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeds = append(m.seeds, s)
	return nil
}

func (m *memSeeds) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.seeds)), nil
}

func quietLogger() *logging.Logger {
	return logging.Wrap(mdwlog.NewWithConfig(mdwlog.Config{Level: mdwlog.LevelOff, Output: io.Discard, Name: "test"}))
}

func newTestService(t *testing.T, cfg Config, seeds SeedStore) *Service {
	t.Helper()
	svc, err := NewService(cfg, seeds, quietLogger())
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func TestCompute(t *testing.T) {
	svc := newTestService(t, DefaultConfig(), nil)

	resp, err := svc.Compute(context.Background(), Request{K: 3, Ymin: 4, Ymax: 8})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "absolute", resp.Norm)
	assert.Equal(t, 2.0, resp.Ratio)
	assert.False(t, resp.Cached)
	assert.InDeltaSlice(t, []float64{0.18676485440930451, 0.4897225836212528, 1.0404470994331485}, resp.Weights, 1e-12)
	assert.InDeltaSlice(t, []float64{0.07187332759429087, 0.40115926507327954, 1.1266216171862111}, resp.Exponents, 1e-12)
	assert.Greater(t, resp.MaxError, 0.0)
	assert.Nil(t, resp.Extrema)
}

func TestComputeServesRepeatsFromCache(t *testing.T) {
	svc := newTestService(t, DefaultConfig(), nil)
	ctx := context.Background()

	first, err := svc.Compute(ctx, Request{K: 2, Ymin: 1, Ymax: 10})
	require.NoError(t, err)
	second, err := svc.Compute(ctx, Request{K: 2, Ymin: 1, Ymax: 10, Norm: "abs"})
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Weights, second.Weights)

	// a different norm is a different entry
	rel, err := svc.Compute(ctx, Request{K: 2, Ymin: 1, Ymax: 10, Norm: "relative"})
	require.NoError(t, err)
	assert.False(t, rel.Cached)

	st := svc.Stats(ctx)
	assert.EqualValues(t, 3, st.Requests)
	assert.EqualValues(t, 1, st.CacheHits)
	assert.Equal(t, 2, st.CacheSize)
}

func TestCachedResponsesAreIndependent(t *testing.T) {
	svc := newTestService(t, DefaultConfig(), nil)
	ctx := context.Background()

	first, err := svc.Compute(ctx, Request{K: 2, Ymin: 1, Ymax: 10, Extrema: true})
	require.NoError(t, err)
	want := append([]float64(nil), first.Weights...)
	wantX := first.Extrema[0].X

	first.Weights[0] = -999
	first.Exponents[0] = -999
	first.Extrema[0].X = -999

	second, err := svc.Compute(ctx, Request{K: 2, Ymin: 1, Ymax: 10, Extrema: true})
	require.NoError(t, err)
	require.True(t, second.Cached)
	assert.Equal(t, want, second.Weights)
	assert.Positive(t, second.Exponents[0])
	assert.Equal(t, wantX, second.Extrema[0].X)

	second.Weights[1] = -1
	third, err := svc.Compute(ctx, Request{K: 2, Ymin: 1, Ymax: 10})
	require.NoError(t, err)
	assert.Equal(t, want, third.Weights)
}

func TestComputeWithoutCache(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheEnabled = false
	svc := newTestService(t, cfg, nil)

	for i := 0; i < 2; i++ {
		resp, err := svc.Compute(context.Background(), Request{K: 1, Ymin: 1, Ymax: 5})
		require.NoError(t, err)
		assert.False(t, resp.Cached)
	}
	assert.Zero(t, svc.Stats(context.Background()).CacheSize)
}

func TestComputeExtrema(t *testing.T) {
	svc := newTestService(t, DefaultConfig(), nil)
	ctx := context.Background()

	// cached without extrema first; the extrema request must still get them
	_, err := svc.Compute(ctx, Request{K: 2, Ymin: 2, Ymax: 20})
	require.NoError(t, err)

	resp, err := svc.Compute(ctx, Request{K: 2, Ymin: 2, Ymax: 20, Extrema: true})
	require.NoError(t, err)
	require.Len(t, resp.Extrema, 5)
	assert.True(t, resp.Alternates)
	assert.InDelta(t, 2, resp.Extrema[0].X, 1e-12)
	assert.InDelta(t, 20, resp.Extrema[4].X, 1e-12)
	for _, e := range resp.Extrema {
		assert.InDelta(t, resp.MaxError, abs(e.Error), resp.MaxError*1e-6)
	}

	again, err := svc.Compute(ctx, Request{K: 2, Ymin: 2, Ymax: 20, Extrema: true})
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Len(t, again.Extrema, 5)
}

func TestComputeRejectsInvalidInput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxOrder = 5
	svc := newTestService(t, cfg, nil)

	tests := []struct {
		name string
		req  Request
		code mdwerror.Code
	}{
		{"zero order", Request{K: 0, Ymin: 1, Ymax: 2}, mdwerror.CodeValueOutOfRange},
		{"order above limit", Request{K: 6, Ymin: 1, Ymax: 2}, mdwerror.CodeValueOutOfRange},
		{"reversed interval", Request{K: 1, Ymin: 2, Ymax: 1}, mdwerror.CodeInvalidInput},
		{"negative ymin", Request{K: 1, Ymin: -1, Ymax: 1}, mdwerror.CodeInvalidInput},
		{"unknown norm", Request{K: 1, Ymin: 1, Ymax: 2, Norm: "l2"}, mdwerror.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Compute(context.Background(), tt.req)
			assert.True(t, mdwerror.HasCode(err, tt.code), "error = %v", err)
		})
	}
	assert.EqualValues(t, len(tests), svc.Stats(context.Background()).Failures)
}

func TestComputeTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = time.Nanosecond
	cfg.CacheEnabled = false
	svc := newTestService(t, cfg, nil)

	_, err := svc.Compute(context.Background(), Request{K: 8, Ymin: 1, Ymax: 1e4})
	require.Error(t, err)
	assert.True(t, mdwerror.HasCode(err, mdwerror.CodeTimeout), "error = %v", err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestComputeFromEnergies(t *testing.T) {
	svc := newTestService(t, DefaultConfig(), nil)

	// ymin = 2·(elumo-ehomo) = 4, ymax = 2·(emax-emin) = 8
	resp, err := svc.ComputeFromEnergies(context.Background(), EnergiesRequest{
		K: 3, Emin: -3, Ehomo: -1, Elumo: 1, Emax: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 4.0, resp.Ymin)
	assert.Equal(t, 8.0, resp.Ymax)
	assert.InDelta(t, 0.18676485440930451, resp.Weights[0], 1e-12)

	_, err = svc.ComputeFromEnergies(context.Background(), EnergiesRequest{
		K: 3, Emin: -3, Ehomo: 1, Elumo: -1, Emax: 1,
	})
	assert.True(t, mdwerror.HasCode(err, mdwerror.CodeInvalidInput))
}

func TestTable(t *testing.T) {
	seeds := &memSeeds{}
	svc := newTestService(t, DefaultConfig(), seeds)

	resp, err := svc.Table(context.Background(), TableRequest{Ymin: 1, Ymax: 100, Orders: []int{4, 1, 2, 3}})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 4)
	assert.NotEmpty(t, resp.ID)

	errs := map[int]float64{}
	for i, want := range []int{4, 1, 2, 3} {
		e := resp.Entries[i]
		assert.Equal(t, want, e.K)
		require.Empty(t, e.Error)
		require.NotNil(t, e.Response)
		assert.Len(t, e.Response.Weights, want)
		errs[want] = e.Response.MaxError
	}
	// accuracy improves with the order
	for k := 2; k <= 4; k++ {
		assert.Less(t, errs[k], errs[k-1], "order %d", k)
	}
	assert.EqualValues(t, 4, svc.Stats(context.Background()).StoredSeeds)
}

func TestTableReportsFailuresPerEntry(t *testing.T) {
	svc := newTestService(t, DefaultConfig(), nil)

	_, err := svc.Table(context.Background(), TableRequest{Ymin: 1, Ymax: 10})
	assert.True(t, mdwerror.HasCode(err, mdwerror.CodeInvalidInput))

	_, err = svc.Table(context.Background(), TableRequest{Ymin: 1, Ymax: 10, Orders: []int{1, 99}})
	assert.True(t, mdwerror.HasCode(err, mdwerror.CodeValueOutOfRange))

	resp, err := svc.Table(context.Background(), TableRequest{Ymin: 10, Ymax: 1, Orders: []int{1, 2}})
	require.NoError(t, err)
	for _, e := range resp.Entries {
		assert.Nil(t, e.Response)
		assert.Contains(t, e.Error, "ymin must be smaller than ymax")
	}
}

func TestConfigFrom(t *testing.T) {
	appCfg := config.Default()
	appCfg.Solver.Norm = "rel"
	appCfg.Server.MaxOrder = 12
	appCfg.Cache.Enabled = false

	cfg, err := ConfigFrom(appCfg)
	require.NoError(t, err)
	assert.Equal(t, minimax.NormRelative, cfg.Norm)
	assert.Equal(t, 12, cfg.MaxOrder)
	assert.False(t, cfg.CacheEnabled)
	assert.Equal(t, appCfg.Cache.TTL.Duration, cfg.Cache.TTL)

	appCfg.Solver.Norm = "max"
	_, err = ConfigFrom(appCfg)
	assert.Error(t, err)
}

func TestNewServiceRejectsUnknownNorm(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Norm = minimax.Norm(7)
	_, err := NewService(cfg, nil, nil)
	assert.True(t, mdwerror.HasCode(err, mdwerror.CodeInvalidConfig))
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
