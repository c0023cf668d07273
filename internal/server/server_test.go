// ============================================================================
// laplace - Minimax Exponential Sums
// ============================================================================
//
// Package:     server
// Description: Tests for the gRPC transport over bufconn
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

package server

import (
	"context"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	mdwerror "github.com/msto63/laplace/foundation/core/error"
	mdwlog "github.com/msto63/laplace/foundation/core/log"
	"github.com/msto63/laplace/internal/service"
	"github.com/msto63/laplace/pkg/core/config"
	"github.com/msto63/laplace/pkg/core/health"
	"github.com/msto63/laplace/pkg/core/logging"
)

func quietLogger() *logging.Logger {
	return logging.Wrap(mdwlog.NewWithConfig(mdwlog.Config{Level: mdwlog.LevelOff, Output: io.Discard, Name: "test"}))
}

// startServer serves on an in-memory listener and returns a connected client
func startServer(t *testing.T, cfg Config) (*Server, *Client) {
	t.Helper()
	cfg.Logger = quietLogger()
	srv, err := New(cfg)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Stop(ctx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return srv, NewClient(conn)
}

func TestComputeRoundTrip(t *testing.T) {
	srv, client := startServer(t, DefaultConfig())
	ctx := context.Background()

	req := service.Request{K: 3, Ymin: 4, Ymax: 8, Extrema: true}
	remote, err := client.Compute(ctx, req)
	require.NoError(t, err)

	// the second call is answered from the cache with identical numbers
	local, err := srv.Service().Compute(ctx, req)
	require.NoError(t, err)
	assert.True(t, local.Cached)

	assert.Equal(t, local.K, remote.K)
	assert.Equal(t, local.Norm, remote.Norm)
	assert.Equal(t, local.Ratio, remote.Ratio)
	assert.Equal(t, local.Weights, remote.Weights)
	assert.Equal(t, local.Exponents, remote.Exponents)
	assert.Equal(t, local.MaxError, remote.MaxError)
	assert.Equal(t, local.Iterations, remote.Iterations)
	assert.Equal(t, local.Extrema, remote.Extrema)
	assert.True(t, remote.Alternates)
	assert.False(t, remote.Cached)
	assert.NotEmpty(t, remote.ID)
	assert.InDelta(t, 0.18676485440930451, remote.Weights[0], 1e-12)
}

func TestComputeFromEnergiesRoundTrip(t *testing.T) {
	_, client := startServer(t, DefaultConfig())

	resp, err := client.ComputeFromEnergies(context.Background(), service.EnergiesRequest{
		K: 3, Emin: -3, Ehomo: -1, Elumo: 1, Emax: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 4.0, resp.Ymin)
	assert.Equal(t, 8.0, resp.Ymax)
	assert.Nil(t, resp.Extrema)
}

func TestTableRoundTrip(t *testing.T) {
	_, client := startServer(t, DefaultConfig())

	resp, err := client.Table(context.Background(), service.TableRequest{
		Ymin: 1, Ymax: 50, Orders: []int{1, 2, 3},
	})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 3)
	for i, e := range resp.Entries {
		assert.Equal(t, i+1, e.K)
		require.NotNil(t, e.Response)
		assert.Len(t, e.Response.Exponents, i+1)
	}
	assert.Less(t, resp.Entries[2].Response.MaxError, resp.Entries[0].Response.MaxError)
}

func TestErrorsMapToStatusCodes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Service.MaxOrder = 4
	_, client := startServer(t, cfg)
	ctx := context.Background()

	_, err := client.Compute(ctx, service.Request{K: 2, Ymin: 3, Ymax: 1})
	assert.True(t, mdwerror.HasCode(err, mdwerror.CodeInvalidInput), "error = %v", err)

	_, err = client.Compute(ctx, service.Request{K: 9, Ymin: 1, Ymax: 3})
	assert.True(t, mdwerror.HasCode(err, mdwerror.CodeInvalidInput), "error = %v", err)

	// raw messages with missing or mistyped fields
	tests := []struct {
		name string
		in   map[string]interface{}
	}{
		{"missing k", map[string]interface{}{"ymin": 1, "ymax": 2}},
		{"fractional k", map[string]interface{}{"k": 1.5, "ymin": 1, "ymax": 2}},
		{"string bound", map[string]interface{}{"k": 1, "ymin": "one", "ymax": 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := structpb.NewStruct(tt.in)
			require.NoError(t, err)
			out := new(structpb.Struct)
			err = client.conn.Invoke(ctx, MethodCompute, in, out)
			assert.Equal(t, codes.InvalidArgument, status.Code(err), "error = %v", err)
		})
	}
}

func TestHealth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorePath = filepath.Join(t.TempDir(), "seeds.db")
	_, client := startServer(t, cfg)

	report, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "laplace", report.Service)
	assert.Equal(t, health.StatusHealthy, report.Status)

	names := make([]string, len(report.Checks))
	for i, c := range report.Checks {
		names[i] = c.Name
		assert.Equal(t, health.StatusHealthy, c.Status, c.Message)
	}
	assert.Equal(t, []string{"solver", "store"}, names)
}

func TestServerWarmStartsFromStore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorePath = filepath.Join(t.TempDir(), "seeds.db")
	srv, client := startServer(t, cfg)
	ctx := context.Background()

	_, err := client.Compute(ctx, service.Request{K: 2, Ymin: 1, Ymax: 20})
	require.NoError(t, err)

	st := srv.Service().Stats(ctx)
	assert.EqualValues(t, 1, st.StoredSeeds)
	assert.EqualValues(t, 1, st.Requests)
}

func TestConfigFrom(t *testing.T) {
	appCfg := config.Default()
	appCfg.Server.Port = 9444
	appCfg.Store.Enabled = false

	cfg, err := ConfigFrom(appCfg)
	require.NoError(t, err)
	assert.Equal(t, 9444, cfg.Port)
	assert.Empty(t, cfg.StorePath)
	assert.Equal(t, appCfg.Server.RequestTimeout.Duration, cfg.RequestTimeout)

	appCfg.Store.Enabled = true
	cfg, err = ConfigFrom(appCfg)
	require.NoError(t, err)
	assert.Equal(t, appCfg.Store.Path, cfg.StorePath)
}
