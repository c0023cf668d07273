// ============================================================================
// laplace - Minimax Exponential Sums
// ============================================================================
//
// Package:     server
// Description: gRPC client for a remote laplace daemon
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

package server

import (
	"context"

	mdwerror "github.com/msto63/laplace/foundation/core/error"
	"github.com/msto63/laplace/internal/service"
	coreGrpc "github.com/msto63/laplace/pkg/core/grpc"
	"github.com/msto63/laplace/pkg/core/health"
	"github.com/msto63/laplace/pkg/core/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls a remote laplace server
type Client struct {
	conn  *grpc.ClientConn
	owned bool
}

// NewClient wraps an existing connection; Close leaves it open
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

// Dial connects to the server at addr
func Dial(addr string, logger *logging.Logger, opts ...grpc.DialOption) (*Client, error) {
	cfg := coreGrpc.DefaultClientConfig(addr)
	cfg.Logger = logger
	conn, err := coreGrpc.Dial(cfg, opts...)
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to connect").
			WithCode(mdwerror.CodeNetworkError).
			WithOperation("client.Dial").
			WithDetail("addr", addr)
	}
	return &Client{conn: conn, owned: true}, nil
}

// Close closes a connection opened by Dial
func (c *Client) Close() error {
	if c.owned {
		return c.conn.Close()
	}
	return nil
}

// Invoke calls method with a raw Struct message
func (c *Client) Invoke(ctx context.Context, method string, in *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return nil, fromStatus(err, method)
	}
	return out, nil
}

// ComputeStruct solves a request remotely and returns the undecoded reply
func (c *Client) ComputeStruct(ctx context.Context, req service.Request) (*structpb.Struct, error) {
	in, err := encodeRequest(req)
	if err != nil {
		return nil, err
	}
	return c.Invoke(ctx, MethodCompute, in)
}

// Compute solves a request remotely
func (c *Client) Compute(ctx context.Context, req service.Request) (*service.Response, error) {
	out, err := c.ComputeStruct(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeResponse(out)
}

// ComputeFromEnergiesStruct solves an orbital-energy request remotely and
// returns the undecoded reply
func (c *Client) ComputeFromEnergiesStruct(ctx context.Context, req service.EnergiesRequest) (*structpb.Struct, error) {
	in, err := encodeEnergiesRequest(req)
	if err != nil {
		return nil, err
	}
	return c.Invoke(ctx, MethodComputeFromEnergies, in)
}

// ComputeFromEnergies solves an orbital-energy request remotely
func (c *Client) ComputeFromEnergies(ctx context.Context, req service.EnergiesRequest) (*service.Response, error) {
	out, err := c.ComputeFromEnergiesStruct(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeResponse(out)
}

// Table computes several orders remotely
func (c *Client) Table(ctx context.Context, req service.TableRequest) (*service.TableResponse, error) {
	in, err := encodeTableRequest(req)
	if err != nil {
		return nil, err
	}
	out, err := c.Invoke(ctx, MethodTable, in)
	if err != nil {
		return nil, err
	}
	return decodeTableResponse(out)
}

// Health fetches the server health report
func (c *Client) Health(ctx context.Context) (*health.Report, error) {
	out, err := c.Invoke(ctx, MethodHealth, &structpb.Struct{})
	if err != nil {
		return nil, err
	}
	return decodeReport(out), nil
}

var statusCodes = map[codes.Code]mdwerror.Code{
	codes.InvalidArgument:    mdwerror.CodeInvalidInput,
	codes.DeadlineExceeded:   mdwerror.CodeTimeout,
	codes.Canceled:           mdwerror.CodeCanceled,
	codes.NotFound:           mdwerror.CodeNotFound,
	codes.FailedPrecondition: mdwerror.CodeConvergenceFailed,
	codes.Unavailable:        mdwerror.CodeServiceUnavailable,
	codes.DataLoss:           mdwerror.CodeDataCorruption,
}

// fromStatus turns a gRPC status back into a coded error
func fromStatus(err error, method string) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	code, ok := statusCodes[st.Code()]
	if !ok {
		code = mdwerror.CodeInternal
	}
	return mdwerror.New(st.Message()).
		WithCode(code).
		WithOperation("client.Invoke").
		WithDetail("method", method).
		WithDetail("grpc_code", st.Code().String())
}
