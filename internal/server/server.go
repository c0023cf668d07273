// ============================================================================
// laplace - Minimax Exponential Sums
// ============================================================================
//
// Package:     server
// Description: gRPC transport for the laplace solver service
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

// Package server exposes the laplace service over gRPC.
package server

import (
	"context"
	"net"
	"time"

	mdwerror "github.com/msto63/laplace/foundation/core/error"
	"github.com/msto63/laplace/internal/service"
	"github.com/msto63/laplace/internal/store"
	"github.com/msto63/laplace/pkg/core/config"
	coreGrpc "github.com/msto63/laplace/pkg/core/grpc"
	"github.com/msto63/laplace/pkg/core/health"
	"github.com/msto63/laplace/pkg/core/logging"
	"github.com/msto63/laplace/pkg/core/version"
	"github.com/msto63/laplace/pkg/minimax"
	"github.com/msto63/laplace/pkg/quad"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server is the laplace gRPC server
type Server struct {
	service *service.Service
	store   *store.SQLiteSeedStore
	grpc    *coreGrpc.Server
	health  *health.Registry
	logger  *logging.Logger
	config  Config
}

var _ LaplaceServer = (*Server)(nil)

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Reflection     bool
	RequestTimeout time.Duration
	Service        service.Config
	// StorePath is the seed database; empty disables warm starts
	StorePath string
	Logger    *logging.Logger
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           9310,
		RequestTimeout: 2 * time.Minute,
		Service:        service.DefaultConfig(),
	}
}

// ConfigFrom derives the server configuration from the application config
func ConfigFrom(cfg *config.Config) (Config, error) {
	svc, err := service.ConfigFrom(cfg)
	if err != nil {
		return Config{}, err
	}
	c := Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Reflection:     cfg.Server.Reflection,
		RequestTimeout: cfg.Server.RequestTimeout.Duration,
		Service:        svc,
	}
	if cfg.Store.Enabled {
		c.StorePath = cfg.Store.Path
	}
	return c, nil
}

// New creates a new laplace server
func New(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New("laplace-server")
	}

	var seeds *store.SQLiteSeedStore
	if cfg.StorePath != "" {
		var err error
		seeds, err = store.NewSQLiteSeedStore(store.Config{Path: cfg.StorePath})
		if err != nil {
			return nil, mdwerror.Wrap(err, "failed to open seed store").
				WithCode(mdwerror.CodeServiceUnavailable).
				WithOperation("server.New")
		}
	}

	var svcSeeds service.SeedStore
	if seeds != nil {
		svcSeeds = seeds
	}
	svc, err := service.NewService(cfg.Service, svcSeeds, logger)
	if err != nil {
		if seeds != nil {
			seeds.Close()
		}
		return nil, mdwerror.Wrap(err, "failed to create service").
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("server.New")
	}

	grpcCfg := coreGrpc.DefaultServerConfig()
	grpcCfg.Host = cfg.Host
	grpcCfg.Port = cfg.Port
	grpcCfg.EnableReflection = cfg.Reflection
	grpcCfg.Logger = logger

	s := &Server{
		service: svc,
		store:   seeds,
		grpc:    coreGrpc.NewServer(grpcCfg),
		health:  health.NewRegistry("laplace", version.Server),
		logger:  logger,
		config:  cfg,
	}

	s.health.Register(health.ErrorCheck("solver", func(ctx context.Context) error {
		return minimax.New(minimax.Quiet).ComputeContext(ctx, 1, minimax.Interval{
			Ymin: quad.One(), Ymax: quad.FromInt(2),
		})
	}))
	if seeds != nil {
		s.health.Register(health.ErrorCheck("store", seeds.Ping))
	}

	s.grpc.RegisterService(&ServiceDesc, s)
	return s, nil
}

// Compute implements LaplaceServer.Compute
func (s *Server) Compute(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.service.Compute(ctx, req)
	if err != nil {
		return nil, err
	}
	return encodeResponse(resp)
}

// ComputeFromEnergies implements LaplaceServer.ComputeFromEnergies
func (s *Server) ComputeFromEnergies(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeEnergiesRequest(in)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.service.ComputeFromEnergies(ctx, req)
	if err != nil {
		return nil, err
	}
	return encodeResponse(resp)
}

// Table implements LaplaceServer.Table
func (s *Server) Table(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeTableRequest(in)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.service.Table(ctx, req)
	if err != nil {
		return nil, err
	}
	return encodeTableResponse(resp)
}

// Health implements LaplaceServer.Health
func (s *Server) Health(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return encodeReport(s.health.Check(ctx))
}

// Start starts the server, blocking until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting laplace server", "host", s.config.Host, "port", s.config.Port)
	return s.grpc.Start()
}

// StartAsync starts the server asynchronously
func (s *Server) StartAsync() error {
	s.logger.Info("Starting laplace server (async)", "host", s.config.Host, "port", s.config.Port)
	return s.grpc.StartAsync()
}

// Serve serves on an existing listener, blocking until the server stops
func (s *Server) Serve(listener net.Listener) error {
	return s.grpc.Serve(listener)
}

// Stop stops the server and releases the service and the store
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("Stopping laplace server")
	s.grpc.StopWithTimeout(ctx)
	s.service.Close()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("Closing seed store failed", "error", err)
		}
	}
}

// Address returns the listen address
func (s *Server) Address() string {
	return s.grpc.Address()
}

// Service returns the underlying service
func (s *Server) Service() *service.Service {
	return s.service
}

// GRPCServer returns the underlying gRPC server
func (s *Server) GRPCServer() *grpc.Server {
	return s.grpc.GRPCServer()
}

// HealthRegistry returns the health check registry
func (s *Server) HealthRegistry() *health.Registry {
	return s.health
}

func (s *Server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.RequestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.config.RequestTimeout)
}
