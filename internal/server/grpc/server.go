// Package grpc serves the grpc.health.v1 service the CLI polls to decide
// between online and offline mode.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/quickcollab/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Checker reports whether the server can do useful work.
type Checker func(ctx context.Context) error

const (
	defaultCheckInterval = 10 * time.Second
	checkTimeout         = 3 * time.Second
)

type HealthServer struct {
	address       string
	logger        logging.Logger
	health        *health.Server
	check         Checker
	checkInterval time.Duration
}

// NewHealthServer returns a server reporting SERVING while check succeeds.
// A nil check always reports SERVING.
func NewHealthServer(a string, l logging.Logger, check Checker) *HealthServer {
	return &HealthServer{
		address:       a,
		logger:        l.With("module", "grpc_server"),
		health:        health.NewServer(),
		check:         check,
		checkInterval: defaultCheckInterval,
	}
}

// probe updates the overall status from check.
func (s *HealthServer) probe(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.check != nil {
		ctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := s.check(ctx)
		cancel()
		if err != nil {
			s.logger.Warn(ctx, "health check failed", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
}

func (s *HealthServer) watch(ctx context.Context) {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *HealthServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	// creates gRPC-server
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))

	// registers service
	healthpb.RegisterHealthServer(srv, s.health)

	s.probe(ctx)
	go s.watch(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gPRC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
