// Package health probes the server's gRPC health endpoint. The CLI uses it
// to switch between online and offline mode.
package health

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var ErrNotServing = errors.New("server not serving")

// Probe issues grpc.health.v1 Check calls over one lazily connected
// client connection.
type Probe struct {
	conn    *grpc.ClientConn
	client  healthpb.HealthClient
	service string
}

// NewProbe prepares a probe for addr. No connection is made until the
// first Ping.
func NewProbe(addr string, opts ...grpc.DialOption) (*Probe, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("health probe %s: %w", addr, err)
	}
	return &Probe{conn: conn, client: healthpb.NewHealthClient(conn)}, nil
}

// Ping returns nil when the server reports SERVING.
func (p *Probe) Ping(ctx context.Context) error {
	resp, err := p.client.Check(ctx, &healthpb.HealthCheckRequest{Service: p.service})
	if err != nil {
		return err
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: %s", ErrNotServing, resp.GetStatus())
	}
	return nil
}

func (p *Probe) Close() error {
	return p.conn.Close()
}
