package provider

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/quantforge/forge/internal/core/domain"
)

// GRPCProvider implements Provider for services exposing a generic gRPC
// invoke surface. Params travel as structpb.Struct; the session token is
// attached as outgoing metadata.
type GRPCProvider struct {
	name     domain.ServiceID
	endpoint string
	conn     *grpc.ClientConn
	health   grpc_health_v1.HealthClient
}

const grpcInvokeMethod = "/mcp.Tooling/Invoke"

// NewGRPCProvider creates a new gRPC provider.
func NewGRPCProvider(ctx context.Context, name domain.ServiceID, endpoint string) (*GRPCProvider, error) {
	target := endpoint
	var opts []grpc.DialOption

	if strings.HasPrefix(endpoint, "https://") || strings.HasSuffix(endpoint, ":443") {
		creds := credentials.NewTLS(&tls.Config{})
		opts = append(opts, grpc.WithTransportCredentials(creds))
		target = strings.TrimPrefix(target, "https://")
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		target = strings.TrimPrefix(target, "http://")
	}

	opts = append(opts, grpc.WithBlock())

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(dialCtx, target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial grpc endpoint %s: %w", target, err)
	}

	return &GRPCProvider{
		name:     name,
		endpoint: endpoint,
		conn:     conn,
		health:   grpc_health_v1.NewHealthClient(conn),
	}, nil
}

// Call invokes the service's generic tooling method.
func (p *GRPCProvider) Call(ctx context.Context, method string, params any, token string) (any, error) {
	req, err := paramsToStruct(method, params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}

	if token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "x-session-token", token)
	}

	resp := &structpb.Struct{}
	if err := p.conn.Invoke(ctx, grpcInvokeMethod, req, resp); err != nil {
		if status.Code(err) == codes.Unauthenticated {
			return nil, fmt.Errorf("session rejected: %w", err)
		}
		return nil, fmt.Errorf("grpc call: %w", err)
	}

	return resp.AsMap(), nil
}

// Probe uses the standard gRPC health checking protocol.
func (p *GRPCProvider) Probe(ctx context.Context) domain.HealthSample {
	sample := domain.HealthSample{
		Service:   p.name,
		Timestamp: time.Now(),
	}

	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	resp, err := p.health.Check(probeCtx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		sample.Status = ProbeDown
		return sample
	}

	sample.LatencyMS = float64(time.Since(start).Microseconds()) / 1000.0
	if resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING {
		sample.Status = ProbeHealthy
	} else {
		sample.Status = ProbeDegraded
	}
	return sample
}

// GetName returns the provider's service name.
func (p *GRPCProvider) GetName() domain.ServiceID {
	return p.name
}

// GetHealth reports availability based on the connection state.
func (p *GRPCProvider) GetHealth() HealthStatus {
	return HealthStatus{
		Available: p.conn != nil,
	}
}

// Conn returns the underlying gRPC connection for generated clients.
func (p *GRPCProvider) Conn() *grpc.ClientConn {
	return p.conn
}

// Close cleans up resources.
func (p *GRPCProvider) Close() error {
	return p.conn.Close()
}

func paramsToStruct(method string, params any) (*structpb.Struct, error) {
	fields := map[string]any{"method": method}
	if params != nil {
		fields["params"] = params
	}
	return structpb.NewStruct(fields)
}
