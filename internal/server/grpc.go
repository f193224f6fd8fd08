package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

// HealthRegistrar adds the health service to a gRPC server.
type HealthRegistrar interface {
	Register(reg grpc.ServiceRegistrar)
}

// NewHealthGRPCServer returns a gRPC server carrying only the health service, instrumented with
// OpenTelemetry. Traces and metrics go to the global providers.
func NewHealthGRPCServer(h HealthRegistrar, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.StatsHandler(otelgrpc.NewServerHandler())}, opts...)
	s := grpc.NewServer(opts...)
	RegisterServices(s, h)
	return s
}

// RegisterServices registers the gRPC services with s.
func RegisterServices(s grpc.ServiceRegistrar, h HealthRegistrar) {
	if h != nil {
		h.Register(s)
	}
}
