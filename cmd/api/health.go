package main

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// apiServiceName is the health service name reported for the HTTP API.
const apiServiceName = "semx.api"

// newHealthServer returns a gRPC server exposing grpc.health.v1. Both the
// overall server ("") and apiServiceName start SERVING; call
// health.Server.Shutdown to flip them to NOT_SERVING.
func newHealthServer(creds credentials.TransportCredentials) (*grpc.Server, *health.Server) {
	var opts []grpc.ServerOption
	if creds != nil {
		opts = append(opts, grpc.Creds(creds))
	}
	gs := grpc.NewServer(opts...)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(apiServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return gs, hs
}
