package server

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"rest-user-service/internal/adapter/grpc/middleware"
	"rest-user-service/pkg/logger"
)

// SetupGRPC creates the gRPC ops server exposing the health service and
// server reflection. rateLimiter may be nil.
func SetupGRPC(hs *health.Server, rateLimiter *middleware.RateLimiter, l *zap.Logger) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.RequestIDInterceptor(),
			rateLimiter.UnaryInterceptor(),
		),
	)
	healthpb.RegisterHealthServer(grpcServer, hs)
	reflection.Register(grpcServer)

	l.Info("gRPC ops server configured")
	return grpcServer
}
