package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"rest-user-service/api/openapi"
)

// openAPIPath is where the embedded OpenAPI document is served.
const openAPIPath = "/swagger/openapi.json"

// DialGateway opens the client connection the ops gateway uses to reach the
// gRPC server at grpcAddr.
func DialGateway(grpcAddr string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway client: %w", err)
	}
	return conn, nil
}

// NewOpsHandler builds the ops HTTP handler: /healthz backed by the gRPC health
// service, the Swagger UI under /swagger/ and the OpenAPI document.
func NewOpsHandler(conn grpc.ClientConnInterface) http.Handler {
	mux := runtime.NewServeMux(
		runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)),
	)

	httpMux := http.NewServeMux()

	httpMux.HandleFunc(openAPIPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(openapi.Spec)
	})

	httpMux.HandleFunc("/swagger/", httpSwagger.Handler(
		httpSwagger.URL(openAPIPath),
	))

	// everything else, including /healthz, goes to the gateway mux
	httpMux.Handle("/", mux)

	return httpMux
}

// SetupHTTPGateway creates the ops HTTP server.
func SetupHTTPGateway(conn grpc.ClientConnInterface, httpAddr string, l *zap.Logger) *http.Server {
	l.Info("ops gateway configured",
		zap.String("address", httpAddr),
		zap.String("swagger", "http://localhost"+httpAddr+"/swagger/"),
	)

	return &http.Server{
		Addr:              httpAddr,
		Handler:           NewOpsHandler(conn),
		ReadHeaderTimeout: 2 * time.Second,
	}
}
