package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	ginhandler "rest-user-service/internal/adapter/gin/handler"
	"rest-user-service/internal/adapter/grpc/middleware"
	"rest-user-service/internal/config"
)

// Server struct holds all server dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	Gin    *http.Server // REST API
	HTTP   *http.Server // ops gateway, set by Listen
	GRPC   *grpc.Server // ops gRPC: health and reflection

	gatewayConn *grpc.ClientConn
	listeners   map[string]net.Listener
}

// New creates a new server instance
func New(
	cfg *config.Config,
	l *zap.Logger,
	handler *ginhandler.UserHandler,
	rateLimiter *middleware.RateLimiter,
	hs *health.Server,
) *Server {
	return &Server{
		Config: cfg,
		Logger: l,
		Gin:    SetupGinServer(handler, rateLimiter, ":"+cfg.App.RESTPort, l),
		GRPC:   SetupGRPC(hs, rateLimiter, l),
	}
}

// Listen binds the three ports and connects the ops gateway to the bound
// gRPC address.
func (s *Server) Listen(ctx context.Context) error {
	lc := net.ListenConfig{}
	s.listeners = make(map[string]net.Listener, 3)

	for name, port := range map[string]string{
		"grpc": s.Config.App.GRPCPort,
		"rest": s.Config.App.RESTPort,
		"http": s.Config.App.HTTPPort,
	} {
		lis, err := lc.Listen(ctx, "tcp", ":"+port)
		if err != nil {
			s.closeListeners()
			return fmt.Errorf("failed to listen for %s on :%s: %w", name, port, err)
		}
		s.listeners[name] = lis
	}

	_, grpcPort, err := net.SplitHostPort(s.listeners["grpc"].Addr().String())
	if err != nil {
		s.closeListeners()
		return fmt.Errorf("failed to resolve gRPC address: %w", err)
	}

	conn, err := DialGateway(net.JoinHostPort("localhost", grpcPort))
	if err != nil {
		s.closeListeners()
		return err
	}
	s.gatewayConn = conn
	s.HTTP = SetupHTTPGateway(conn, ":"+s.Config.App.HTTPPort, s.Logger)

	return nil
}

// Addr returns the bound address of the "grpc", "rest" or "http" listener.
func (s *Server) Addr(name string) net.Addr {
	if lis, ok := s.listeners[name]; ok {
		return lis.Addr()
	}
	return nil
}

// Serve runs all servers until ctx is done or one of them fails, then shuts
// every server down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.Logger.Info("gRPC server running", zap.Stringer("address", s.Addr("grpc")))
		if err := s.GRPC.Serve(s.listeners["grpc"]); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.Logger.Info("REST API running", zap.Stringer("address", s.Addr("rest")))
		return serveHTTP(s.Gin, s.listeners["rest"], "REST API")
	})

	g.Go(func() error {
		s.Logger.Info("ops gateway running", zap.Stringer("address", s.Addr("http")))
		return serveHTTP(s.HTTP, s.listeners["http"], "ops gateway")
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Config.App.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Start binds and serves; it blocks until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(ctx); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Shutdown stops all servers, waiting for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("starting graceful shutdown")

	var errs []error

	if s.HTTP != nil {
		if err := s.HTTP.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("ops gateway shutdown: %w", err))
		}
	}

	if s.Gin != nil {
		if err := s.Gin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("REST API shutdown: %w", err))
		}
	}

	if s.GRPC != nil {
		stopped := make(chan struct{})
		go func() {
			s.GRPC.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			s.GRPC.Stop()
			errs = append(errs, fmt.Errorf("gRPC shutdown: %w", ctx.Err()))
		}
	}

	if s.gatewayConn != nil {
		if err := s.gatewayConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("gateway connection close: %w", err))
		}
	}

	return errors.Join(errs...)
}

func serveHTTP(srv *http.Server, lis net.Listener, name string) error {
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (s *Server) closeListeners() {
	for _, lis := range s.listeners {
		_ = lis.Close()
	}
}
