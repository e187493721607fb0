package grpc

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name under which the user API reports its health.
// The empty name reports the server as a whole.
const ServiceName = "rest-user-service"

// checkTimeout bounds a single dependency probe.
const checkTimeout = 2 * time.Second

// Check probes one dependency.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// ReadinessReporter probes dependencies periodically and publishes the result
// through the standard gRPC health service.
type ReadinessReporter struct {
	health   *health.Server
	checks   []Check
	interval time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	serving bool
	probed  bool
}

// NewReadinessReporter creates a reporter publishing to hs. The services start
// as NOT_SERVING until the first probe succeeds.
func NewReadinessReporter(hs *health.Server, interval time.Duration, log *zap.Logger, checks ...Check) *ReadinessReporter {
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &ReadinessReporter{
		health:   hs,
		checks:   checks,
		interval: interval,
		log:      log,
	}
}

// Probe runs every check once and updates the published status.
func (r *ReadinessReporter) Probe(ctx context.Context) error {
	var errs []error
	for _, c := range r.checks {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.Fn(cctx)
		cancel()
		if err != nil {
			r.log.Warn("readiness check failed", zap.String("check", c.Name), zap.Error(err))
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	r.set(err == nil)
	return err
}

// Run probes until ctx is done, then marks the services NOT_SERVING.
func (r *ReadinessReporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	_ = r.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			r.set(false)
			return
		case <-ticker.C:
			_ = r.Probe(ctx)
		}
	}
}

func (r *ReadinessReporter) set(serving bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.probed && r.serving == serving {
		return
	}
	r.probed = true
	r.serving = serving

	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	r.health.SetServingStatus("", status)
	r.health.SetServingStatus(ServiceName, status)
	r.log.Info("readiness changed", zap.String("status", status.String()))
}
