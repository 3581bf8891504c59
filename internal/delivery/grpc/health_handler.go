package grpc

import (
	"context"
	"time"

	"storefront/internal/domain"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name probes ask about; "" covers the whole server.
const ServiceName = "storefront"

// HealthHandler reports SERVING while the local state store answers pings.
type HealthHandler struct {
	server    *health.Server
	stateRepo domain.StateRepository
	log       *logrus.Logger
}

func NewHealthHandler(stateRepo domain.StateRepository, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		server:    health.NewServer(),
		stateRepo: stateRepo,
		log:       logger,
	}
}

func (h *HealthHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Check probes the state store once and publishes the result.
func (h *HealthHandler) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if !h.stateRepo.Ping(ctx) {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		h.log.Warn("Health: State store ping failed, reporting NOT_SERVING")
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

// Run re-checks every interval until ctx is done, then marks the server as shutting down.
func (h *HealthHandler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			h.log.Info("Health: Checker stopped")
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}
