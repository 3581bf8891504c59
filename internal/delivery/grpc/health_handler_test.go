package grpc

import (
	"context"
	"io"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type downRepo struct{ domain.StateRepository }

func (downRepo) Ping(ctx context.Context) bool { return false }

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestHealthCheck(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	healthy := NewHealthHandler(repository.NewMemoryStateRepository(logger), logger)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, healthy.Check(ctx))

	resp, err := healthy.server.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	down := NewHealthHandler(downRepo{}, logger)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, down.Check(ctx))

	resp, err = down.server.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestHealthRunStopsWithContext(t *testing.T) {
	logger := newTestLogger()
	h := NewHealthHandler(repository.NewMemoryStateRepository(logger), logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	resp, err := h.server.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}
