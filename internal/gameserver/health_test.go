package gameserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func checkHealth(t *testing.T, hs *health.Server, service string) grpc_health_v1.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := hs.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealthy_RequiresARecentTick(t *testing.T) {
	srv, _ := newTestServer(t)
	now := time.Now()
	assert.False(t, srv.Healthy(now), "no tick yet")

	srv.Tick(context.Background(), now)
	assert.True(t, srv.Healthy(now))
	assert.True(t, srv.Healthy(now.Add(staleTicks*time.Hour)))
	assert.False(t, srv.Healthy(now.Add(staleTicks*time.Hour+time.Second)))
}

func TestUpdateHealth_PublishesStatus(t *testing.T) {
	srv, _ := newTestServer(t)
	hs := health.NewServer()
	now := time.Now()

	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, srv.UpdateHealth(hs, now))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, checkHealth(t, hs, HealthService))

	srv.Tick(context.Background(), now)
	srv.UpdateHealth(hs, now)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, checkHealth(t, hs, HealthService))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, checkHealth(t, hs, ""))
}

func TestMonitorHealth_ShutsDownWhenLoopStops(t *testing.T) {
	srv, _ := newTestServer(t)
	hs := health.NewServer()
	srv.Tick(context.Background(), time.Now())
	srv.UpdateHealth(hs, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan struct{})
	go func() {
		_ = srv.Run(ctx)
		close(runDone)
	}()
	monitorDone := make(chan struct{})
	go func() {
		srv.MonitorHealth(ctx, hs)
		close(monitorDone)
	}()

	srv.Stop()
	<-runDone
	select {
	case <-monitorDone:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not exit after the tick loop stopped")
	}
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, checkHealth(t, hs, HealthService))
}
