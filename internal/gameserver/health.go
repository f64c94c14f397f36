package gameserver

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the service name the tick loop reports under.
const HealthService = "verbmud.GameServer"

// staleTicks is how many missed intervals mark the tick loop as stalled.
const staleTicks = 10

// Healthy reports whether the tick loop completed a tick recently enough at now.
func (s *Server) Healthy(now time.Time) bool {
	last := s.LastTick()
	if last.IsZero() {
		return false
	}
	return now.Sub(last) <= staleTicks*s.cfg.Interval
}

// UpdateHealth publishes the tick loop's liveness on hs, for both the
// server-wide ("") and HealthService entries.
func (s *Server) UpdateHealth(hs *health.Server, now time.Time) grpc_health_v1.HealthCheckResponse_ServingStatus {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if s.Healthy(now) {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	hs.SetServingStatus("", status)
	hs.SetServingStatus(HealthService, status)
	return status
}

// MonitorHealth calls UpdateHealth once per tick interval until ctx ends or
// the tick loop stops, then marks hs NOT_SERVING.
func (s *Server) MonitorHealth(ctx context.Context, hs *health.Server) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	prev := grpc_health_v1.HealthCheckResponse_UNKNOWN
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-s.stopped:
			hs.Shutdown()
			return
		case now := <-ticker.C:
			status := s.UpdateHealth(hs, now)
			if status != prev {
				s.logger.Info("health status changed", zap.String("status", status.String()))
				prev = status
			}
		}
	}
}
