// Package health serves the standard gRPC health checking protocol so
// orchestrators can probe the assistant without touching the REST API.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the name reported alongside the overall ("") status.
const Service = "smarthome.Assistant"

type Server struct {
	addr   string
	server *grpc.Server
	health *health.Server
	logger *slog.Logger
	mu     sync.Mutex
}

// New registers the health service. Both the overall and the named service
// start as NOT_SERVING until SetServing(true) is called.
func New(addr string, logger *slog.Logger) *Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(Service, healthpb.HealthCheckResponse_NOT_SERVING)

	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, hs)

	return &Server{
		addr:   addr,
		server: server,
		health: hs,
		logger: logger,
	}
}

func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(Service, status)
	s.logger.Info("health status changed", "status", status.String())
}

// Listen binds addr and serves until ctx is done.
func (s *Server) Listen(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.Serve(ctx, lis)
}

// Serve blocks on lis. When ctx is done every watcher is told NOT_SERVING
// before the server stops.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.logger.Info("grpc health listening", "addr", lis.Addr().String())

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	if err := s.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.health.Shutdown()
	s.server.GracefulStop()
}
