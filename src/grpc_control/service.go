package grpc_control

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"coin-dashboard/src/logger"
	"coin-dashboard/src/models"
	"coin-dashboard/src/network"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service reporting upstream availability.
const ServiceName = "coingecko"

// DefaultSyncInterval is how often the breaker state is polled.
const DefaultSyncInterval = 5 * time.Second

// BreakerReader exposes the upstream circuit breaker state.
type BreakerReader interface {
	GetState() network.State
}

// -----------------------------------------------------------------------------

// ControlService serves grpc.health.v1 with the upstream status.
type ControlService struct {
	Config       *models.MConfig
	Breaker      BreakerReader
	Health       *health.Server
	Logger       *logger.Logger
	SyncInterval time.Duration

	mu       sync.Mutex
	server   *grpc.Server
	listener net.Listener
	last     healthpb.HealthCheckResponse_ServingStatus
}

// NewControlService creates a new instance of ControlService
func NewControlService(cfg *models.MConfig, breaker BreakerReader, log *logger.Logger) *ControlService {
	s := &ControlService{
		Config:       cfg,
		Breaker:      breaker,
		Health:       health.NewServer(),
		Logger:       log,
		SyncInterval: DefaultSyncInterval,
		last:         healthpb.HealthCheckResponse_UNKNOWN,
	}
	s.Sync()
	return s
}

// -----------------------------------------------------------------------------

// Sync publishes the current breaker state. An open breaker is NOT_SERVING.
func (s *ControlService) Sync() healthpb.HealthCheckResponse_ServingStatus {
	state := s.Breaker.GetState()
	status := healthpb.HealthCheckResponse_SERVING
	if state == network.StateOpen {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.mu.Lock()
	changed := status != s.last
	s.last = status
	s.mu.Unlock()

	if changed {
		s.Health.SetServingStatus(ServiceName, status)
		s.Logger.Info("Upstream %s is %s (breaker %s)", ServiceName, status, state)
	}
	return status
}

// -----------------------------------------------------------------------------

// Watch re-syncs the health status until ctx is done.
func (s *ControlService) Watch(ctx context.Context) {
	ticker := time.NewTicker(s.SyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sync()
		}
	}
}

// -----------------------------------------------------------------------------

// Listen binds the configured gRPC address.
func (s *ControlService) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.Config.GrpcHost, s.Config.GrpcPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.mu.Lock()
	s.listener = lis
	s.mu.Unlock()
	return nil
}

// -----------------------------------------------------------------------------

// Serve registers the health service and blocks serving lis.
func (s *ControlService) Serve(lis net.Listener) error {
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, s.Health)

	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.Logger.Info("gRPC control plane listening on %s", lis.Addr())
	return srv.Serve(lis)
}

// -----------------------------------------------------------------------------

// Start listens on the configured address and serves until Stop.
func (s *ControlService) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	lis := s.listener
	s.mu.Unlock()
	return s.Serve(lis)
}

// -----------------------------------------------------------------------------

// Stop marks every service NOT_SERVING and drains open calls.
func (s *ControlService) Stop() {
	s.Health.Shutdown()
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv != nil {
		srv.GracefulStop()
	}
}
