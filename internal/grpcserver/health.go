package grpcserver

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName имя сервиса детекции в протоколе grpc.health.v1
const ServiceName = "furniture.detector"

// Checker возвращает nil, если сервис детекции доступен
type Checker func(ctx context.Context) error

// HealthServer gRPC сервер со статусом сервиса детекции
type HealthServer struct {
	server   *grpc.Server
	health   *health.Server
	check    Checker
	interval time.Duration
	logger   *logrus.Logger
}

// NewHealthServer создает сервер, статус обновляется каждые interval
func NewHealthServer(check Checker, interval time.Duration, logger *logrus.Logger) *HealthServer {
	hs := health.NewServer()
	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, hs)

	return &HealthServer{
		server:   server,
		health:   hs,
		check:    check,
		interval: interval,
		logger:   logger,
	}
}

// Refresh выполняет проверку и публикует статус
func (s *HealthServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.check(ctx); err != nil {
		s.logger.Warnf("gRPC health: сервис детекции недоступен: %v", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Health внутренний health.Server
func (s *HealthServer) Health() *health.Server {
	return s.health
}

// Serve слушает addr до отмены ctx
func (s *HealthServer) Serve(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.ServeListener(ctx, listener)
}

// ServeListener обслуживает уже открытый listener до отмены ctx
func (s *HealthServer) ServeListener(ctx context.Context, listener net.Listener) error {
	s.Refresh(ctx)
	go s.refreshLoop(ctx)

	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		s.server.GracefulStop()
	}()

	s.logger.Infof("gRPC health сервер запущен на %s", listener.Addr())
	if err := s.server.Serve(listener); err != nil {
		return fmt.Errorf("gRPC health server: %w", err)
	}
	return nil
}

func (s *HealthServer) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}
