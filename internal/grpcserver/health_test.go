package grpcserver

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestHealthServer_Refresh(t *testing.T) {
	var checkErr error
	s := NewHealthServer(func(ctx context.Context) error { return checkErr }, time.Minute, quietLogger())

	if got := s.Refresh(context.Background()); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("expected SERVING, got %v", got)
	}
	resp, err := s.Health().Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil || resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("Check = %v, %v", resp.GetStatus(), err)
	}

	checkErr = errors.New("down")
	s.Refresh(context.Background())
	resp, err = s.Health().Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil || resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("Check = %v, %v", resp.GetStatus(), err)
	}
}
