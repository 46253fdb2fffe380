package server

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/graph"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// GraphHealthService reports the device registry as unhealthy when the graph
// store does not answer.
type GraphHealthService struct {
	Client graph.Client
	Logger zerolog.Logger
}

// Probe checks registry connectivity. A nil client is treated as healthy so
// offline deployments still pass readiness.
func (s GraphHealthService) Probe(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	start := time.Now()
	err := s.Client.VerifyConnectivity(ctx)
	elapsed := time.Since(start)
	if err != nil {
		s.Logger.Warn().Err(err).Dur("duration", elapsed).Msg("device registry probe failed")
		return fmt.Errorf("device registry unreachable: %w", err)
	}
	s.Logger.Debug().Dur("duration", elapsed).Msg("device registry probe ok")
	return nil
}
