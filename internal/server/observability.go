package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/observability/metrics"
	"github.com/FACorreiaa/kanso/internal/app/observability/tracer"
	"github.com/FACorreiaa/kanso/internal/pkg/config"
)

// ObservabilityShutdownFunc flushes telemetry on exit.
type ObservabilityShutdownFunc func(context.Context) error

// InitObservability installs the otel providers, then creates the app
// instruments against them.
func InitObservability(cfg config.ObservabilityConfig, logger *zap.Logger) (ObservabilityShutdownFunc, error) {
	shutdown, err := tracer.Init(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	metrics.InitAppMetrics()
	logger.Info("Observability initialized",
		zap.String("service", cfg.ServiceName),
		zap.String("metrics_endpoint", cfg.MetricsAddr+"/metrics"),
		zap.String("otlp_host", cfg.OTLPHost))
	return shutdown, nil
}
