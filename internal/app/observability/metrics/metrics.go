package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal        metric.Int64Counter
	HTTPRequestDuration      metric.Float64Histogram
	AuthRequestsTotal        metric.Int64Counter
	GenerationRequestsTotal  metric.Int64Counter
	GenerationDuration       metric.Float64Histogram
	RateLimitRejectionsTotal metric.Int64Counter
	ToolCallsAppliedTotal    metric.Int64Counter
	DBQueryDurationSeconds   metric.Float64Histogram
	DBQueryErrorsTotal       metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider, so it must run
// after the provider is installed to export anything.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("kanso")
		m := &AppMetrics{}

		m.HTTPRequestsTotal = mustCounter(meter, "http_requests_total",
			"Total number of HTTP requests completed", "{request}")
		m.HTTPRequestDuration = mustHistogram(meter, "http_request_duration_seconds",
			"Duration of HTTP requests in seconds", "s")
		m.AuthRequestsTotal = mustCounter(meter, "auth_requests_total",
			"Total number of authentication requests", "{request}")
		m.GenerationRequestsTotal = mustCounter(meter, "generation_requests_total",
			"Total number of generative model calls by operation and outcome", "{request}")
		m.GenerationDuration = mustHistogram(meter, "generation_duration_seconds",
			"Latency of generative model calls in seconds", "s")
		m.RateLimitRejectionsTotal = mustCounter(meter, "rate_limit_rejections_total",
			"Total number of actions rejected by a rate limiter", "{rejection}")
		m.ToolCallsAppliedTotal = mustCounter(meter, "tool_calls_applied_total",
			"Total number of model tool calls applied to itineraries", "{call}")
		m.DBQueryDurationSeconds = mustHistogram(meter, "db_query_duration_seconds",
			"Duration of database queries in seconds", "s")
		m.DBQueryErrorsTotal = mustCounter(meter, "db_query_errors_total",
			"Total number of database query errors", "{error}")

		appMetrics = m
	})
}

// Get returns the global instruments, creating them against the current
// MeterProvider on first use. Before observability is initialised that is the
// otel no-op provider.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

func mustCounter(meter metric.Meter, name, desc, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

func mustHistogram(meter metric.Meter, name, desc, unit string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return h
}
