// Package generation is the only path from the application to the model
// provider. Every call is gated by the ai rate limiter and every free text
// input is sanitized before it reaches a prompt.
package generation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/FACorreiaa/kanso/internal/app/governance"
	"github.com/FACorreiaa/kanso/internal/app/observability/metrics"
	"github.com/FACorreiaa/kanso/internal/pkg/config"
)

const (
	opItinerary   = "itinerary"
	opSuggestions = "suggestions"
	opChat        = "chat"
	opSpeech      = "speech"
	opNearby      = "nearby"

	outcomeSuccess     = "success"
	outcomeError       = "error"
	outcomeFallback    = "fallback"
	outcomeRateLimited = "rate_limited"

	suggestionsTTL = 30 * time.Minute
)

// Gate is the part of the governance context the gateway needs.
type Gate interface {
	Gate(ctx context.Context, purpose governance.Purpose) error
	Sanitize(input string) string
	SanitizeAll(inputs []string) []string
}

var _ Gate = (*governance.Governor)(nil)

type Option func(*Gateway)

// WithClock replaces time.Now for itinerary timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// WithIDGenerator replaces uuid generation for itinerary ids.
func WithIDGenerator(newID func() string) Option {
	return func(g *Gateway) { g.newID = newID }
}

// Gateway wraps the provider with gating, sanitization, schema enforcement
// and result parsing.
type Gateway struct {
	provider    Provider
	gate        Gate
	textModel   string
	speechModel string
	voice       string
	suggestions *cache.Cache
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
}

func NewGateway(provider Provider, gate Gate, cfg config.GeminiConfig, logger *zap.Logger, opts ...Option) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gateway{
		provider:    provider,
		gate:        gate,
		textModel:   cfg.TextModel,
		speechModel: cfg.SpeechModel,
		voice:       cfg.Voice,
		suggestions: cache.New(suggestionsTTL, 2*suggestionsTTL),
		logger:      logger,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// admit runs the ai gate and records a rejection.
func (g *Gateway) admit(ctx context.Context, op string) error {
	if err := g.gate.Gate(ctx, governance.PurposeAI); err != nil {
		g.record(ctx, op, outcomeRateLimited, 0)
		return err
	}
	return nil
}

// generate performs one provider call with logging and metrics. The outcome is
// recorded by the caller once the response has been interpreted.
func (g *Gateway) generate(ctx context.Context, op, model string, contents []*genai.Content,
	cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, time.Duration, error) {
	start := time.Now()
	resp, err := g.provider.GenerateContent(ctx, model, contents, cfg)
	elapsed := time.Since(start)
	if err != nil {
		g.logger.Error("Provider call failed",
			zap.String("operation", op),
			zap.String("model", model),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
	}
	return resp, elapsed, err
}

func (g *Gateway) record(ctx context.Context, op, outcome string, elapsed time.Duration) {
	m := metrics.Get()
	attrs := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	)
	m.GenerationRequestsTotal.Add(ctx, 1, attrs)
	if elapsed > 0 {
		m.GenerationDuration.Record(ctx, elapsed.Seconds(), attrs)
	}
}
