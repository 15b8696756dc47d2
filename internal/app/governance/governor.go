package governance

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/models"
	"github.com/FACorreiaa/kanso/internal/pkg/config"
)

// Governor owns the per-purpose limiters and the sanitizer. One instance is
// built at startup and passed explicitly to every component that calls the
// model provider or the auth path.
type Governor struct {
	limiters  map[Purpose]*RateLimiter
	sanitizer *Sanitizer
	logger    *zap.Logger
}

// NewGovernor builds the ai and auth limiters from cfg, loading both ledgers
// from store.
func NewGovernor(ctx context.Context, cfg config.RateLimitConfig, store LedgerStore, logger *zap.Logger, opts ...Option) *Governor {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Governor{
		limiters: map[Purpose]*RateLimiter{
			PurposeAI:   NewRateLimiter(ctx, PurposeAI, cfg.AILimit, cfg.AIWindow, store, logger, opts...),
			PurposeAuth: NewRateLimiter(ctx, PurposeAuth, cfg.AuthLimit, cfg.AuthWindow, store, logger, opts...),
		},
		sanitizer: NewSanitizer(logger),
		logger:    logger,
	}
	logger.Info("Rate limiters initialised",
		zap.Int("ai_limit", cfg.AILimit),
		zap.Duration("ai_window", cfg.AIWindow),
		zap.Int("auth_limit", cfg.AuthLimit),
		zap.Duration("auth_window", cfg.AuthWindow))
	return g
}

// Limiter returns the limiter for purpose or an error for an unknown purpose.
func (g *Governor) Limiter(purpose Purpose) (*RateLimiter, error) {
	rl, ok := g.limiters[purpose]
	if !ok {
		return nil, fmt.Errorf("unknown rate limit purpose %q: %w", purpose, models.ErrValidation)
	}
	return rl, nil
}

// Check admits or rejects one action for purpose. Unknown purposes are rejected.
func (g *Governor) Check(ctx context.Context, purpose Purpose) bool {
	rl, err := g.Limiter(purpose)
	if err != nil {
		g.logger.Error("Rate limit check on unknown purpose", zap.String("purpose", string(purpose)))
		return false
	}
	return rl.Check(ctx)
}

// TimeToReset returns the wait in seconds for purpose.
func (g *Governor) TimeToReset(purpose Purpose) int {
	rl, err := g.Limiter(purpose)
	if err != nil {
		return 0
	}
	return rl.TimeToReset()
}

// Gate combines Check and TimeToReset into the error form used by the
// gateway and the auth service.
func (g *Governor) Gate(ctx context.Context, purpose Purpose) error {
	if g.Check(ctx, purpose) {
		return nil
	}
	return &models.RateLimitError{Purpose: string(purpose), RetryAfter: g.TimeToReset(purpose)}
}

func (g *Governor) Sanitize(input string) string {
	return g.sanitizer.Sanitize(input)
}

func (g *Governor) SanitizeAll(inputs []string) []string {
	return g.sanitizer.SanitizeAll(inputs)
}
