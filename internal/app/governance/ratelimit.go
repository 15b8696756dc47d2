package governance

import (
	"context"
	"math"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/observability/metrics"
)

// Purpose names an independent quota bucket.
type Purpose string

const (
	PurposeAI   Purpose = "ai"
	PurposeAuth Purpose = "auth"
)

// LedgerStore persists the admission timestamps (epoch milliseconds) of a
// purpose so quota survives restarts.
type LedgerStore interface {
	Load(ctx context.Context, purpose string) ([]int64, error)
	Save(ctx context.Context, purpose string, timestamps []int64) error
}

// Option configures a RateLimiter.
type Option func(*RateLimiter)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(rl *RateLimiter) {
		rl.now = now
	}
}

// RateLimiter is a sliding window limiter over a persisted timestamp ledger.
//
// The mutex only serialises callers inside this process. Two processes that
// share a LedgerStore can both pass the check before either persists, so the
// limiter is a soft usage cap and not a security boundary.
type RateLimiter struct {
	mu         sync.Mutex
	purpose    Purpose
	limit      int
	window     time.Duration
	timestamps []int64
	store      LedgerStore
	now        func() time.Time
	logger     *zap.Logger
}

// NewRateLimiter creates a limiter and loads its ledger from store. An
// unreadable ledger starts empty.
func NewRateLimiter(ctx context.Context, purpose Purpose, limit int, window time.Duration,
	store LedgerStore, logger *zap.Logger, opts ...Option) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	rl := &RateLimiter{
		purpose: purpose,
		limit:   limit,
		window:  window,
		store:   store,
		now:     time.Now,
		logger:  logger.With(zap.String("purpose", string(purpose))),
	}
	for _, opt := range opts {
		opt(rl)
	}
	rl.load(ctx)
	return rl
}

func (rl *RateLimiter) load(ctx context.Context) {
	if rl.store == nil {
		return
	}
	stored, err := rl.store.Load(ctx, string(rl.purpose))
	if err != nil {
		rl.logger.Warn("Failed to load rate limit ledger, starting empty", zap.Error(err))
		return
	}
	rl.timestamps = stored
}

func (rl *RateLimiter) save(ctx context.Context) {
	if rl.store == nil {
		return
	}
	if err := rl.store.Save(ctx, string(rl.purpose), slices.Clone(rl.timestamps)); err != nil {
		rl.logger.Warn("Failed to persist rate limit ledger", zap.Error(err))
	}
}

// Check admits or rejects one action.
func (rl *RateLimiter) Check(ctx context.Context) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now().UnixMilli()
	windowMs := rl.window.Milliseconds()

	// Remove requests outside the time window
	valid := make([]int64, 0, len(rl.timestamps))
	for _, ts := range rl.timestamps {
		if now-ts < windowMs {
			valid = append(valid, ts)
		}
	}
	rl.timestamps = valid

	if len(rl.timestamps) >= rl.limit {
		rl.logger.Warn("Rate limit exceeded",
			zap.Int("requests", len(rl.timestamps)),
			zap.Int("max_requests", rl.limit),
			zap.Duration("window", rl.window))
		metrics.Get().RateLimitRejectionsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("purpose", string(rl.purpose))))
		return false
	}

	rl.timestamps = append(rl.timestamps, now)
	rl.save(ctx)
	return true
}

// TimeToReset returns the whole seconds until the oldest entry leaves the
// window, or 0 when a slot is already free.
func (rl *RateLimiter) TimeToReset() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.timestamps) < rl.limit {
		return 0
	}
	oldest := slices.Min(rl.timestamps)
	remaining := oldest + rl.window.Milliseconds() - rl.now().UnixMilli()
	return max(0, int(math.Ceil(float64(remaining)/1000)))
}

// Reset clears the ledger and persists the empty state.
func (rl *RateLimiter) Reset(ctx context.Context) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.timestamps = []int64{}
	rl.save(ctx)
}

// Snapshot returns a copy of the current ledger.
func (rl *RateLimiter) Snapshot() []int64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return slices.Clone(rl.timestamps)
}

func (rl *RateLimiter) Purpose() Purpose      { return rl.purpose }
func (rl *RateLimiter) Limit() int            { return rl.limit }
func (rl *RateLimiter) Window() time.Duration { return rl.window }
