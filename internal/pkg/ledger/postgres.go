package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/observability/metrics"
)

// Pool is the part of a pgx pool the postgres store needs.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps ledgers in the rate_limit_ledgers table.
type PostgresStore struct {
	pool   Pool
	logger *zap.Logger
}

func NewPostgresStore(pool Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

func (s *PostgresStore) Load(ctx context.Context, purpose string) ([]int64, error) {
	ctx, span := otel.Tracer("LedgerStore").Start(ctx, "PostgresStore.Load")
	defer span.End()
	span.SetAttributes(attribute.String("purpose", purpose))
	start := time.Now()

	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT timestamps FROM rate_limit_ledgers WHERE purpose = $1`, purpose).Scan(&data)
	recordQuery(ctx, "ledger_load", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return []int64{}, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load ledger failed")
		return nil, fmt.Errorf("load ledger %s: %w", purpose, err)
	}
	return decode(data)
}

func (s *PostgresStore) Save(ctx context.Context, purpose string, timestamps []int64) error {
	ctx, span := otel.Tracer("LedgerStore").Start(ctx, "PostgresStore.Save")
	defer span.End()
	span.SetAttributes(attribute.String("purpose", purpose), attribute.Int("entries", len(timestamps)))

	data, err := encode(timestamps)
	if err != nil {
		return err
	}
	start := time.Now()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO rate_limit_ledgers (purpose, timestamps, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (purpose) DO UPDATE SET timestamps = EXCLUDED.timestamps, updated_at = NOW()`,
		purpose, data)
	recordQuery(ctx, "ledger_save", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save ledger failed")
		return fmt.Errorf("save ledger %s: %w", purpose, err)
	}
	return nil
}

// Close is a no-op, the pool is owned by the caller.
func (s *PostgresStore) Close() error { return nil }

func recordQuery(ctx context.Context, name string, start time.Time, err error) {
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("query", name))
	m.DBQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		m.DBQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}
