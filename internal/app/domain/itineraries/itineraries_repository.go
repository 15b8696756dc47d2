package itineraries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/models"
	"github.com/FACorreiaa/kanso/internal/app/observability/metrics"
	database "github.com/FACorreiaa/kanso/internal/db"
)

// uuid.UUID is a byte array, which sq.Eq would expand into an IN list, so
// id predicates are written out.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var _ Repository = (*PostgresItinerariesRepo)(nil)

// Repository persists itineraries as opaque JSON documents scoped by owner.
// Documents are validated before they are written and after they are read.
type Repository interface {
	List(ctx context.Context, email string) ([]models.Itinerary, error)
	Get(ctx context.Context, email, id string) (*models.Itinerary, error)
	Save(ctx context.Context, email string, itinerary *models.Itinerary) error
	Delete(ctx context.Context, email, id string) error
}

type PostgresItinerariesRepo struct {
	logger *zap.Logger
	pgpool database.Pool
	now    func() time.Time
}

func NewPostgresItinerariesRepo(pool database.Pool, logger *zap.Logger) *PostgresItinerariesRepo {
	return &PostgresItinerariesRepo{logger: logger, pgpool: pool, now: time.Now}
}

func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, models.NewValidationError("id", "must be a UUID")
	}
	return parsed, nil
}

func decodeItinerary(data []byte) (*models.Itinerary, error) {
	var it models.Itinerary
	if err := json.Unmarshal(data, &it); err != nil {
		return nil, fmt.Errorf("corrupt itinerary document: %w", err)
	}
	if err := it.Validate(); err != nil {
		return nil, fmt.Errorf("stored itinerary failed validation: %w", err)
	}
	return &it, nil
}

func (r *PostgresItinerariesRepo) startSpan(ctx context.Context, name, statement string) (context.Context, trace.Span) {
	return otel.Tracer("ItinerariesRepo").Start(ctx, "PostgresItinerariesRepo."+name, trace.WithAttributes(
		attribute.String("db.system.name", "postgresql"),
		attribute.String("db.statement", statement),
	))
}

func (r *PostgresItinerariesRepo) observe(ctx context.Context, op string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("table", "itineraries"), attribute.String("operation", op))
	metrics.Get().DBQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		metrics.Get().DBQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

// List returns the owner's itineraries, newest first. Documents that no
// longer validate are skipped and logged.
func (r *PostgresItinerariesRepo) List(ctx context.Context, email string) (_ []models.Itinerary, err error) {
	query, args, err := psql.Select("data").
		From("itineraries").
		Where(sq.Eq{"email": email}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	ctx, span := r.startSpan(ctx, "List", query)
	defer span.End()
	defer func(start time.Time) { r.observe(ctx, "list", start, err) }(time.Now())

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query failed")
		return nil, fmt.Errorf("failed to list itineraries: %w", err)
	}
	defer rows.Close()

	out := []models.Itinerary{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan itinerary: %w", err)
		}
		it, decodeErr := decodeItinerary(data)
		if decodeErr != nil {
			r.logger.Warn("Skipping invalid stored itinerary", zap.String("email", email), zap.Error(decodeErr))
			continue
		}
		out = append(out, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating itineraries: %w", err)
	}
	span.SetAttributes(attribute.Int("itineraries.count", len(out)))
	return out, nil
}

func (r *PostgresItinerariesRepo) Get(ctx context.Context, email, id string) (_ *models.Itinerary, err error) {
	parsed, err := parseID(id)
	if err != nil {
		return nil, err
	}
	query, args, err := psql.Select("data").
		From("itineraries").
		Where(sq.Eq{"email": email}).
		Where("id = ?", parsed).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	ctx, span := r.startSpan(ctx, "Get", query)
	defer span.End()
	defer func(start time.Time) { r.observe(ctx, "get", start, err) }(time.Now())

	var data []byte
	if err := r.pgpool.QueryRow(ctx, query, args...).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("itinerary %s: %w", id, models.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query failed")
		return nil, fmt.Errorf("failed to fetch itinerary: %w", err)
	}
	return decodeItinerary(data)
}

// Save inserts or replaces an itinerary. Replacing a document owned by
// another account affects no row and reports ErrNotFound.
func (r *PostgresItinerariesRepo) Save(ctx context.Context, email string, itinerary *models.Itinerary) (err error) {
	if err := itinerary.Validate(); err != nil {
		return err
	}
	parsed, err := parseID(itinerary.ID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(itinerary)
	if err != nil {
		return fmt.Errorf("encode itinerary: %w", err)
	}
	createdAt := r.now().UTC()
	if itinerary.CreatedAt > 0 {
		createdAt = time.UnixMilli(itinerary.CreatedAt).UTC()
	}

	query, args, err := psql.Insert("itineraries").
		Columns("id", "email", "data", "created_at").
		Values(parsed, email, data, createdAt).
		Suffix("ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = CURRENT_TIMESTAMP WHERE itineraries.email = EXCLUDED.email").
		ToSql()
	if err != nil {
		return fmt.Errorf("build save query: %w", err)
	}

	ctx, span := r.startSpan(ctx, "Save", "INSERT INTO itineraries ...")
	defer span.End()
	defer func(start time.Time) { r.observe(ctx, "save", start, err) }(time.Now())

	tag, err := r.pgpool.Exec(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Upsert failed")
		r.logger.Error("Failed to save itinerary", zap.String("id", itinerary.ID), zap.Error(err))
		return fmt.Errorf("failed to save itinerary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("itinerary %s: %w", itinerary.ID, models.ErrNotFound)
	}
	return nil
}

func (r *PostgresItinerariesRepo) Delete(ctx context.Context, email, id string) (err error) {
	parsed, err := parseID(id)
	if err != nil {
		return err
	}
	query, args, err := psql.Delete("itineraries").
		Where(sq.Eq{"email": email}).
		Where("id = ?", parsed).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	ctx, span := r.startSpan(ctx, "Delete", query)
	defer span.End()
	defer func(start time.Time) { r.observe(ctx, "delete", start, err) }(time.Now())

	tag, err := r.pgpool.Exec(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete itinerary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("itinerary %s: %w", id, models.ErrNotFound)
	}
	return nil
}
