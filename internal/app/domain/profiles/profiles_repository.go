package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/models"
	database "github.com/FACorreiaa/kanso/internal/db"
)

var _ Repository = (*PostgresProfilesRepo)(nil)

// Repository stores one opaque profile document per account.
type Repository interface {
	GetProfile(ctx context.Context, email string) (*models.UserProfile, error)
	UpsertProfile(ctx context.Context, email string, profile models.UserProfile) error
}

type PostgresProfilesRepo struct {
	logger *zap.Logger
	pgpool database.Pool
}

func NewPostgresProfilesRepo(pool database.Pool, logger *zap.Logger) *PostgresProfilesRepo {
	return &PostgresProfilesRepo{logger: logger, pgpool: pool}
}

func (r *PostgresProfilesRepo) GetProfile(ctx context.Context, email string) (*models.UserProfile, error) {
	ctx, span := otel.Tracer("ProfilesRepo").Start(ctx, "PostgresProfilesRepo.GetProfile", trace.WithAttributes(
		attribute.String("db.system.name", "postgresql"),
	))
	defer span.End()

	var data []byte
	err := r.pgpool.QueryRow(ctx, `SELECT data FROM profiles WHERE email = $1`, email).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile for %s: %w", email, models.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query failed")
		r.logger.Error("Failed to fetch profile", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	var profile models.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("corrupt profile for %s: %w", email, err)
	}
	return &profile, nil
}

func (r *PostgresProfilesRepo) UpsertProfile(ctx context.Context, email string, profile models.UserProfile) error {
	ctx, span := otel.Tracer("ProfilesRepo").Start(ctx, "PostgresProfilesRepo.UpsertProfile", trace.WithAttributes(
		attribute.String("db.system.name", "postgresql"),
	))
	defer span.End()

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	_, err = r.pgpool.Exec(ctx, `
		INSERT INTO profiles (email, data, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (email) DO UPDATE SET data = EXCLUDED.data, updated_at = CURRENT_TIMESTAMP`,
		email, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Upsert failed")
		r.logger.Error("Failed to upsert profile", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
