package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/models"
	database "github.com/FACorreiaa/kanso/internal/db"
)

const uniqueViolation = "23505"

var _ AuthRepo = (*PostgresAuthRepo)(nil)

type AuthRepo interface {
	// GetUserByEmail fetches the credential record for email and the name on
	// its profile.
	GetUserByEmail(ctx context.Context, email string) (*models.UserAuth, error)
	// CreateUser stores a new credential record together with its initial
	// profile. An existing email yields models.ErrConflict.
	CreateUser(ctx context.Context, user *models.UserAuth, profile models.UserProfile) error
}

type PostgresAuthRepo struct {
	logger *zap.Logger
	pgpool database.Pool
}

func NewPostgresAuthRepo(pool database.Pool, logger *zap.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pool,
	}
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*models.UserAuth, error) {
	var user models.UserAuth
	query := `SELECT u.email, u.password_hash, u.salt, u.created_at, COALESCE(p.data->>'name', '')
		FROM auth_users u LEFT JOIN profiles p ON p.email = u.email
		WHERE u.email = $1`
	err := r.pgpool.QueryRow(ctx, query, email).
		Scan(&user.Email, &user.PasswordHash, &user.Salt, &user.CreatedAt, &user.DisplayName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s not found: %w", email, models.ErrNotFound)
		}
		r.logger.Error("Error fetching user by email", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return &user, nil
}

func (r *PostgresAuthRepo) CreateUser(ctx context.Context, user *models.UserAuth, profile models.UserProfile) error {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "PostgresAuthRepo.CreateUser", trace.WithAttributes(
		attribute.String("db.system.name", "postgresql"),
		attribute.String("db.statement", "INSERT INTO auth_users ..."),
	))
	defer span.End()

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO auth_users (email, password_hash, salt, created_at) VALUES ($1, $2, $3, $4)`,
		user.Email, user.PasswordHash, user.Salt, user.CreatedAt)
	if err != nil {
		_ = tx.Rollback(ctx)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			span.SetStatus(codes.Error, "Duplicate email")
			return fmt.Errorf("account %s: %w", user.Email, models.ErrConflict)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database error")
		r.logger.Error("Failed to insert user", zap.Error(err), zap.String("email", user.Email))
		return fmt.Errorf("failed to insert user: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO profiles (email, data) VALUES ($1, $2) ON CONFLICT (email) DO NOTHING`,
		user.Email, data)
	if err != nil {
		_ = tx.Rollback(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database error")
		return fmt.Errorf("failed to insert default profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Commit failed")
		return fmt.Errorf("failed to commit user: %w", err)
	}
	span.SetStatus(codes.Ok, "User created")
	return nil
}
