package auth

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/models"
)

func TestPostgresAuthRepo_GetUserByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewPostgresAuthRepo(mock, zap.NewNop())
	query := `SELECT u.email, u.password_hash, u.salt, u.created_at, COALESCE\(p.data->>'name', ''\)\s+FROM auth_users u LEFT JOIN profiles p ON p.email = u.email\s+WHERE u.email = \$1`
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	columns := []string{"email", "password_hash", "salt", "created_at", "name"}

	mock.ExpectQuery(query).WithArgs("a@b.c").
		WillReturnRows(pgxmock.NewRows(columns).AddRow("a@b.c", "digest", "salt", created, "Ana Traveller"))
	user, err := repo.GetUserByEmail(context.Background(), "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, &models.UserAuth{
		Email: "a@b.c", PasswordHash: "digest", Salt: "salt", CreatedAt: created, DisplayName: "Ana Traveller",
	}, user)

	mock.ExpectQuery(query).WithArgs("nobody@b.c").WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetUserByEmail(context.Background(), "nobody@b.c")
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuthRepo_CreateUser(t *testing.T) {
	user := &models.UserAuth{Email: "a@b.c", PasswordHash: "digest", Salt: "salt", CreatedAt: time.Unix(0, 0).UTC()}
	profile := DefaultProfile("a@b.c")

	t.Run("Success", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO auth_users`)).
			WithArgs(user.Email, user.PasswordHash, user.Salt, user.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO profiles`)).
			WithArgs(user.Email, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		require.NoError(t, NewPostgresAuthRepo(mock, zap.NewNop()).CreateUser(context.Background(), user, profile))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO auth_users`)).
			WithArgs(user.Email, user.PasswordHash, user.Salt, user.CreatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505"})
		mock.ExpectRollback()

		err = NewPostgresAuthRepo(mock, zap.NewNop()).CreateUser(context.Background(), user, profile)
		assert.ErrorIs(t, err, models.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
