package itineraries

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/models"
)

const testID = "0b4f5a9e-6c1d-4b0a-9f3e-2d7c8e1a5b6f"

func sampleItinerary(id string) *models.Itinerary {
	return &models.Itinerary{
		ID:          id,
		Destination: "Kyoto",
		Duration:    2,
		Budget:      models.BudgetModerate,
		CreatedAt:   1_700_000_000_000,
		Days: []models.DayItinerary{
			{Day: 1, Theme: "Temples", Activities: []models.Activity{
				{Time: "09:00", Activity: "Fushimi Inari", Type: models.CategoryCulture},
			}},
			{Day: 2, Theme: "Food", Activities: []models.Activity{
				{Time: "12:00", Activity: "Nishiki Market", Type: models.CategoryFood},
			}},
		},
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func newRepoMock(t *testing.T) (pgxmock.PgxPoolIface, *PostgresItinerariesRepo) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresItinerariesRepo(mock, zap.NewNop())
}

func TestRepoList(t *testing.T) {
	mock, repo := newRepoMock(t)
	newer := sampleItinerary(testID)
	broken := sampleItinerary("")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data FROM itineraries WHERE email = $1 ORDER BY created_at DESC`)).
		WithArgs("a@b.c").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).
			AddRow(mustJSON(t, newer)).
			AddRow(mustJSON(t, broken)).
			AddRow([]byte(`not json`)))

	list, err := repo.List(context.Background(), "a@b.c")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, *newer, list[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoListEmpty(t *testing.T) {
	mock, repo := newRepoMock(t)
	mock.ExpectQuery(`SELECT data FROM itineraries`).WithArgs("a@b.c").
		WillReturnRows(pgxmock.NewRows([]string{"data"}))

	list, err := repo.List(context.Background(), "a@b.c")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestRepoGet(t *testing.T) {
	id := uuid.MustParse(testID)
	query := regexp.QuoteMeta(`SELECT data FROM itineraries WHERE email = $1 AND id = $2`)

	t.Run("Found", func(t *testing.T) {
		mock, repo := newRepoMock(t)
		mock.ExpectQuery(query).WithArgs("a@b.c", id).
			WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(mustJSON(t, sampleItinerary(testID))))

		it, err := repo.Get(context.Background(), "a@b.c", testID)
		require.NoError(t, err)
		assert.Equal(t, "Kyoto", it.Destination)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock, repo := newRepoMock(t)
		mock.ExpectQuery(query).WithArgs("a@b.c", id).WillReturnError(pgx.ErrNoRows)

		_, err := repo.Get(context.Background(), "a@b.c", testID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("InvalidStoredDocument", func(t *testing.T) {
		mock, repo := newRepoMock(t)
		bad := sampleItinerary(testID)
		bad.Days[1].Day = 1
		mock.ExpectQuery(query).WithArgs("a@b.c", id).
			WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(mustJSON(t, bad)))

		_, err := repo.Get(context.Background(), "a@b.c", testID)
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("MalformedID", func(t *testing.T) {
		mock, repo := newRepoMock(t)
		_, err := repo.Get(context.Background(), "a@b.c", "nope")
		assert.ErrorIs(t, err, models.ErrValidation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepoSave(t *testing.T) {
	id := uuid.MustParse(testID)
	insert := `INSERT INTO itineraries \(id,email,data,created_at\) VALUES \(\$1,\$2,\$3,\$4\) ON CONFLICT \(id\)`

	t.Run("Upsert", func(t *testing.T) {
		mock, repo := newRepoMock(t)
		mock.ExpectExec(insert).
			WithArgs(id, "a@b.c", pgxmock.AnyArg(), time.UnixMilli(1_700_000_000_000).UTC()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.Save(context.Background(), "a@b.c", sampleItinerary(testID)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("OwnedByAnotherAccount", func(t *testing.T) {
		mock, repo := newRepoMock(t)
		mock.ExpectExec(insert).
			WithArgs(id, "a@b.c", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		err := repo.Save(context.Background(), "a@b.c", sampleItinerary(testID))
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("RejectsInvalidBeforeWrite", func(t *testing.T) {
		mock, repo := newRepoMock(t)
		bad := sampleItinerary(testID)
		bad.Days[0].Activities[0].Type = "shopping"

		err := repo.Save(context.Background(), "a@b.c", bad)
		assert.ErrorIs(t, err, models.ErrValidation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DatabaseError", func(t *testing.T) {
		mock, repo := newRepoMock(t)
		mock.ExpectExec(insert).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(errors.New("connection reset"))

		err := repo.Save(context.Background(), "a@b.c", sampleItinerary(testID))
		assert.ErrorContains(t, err, "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepoDelete(t *testing.T) {
	id := uuid.MustParse(testID)
	query := regexp.QuoteMeta(`DELETE FROM itineraries WHERE email = $1 AND id = $2`)

	mock, repo := newRepoMock(t)
	mock.ExpectExec(query).WithArgs("a@b.c", id).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(query).WithArgs("a@b.c", id).WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Delete(context.Background(), "a@b.c", testID))
	assert.ErrorIs(t, repo.Delete(context.Background(), "a@b.c", testID), models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
