package profiles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/governance"
	"github.com/FACorreiaa/kanso/internal/app/handlers"
	"github.com/FACorreiaa/kanso/internal/app/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetProfile(ctx context.Context, email string) (*models.UserProfile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockRepository) UpsertProfile(ctx context.Context, email string, profile models.UserProfile) error {
	return m.Called(ctx, email, profile).Error(0)
}

func newService(repo Repository) *ServiceImpl {
	return NewService(repo, governance.NewSanitizer(zap.NewNop()), zap.NewNop())
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("DefaultWhenMissing", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetProfile", ctx, "mia@example.com").Return(nil, models.ErrNotFound).Once()

		profile, err := newService(repo).GetProfile(ctx, "mia@example.com")
		require.NoError(t, err)
		assert.Equal(t, "mia", profile.Name)
		assert.Equal(t, models.BudgetModerate, profile.DefaultBudget)
		assert.False(t, profile.HasCompletedOnboarding)
		assert.NotNil(t, profile.DefaultInterests)
	})

	t.Run("Stored", func(t *testing.T) {
		repo := new(MockRepository)
		stored := &models.UserProfile{Name: "Mia", DefaultBudget: models.BudgetLuxury}
		repo.On("GetProfile", ctx, "mia@example.com").Return(stored, nil).Once()

		profile, err := newService(repo).GetProfile(ctx, "mia@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Mia", profile.Name)
		assert.Equal(t, []string{}, profile.DefaultInterests)
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("SanitizesAndSaves", func(t *testing.T) {
		repo := new(MockRepository)
		want := models.UserProfile{
			Name:             "Mia",
			Bio:              "hello",
			DefaultBudget:    models.BudgetModerate,
			DefaultInterests: []string{"food"},
		}
		repo.On("UpsertProfile", ctx, "mia@example.com", want).Return(nil).Once()

		got, err := newService(repo).UpdateProfile(ctx, "mia@example.com", models.UserProfile{
			Name:             "  Mia ",
			Bio:              "hello\n",
			DefaultInterests: []string{" food", "  "},
		})
		require.NoError(t, err)
		assert.Equal(t, want, *got)
		repo.AssertExpectations(t)
	})

	tests := []struct {
		name    string
		profile models.UserProfile
	}{
		{"EmptyName", models.UserProfile{Name: "   "}},
		{"LongName", models.UserProfile{Name: strings.Repeat("n", MaxNameLength+1)}},
		{"UnknownBudget", models.UserProfile{Name: "Mia", DefaultBudget: "Platinum"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			_, err := newService(repo).UpdateProfile(ctx, "mia@example.com", tt.profile)
			assert.ErrorIs(t, err, models.ErrValidation)
			repo.AssertNotCalled(t, "UpsertProfile", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestPostgresProfilesRepo(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewPostgresProfilesRepo(mock, zap.NewNop())
	ctx := context.Background()
	selectQuery := regexp.QuoteMeta(`SELECT data FROM profiles WHERE email = $1`)

	mock.ExpectQuery(selectQuery).WithArgs("a@b.c").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow([]byte(`{"name":"A","defaultBudget":"Budget"}`)))
	profile, err := repo.GetProfile(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "A", profile.Name)
	assert.Equal(t, models.BudgetLow, profile.DefaultBudget)

	mock.ExpectQuery(selectQuery).WithArgs("x@b.c").WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetProfile(ctx, "x@b.c")
	assert.ErrorIs(t, err, models.ErrNotFound)

	mock.ExpectQuery(selectQuery).WithArgs("bad@b.c").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow([]byte(`{`)))
	_, err = repo.GetProfile(ctx, "bad@b.c")
	assert.Error(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO profiles`)).
		WithArgs("a@b.c", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, repo.UpsertProfile(ctx, "a@b.c", models.UserProfile{Name: "A"}))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfilesHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := new(MockRepository)
	repo.On("GetProfile", mock.Anything, "a@b.c").Return(nil, models.ErrNotFound)
	repo.On("UpsertProfile", mock.Anything, "a@b.c", mock.Anything).Return(nil)
	h := NewProfilesHandler(newService(repo), zap.NewNop())

	r := gin.New()
	authed := r.Group("/api", func(c *gin.Context) {
		c.Set(handlers.UserEmailKey, "a@b.c")
		c.Next()
	})
	authed.GET("/profile", h.GetProfile)
	authed.PUT("/profile", h.UpdateProfile)
	r.GET("/anon/profile", h.GetProfile)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got models.UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "a", got.Name)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/profile", strings.NewReader(`{"name":"","bio":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/profile", strings.NewReader(`{"name":"Ana","hasCompletedOnboarding":true}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.HasCompletedOnboarding)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/anon/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
