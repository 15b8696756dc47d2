package profiles

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/domain/auth"
	"github.com/FACorreiaa/kanso/internal/app/models"
)

const MaxNameLength = 100

// Sanitizer cleans free text before it is stored.
type Sanitizer interface {
	Sanitize(input string) string
	SanitizeAll(inputs []string) []string
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	GetProfile(ctx context.Context, email string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, email string, profile models.UserProfile) (*models.UserProfile, error)
}

type ServiceImpl struct {
	logger    *zap.Logger
	repo      Repository
	sanitizer Sanitizer
}

func NewService(repo Repository, sanitizer Sanitizer, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, repo: repo, sanitizer: sanitizer}
}

// GetProfile returns the stored profile, or the signup default when the
// account has none yet.
func (s *ServiceImpl) GetProfile(ctx context.Context, email string) (*models.UserProfile, error) {
	profile, err := s.repo.GetProfile(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		def := auth.DefaultProfile(email)
		return &def, nil
	}
	if err != nil {
		return nil, err
	}
	if profile.DefaultInterests == nil {
		profile.DefaultInterests = []string{}
	}
	return profile, nil
}

func (s *ServiceImpl) UpdateProfile(ctx context.Context, email string, profile models.UserProfile) (*models.UserProfile, error) {
	profile.Name = s.sanitizer.Sanitize(profile.Name)
	profile.Bio = s.sanitizer.Sanitize(profile.Bio)
	profile.HomeBase = s.sanitizer.Sanitize(profile.HomeBase)
	profile.DefaultInterests = s.sanitizer.SanitizeAll(profile.DefaultInterests)
	if profile.DefaultInterests == nil {
		profile.DefaultInterests = []string{}
	}
	if profile.DefaultBudget == "" {
		profile.DefaultBudget = models.BudgetModerate
	}

	if profile.Name == "" {
		return nil, models.NewValidationError("name", "is required")
	}
	if utf8.RuneCountInString(profile.Name) > MaxNameLength {
		return nil, models.NewValidationError("name", fmt.Sprintf("cannot exceed %d characters", MaxNameLength))
	}
	if !profile.DefaultBudget.Valid() {
		return nil, models.NewValidationError("defaultBudget", "must be one of Budget, Moderate, Luxury")
	}

	if err := s.repo.UpsertProfile(ctx, email, profile); err != nil {
		return nil, err
	}
	s.logger.Info("Profile updated", zap.String("email", email))
	return &profile, nil
}
