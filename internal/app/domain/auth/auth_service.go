package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/FACorreiaa/kanso/internal/app/domain/credentials"
	"github.com/FACorreiaa/kanso/internal/app/governance"
	"github.com/FACorreiaa/kanso/internal/app/models"
	"github.com/FACorreiaa/kanso/internal/app/observability/metrics"
)

const (
	MinPasswordLength = 6
	DefaultBio        = "Ready for the next adventure."
)

// Gate is the part of the governance context the auth path needs.
type Gate interface {
	Gate(ctx context.Context, purpose governance.Purpose) error
	Sanitize(input string) string
}

// Ensure implementation satisfies the interface
var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the business logic contract.
type AuthService interface {
	Signup(ctx context.Context, email, password string) (*models.Session, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	ValidateToken(token string) (*Claims, error)
}

// AuthServiceImpl provides the implementation for AuthService.
type AuthServiceImpl struct {
	logger *zap.Logger
	repo   AuthRepo
	gate   Gate
	jwt    *JWTService
	now    func() time.Time
}

func NewAuthService(repo AuthRepo, gate Gate, jwt *JWTService, logger *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		gate:   gate,
		jwt:    jwt,
		now:    time.Now,
	}
}

// DefaultProfile is the profile created alongside a new account.
func DefaultProfile(email string) models.UserProfile {
	name, _, _ := strings.Cut(email, "@")
	return models.UserProfile{
		Name:             name,
		Bio:              DefaultBio,
		DefaultBudget:    models.BudgetModerate,
		DefaultInterests: []string{},
	}
}

// normalizeEmail sanitizes and case folds an address so lookups are
// case-insensitive. A Caser is stateful, so one is built per call.
func (s *AuthServiceImpl) normalizeEmail(email string) (string, error) {
	clean := cases.Fold().String(s.gate.Sanitize(email))
	local, domain, ok := strings.Cut(clean, "@")
	if !ok || local == "" || domain == "" || strings.ContainsAny(clean, " \t\n") {
		return "", models.NewValidationError("email", "must be a valid address")
	}
	return clean, nil
}

// Signup creates an account and its default profile.
func (s *AuthServiceImpl) Signup(ctx context.Context, email, password string) (*models.Session, error) {
	l := s.logger.With(zap.String("method", "Signup"))
	ctx, span := otel.Tracer("AuthService").Start(ctx, "AuthService.Signup")
	defer span.End()

	if err := s.gate.Gate(ctx, governance.PurposeAuth); err != nil {
		s.record(ctx, "signup", "rate_limited")
		return nil, err
	}

	email, err := s.normalizeEmail(email)
	if err != nil {
		s.record(ctx, "signup", "invalid")
		return nil, err
	}
	span.SetAttributes(attribute.String("email", email))
	if utf8.RuneCountInString(password) < MinPasswordLength {
		s.record(ctx, "signup", "invalid")
		return nil, models.NewValidationError("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	digest, salt, err := credentials.Hash(password)
	if err != nil {
		l.Error("Failed to hash password", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Password hashing failed")
		return nil, fmt.Errorf("could not process password: %w", err)
	}

	profile := DefaultProfile(email)
	user := &models.UserAuth{Email: email, PasswordHash: digest, Salt: salt, CreatedAt: s.now().UTC()}
	if err := s.repo.CreateUser(ctx, user, profile); err != nil {
		if errors.Is(err, models.ErrConflict) {
			l.Info("Signup for existing account", zap.String("email", email))
			s.record(ctx, "signup", "conflict")
			return nil, err
		}
		l.Error("Repository signup failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository signup failed")
		return nil, fmt.Errorf("signup failed: %w", err)
	}

	s.record(ctx, "signup", "success")
	l.Info("Signup successful", zap.String("email", email))
	return s.session(email, profile.Name)
}

// Login verifies credentials. Unknown accounts and wrong passwords are
// indistinguishable to the caller.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*models.Session, error) {
	l := s.logger.With(zap.String("method", "Login"))
	ctx, span := otel.Tracer("AuthService").Start(ctx, "AuthService.Login")
	defer span.End()

	if err := s.gate.Gate(ctx, governance.PurposeAuth); err != nil {
		s.record(ctx, "login", "rate_limited")
		return nil, err
	}

	email, err := s.normalizeEmail(email)
	if err != nil {
		s.record(ctx, "login", "invalid")
		return nil, err
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			l.Error("GetUserByEmail failed", zap.Error(err))
			span.RecordError(err)
			return nil, fmt.Errorf("login failed: %w", err)
		}
		l.Warn("Login for unknown account", zap.String("email", email))
		s.record(ctx, "login", "rejected")
		return nil, fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	if !credentials.Verify(password, user.PasswordHash, user.Salt) {
		l.Warn("Password comparison failed", zap.String("email", email))
		s.record(ctx, "login", "rejected")
		return nil, fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	name := user.DisplayName
	if name == "" {
		name = DefaultProfile(email).Name
	}
	s.record(ctx, "login", "success")
	l.Info("Login successful", zap.String("email", email))
	return s.session(email, name)
}

func (s *AuthServiceImpl) ValidateToken(token string) (*Claims, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, models.ErrUnauthenticated)
	}
	return claims, nil
}

func (s *AuthServiceImpl) session(email, name string) (*models.Session, error) {
	token, err := s.jwt.GenerateToken(email, name)
	if err != nil {
		return nil, err
	}
	return &models.Session{Token: token, Email: email, Name: name}, nil
}

func (s *AuthServiceImpl) record(ctx context.Context, op, outcome string) {
	metrics.Get().AuthRequestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))
}
