package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sync"

	"github.com/msomdec/storefront-api/internal/domain"
	"github.com/msomdec/storefront-api/internal/metrics"
)

// fallbackDummyHash is a well-formed cost-10 bcrypt hash. Verifying against
// it costs a full key derivation, unlike an empty or malformed hash.
const fallbackDummyHash = "$2a$10$XajjQvNhvvRt5GSeFk1xFeyqRrsxkhBkUiQeg0dt.wU1qD4aFDcga"

// AuthService handles user registration, credential validation and login.
type AuthService struct {
	users   domain.UserRepository
	hasher  PasswordHasher
	tokens  *TokenIssuer
	metrics *metrics.Metrics

	// dummyHash is verified against when the email is unknown so that both
	// negative paths cost one hash comparison.
	dummyHash func() string
}

type AuthOption func(*AuthService)

// WithMetrics records registration and login outcomes on m.
func WithMetrics(m *metrics.Metrics) AuthOption {
	return func(s *AuthService) { s.metrics = m }
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, hasher PasswordHasher, tokens *TokenIssuer, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
	s.dummyHash = sync.OnceValue(func() string {
		h, err := hasher.Hash(context.Background(), "storefront-timing-equaliser")
		if err != nil {
			slog.Warn("compute dummy password hash; using fixed bcrypt hash", "error", err)
			return fallbackDummyHash
		}
		return h
	})
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new account. An empty role selects domain.RoleUser.
// The returned user never carries the password hash.
func (s *AuthService) Register(ctx context.Context, email, password string, role domain.Role) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: email is not a valid address", domain.ErrInvalidInput)
	}
	role, err := domain.ParseRole(string(role))
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "registering user", "email", email, "role", role)

	// Fast path only. The store's unique index is what actually prevents two
	// concurrent registrations from both succeeding.
	_, err = s.users.GetByEmail(ctx, email)
	if err == nil {
		slog.WarnContext(ctx, "registration with existing email", "email", email)
		s.metrics.RegistrationOutcome(metrics.OutcomeDuplicate)
		return nil, domain.ErrDuplicateEmail
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.metrics.RegistrationOutcome(metrics.OutcomeError)
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		s.metrics.RegistrationOutcome(metrics.OutcomeError)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			slog.WarnContext(ctx, "registration lost race on email", "email", email)
			s.metrics.RegistrationOutcome(metrics.OutcomeDuplicate)
			return nil, domain.ErrDuplicateEmail
		}
		s.metrics.RegistrationOutcome(metrics.OutcomeError)
		return nil, fmt.Errorf("create user: %w", err)
	}

	user.PasswordHash = ""
	s.metrics.RegistrationOutcome(metrics.OutcomeSuccess)
	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// ValidateCredentials looks up email and verifies password against the stored
// hash. ok is false for an unknown email and for a wrong password alike;
// err is reserved for storage failures.
func (s *AuthService) ValidateCredentials(ctx context.Context, email, password string) (user domain.User, ok bool, err error) {
	found, err := s.users.GetCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.hasher.Verify(ctx, password, s.dummyHash())
			slog.DebugContext(ctx, "credential check failed", "email", email)
			return domain.User{}, false, nil
		}
		return domain.User{}, false, fmt.Errorf("get credentials: %w", err)
	}

	if !s.hasher.Verify(ctx, password, found.PasswordHash) {
		slog.DebugContext(ctx, "credential check failed", "email", email)
		return domain.User{}, false, nil
	}

	found.PasswordHash = ""
	return *found, true, nil
}

// Login verifies credentials and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, ok, err := s.ValidateCredentials(ctx, email, password)
	if err != nil {
		s.metrics.LoginOutcome(metrics.OutcomeError)
		return "", err
	}
	if !ok {
		slog.WarnContext(ctx, "invalid login attempt", "email", email)
		s.metrics.LoginOutcome(metrics.OutcomeInvalid)
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Sign(Identity{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		s.metrics.LoginOutcome(metrics.OutcomeError)
		return "", fmt.Errorf("sign token: %w", err)
	}

	s.metrics.LoginOutcome(metrics.OutcomeSuccess)
	slog.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return token, nil
}

// Authenticate verifies a bearer token and returns the identity it carries.
func (s *AuthService) Authenticate(token string) (Identity, error) {
	return s.tokens.Verify(token)
}

// GetUserByID retrieves a user by their ID.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}
