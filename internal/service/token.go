package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/storefront-api/internal/domain"
)

// Identity is the authenticated caller carried by a session token.
type Identity struct {
	UserID int64
	Email  string
	Role   domain.Role
}

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens. It holds no mutable
// state and is safe for concurrent use.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type TokenOption func(*TokenIssuer)

// WithClock overrides the time source used for iat, exp and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) { t.now = now }
}

// NewTokenIssuer creates a TokenIssuer. Changing secret invalidates every
// token signed with the previous one.
func NewTokenIssuer(secret []byte, ttl time.Duration, opts ...TokenOption) *TokenIssuer {
	t := &TokenIssuer{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Sign issues a token for id that expires after the configured TTL.
func (t *TokenIssuer) Sign(id Identity) (string, error) {
	return t.SignWithExpiry(id, t.now().Add(t.ttl))
}

// SignWithExpiry issues a token for id that expires at exp.
func (t *TokenIssuer) SignWithExpiry(id Identity, exp time.Time) (string, error) {
	claims := tokenClaims{
		Email: id.Email,
		Role:  string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(t.now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its identity.
// Every failure is reported as domain.ErrUnauthenticated.
func (t *TokenIssuer) Verify(token string) (Identity, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return Identity{}, domain.ErrUnauthenticated
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Identity{}, domain.ErrUnauthenticated
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil || claims.Role == "" {
		return Identity{}, domain.ErrUnauthenticated
	}

	return Identity{UserID: userID, Email: claims.Email, Role: role}, nil
}
