package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/devrayanco/task-manager-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenConfig is the immutable signing configuration handed to
// NewTokenService at startup.
type TokenConfig struct {
	Key      []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Claims is the identity asserted by a bearer token. The user ID travels in
// the standard "sub" claim.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// TokenService issues and validates HS256-signed, time-bounded identity
// tokens. It holds no mutable state and is safe for concurrent use.
type TokenService struct {
	cfg    TokenConfig
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService creates a TokenService. The key, issuer and audience are
// copied and never change afterwards.
func NewTokenService(cfg TokenConfig, opts ...TokenOption) (*TokenService, error) {
	if len(cfg.Key) == 0 {
		return nil, errors.New("token signing key is required")
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("token issuer and audience are required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("token lifetime must be positive")
	}
	cfg.Key = append([]byte(nil), cfg.Key...)

	s := &TokenService{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s, nil
}

// Issue signs a token for the given identity, valid from now until now+TTL.
func (s *TokenService) Issue(userID int64, username, email string) (string, error) {
	now := s.now()
	claims := &Claims{
		Username: username,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.cfg.Key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, algorithm, issuer, audience and expiry with no
// clock leeway. Every failure is reported as domain.ErrUnauthorized; the
// specific reason is only logged at debug level.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.cfg.Key, nil
	})
	if err != nil {
		slog.Debug("token rejected", "reason", err)
		return nil, domain.ErrUnauthorized
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	if id, err := claims.UserID(); err != nil || id <= 0 {
		slog.Debug("token rejected", "reason", "bad subject")
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
