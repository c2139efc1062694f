package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/devrayanco/task-manager-api/internal/domain"
)

const (
	maxUsernameLength = 100
	maxEmailLength    = 255
	minPasswordLength = 6
	// bcrypt only looks at the first 72 bytes.
	maxPasswordLength = 72
)

// LoginResult is returned on successful login.
type LoginResult struct {
	Token string
	User  *domain.User
}

// AuthService handles registration, login, and resolving a bearer token to
// the user it was issued for.
type AuthService struct {
	users  domain.UserRepository
	hasher *PasswordHasher
	tokens *TokenService

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, hasher *PasswordHasher, tokens *TokenService) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens}
}

// NormalizeEmail trims and lowercases an address. Emails are compared in
// this form everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates the input and creates a new account. A taken email
// returns domain.ErrDuplicateEmail.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = NormalizeEmail(email)

	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email, and password are required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return nil, fmt.Errorf("%w: username must be %d characters or fewer", domain.ErrInvalidInput, maxUsernameLength)
	}
	if len(email) > maxEmailLength {
		return nil, fmt.Errorf("%w: email must be %d characters or fewer", domain.ErrInvalidInput, maxEmailLength)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: invalid email address", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return nil, fmt.Errorf("%w: password must be between %d and %d characters", domain.ErrInvalidInput, minPasswordLength, maxPasswordLength)
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	// The store enforces uniqueness too, covering concurrent registrations.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password are indistinguishable: both return domain.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Spend the same hashing work as a real check.
			s.hasher.Verify(password, s.dummy())
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrUnauthorized
	}

	token, err := s.tokens.Issue(user.ID, user.Username, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: token, User: user}, nil
}

// Authenticate validates a bearer token and loads the user it names. Any
// failure, including a token for a since-removed user, is
// domain.ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("not-a-real-password")
	})
	return s.dummyHash
}
