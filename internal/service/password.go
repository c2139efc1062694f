package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher produces and checks salted bcrypt hashes. The cost and salt
// are embedded in each hash, so Verify needs nothing but the stored value.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a PasswordHasher with the given bcrypt cost.
func NewPasswordHasher(cost int) *PasswordHasher {
	return &PasswordHasher{cost: cost}
}

// Hash returns a fresh salted hash of plaintext. Two calls with the same
// input yield different hashes.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. A malformed hash simply
// fails verification.
func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
