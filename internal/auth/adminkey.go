package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// AdminKeyHeader carries the publisher key on admin routes.
const AdminKeyHeader = "X-Admin-Key"

// DefaultKeyCost is the bcrypt work factor for admin key hashes.
// Tests pass bcrypt.MinCost to HashAdminKey to stay fast.
const DefaultKeyCost = 12

// ErrInvalidAdminKey is returned by Verify for a missing or wrong key.
var ErrInvalidAdminKey = errors.New("auth: invalid admin key")

// AdminKey verifies the shared publisher key used to add picks.
//
// Only the bcrypt hash is configured (ADMIN_KEY_HASH); the plaintext lives
// with whoever publishes picks. cmd/adminkey prints a hash for a new key.
type AdminKey struct {
	hash []byte
}

// NewAdminKey wraps a bcrypt hash, rejecting strings that are not one.
func NewAdminKey(hash string) (*AdminKey, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("auth: admin key hash: %w", err)
	}
	return &AdminKey{hash: []byte(hash)}, nil
}

// Verify reports whether plaintext matches the configured key.
// bcrypt compares in constant time.
func (k *AdminKey) Verify(plaintext string) error {
	if plaintext == "" {
		return ErrInvalidAdminKey
	}
	err := bcrypt.CompareHashAndPassword(k.hash, []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidAdminKey
		}
		return fmt.Errorf("auth: comparing admin key: %w", err)
	}
	return nil
}

// HashAdminKey hashes a new admin key. bcrypt ignores bytes past 72, so
// longer keys are rejected rather than silently truncated.
func HashAdminKey(plaintext string, cost int) (string, error) {
	if plaintext == "" {
		return "", errors.New("auth: admin key must not be empty")
	}
	if len(plaintext) > 72 {
		return "", errors.New("auth: admin key must be 72 bytes or fewer")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing admin key: %w", err)
	}
	return string(hashed), nil
}
