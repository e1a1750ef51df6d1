// Package pin handles wallet PIN hashing, verification and attempt limiting.
// Settlement approval is the only operation that demands a PIN, but the
// helpers are written against plain strings so wallet provisioning can reuse
// them.
package pin

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMismatch indicates the presented PIN does not match the stored hash
	ErrMismatch = errors.New("pin does not match")
	// ErrEmptyPin indicates an empty PIN was offered for hashing
	ErrEmptyPin = errors.New("pin cannot be empty")
)

// Hash derives a bcrypt hash of the PIN for storage
func Hash(pin string) (string, error) {
	if pin == "" {
		return "", ErrEmptyPin
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pin: %w", err)
	}
	return string(hash), nil
}

// Verify compares a presented PIN against the stored bcrypt hash.
// A wallet without a stored hash still burns one bcrypt round before
// rejecting, so response timing does not reveal whether a PIN is set.
func Verify(hash, pin string) error {
	if hash == "" {
		_, _ = bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
		return ErrMismatch
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return fmt.Errorf("failed to verify pin: %w", err)
	}

	return nil
}
