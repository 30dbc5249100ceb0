// Package cryptox wraps the one-way password hash primitive used for user
// credentials.
package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher derives and checks password digests.
type PasswordHasher interface {
	// Hash returns the digest of plaintext.
	Hash(plaintext string) (string, error)

	// Verify reports whether plaintext matches digest. A mismatch is
	// (false, nil); an error means the digest could not be checked at all.
	Verify(plaintext, digest string) (bool, error)
}

// BcryptHasher implements PasswordHasher with bcrypt. Comparison is constant
// time.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost when cost
// is zero. Costs outside bcrypt's accepted range are rejected.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash error: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(plaintext, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("verify error: %w", err)
	}
}
