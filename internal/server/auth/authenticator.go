// Package auth resolves a user from submitted credentials.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/cryptox"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

// UserFinder looks a user up by an already normalized email, comparing
// against the folded form of the stored value. It returns common.ErrorNotFound when
// nothing matches.
type UserFinder interface {
	FindByEmailFold(ctx context.Context, normalizedEmail string) (*models.User, error)
}

// Authenticator checks credentials against stored digests. It never writes.
type Authenticator struct {
	users  UserFinder
	hasher cryptox.PasswordHasher

	// dummyDigest is verified on the unknown-email path so that both
	// outcomes cost one hash comparison. Empty when timing equalization
	// is off.
	dummyDigest string
}

const dummyPassword = "not-a-real-password"

func NewAuthenticator(users UserFinder, hasher cryptox.PasswordHasher, equalizeTiming bool) (*Authenticator, error) {
	a := &Authenticator{users: users, hasher: hasher}
	if equalizeTiming {
		d, err := hasher.Hash(dummyPassword)
		if err != nil {
			return nil, fmt.Errorf("error preparing dummy digest: %w", err)
		}
		a.dummyDigest = d
	}
	return a, nil
}

// NormalizeEmail trims surrounding whitespace and lower-cases raw.
func NormalizeEmail(raw string) string {
	return models.FoldEmail(raw)
}

// Authenticate returns the user whose email matches rawEmail ignoring case
// and surrounding whitespace and whose digest matches rawPassword.
//
// An unknown email and a wrong password both yield (nil, nil). A non-nil
// error always means the store or the hash primitive failed.
func (a *Authenticator) Authenticate(ctx context.Context, rawEmail, rawPassword string) (*models.User, error) {
	email := NormalizeEmail(rawEmail)

	u, err := a.users.FindByEmailFold(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		if a.dummyDigest != "" {
			if _, err := a.hasher.Verify(rawPassword, a.dummyDigest); err != nil {
				return nil, fmt.Errorf("error verifying password: %w", err)
			}
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	ok, err := a.hasher.Verify(rawPassword, u.PasswordDigest)
	if err != nil {
		return nil, fmt.Errorf("error verifying password: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return u, nil
}
