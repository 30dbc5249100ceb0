// Package models defines the user record and the candidate values validated
// before it is persisted.
package models

import (
	"strings"
	"time"
)

// User is a persisted account. PasswordDigest holds the one-way hash of the
// password; the plaintext is never stored.
type User struct {
	ID             string    `db:"id"`
	FirstName      string    `db:"first_name"`
	LastName       string    `db:"last_name"`
	Email          string    `db:"email"`
	PasswordDigest string    `db:"password_digest"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Candidate carries the field values of a user record that has not been
// validated yet.
//
// ID is empty for a new record; for an update it identifies the record being
// changed. Password and PasswordConfirmation are transient: they are only used
// to derive PasswordDigest. A nil PasswordConfirmation means no confirmation
// was supplied. PasswordDigest is the digest already on file, if any.
type Candidate struct {
	ID                   string
	FirstName            string
	LastName             string
	Email                string
	Password             string
	PasswordConfirmation *string
	PasswordDigest       string
}

// FoldEmail is the form of an email used for case-insensitive lookups:
// surrounding whitespace trimmed, then lower-cased. It is computed in Go for
// both the stored and the submitted value so every driver compares the same
// bytes.
func FoldEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
