// Package validation enforces the field-level rules a user record must
// satisfy before it is persisted.
package validation

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

// EmailChecker is the store query behind the uniqueness rule. Comparison is
// exact (case-sensitive); the record identified by exceptID is ignored.
type EmailChecker interface {
	EmailTaken(ctx context.Context, email string, exceptID string) (bool, error)
}

// Validator checks candidates against the user rules.
type Validator struct {
	emails EmailChecker
}

func NewValidator(emails EmailChecker) *Validator {
	return &Validator{emails: emails}
}

// Validate returns the failures found on c. The only side effect is the
// uniqueness query; c is not modified.
//
// A non-nil error means the store could not be queried and says nothing about
// the validity of c.
func (v *Validator) Validate(ctx context.Context, c models.Candidate) (Errors, error) {
	errs := Errors{}

	if isBlank(c.FirstName) {
		errs.Add(FieldFirstName, MsgBlank)
	}
	if isBlank(c.LastName) {
		errs.Add(FieldLastName, MsgBlank)
	}

	if isBlank(c.Email) {
		errs.Add(FieldEmail, MsgBlank)
	} else {
		taken, err := v.emails.EmailTaken(ctx, c.Email, c.ID)
		if err != nil {
			return nil, fmt.Errorf("error checking email uniqueness: %w", err)
		}
		if taken {
			errs.Add(FieldEmail, MsgTaken)
		}
	}

	if c.PasswordConfirmation != nil && *c.PasswordConfirmation != c.Password {
		errs.Add(FieldPasswordConfirmation, MsgConfirmation)
	}

	if c.Password == "" {
		if isBlank(c.PasswordDigest) {
			errs.Add(FieldPasswordDigest, MsgBlank)
		}
	} else {
		if utf8.RuneCountInString(c.Password) < MinPasswordLength {
			errs.Add(FieldPassword, MsgTooShort)
		}
		if len(c.Password) > MaxPasswordBytes {
			errs.Add(FieldPassword, MsgTooLong)
		}
	}

	return errs, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
