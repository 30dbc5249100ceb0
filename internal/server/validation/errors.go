package validation

import (
	"sort"
	"strings"
)

// Field names as they appear in validation failures.
const (
	FieldFirstName            = "first_name"
	FieldLastName             = "last_name"
	FieldEmail                = "email"
	FieldPassword             = "password"
	FieldPasswordConfirmation = "password_confirmation"
	FieldPasswordDigest       = "password_digest"
)

// Failure messages.
const (
	MsgBlank        = "can't be blank"
	MsgTaken        = "has already been taken"
	MsgConfirmation = "doesn't match Password"
	MsgTooShort     = "is too short (minimum is 6 characters)"
	MsgTooLong      = "is too long (maximum is 72 bytes)"
)

const (
	MinPasswordLength = 6
	// bcrypt ignores input beyond this many bytes.
	MaxPasswordBytes = 72
)

// Errors is a set of validation failures keyed by field. A nil or empty
// Errors means the candidate is valid.
//
// Errors implements error so that a rejected record can be returned through
// ordinary error paths and recovered with errors.As.
type Errors map[string][]string

// Add records msg against field. Adding the same pair twice is a no-op.
func (e Errors) Add(field, msg string) {
	if e.Has(field, msg) {
		return
	}
	e[field] = append(e[field], msg)
}

// On returns the messages recorded for field.
func (e Errors) On(field string) []string {
	return e[field]
}

// Has reports whether msg was recorded for field.
func (e Errors) Has(field, msg string) bool {
	for _, m := range e[field] {
		if m == msg {
			return true
		}
	}
	return false
}

// Any reports whether at least one failure was recorded.
func (e Errors) Any() bool {
	return len(e) > 0
}

// Fields returns the failing field names in sorted order.
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// FullMessages renders every failure as a sentence, e.g.
// "First name can't be blank", ordered by field name.
func (e Errors) FullMessages() []string {
	var out []string
	for _, f := range e.Fields() {
		for _, m := range e[f] {
			out = append(out, humanize(f)+" "+m)
		}
	}
	return out
}

func (e Errors) Error() string {
	return "validation failed: " + strings.Join(e.FullMessages(), ", ")
}

func humanize(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
