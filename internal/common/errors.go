// Package common defines sentinel errors shared by the repository, service
// and CLI layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors. ErrorInternal marks an infrastructure fault
	// (store or hash primitive) and is never used for bad input or bad
	// credentials.
	ErrorInternal = errors.New("internal error")
)
