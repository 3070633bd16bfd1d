package domain

import "errors"

var (
	ErrNotFound                = errors.New("not found")
	ErrDuplicateEmail          = errors.New("email already exists")
	ErrInvalidInput            = errors.New("invalid input")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrUnauthenticated         = errors.New("unauthenticated")
	ErrInsufficientPermissions = errors.New("insufficient permissions")

	// ErrMissingIdentity means an authorization check ran without a prior
	// authentication step. It is a wiring fault, not an anonymous caller.
	ErrMissingIdentity = errors.New("missing identity context")
)
