package model

import "errors"

var (
	// ErrNotFound is returned by stores when no record matches.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned by stores when the unique email index rejects an insert.
	ErrDuplicateEmail = errors.New("duplicate email")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccessDenied       = errors.New("could not complete sign-in")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrMissingFields      = errors.New("all fields are required")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")

	ErrInvalidToken = errors.New("invalid session token")
	ErrTokenRevoked = errors.New("session token revoked")

	ErrUnknownProvider = errors.New("unknown provider")
	ErrInvalidState    = errors.New("invalid oauth state")
)
