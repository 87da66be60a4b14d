package model

import (
	"context"
	"time"
)

// Token is the signed session payload. It is produced and read only by the
// session issuer; clients see it as an opaque string.
type Token struct {
	ID          string
	Subject     string
	Email       string
	Name        string
	Picture     *string
	AccessToken string
	Provider    string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// Empty reports whether the token carries no subject.
func (t Token) Empty() bool {
	return t.Subject == ""
}

// SessionUser is the user part of a materialized session.
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Image *string
}

// Session is the client-visible projection of a token.
type Session struct {
	User        SessionUser
	AccessToken string
	Expires     time.Time
}

// TokenManager signs and verifies session tokens.
type TokenManager interface {
	Sign(token Token) (string, error)
	Parse(raw string) (Token, error)
}

// Denylist records revoked token ids until they would have expired anyway.
type Denylist interface {
	Revoke(ctx context.Context, id string, until time.Time) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}
