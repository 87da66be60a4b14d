package model

import "context"

// ContextManager carries the authenticated session token through a request context.
type ContextManager interface {
	SetTokenToContext(ctx context.Context, token Token) context.Context
	GetTokenFromContext(ctx context.Context) (Token, bool)
}
