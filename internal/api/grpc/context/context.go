package context

import (
	"context"

	"github.com/crystul/auth-server/internal/model"
)

type tokenKey struct{}

// Manager carries the authenticated session token through gRPC request contexts.
type Manager struct{}

var _ model.ContextManager = (*Manager)(nil)

// NewManager creates a new gRPC context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetTokenToContext returns a context carrying token.
func (m *Manager) SetTokenToContext(ctx context.Context, token model.Token) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// GetTokenFromContext returns the token set by the authentication
// interceptor. ok is false for unauthenticated calls.
func (m *Manager) GetTokenFromContext(ctx context.Context) (model.Token, bool) {
	token, ok := ctx.Value(tokenKey{}).(model.Token)
	if !ok || token.Empty() {
		return model.Token{}, false
	}
	return token, true
}
