package middleware

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/crystul/auth-server/internal/logger"
	"github.com/crystul/auth-server/internal/model"
	"github.com/crystul/auth-server/internal/session"
)

// SessionTokenHeader carries the re-signed token back to the caller when
// its bearer token was refreshed. Callers should use it from then on.
const SessionTokenHeader = "x-session-token"

// SessionResumer validates session tokens.
type SessionResumer interface {
	Resume(ctx context.Context, raw string) (session.Resumed, error)
}

// Authenticate validates bearer session tokens and injects them into context.
type Authenticate struct {
	sessions       SessionResumer
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(sessions SessionResumer, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{sessions: sessions, contextManager: contextManager, logger: logger}
}

// AuthFunc reads the bearer token from metadata and rejects calls without
// a valid, unrevoked session.
func (m *Authenticate) AuthFunc(ctx context.Context) (context.Context, error) {
	raw, err := auth.AuthFromMD(ctx, "bearer")
	if err != nil {
		return nil, err
	}

	res, err := m.sessions.Resume(ctx, raw)
	if err != nil {
		m.logger.Error("gRPC authenticate: failed to resume session",
			"error", err.Error())
		return nil, status.Error(codes.Unavailable, "session check unavailable")
	}
	switch res.State {
	case session.Authenticated:
	case session.SignedOut:
		return nil, status.Error(codes.Unauthenticated, model.ErrTokenRevoked.Error())
	default:
		return nil, status.Error(codes.Unauthenticated, model.ErrInvalidToken.Error())
	}

	if res.Refreshed {
		if err := grpc.SetHeader(ctx, metadata.Pairs(SessionTokenHeader, res.Raw)); err != nil {
			m.logger.Warn("gRPC authenticate: failed to send refreshed session token",
				"error", err.Error())
		}
	}

	return m.contextManager.SetTokenToContext(ctx, res.Token), nil
}
