package router

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"

	"github.com/crystul/auth-server/internal/api/grpc/handler"
	"github.com/crystul/auth-server/internal/api/grpc/middleware"
	"github.com/crystul/auth-server/internal/logger"
	"github.com/crystul/auth-server/internal/model"
	"github.com/crystul/auth-server/internal/session"
)

// Issuer is the part of the session issuer used by the gRPC surface.
type Issuer interface {
	handler.Materializer
	middleware.SessionResumer
}

// Router builds the gRPC server for session operations.
type Router struct {
	issuer         Issuer
	contextManager model.ContextManager
	baseURL        string
	logger         *logger.Logger
}

// New creates new gRPC Router instance.
func New(issuer Issuer, contextManager model.ContextManager, baseURL string, logger *logger.Logger) *Router {
	return &Router{
		issuer:         issuer,
		contextManager: contextManager,
		baseURL:        baseURL,
		logger:         logger,
	}
}

// requiresSession matches every method except redirect resolution.
func requiresSession(_ context.Context, c interceptors.CallMeta) bool {
	return c.FullMethod() != handler.ResolveRedirectMethod
}

// Register creates the gRPC server with request logging and bearer
// authentication, and registers the session service on it.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.issuer, r.contextManager, r.logger)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			selector.UnaryServerInterceptor(
				auth.UnaryServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(requiresSession),
			),
		),
	)

	handler.RegisterSessionServer(s, handler.NewSession(r.issuer, r.contextManager, r.baseURL, r.logger))

	return s
}

var _ Issuer = (*session.Issuer)(nil)
