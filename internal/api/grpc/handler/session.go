package handler

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/crystul/auth-server/internal/logger"
	"github.com/crystul/auth-server/internal/model"
	"github.com/crystul/auth-server/internal/session"
)

// Full method names of the session service.
const (
	SessionServiceName    = "crystul.auth.v1.Session"
	WhoamiMethod          = "/" + SessionServiceName + "/Whoami"
	ResolveRedirectMethod = "/" + SessionServiceName + "/ResolveRedirect"
)

const redirectURLField = "url"

// SessionServer is the server API of the session service.
type SessionServer interface {
	Whoami(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	ResolveRedirect(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error)
}

// Materializer projects tokens into client-visible sessions.
type Materializer interface {
	Materialize(token model.Token, expires time.Time) model.Session
}

// Session implements SessionServer on top of the session issuer.
type Session struct {
	issuer         Materializer
	contextManager model.ContextManager
	baseURL        string
	logger         *logger.Logger
}

var _ SessionServer = (*Session)(nil)

// NewSession creates a new Session handler.
func NewSession(issuer Materializer, contextManager model.ContextManager, baseURL string, logger *logger.Logger) *Session {
	return &Session{
		issuer:         issuer,
		contextManager: contextManager,
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		logger:         logger,
	}
}

// Whoami returns the session of the calling token.
func (h *Session) Whoami(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	token, ok := h.contextManager.GetTokenFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, model.ErrInvalidToken.Error())
	}

	s := h.issuer.Materialize(token, token.ExpiresAt)

	var image any
	if s.User.Image != nil {
		image = *s.User.Image
	}
	fields := map[string]any{
		"user": map[string]any{
			"id":    s.User.ID,
			"name":  s.User.Name,
			"email": s.User.Email,
			"image": image,
		},
		"expires": s.Expires.UTC().Format(time.RFC3339),
	}
	if s.AccessToken != "" {
		fields["accessToken"] = s.AccessToken
	}

	resp, err := structpb.NewStruct(fields)
	if err != nil {
		h.logger.Error("gRPC whoami: failed to build response", "error", err.Error())
		return nil, status.Error(codes.Internal, "internal error")
	}

	return resp, nil
}

// ResolveRedirect applies the redirect policy to the "url" field.
func (h *Session) ResolveRedirect(_ context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	v, ok := req.GetFields()[redirectURLField]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "url is required")
	}
	if _, isString := v.GetKind().(*structpb.Value_StringValue); !isString {
		return nil, status.Error(codes.InvalidArgument, "url must be a string")
	}

	return wrapperspb.String(session.ResolveRedirect(v.GetStringValue(), h.baseURL)), nil
}

// RegisterSessionServer registers srv on s.
func RegisterSessionServer(s grpc.ServiceRegistrar, srv SessionServer) {
	s.RegisterService(&sessionServiceDesc, srv)
}

func whoamiHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServer).Whoami(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: WhoamiMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SessionServer).Whoami(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func resolveRedirectHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServer).ResolveRedirect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ResolveRedirectMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SessionServer).ResolveRedirect(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var sessionServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*SessionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Whoami", Handler: whoamiHandler},
		{MethodName: "ResolveRedirect", Handler: resolveRedirectHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "crystul/auth/v1/session.proto",
}
