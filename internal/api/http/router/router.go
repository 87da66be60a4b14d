package router

import (
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"

	"github.com/crystul/auth-server/internal/api/http/handler"
	"github.com/crystul/auth-server/internal/api/http/middleware"
	"github.com/crystul/auth-server/internal/logger"
)

// Router wires the auth endpoints under /api/auth.
type Router struct {
	auth       *handler.Auth
	handshakes *scs.SessionManager
	logger     *logger.Logger
}

// New creates a new HTTP Router.
func New(auth *handler.Auth, handshakes *scs.SessionManager, logger *logger.Logger) *Router {
	return &Router{
		auth:       auth,
		handshakes: handshakes,
		logger:     logger,
	}
}

// Register builds the HTTP handler with request logging. Only the OAuth
// handshake routes load the handshake session.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)

	m := mux.NewRouter()
	m.Use(logging.Handle)

	m.HandleFunc("/healthz", r.auth.Health).Methods(http.MethodGet)

	api := m.PathPrefix("/api/auth").Subrouter()
	api.HandleFunc("/providers", r.auth.Providers).Methods(http.MethodGet)
	api.HandleFunc("/session", r.auth.Session).Methods(http.MethodGet)
	api.HandleFunc("/signout", r.auth.SignOut).Methods(http.MethodPost)
	api.HandleFunc("/register", r.auth.Register).Methods(http.MethodPost)
	api.HandleFunc("/callback/credentials", r.auth.CredentialsCallback).Methods(http.MethodPost)

	oauth := api.NewRoute().Subrouter()
	oauth.Use(r.handshakes.LoadAndSave)
	oauth.HandleFunc("/signin/{provider}", r.auth.SignIn).Methods(http.MethodGet)
	oauth.HandleFunc("/callback/{provider}", r.auth.OAuthCallback).Methods(http.MethodGet)

	return m
}
