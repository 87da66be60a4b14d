package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/crystul/auth-server/internal/logger"
	"github.com/crystul/auth-server/internal/model"
	"github.com/crystul/auth-server/internal/provider"
	"github.com/crystul/auth-server/internal/service"
	"github.com/crystul/auth-server/internal/session"
)

const (
	sessionCookieName       = "crystul.session-token"
	secureSessionCookieName = "__Secure-crystul.session-token"

	signInPage  = "/auth/login"
	signOutPage = "/"

	errorAccessDenied      = "AccessDenied"
	errorCredentialsSignin = "CredentialsSignin"
	errorOAuthCallback     = "OAuthCallback"
)

// StoreAcquirer hands out the shared user store handle.
type StoreAcquirer interface {
	Acquire(ctx context.Context) model.StoreHandle
}

// AuthService defines the sign-in decisions.
type AuthService interface {
	Authorize(ctx context.Context, handle model.StoreHandle, email, password string) (*model.Identity, error)
	SignIn(ctx context.Context, handle model.StoreHandle, assertion model.Assertion) model.Decision
	Register(ctx context.Context, handle model.StoreHandle, params service.RegisterParams) (service.RegisterResult, error)
}

// SessionIssuer defines session token operations.
type SessionIssuer interface {
	Admit(login model.Login) session.Resumed
	Complete(pending session.Resumed) (session.Resumed, error)
	Resume(ctx context.Context, raw string) (session.Resumed, error)
	SignOut(ctx context.Context, raw string) error
	Materialize(token model.Token, expires time.Time) model.Session
}

// Auth serves the /api/auth endpoints.
type Auth struct {
	authService AuthService
	store       StoreAcquirer
	issuer      SessionIssuer
	providers   *provider.Registry
	handshakes  *scs.SessionManager
	baseURL     string
	secure      bool
	logger      *logger.Logger
}

// NewAuth creates the HTTP auth handler. Cookies are marked Secure when
// baseURL is served over https.
func NewAuth(
	authService AuthService,
	store StoreAcquirer,
	issuer SessionIssuer,
	providers *provider.Registry,
	handshakes *scs.SessionManager,
	baseURL string,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		authService: authService,
		store:       store,
		issuer:      issuer,
		providers:   providers,
		handshakes:  handshakes,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		secure:      strings.HasPrefix(strings.ToLower(baseURL), "https://"),
		logger:      logger,
	}
}

func (h *Auth) cookieName() string {
	if h.secure {
		return secureSessionCookieName
	}
	return sessionCookieName
}

func (h *Auth) readSessionCookie(r *http.Request) string {
	c, err := r.Cookie(h.cookieName())
	if err != nil {
		return ""
	}
	return c.Value
}

func (h *Auth) setSessionCookie(w http.ResponseWriter, raw string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    raw,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Auth) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// errorPage returns the sign-in page URL carrying an error code.
func (h *Auth) errorPage(code string) string {
	return h.baseURL + signInPage + "?error=" + url.QueryEscape(code)
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

// issue runs an accepted login through Authenticating to Authenticated and
// sets the session cookie.
func (h *Auth) issue(w http.ResponseWriter, login model.Login) (model.Token, error) {
	pending := h.issuer.Admit(login)
	h.logger.Debug("Auth handler: issuing session",
		"provider", login.Account.Provider,
		"session_state", pending.State.String())

	res, err := h.issuer.Complete(pending)
	if err != nil {
		return model.Token{}, fmt.Errorf("failed to issue session: %w", err)
	}

	h.setSessionCookie(w, res.Raw, res.Token.ExpiresAt)
	return res.Token, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

var (
	errBadRequest         = errors.New("malformed request body")
	errSessionUnavailable = errors.New("session check unavailable")
)

type errorResponse struct {
	Error string `json:"error"`
}

type urlResponse struct {
	URL string `json:"url"`
}

// finish ends a sign-in or sign-out step either with a JSON body carrying
// the target or with a redirect to it.
func finish(w http.ResponseWriter, r *http.Request, target string) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, urlResponse{URL: target})
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// formValues reads fields from a JSON object body or from a form.
func formValues(w http.ResponseWriter, r *http.Request, fields ...string) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body map[string]any
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
			return nil, errBadRequest
		}
		for _, f := range fields {
			if s, ok := body[f].(string); ok {
				out[f] = s
			}
		}
		return out, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, errBadRequest
	}
	for _, f := range fields {
		out[f] = r.PostForm.Get(f)
	}
	return out, nil
}
