package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/oauth2"

	"github.com/crystul/auth-server/internal/model"
	"github.com/crystul/auth-server/internal/session"
)

const (
	handshakeState       = "state"
	handshakeVerifier    = "verifier"
	handshakeCallbackURL = "callbackUrl"
)

// SignIn starts the consent flow of an external provider. The CSRF state,
// PKCE verifier and requested callback URL are kept in the handshake session.
func (h *Auth) SignIn(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["provider"]
	p, ok := h.providers.Get(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: model.ErrUnknownProvider.Error()})
		return
	}

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	ctx := r.Context()
	if err := h.handshakes.RenewToken(ctx); err != nil {
		h.logger.Error("Auth handler: failed to renew handshake",
			"error", err.Error())
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}
	h.handshakes.Put(ctx, handshakeState, state)
	h.handshakes.Put(ctx, handshakeVerifier, verifier)
	h.handshakes.Put(ctx, handshakeCallbackURL, session.ResolveRedirect(r.URL.Query().Get("callbackUrl"), h.baseURL))

	h.logger.Debug("Auth handler: redirecting to provider",
		"provider", name)

	http.Redirect(w, r, p.AuthCodeURL(state, verifier), http.StatusFound)
}

// OAuthCallback completes the consent flow: it checks the state, exchanges
// the code, runs the sign-in decision and issues the session.
func (h *Auth) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["provider"]
	p, ok := h.providers.Get(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: model.ErrUnknownProvider.Error()})
		return
	}

	ctx := r.Context()
	q := r.URL.Query()

	state := h.handshakes.PopString(ctx, handshakeState)
	verifier := h.handshakes.PopString(ctx, handshakeVerifier)
	callbackURL := h.handshakes.PopString(ctx, handshakeCallbackURL)
	if callbackURL == "" {
		callbackURL = h.baseURL
	}

	if q.Get("error") != "" {
		h.logger.Info("Auth handler: provider returned an error",
			"provider", name,
			"error", q.Get("error"))
		http.Redirect(w, r, h.errorPage(errorAccessDenied), http.StatusFound)
		return
	}

	if state == "" || q.Get("state") != state {
		h.logger.Warn("Auth handler: oauth state mismatch",
			"provider", name,
			"error", model.ErrInvalidState.Error())
		http.Redirect(w, r, h.errorPage(errorOAuthCallback), http.StatusFound)
		return
	}

	assertion, err := p.Exchange(ctx, q.Get("code"), verifier)
	if err != nil {
		h.logger.Error("Auth handler: provider exchange failed",
			"provider", name,
			"error", err.Error())
		http.Redirect(w, r, h.errorPage(errorOAuthCallback), http.StatusFound)
		return
	}

	if h.authService.SignIn(ctx, h.store.Acquire(ctx), assertion) != model.Allow {
		h.logger.Info("Auth handler: external sign-in denied",
			"provider", name,
			"error", model.ErrAccessDenied.Error())
		http.Redirect(w, r, h.errorPage(errorAccessDenied), http.StatusFound)
		return
	}

	token, err := h.issue(w, model.Login{
		Identity: assertion.Identity(),
		Account: model.Account{
			Provider:    assertion.Provider,
			AccessToken: assertion.AccessToken,
		},
	})
	if err != nil {
		h.logger.Error("Auth handler: failed to issue session",
			"error", err.Error())
		http.Redirect(w, r, h.errorPage(errorOAuthCallback), http.StatusFound)
		return
	}

	h.logger.Info("Auth handler: external sign-in completed",
		"provider", name,
		"subject", token.Subject)

	http.Redirect(w, r, callbackURL, http.StatusFound)
}
