package handler

import (
	"net/http"
	"time"

	"github.com/crystul/auth-server/internal/model"
	"github.com/crystul/auth-server/internal/session"
)

type sessionUserResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Image *string `json:"image"`
}

type sessionResponse struct {
	User        sessionUserResponse `json:"user"`
	AccessToken string              `json:"accessToken,omitempty"`
	Expires     string              `json:"expires"`
}

// Session returns the materialized session, or an empty object for
// anonymous clients. Tokens older than the update age are re-issued.
// When the session can not be checked the cookie is left in place and
// 503 is returned.
func (h *Auth) Session(w http.ResponseWriter, r *http.Request) {
	raw := h.readSessionCookie(r)

	res, err := h.issuer.Resume(r.Context(), raw)
	if err != nil {
		h.logger.Error("Auth handler: failed to resume session",
			"error", err.Error())
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: errSessionUnavailable.Error()})
		return
	}

	if res.State != session.Authenticated {
		if raw != "" {
			h.clearSessionCookie(w)
		}
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}

	if res.Refreshed {
		h.setSessionCookie(w, res.Raw, res.Token.ExpiresAt)
	}

	s := h.issuer.Materialize(res.Token, res.Token.ExpiresAt)
	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

func toSessionResponse(s model.Session) sessionResponse {
	return sessionResponse{
		User: sessionUserResponse{
			ID:    s.User.ID,
			Name:  s.User.Name,
			Email: s.User.Email,
			Image: s.User.Image,
		},
		AccessToken: s.AccessToken,
		Expires:     s.Expires.UTC().Format(time.RFC3339Nano),
	}
}

// SignOut revokes the session token and clears the cookie.
func (h *Auth) SignOut(w http.ResponseWriter, r *http.Request) {
	fields, err := formValues(w, r, "callbackUrl")
	if err != nil {
		fields = map[string]string{}
	}

	if err := h.issuer.SignOut(r.Context(), h.readSessionCookie(r)); err != nil {
		h.logger.Error("Auth handler: failed to revoke session",
			"error", err.Error())
	}
	h.clearSessionCookie(w)

	target := fields["callbackUrl"]
	if target == "" {
		target = signOutPage
	}
	finish(w, r, session.ResolveRedirect(target, h.baseURL))
}

type providerResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	SignInURL   string `json:"signinUrl"`
	CallbackURL string `json:"callbackUrl"`
}

var providerDisplayNames = map[string]string{
	model.ProviderCredentials: "Credentials",
	model.ProviderGoogle:      "Google",
}

// Providers lists the enabled sign-in methods.
func (h *Auth) Providers(w http.ResponseWriter, _ *http.Request) {
	api := h.baseURL + "/api/auth"
	out := map[string]providerResponse{
		model.ProviderCredentials: {
			ID:          model.ProviderCredentials,
			Name:        providerDisplayNames[model.ProviderCredentials],
			Type:        "credentials",
			SignInURL:   api + "/signin/" + model.ProviderCredentials,
			CallbackURL: api + "/callback/" + model.ProviderCredentials,
		},
	}

	for _, name := range h.providers.Names() {
		display, ok := providerDisplayNames[name]
		if !ok {
			display = name
		}
		out[name] = providerResponse{
			ID:          name,
			Name:        display,
			Type:        "oauth",
			SignInURL:   api + "/signin/" + name,
			CallbackURL: api + "/callback/" + name,
		}
	}

	writeJSON(w, http.StatusOK, out)
}
