package handler

import (
	"net/http"

	"github.com/crystul/auth-server/internal/model"
	"github.com/crystul/auth-server/internal/session"
)

// CredentialsCallback signs a user in with email and password.
func (h *Auth) CredentialsCallback(w http.ResponseWriter, r *http.Request) {
	fields, err := formValues(w, r, "email", "password", "callbackUrl")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	handle := h.store.Acquire(r.Context())
	identity, err := h.authService.Authorize(r.Context(), handle, fields["email"], fields["password"])
	if err != nil {
		h.logger.Info("Auth handler: credential sign-in denied")
		if wantsJSON(r) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: model.ErrInvalidCredentials.Error()})
			return
		}
		http.Redirect(w, r, h.errorPage(errorCredentialsSignin), http.StatusFound)
		return
	}

	_, err = h.issue(w, model.Login{
		Identity: *identity,
		Account:  model.Account{Provider: model.ProviderCredentials},
	})
	if err != nil {
		h.logger.Error("Auth handler: failed to issue session",
			"error", err.Error())
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	h.logger.Info("Auth handler: credential sign-in completed",
		"user_id", identity.ID)

	finish(w, r, session.ResolveRedirect(fields["callbackUrl"], h.baseURL))
}
