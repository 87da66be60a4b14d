package service

import (
	"context"
	"errors"

	"github.com/crystul/auth-server/internal/model"
)

// SignIn decides whether an external sign-in may proceed and provisions a
// user record on the first Google sign-in for an email.
func (a *Auth) SignIn(ctx context.Context, handle model.StoreHandle, assertion model.Assertion) model.Decision {
	if assertion.Provider != model.ProviderGoogle {
		return model.Allow
	}

	store, ok := handle.Store()
	if !ok {
		if handle.Reason() == model.ReasonDisabled {
			a.logger.Warn("Auth service: user store disabled, skipping provisioning",
				"email", assertion.Email)
			return model.Allow
		}
		a.logger.Error("Auth service: user store unavailable, denying sign-in",
			"email", assertion.Email,
			"reason", handle.Reason().String(),
			"error", errString(handle.Err()))
		return model.Deny
	}

	email := model.NormalizeEmail(assertion.Email)
	if email == "" {
		a.logger.Warn("Auth service: provider asserted no email",
			"provider", assertion.Provider)
		return model.Deny
	}

	_, err := store.GetByEmail(ctx, email)
	if err == nil {
		a.logger.Debug("Auth service: existing user signed in",
			"email", email,
			"provider", assertion.Provider)
		return model.Allow
	}
	if !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.Deny
	}

	user := model.NewUser(assertion.DisplayName, email, a.now())
	user.Avatar = assertion.AvatarURL

	if _, err := store.Create(ctx, user); err != nil {
		// A concurrent first sign-in for the same email loses here on the
		// unique index and is denied.
		a.logger.Error("Auth service: failed to provision user",
			"email", email,
			"error", err.Error())
		return model.Deny
	}

	a.logger.Info("Auth service: provisioned user on first sign-in",
		"email", email,
		"provider", assertion.Provider)

	return model.Allow
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
