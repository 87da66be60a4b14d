package service

import (
	"context"
	"errors"

	"github.com/crystul/auth-server/internal/model"
)

const (
	demoUserID   = "demo-user"
	demoUserName = "Demo User"
)

// Authorize checks an email/password pair. Every denial returns
// ErrInvalidCredentials regardless of its cause.
//
// When the store is unavailable any non-empty pair is accepted and a demo
// identity carrying the submitted email is returned.
func (a *Auth) Authorize(ctx context.Context, handle model.StoreHandle, email, password string) (*model.Identity, error) {
	if email == "" || password == "" {
		return nil, model.ErrInvalidCredentials
	}

	store, ok := handle.Store()
	if !ok && !handle.Degraded() {
		a.logger.Warn("Auth service: user store acquisition canceled, denying credentials",
			"email", email,
			"error", errString(handle.Err()))
		return nil, model.ErrInvalidCredentials
	}
	if !ok {
		a.logger.Warn("Auth service: user store unavailable, accepting demo credentials",
			"email", email,
			"reason", handle.Reason().String())
		return &model.Identity{
			ID:    demoUserID,
			Email: email,
			Name:  demoUserName,
		}, nil
	}

	user, err := store.GetByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			a.logger.Error("Auth service: failed to get user by email",
				"email", email,
				"error", err.Error())
		}
		return nil, model.ErrInvalidCredentials
	}

	if !user.HasPassword() {
		a.logger.Debug("Auth service: user has no password credential",
			"email", email)
		return nil, model.ErrInvalidCredentials
	}

	if !a.hasher.Verify(*user.PasswordHash, password) {
		a.logger.Debug("Auth service: password mismatch",
			"email", email)
		return nil, model.ErrInvalidCredentials
	}

	identity := model.IdentityFromUser(user)
	a.logger.Info("Auth service: credentials accepted",
		"user_id", identity.ID)

	return &identity, nil
}
