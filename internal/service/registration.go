package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/crystul/auth-server/internal/model"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// RegisterParams contains registration form fields.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

// RegisterResult is the outcome of a successful registration. Demo is set
// when the store is disabled and nothing was written.
type RegisterResult struct {
	User model.User
	Demo bool
}

// Register creates a credential user.
func (a *Auth) Register(ctx context.Context, handle model.StoreHandle, params RegisterParams) (RegisterResult, error) {
	name := strings.TrimSpace(params.Name)
	email := model.NormalizeEmail(params.Email)
	if name == "" || email == "" || params.Password == "" {
		return RegisterResult{}, model.ErrMissingFields
	}
	if len(params.Password) < MinPasswordLength {
		return RegisterResult{}, model.ErrPasswordTooShort
	}

	store, ok := handle.Store()
	if !ok {
		if handle.Reason() == model.ReasonDisabled {
			a.logger.Warn("Auth service: user store disabled, registration not persisted",
				"email", email)
			return RegisterResult{User: model.NewUser(name, email, a.now()), Demo: true}, nil
		}
		return RegisterResult{}, fmt.Errorf("failed to reach user store: %w", handle.Err())
	}

	_, err := store.GetByEmail(ctx, email)
	if err == nil {
		a.logger.Info("Auth service: user already exists",
			"email", email)
		return RegisterResult{}, model.ErrEmailTaken
	}
	if !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return RegisterResult{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	hash, err := a.hasher.Hash(params.Password)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := model.NewUser(name, email, a.now())
	user.PasswordHash = &hash

	saved, err := store.Create(ctx, user)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateEmail) {
			return RegisterResult{}, model.ErrEmailTaken
		}
		a.logger.Error("Auth service: failed to create user",
			"email", email,
			"error", err.Error())
		return RegisterResult{}, fmt.Errorf("failed to create user: %w", err)
	}

	a.logger.Info("Auth service: user registered",
		"user_id", saved.ID)

	return RegisterResult{User: saved}, nil
}
