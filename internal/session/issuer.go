package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crystul/auth-server/internal/logger"
	"github.com/crystul/auth-server/internal/model"
)

// Issuer turns sign-ins into signed session tokens and tokens back into
// sessions. Tokens are stateless: everything needed to materialize a
// session travels inside the signed payload.
type Issuer struct {
	tokens    model.TokenManager
	denylist  model.Denylist
	maxAge    time.Duration
	updateAge time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

// NewIssuer creates an Issuer. Tokens live for maxAge and are re-signed
// with a fresh expiry once they are older than updateAge.
func NewIssuer(tokens model.TokenManager, denylist model.Denylist, maxAge, updateAge time.Duration, logger *logger.Logger) *Issuer {
	if denylist == nil {
		denylist = NopDenylist{}
	}
	return &Issuer{
		tokens:    tokens,
		denylist:  denylist,
		maxAge:    maxAge,
		updateAge: updateAge,
		logger:    logger,
		now:       time.Now,
	}
}

// Callback computes the next token payload. On a fresh login the payload is
// built from the identity and the provider access token is attached when
// present; on any later call prev is returned unchanged.
func (i *Issuer) Callback(prev model.Token, login *model.Login) model.Token {
	if login == nil {
		return prev
	}

	next := model.Token{
		Subject:  login.Identity.ID,
		Email:    login.Identity.Email,
		Name:     login.Identity.Name,
		Picture:  login.Identity.Avatar,
		Provider: login.Account.Provider,
	}
	if login.Account.AccessToken != "" {
		next.AccessToken = login.Account.AccessToken
	}

	return next
}

// Materialize projects a token into the client-visible session.
func (i *Issuer) Materialize(token model.Token, expires time.Time) model.Session {
	return model.Session{
		User: model.SessionUser{
			ID:    token.Subject,
			Name:  token.Name,
			Email: token.Email,
			Image: token.Picture,
		},
		AccessToken: token.AccessToken,
		Expires:     expires,
	}
}

// ErrNotAuthenticating is returned by Complete for a session that was not
// produced by Admit.
var ErrNotAuthenticating = errors.New("session is not authenticating")

// Admit moves an accepted login from Anonymous to Authenticating. The
// issuance callback runs here, exactly once per fresh login.
func (i *Issuer) Admit(login model.Login) Resumed {
	return Resumed{State: Authenticating, Token: i.Callback(model.Token{}, &login)}
}

// Complete signs an Authenticating session and moves it to Authenticated.
func (i *Issuer) Complete(pending Resumed) (Resumed, error) {
	if pending.State != Authenticating {
		return Resumed{State: pending.State}, ErrNotAuthenticating
	}

	raw, token, err := i.sign(pending.Token)
	if err != nil {
		return Resumed{State: Anonymous}, err
	}

	return Resumed{State: Authenticated, Token: token, Raw: raw}, nil
}

// Resumed is a session at one point of its lifecycle, either read from a
// cookie or moving through sign-in.
type Resumed struct {
	State State
	Token model.Token
	// Raw is the token to set back on the client. It differs from the
	// incoming value only when the token was refreshed.
	Raw       string
	Refreshed bool
}

// Resume validates raw and refreshes it when it is older than the update age.
// Missing, invalid or expired tokens resume as anonymous, revoked ones as
// signed out. A non-nil error means the token could not be checked and the
// state says nothing about it.
func (i *Issuer) Resume(ctx context.Context, raw string) (Resumed, error) {
	if raw == "" {
		return Resumed{State: Anonymous}, nil
	}

	prev, err := i.tokens.Parse(raw)
	if err != nil {
		i.logger.Debug("Session issuer: rejected session token",
			"error", err.Error())
		return Resumed{State: Anonymous}, nil
	}

	revoked, err := i.denylist.IsRevoked(ctx, prev.ID)
	if err != nil {
		return Resumed{State: Anonymous}, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return Resumed{State: SignedOut}, nil
	}

	next := i.Callback(prev, nil)
	if i.now().Sub(prev.IssuedAt) < i.updateAge {
		return Resumed{State: Authenticated, Token: next, Raw: raw}, nil
	}

	// Keep the jti so a later sign-out still revokes the refreshed token.
	next.ID = prev.ID
	refreshed, token, err := i.sign(next)
	if err != nil {
		return Resumed{State: Anonymous}, err
	}
	i.logger.Debug("Session issuer: refreshed session token",
		"subject", token.Subject)

	return Resumed{State: Authenticated, Token: token, Raw: refreshed, Refreshed: true}, nil
}

// SignOut revokes raw until it would have expired. Invalid tokens are
// ignored since they can not authenticate anyway.
func (i *Issuer) SignOut(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}

	token, err := i.tokens.Parse(raw)
	if err != nil {
		if errors.Is(err, model.ErrInvalidToken) {
			return nil
		}
		return fmt.Errorf("failed to parse session token: %w", err)
	}

	if err := i.denylist.Revoke(ctx, token.ID, token.ExpiresAt); err != nil {
		return fmt.Errorf("failed to revoke session token: %w", err)
	}

	i.logger.Info("Session issuer: signed out",
		"subject", token.Subject)

	return nil
}

func (i *Issuer) sign(next model.Token) (string, model.Token, error) {
	now := i.now()
	if next.ID == "" {
		next.ID = uuid.NewString()
	}
	next.IssuedAt = now
	next.ExpiresAt = now.Add(i.maxAge)

	raw, err := i.tokens.Sign(next)
	if err != nil {
		return "", model.Token{}, fmt.Errorf("failed to issue session token: %w", err)
	}

	return raw, next, nil
}

// NopDenylist never revokes anything. Used when Redis is not configured;
// sign-out then relies on clearing the cookie.
type NopDenylist struct{}

// Revoke does nothing.
func (NopDenylist) Revoke(context.Context, string, time.Time) error { return nil }

// IsRevoked always reports false.
func (NopDenylist) IsRevoked(context.Context, string) (bool, error) { return false, nil }
