package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crystul/auth-server/internal/mocks"
	"github.com/crystul/auth-server/internal/model"
	"github.com/crystul/auth-server/internal/testutil"
	"github.com/crystul/auth-server/internal/token"
)

const (
	testMaxAge    = 30 * 24 * time.Hour
	testUpdateAge = 24 * time.Hour
)

func newTestIssuer(t *testing.T, denylist model.Denylist) (*Issuer, *token.JWT) {
	t.Helper()
	codec := token.NewJWT("test-secret", "https://app.example.com")
	return NewIssuer(codec, denylist, testMaxAge, testUpdateAge, testutil.MakeNoopLogger()), codec
}

func googleLogin() model.Login {
	avatar := "https://cdn.example.com/ada.png"
	return model.Login{
		Identity: model.Identity{ID: "u-1", Email: "ada@example.com", Name: "Ada", Avatar: &avatar},
		Account:  model.Account{Provider: model.ProviderGoogle, AccessToken: "ya29.abc"},
	}
}

func issue(i *Issuer, login model.Login) (string, model.Token, error) {
	res, err := i.Complete(i.Admit(login))
	return res.Raw, res.Token, err
}

func TestIssuer_AdmitAndComplete(t *testing.T) {
	i, _ := newTestIssuer(t, nil)

	pending := i.Admit(googleLogin())
	assert.Equal(t, Authenticating, pending.State)
	assert.Empty(t, pending.Raw)
	assert.Equal(t, "ya29.abc", pending.Token.AccessToken)

	done, err := i.Complete(pending)
	require.NoError(t, err)
	assert.Equal(t, Authenticated, done.State)
	assert.NotEmpty(t, done.Raw)
	assert.NotEmpty(t, done.Token.ID)

	_, err = i.Complete(done)
	assert.ErrorIs(t, err, ErrNotAuthenticating)
	_, err = i.Complete(Resumed{State: Anonymous})
	assert.ErrorIs(t, err, ErrNotAuthenticating)
}

func TestIssuer_Callback(t *testing.T) {
	i, _ := newTestIssuer(t, nil)

	t.Run("fresh login attaches access token", func(t *testing.T) {
		login := googleLogin()
		got := i.Callback(model.Token{}, &login)
		assert.Equal(t, "u-1", got.Subject)
		assert.Equal(t, "ada@example.com", got.Email)
		assert.Equal(t, "ya29.abc", got.AccessToken)
		assert.Equal(t, model.ProviderGoogle, got.Provider)
		assert.Equal(t, login.Identity.Avatar, got.Picture)
	})

	t.Run("fresh credential login has no access token", func(t *testing.T) {
		login := model.Login{
			Identity: model.Identity{ID: "u-2", Email: "b@example.com", Name: "B"},
			Account:  model.Account{Provider: model.ProviderCredentials},
		}
		got := i.Callback(model.Token{AccessToken: "stale"}, &login)
		assert.Empty(t, got.AccessToken)
	})

	t.Run("subsequent calls pass through", func(t *testing.T) {
		login := googleLogin()
		first := i.Callback(model.Token{}, &login)
		next := first
		for n := 0; n < 5; n++ {
			next = i.Callback(next, nil)
		}
		assert.Equal(t, first, next)
	})
}

func TestIssuer_Materialize(t *testing.T) {
	i, _ := newTestIssuer(t, nil)
	expires := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	login := googleLogin()
	tok := i.Callback(model.Token{}, &login)

	got := i.Materialize(tok, expires)
	assert.Equal(t, model.Session{
		User: model.SessionUser{
			ID:    "u-1",
			Name:  "Ada",
			Email: "ada@example.com",
			Image: login.Identity.Avatar,
		},
		AccessToken: "ya29.abc",
		Expires:     expires,
	}, got)
	assert.Equal(t, got, i.Materialize(tok, expires))

	tok.AccessToken = ""
	assert.Empty(t, i.Materialize(tok, expires).AccessToken)
}

func TestIssuer_IssueAndResume(t *testing.T) {
	denylist := mocks.NewDenylist(t)
	i, _ := newTestIssuer(t, denylist)

	raw, issued, err := issue(i, googleLogin())
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)
	assert.WithinDuration(t, time.Now().Add(testMaxAge), issued.ExpiresAt, time.Minute)

	denylist.On("IsRevoked", mock.Anything, issued.ID).Return(false, nil)

	res, err := i.Resume(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, Authenticated, res.State)
	assert.False(t, res.Refreshed)
	assert.Equal(t, raw, res.Raw)
	assert.Equal(t, "ya29.abc", res.Token.AccessToken)
	assert.Equal(t, issued.ID, res.Token.ID)
}

func TestIssuer_Resume_RefreshesOldToken(t *testing.T) {
	denylist := mocks.NewDenylist(t)
	i, codec := newTestIssuer(t, denylist)

	now := time.Now().Truncate(time.Second)
	old := model.Token{
		ID:          "jti-old",
		Subject:     "u-1",
		Email:       "ada@example.com",
		Name:        "Ada",
		AccessToken: "ya29.abc",
		Provider:    model.ProviderGoogle,
		IssuedAt:    now.Add(-48 * time.Hour),
		ExpiresAt:   now.Add(time.Hour),
	}
	raw, err := codec.Sign(old)
	require.NoError(t, err)

	denylist.On("IsRevoked", mock.Anything, "jti-old").Return(false, nil)

	res, err := i.Resume(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, Authenticated, res.State)
	assert.True(t, res.Refreshed)
	assert.NotEqual(t, raw, res.Raw)
	assert.Equal(t, "jti-old", res.Token.ID)
	assert.Equal(t, "ya29.abc", res.Token.AccessToken)
	assert.True(t, res.Token.ExpiresAt.After(old.ExpiresAt))

	parsed, err := codec.Parse(res.Raw)
	require.NoError(t, err)
	assert.Equal(t, "u-1", parsed.Subject)
}

func TestIssuer_Resume_Anonymous(t *testing.T) {
	i, codec := newTestIssuer(t, nil)
	foreign := token.NewJWT("other-secret", "https://app.example.com")
	raw, err := foreign.Sign(model.Token{Subject: "u-1", IssuedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	expired, err := codec.Sign(model.Token{Subject: "u-1", IssuedAt: time.Now().Add(-2 * time.Hour), ExpiresAt: time.Now().Add(-time.Hour)})
	require.NoError(t, err)

	for name, in := range map[string]string{"empty": "", "foreign": raw, "expired": expired, "garbage": "abc"} {
		t.Run(name, func(t *testing.T) {
			res, err := i.Resume(context.Background(), in)
			require.NoError(t, err)
			assert.Equal(t, Anonymous, res.State)
			assert.True(t, res.Token.Empty())
		})
	}
}

func TestIssuer_Resume_Revoked(t *testing.T) {
	denylist := mocks.NewDenylist(t)
	i, _ := newTestIssuer(t, denylist)
	raw, issued, err := issue(i, googleLogin())
	require.NoError(t, err)

	denylist.On("IsRevoked", mock.Anything, issued.ID).Return(true, nil)

	res, err := i.Resume(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, SignedOut, res.State)
	assert.True(t, res.Token.Empty())
}

func TestIssuer_Resume_DenylistError(t *testing.T) {
	denylist := mocks.NewDenylist(t)
	i, _ := newTestIssuer(t, denylist)
	raw, issued, err := issue(i, googleLogin())
	require.NoError(t, err)

	denylist.On("IsRevoked", mock.Anything, issued.ID).Return(false, errors.New("redis down"))

	res, err := i.Resume(context.Background(), raw)
	require.Error(t, err)
	assert.Equal(t, Anonymous, res.State)
}

func TestIssuer_SignOut(t *testing.T) {
	denylist := mocks.NewDenylist(t)
	i, _ := newTestIssuer(t, denylist)
	raw, issued, err := issue(i, googleLogin())
	require.NoError(t, err)

	denylist.On("Revoke", mock.Anything, issued.ID, mock.MatchedBy(func(until time.Time) bool {
		return until.Equal(issued.ExpiresAt.Truncate(time.Second))
	})).Return(nil).Once()

	require.NoError(t, i.SignOut(context.Background(), raw))
	require.NoError(t, i.SignOut(context.Background(), "not-a-token"))
	require.NoError(t, i.SignOut(context.Background(), ""))
}

func TestIssuer_SignOut_RevokeError(t *testing.T) {
	denylist := mocks.NewDenylist(t)
	i, _ := newTestIssuer(t, denylist)
	raw, _, err := issue(i, googleLogin())
	require.NoError(t, err)

	denylist.On("Revoke", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	require.Error(t, i.SignOut(context.Background(), raw))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "anonymous", Anonymous.String())
	assert.Equal(t, "authenticating", Authenticating.String())
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "signed_out", SignedOut.String())
}
