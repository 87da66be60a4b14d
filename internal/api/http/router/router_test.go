package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crystul/auth-server/internal/api/http/handler"
	"github.com/crystul/auth-server/internal/mocks"
	"github.com/crystul/auth-server/internal/model"
	"github.com/crystul/auth-server/internal/provider"
	"github.com/crystul/auth-server/internal/service"
	"github.com/crystul/auth-server/internal/session"
	"github.com/crystul/auth-server/internal/testutil"
	"github.com/crystul/auth-server/internal/token"
)

const (
	baseURL    = "http://localhost:3000"
	cookieName = "crystul.session-token"
)

type fakeStore struct {
	handle model.StoreHandle
}

func (f fakeStore) Acquire(context.Context) model.StoreHandle { return f.handle }

func newTestHandler(t *testing.T, handle model.StoreHandle, providers ...provider.Provider) http.Handler {
	t.Helper()
	return newTestHandlerWithDenylist(t, handle, nil, providers...)
}

func newTestHandlerWithDenylist(t *testing.T, handle model.StoreHandle, denylist model.Denylist, providers ...provider.Provider) http.Handler {
	t.Helper()
	log := testutil.MakeNoopLogger()
	authService := service.NewAuth(service.NewBcrypt(4), log)
	issuer := session.NewIssuer(token.NewJWT("test-secret", baseURL), denylist, 720*time.Hour, 24*time.Hour, log)
	handshakes := scs.New()
	registry := provider.NewRegistry(providers...)

	h := handler.NewAuth(authService, fakeStore{handle: handle}, issuer, registry, handshakes, baseURL, log)
	return New(h, handshakes, log).Register()
}

func serve(h http.Handler, req *http.Request, cookies ...*http.Cookie) *http.Response {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Result()
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postJSON(path string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func storedUser(t *testing.T, password string) model.User {
	t.Helper()
	hash, err := service.NewBcrypt(4).Hash(password)
	require.NoError(t, err)
	return model.User{ID: "u-1", Name: "Ada", Email: "ada@example.com", PasswordHash: &hash}
}

func googleProvider(t *testing.T) *mocks.Provider {
	t.Helper()
	p := mocks.NewProvider(t)
	p.On("Name").Return(model.ProviderGoogle)
	return p
}

func TestProviders(t *testing.T) {
	t.Run("credentials only", func(t *testing.T) {
		h := newTestHandler(t, model.Unavailable(model.ReasonDisabled, nil))
		body := decode(t, serve(h, httptest.NewRequest(http.MethodGet, "/api/auth/providers", nil)))
		assert.Contains(t, body, "credentials")
		assert.NotContains(t, body, "google")
	})

	t.Run("with google", func(t *testing.T) {
		h := newTestHandler(t, model.Unavailable(model.ReasonDisabled, nil), googleProvider(t))
		body := decode(t, serve(h, httptest.NewRequest(http.MethodGet, "/api/auth/providers", nil)))
		require.Contains(t, body, "google")
		google := body["google"].(map[string]any)
		assert.Equal(t, "oauth", google["type"])
		assert.Equal(t, baseURL+"/api/auth/signin/google", google["signinUrl"])
	})
}

func TestCredentials_SignInAndSession(t *testing.T) {
	store := mocks.NewUserStore(t)
	store.On("GetByEmail", mock.Anything, "ada@example.com").Return(storedUser(t, "secret1"), nil)
	h := newTestHandler(t, model.Connected(store))

	resp := serve(h, postForm("/api/auth/callback/credentials", url.Values{
		"email":       {"Ada@Example.com"},
		"password":    {"secret1"},
		"callbackUrl": {"/dashboard"},
	}))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, baseURL+"/dashboard", resp.Header.Get("Location"))

	cookie := findCookie(resp, cookieName)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)

	body := decode(t, serve(h, httptest.NewRequest(http.MethodGet, "/api/auth/session", nil), cookie))
	user := body["user"].(map[string]any)
	assert.Equal(t, "u-1", user["id"])
	assert.Equal(t, "ada@example.com", user["email"])
	assert.Equal(t, "Ada", user["name"])
	assert.Nil(t, user["image"])
	assert.NotContains(t, body, "accessToken")
	assert.NotEmpty(t, body["expires"])
}

func TestCredentials_Denied(t *testing.T) {
	store := mocks.NewUserStore(t)
	store.On("GetByEmail", mock.Anything, "ada@example.com").Return(storedUser(t, "secret1"), nil)
	store.On("GetByEmail", mock.Anything, "ghost@example.com").Return(model.User{}, model.ErrNotFound)
	h := newTestHandler(t, model.Connected(store))

	t.Run("form redirects to sign-in page", func(t *testing.T) {
		resp := serve(h, postForm("/api/auth/callback/credentials", url.Values{
			"email":    {"ada@example.com"},
			"password": {"wrong-password"},
		}))
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, baseURL+"/auth/login?error=CredentialsSignin", resp.Header.Get("Location"))
		assert.Nil(t, findCookie(resp, cookieName))
	})

	t.Run("json gets the same message for every cause", func(t *testing.T) {
		wrong := serve(h, postJSON("/api/auth/callback/credentials", map[string]string{
			"email": "ada@example.com", "password": "wrong-password",
		}))
		unknown := serve(h, postJSON("/api/auth/callback/credentials", map[string]string{
			"email": "ghost@example.com", "password": "secret1",
		}))

		assert.Equal(t, http.StatusUnauthorized, wrong.StatusCode)
		assert.Equal(t, http.StatusUnauthorized, unknown.StatusCode)
		assert.Equal(t, decode(t, wrong), decode(t, unknown))
	})
}

func TestCredentials_DemoMode(t *testing.T) {
	h := newTestHandler(t, model.Unavailable(model.ReasonDisabled, nil))

	resp := serve(h, postJSON("/api/auth/callback/credentials", map[string]string{
		"email": "visitor@example.com", "password": "anything", "callbackUrl": "https://evil.example.org/",
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, baseURL, decode(t, resp)["url"])

	cookie := findCookie(resp, cookieName)
	require.NotNil(t, cookie)

	body := decode(t, serve(h, httptest.NewRequest(http.MethodGet, "/api/auth/session", nil), cookie))
	user := body["user"].(map[string]any)
	assert.Equal(t, "demo-user", user["id"])
	assert.Equal(t, "Demo User", user["name"])
	assert.Equal(t, "visitor@example.com", user["email"])
}

func TestSession_Anonymous(t *testing.T) {
	h := newTestHandler(t, model.Unavailable(model.ReasonDisabled, nil))

	resp := serve(h, httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))
	assert.Empty(t, decode(t, resp))
	assert.Nil(t, findCookie(resp, cookieName))

	resp = serve(h, httptest.NewRequest(http.MethodGet, "/api/auth/session", nil), &http.Cookie{Name: cookieName, Value: "garbage"})
	assert.Empty(t, decode(t, resp))
	cleared := findCookie(resp, cookieName)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestSession_DenylistDownKeepsCookie(t *testing.T) {
	denylist := mocks.NewDenylist(t)
	denylist.On("IsRevoked", mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	h := newTestHandlerWithDenylist(t, model.Unavailable(model.ReasonDisabled, nil), denylist)

	signIn := serve(h, postForm("/api/auth/callback/credentials", url.Values{
		"email": {"visitor@example.com"}, "password": {"x"},
	}))
	cookie := findCookie(signIn, cookieName)
	require.NotNil(t, cookie)

	resp := serve(h, httptest.NewRequest(http.MethodGet, "/api/auth/session", nil), cookie)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Nil(t, findCookie(resp, cookieName))
	assert.Equal(t, "session check unavailable", decode(t, resp)["error"])
}

func TestSignOut(t *testing.T) {
	h := newTestHandler(t, model.Unavailable(model.ReasonDisabled, nil))
	signIn := serve(h, postForm("/api/auth/callback/credentials", url.Values{
		"email": {"visitor@example.com"}, "password": {"x"},
	}))
	cookie := findCookie(signIn, cookieName)
	require.NotNil(t, cookie)

	resp := serve(h, postForm("/api/auth/signout", url.Values{}), cookie)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, baseURL+"/", resp.Header.Get("Location"))
	cleared := findCookie(resp, cookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	resp = serve(h, postJSON("/api/auth/signout", map[string]string{"callbackUrl": baseURL + "/bye"}), cookie)
	assert.Equal(t, baseURL+"/bye", decode(t, resp)["url"])
}

func startGoogle(t *testing.T, h http.Handler, p *mocks.Provider, callbackURL string) (state, verifier string, handshake []*http.Cookie) {
	t.Helper()
	p.On("AuthCodeURL", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			state = args.String(0)
			verifier = args.String(1)
		}).
		Return("https://accounts.google.com/o/oauth2/auth?client_id=x").Once()

	path := "/api/auth/signin/google"
	if callbackURL != "" {
		path += "?callbackUrl=" + url.QueryEscape(callbackURL)
	}
	resp := serve(h, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://accounts.google.com/o/oauth2/auth?client_id=x", resp.Header.Get("Location"))
	require.NotEmpty(t, state)
	require.NotEmpty(t, verifier)

	return state, verifier, resp.Cookies()
}

func TestOAuth_ProvisionsAndSignsIn(t *testing.T) {
	store := mocks.NewUserStore(t)
	p := googleProvider(t)
	h := newTestHandler(t, model.Connected(store), p)

	state, verifier, handshake := startGoogle(t, h, p, "/matches")

	avatar := "https://lh3.googleusercontent.com/a/photo"
	p.On("Exchange", mock.Anything, "the-code", verifier).Return(model.Assertion{
		Provider:    model.ProviderGoogle,
		Subject:     "1099",
		Email:       "new@example.com",
		DisplayName: "New Founder",
		AvatarURL:   &avatar,
		AccessToken: "ya29.access",
	}, nil).Once()
	store.On("GetByEmail", mock.Anything, "new@example.com").Return(model.User{}, model.ErrNotFound).Once()
	store.On("Create", mock.Anything, mock.Anything).Return(model.User{ID: "u-9"}, nil).Once()

	resp := serve(h, httptest.NewRequest(http.MethodGet,
		"/api/auth/callback/google?state="+url.QueryEscape(state)+"&code=the-code", nil), handshake...)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, baseURL+"/matches", resp.Header.Get("Location"))

	cookie := findCookie(resp, cookieName)
	require.NotNil(t, cookie)

	body := decode(t, serve(h, httptest.NewRequest(http.MethodGet, "/api/auth/session", nil), cookie))
	assert.Equal(t, "ya29.access", body["accessToken"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "new@example.com", user["email"])
	assert.Equal(t, avatar, user["image"])
}

func TestOAuth_DeniedWhenStoreUnreachable(t *testing.T) {
	p := googleProvider(t)
	h := newTestHandler(t, model.Unavailable(model.ReasonUnreachable, errors.New("refused")), p)

	state, verifier, handshake := startGoogle(t, h, p, "")
	p.On("Exchange", mock.Anything, "the-code", verifier).
		Return(model.Assertion{Provider: model.ProviderGoogle, Email: "new@example.com"}, nil).Once()

	resp := serve(h, httptest.NewRequest(http.MethodGet,
		"/api/auth/callback/google?state="+url.QueryEscape(state)+"&code=the-code", nil), handshake...)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, baseURL+"/auth/login?error=AccessDenied", resp.Header.Get("Location"))
	assert.Nil(t, findCookie(resp, cookieName))
}

func TestOAuth_StateMismatch(t *testing.T) {
	p := googleProvider(t)
	h := newTestHandler(t, model.Unavailable(model.ReasonDisabled, nil), p)

	_, _, handshake := startGoogle(t, h, p, "")

	resp := serve(h, httptest.NewRequest(http.MethodGet,
		"/api/auth/callback/google?state=forged&code=the-code", nil), handshake...)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, baseURL+"/auth/login?error=OAuthCallback", resp.Header.Get("Location"))
	p.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything, mock.Anything)
}

func TestOAuth_UnknownProvider(t *testing.T) {
	h := newTestHandler(t, model.Unavailable(model.ReasonDisabled, nil))
	resp := serve(h, httptest.NewRequest(http.MethodGet, "/api/auth/signin/github", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRegister(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		store := mocks.NewUserStore(t)
		store.On("GetByEmail", mock.Anything, "ada@example.com").Return(model.User{}, model.ErrNotFound)
		store.On("Create", mock.Anything, mock.Anything).Return(model.User{ID: "u-1", Name: "Ada", Email: "ada@example.com"}, nil)
		h := newTestHandler(t, model.Connected(store))

		resp := serve(h, postJSON("/api/auth/register", map[string]string{
			"name": "Ada", "email": "ada@example.com", "password": "secret1",
		}))
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decode(t, resp)
		assert.Equal(t, "Account created successfully", body["message"])
	})

	t.Run("demo mode", func(t *testing.T) {
		h := newTestHandler(t, model.Unavailable(model.ReasonDisabled, nil))
		resp := serve(h, postJSON("/api/auth/register", map[string]string{
			"name": "Ada", "email": "ada@example.com", "password": "secret1",
		}))
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "Account created successfully (demo mode)", decode(t, resp)["message"])
	})

	t.Run("validation", func(t *testing.T) {
		h := newTestHandler(t, model.Unavailable(model.ReasonDisabled, nil))
		resp := serve(h, postJSON("/api/auth/register", map[string]string{
			"name": "Ada", "email": "ada@example.com", "password": "123",
		}))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, model.ErrPasswordTooShort.Error(), decode(t, resp)["error"])

		resp = serve(h, postJSON("/api/auth/register", map[string]string{"email": "ada@example.com"}))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, model.ErrMissingFields.Error(), decode(t, resp)["error"])
	})

	t.Run("email taken", func(t *testing.T) {
		store := mocks.NewUserStore(t)
		store.On("GetByEmail", mock.Anything, "ada@example.com").Return(model.User{ID: "u-1"}, nil)
		h := newTestHandler(t, model.Connected(store))

		resp := serve(h, postJSON("/api/auth/register", map[string]string{
			"name": "Ada", "email": "ada@example.com", "password": "secret1",
		}))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, model.ErrEmailTaken.Error(), decode(t, resp)["error"])
	})

	t.Run("malformed body", func(t *testing.T) {
		h := newTestHandler(t, model.Unavailable(model.ReasonDisabled, nil))
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		assert.Equal(t, http.StatusBadRequest, serve(h, req).StatusCode)
	})
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, model.Unavailable(model.ReasonDisabled, nil))
	body := decode(t, serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil)))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "disabled", body["store"])
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, model.Unavailable(model.ReasonDisabled, nil))
	resp := serve(h, httptest.NewRequest(http.MethodGet, "/api/auth/signout", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
