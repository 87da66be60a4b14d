package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/crystul/auth-server/internal/model"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// Google signs users in with their Google account.
type Google struct {
	config      *oauth2.Config
	userInfoURL string
}

var _ Provider = (*Google)(nil)

// NewGoogle returns the Google provider. redirectURL is the callback
// registered with the Google client.
func NewGoogle(clientID, clientSecret, redirectURL string) *Google {
	return &Google{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
		},
		userInfoURL: googleUserInfoURL,
	}
}

// Name returns the provider identifier used by the registry.
func (g *Google) Name() string {
	return model.ProviderGoogle
}

// AuthCodeURL builds the consent URL carrying state and the S256 challenge for verifier.
func (g *Google) AuthCodeURL(state, verifier string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Exchange trades the authorization code for a token and reads the profile.
func (g *Google) Exchange(ctx context.Context, code, verifier string) (model.Assertion, error) {
	tok, err := g.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return model.Assertion{}, fmt.Errorf("failed to exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return model.Assertion{}, fmt.Errorf("failed to build userinfo request: %w", err)
	}

	resp, err := g.config.Client(ctx, tok).Do(req)
	if err != nil {
		return model.Assertion{}, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return model.Assertion{}, fmt.Errorf("failed to fetch userinfo: status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return model.Assertion{}, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if info.Email == "" || !info.EmailVerified {
		return model.Assertion{}, errors.New("google account has no verified email")
	}

	assertion := model.Assertion{
		Provider:    model.ProviderGoogle,
		Subject:     info.Sub,
		Email:       info.Email,
		DisplayName: info.Name,
		AccessToken: tok.AccessToken,
	}
	if info.Picture != "" {
		assertion.AvatarURL = &info.Picture
	}

	return assertion, nil
}
