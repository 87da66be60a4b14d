package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/crystul/auth-server/internal/model"
)

// Claims represents the session token payload.
type Claims struct {
	jwt.RegisteredClaims
	Email       string  `json:"email"`
	Name        string  `json:"name"`
	Picture     *string `json:"picture,omitempty"`
	AccessToken string  `json:"accessToken,omitempty"`
	Provider    string  `json:"provider,omitempty"`
}

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey []byte
	issuer    string
}

var _ model.TokenManager = (*JWT)(nil)

// NewJWT creates a token manager signing with secretKey. Tokens carry
// issuer as iss and are rejected on parse when iss differs.
func NewJWT(secretKey, issuer string) *JWT {
	return &JWT{secretKey: []byte(secretKey), issuer: issuer}
}

// Sign encodes t. A missing ID is replaced with a random one.
func (j *JWT) Sign(t model.Token) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.ExpiresAt.IsZero() {
		return "", fmt.Errorf("failed to sign session token: expiry not set")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        t.ID,
			Subject:   t.Subject,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(t.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(t.ExpiresAt),
		},
		Email:       t.Email,
		Name:        t.Name,
		Picture:     t.Picture,
		AccessToken: t.AccessToken,
		Provider:    t.Provider,
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// Parse verifies the signature, issuer and expiry of raw and decodes it.
func (j *JWT) Parse(raw string) (model.Token, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secretKey, nil
	},
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return model.Token{}, fmt.Errorf("%w: %w", model.ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return model.Token{}, model.ErrInvalidToken
	}

	t := model.Token{
		ID:          claims.ID,
		Subject:     claims.Subject,
		Email:       claims.Email,
		Name:        claims.Name,
		Picture:     claims.Picture,
		AccessToken: claims.AccessToken,
		Provider:    claims.Provider,
	}
	if claims.IssuedAt != nil {
		t.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		t.ExpiresAt = claims.ExpiresAt.Time
	}

	return t, nil
}
