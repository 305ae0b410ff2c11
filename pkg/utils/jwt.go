package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail signature or claim checks
var ErrInvalidToken = errors.New("invalid token")

// AuthClaims are the claims carried by access tokens of the hosted auth
// provider. DonorID is a custom claim present for restaurant accounts.
type AuthClaims struct {
	Email   string `json:"email"`
	Role    string `json:"role"`
	DonorID string `json:"donor_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenValidator validates HS256 tokens signed with the provider's shared secret.
// It never issues tokens; sessions belong to the provider.
type TokenValidator struct {
	secretKey []byte
	leeway    time.Duration
}

// NewTokenValidator creates a validator for the given shared secret
func NewTokenValidator(secret string) *TokenValidator {
	return &TokenValidator{
		secretKey: []byte(secret),
		leeway:    30 * time.Second,
	}
}

// Validate parses the token and returns its claims
func (v *TokenValidator) Validate(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secretKey, nil
	}, jwt.WithLeeway(v.leeway), jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// SignToken signs claims with the shared secret. Used by tooling and tests
// that need to impersonate the provider.
func SignToken(secret string, claims *AuthClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
