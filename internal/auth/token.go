// Package auth holds the bearer credential attached to backend calls.
// The storefront never verifies signatures; the backend does.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the fields read from a backend-issued JWT.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	ID     string `json:"id,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Credential is a parsed bearer token.
type Credential struct {
	Token     string
	UserID    string
	Email     string
	ExpiresAt time.Time // zero when the token carries no expiry
}

// Expired reports whether the credential has expired at now.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseToken reads the claims of raw without checking its signature.
// Opaque tokens that are not JWTs are accepted as-is with no expiry.
func ParseToken(raw string) (Credential, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	if raw == "" {
		return Credential{}, ErrMissingToken
	}

	if strings.Count(raw, ".") != 2 {
		return Credential{Token: raw}, nil
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return Credential{}, ErrInvalidToken
	}

	cred := Credential{
		Token:  raw,
		UserID: firstNonEmpty(claims.UserID, claims.ID, claims.Subject),
		Email:  claims.Email,
	}
	if claims.ExpiresAt != nil {
		cred.ExpiresAt = claims.ExpiresAt.Time
	}
	return cred, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
