package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken           = errors.New("missing identity token")
	ErrMissingKeyID           = errors.New("token header has no kid")
	ErrAdditionalAuthRequired = errors.New("token requires additional authentication")
)

const scopeRequiresAdditionalAuth = "requiresAdditionalAuth"

// DynamicClaims are the claims of an identity token issued by Dynamic.
type DynamicClaims struct {
	jwt.RegisteredClaims
	LegacyID string   `json:"id,omitempty"`
	Email    string   `json:"email,omitempty"`
	Scopes   []string `json:"scopes,omitempty"`
}

// DynamicVerifier checks third-party identity tokens against the provider's
// published RSA keys.
type DynamicVerifier struct {
	keys *KeySet
}

func NewDynamicVerifier(keys *KeySet) *DynamicVerifier {
	return &DynamicVerifier{keys: keys}
}

// Verify returns the provider's user id for a valid token. raw may carry a
// "Bearer " prefix.
func (v *DynamicVerifier) Verify(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return "", ErrMissingToken
	}

	claims := &DynamicClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrMissingKeyID
		}
		return v.keys.Key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	if slices.Contains(claims.Scopes, scopeRequiresAdditionalAuth) {
		return "", ErrAdditionalAuthRequired
	}

	id := claims.Subject
	if id == "" {
		id = claims.LegacyID
	}
	if id == "" {
		return "", fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return id, nil
}
