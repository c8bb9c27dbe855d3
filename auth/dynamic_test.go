package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jwksServer struct {
	*httptest.Server
	key     *rsa.PrivateKey
	kid     string
	fetches atomic.Int32
}

func newJWKSServer(t *testing.T) *jwksServer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	s := &jwksServer{key: key, kid: "key-1"}
	published, err := json.Marshal(jose.JSONWebKey{
		Key:       &key.PublicKey,
		KeyID:     s.kid,
		Algorithm: string(jose.RS256),
		Use:       "sig",
	})
	require.NoError(t, err)

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.fetches.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []interface{}{
				json.RawMessage(`{"kty":"oct","kid":"shared","k":"c2VjcmV0"}`),
				json.RawMessage(`{"kty":"unknown","kid":"odd"}`),
				json.RawMessage(published),
			},
		})
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *jwksServer) sign(t *testing.T, kid string, claims DynamicClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	signed, err := token.SignedString(s.key)
	require.NoError(t, err)
	return signed
}

func validClaims(sub string) DynamicClaims {
	return DynamicClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
}

func TestVerifyValidToken(t *testing.T) {
	srv := newJWKSServer(t)
	v := NewDynamicVerifier(NewKeySet(srv.URL, srv.Client(), 10))

	id, err := v.Verify(context.Background(), "Bearer "+srv.sign(t, srv.kid, validClaims("dyn-1")))
	require.NoError(t, err)
	assert.Equal(t, "dyn-1", id)

	// second verification is served from the key cache
	_, err = v.Verify(context.Background(), srv.sign(t, srv.kid, validClaims("dyn-2")))
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.fetches.Load())
}

func TestVerifyFallsBackToIDClaim(t *testing.T) {
	srv := newJWKSServer(t)
	v := NewDynamicVerifier(NewKeySet(srv.URL, srv.Client(), 10))

	claims := validClaims("")
	claims.LegacyID = "legacy-7"
	id, err := v.Verify(context.Background(), srv.sign(t, srv.kid, claims))
	require.NoError(t, err)
	assert.Equal(t, "legacy-7", id)
}

func TestVerifyRejections(t *testing.T) {
	srv := newJWKSServer(t)
	v := NewDynamicVerifier(NewKeySet(srv.URL, srv.Client(), 10))
	ctx := context.Background()

	_, err := v.Verify(ctx, "")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = v.Verify(ctx, srv.sign(t, "", validClaims("dyn-1")))
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := validClaims("dyn-1")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	_, err = v.Verify(ctx, srv.sign(t, srv.kid, expired))
	assert.ErrorIs(t, err, ErrTokenExpired)

	mfa := validClaims("dyn-1")
	mfa.Scopes = []string{"user", "requiresAdditionalAuth"}
	_, err = v.Verify(ctx, srv.sign(t, srv.kid, mfa))
	assert.ErrorIs(t, err, ErrAdditionalAuthRequired)

	_, err = v.Verify(ctx, srv.sign(t, "unknown-kid", validClaims("dyn-1")))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestKeySetFetchIsRateLimited(t *testing.T) {
	srv := newJWKSServer(t)
	ks := NewKeySet(srv.URL, srv.Client(), 1)

	_, err := ks.Key(context.Background(), "missing-a")
	assert.ErrorIs(t, err, ErrUnknownKey)

	_, err = ks.Key(context.Background(), "missing-b")
	assert.ErrorIs(t, err, ErrKeyFetchLimited)
	assert.Equal(t, int32(1), srv.fetches.Load())
}

func TestKeySetFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewKeySet(srv.URL, srv.Client(), 10).Key(context.Background(), "key-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestKeySetSkipsUnusableKeys(t *testing.T) {
	srv := newJWKSServer(t)
	ks := NewKeySet(srv.URL, srv.Client(), 10)

	key, err := ks.Key(context.Background(), srv.kid)
	require.NoError(t, err)
	assert.Zero(t, srv.key.PublicKey.N.Cmp(key.N))
	assert.Equal(t, srv.key.PublicKey.E, key.E)

	_, err = ks.Key(context.Background(), "shared")
	assert.ErrorIs(t, err, ErrUnknownKey)
}
