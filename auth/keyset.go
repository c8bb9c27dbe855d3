package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"inflection-rewards/metrics"
)

var (
	ErrUnknownKey      = errors.New("signing key not found in key set")
	ErrKeyFetchLimited = errors.New("key set fetch rate limit reached")
)

const (
	keyCacheSize = 5
	keyCacheTTL  = 10 * time.Minute
)

// KeySet resolves RSA signing keys by kid from a remote JWKS document.
// Keys are cached; a miss triggers a fetch, and fetches are rate limited.
type KeySet struct {
	url     string
	client  *http.Client
	cache   *expirable.LRU[string, *rsa.PublicKey]
	limiter *rate.Limiter
}

func NewKeySet(url string, client *http.Client, fetchesPerMinute int) *KeySet {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if fetchesPerMinute <= 0 {
		fetchesPerMinute = 10
	}
	return &KeySet{
		url:     url,
		client:  client,
		cache:   expirable.NewLRU[string, *rsa.PublicKey](keyCacheSize, nil, keyCacheTTL),
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(fetchesPerMinute)), fetchesPerMinute),
	}
}

func (k *KeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := k.cache.Get(kid); ok {
		return key, nil
	}
	if !k.limiter.Allow() {
		metrics.JWKSFetch("rate_limited")
		return nil, ErrKeyFetchLimited
	}

	keys, err := k.fetch(ctx)
	if err != nil {
		metrics.JWKSFetch("error")
		return nil, err
	}
	metrics.JWKSFetch("ok")

	for id, key := range keys {
		k.cache.Add(id, key)
	}
	key, ok := keys[kid]
	if !ok {
		return nil, fmt.Errorf("%w: kid %q", ErrUnknownKey, kid)
	}
	return key, nil
}

func (k *KeySet) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := k.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch key set: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch key set: unexpected status %d", resp.StatusCode)
	}

	// decoded one key at a time so an unsupported entry does not poison the set
	var doc struct {
		Keys []json.RawMessage `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode key set: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, raw := range doc.Keys {
		var jwk jose.JSONWebKey
		if err := jwk.UnmarshalJSON(raw); err != nil {
			continue
		}
		if jwk.KeyID == "" || (jwk.Use != "" && jwk.Use != "sig") || !jwk.Valid() {
			continue
		}
		pub, ok := jwk.Key.(*rsa.PublicKey)
		if !ok {
			continue
		}
		keys[jwk.KeyID] = pub
	}
	return keys, nil
}
