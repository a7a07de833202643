package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"tunebase/internal/cache"
)

const (
	// tokenCacheKey is the fixed key the access token lives under.
	tokenCacheKey = "spotify_access_token"

	// tokenTTLMargin is subtracted from the upstream expires_in to guard
	// against clock skew and requests in flight at expiry time.
	tokenTTLMargin = 60 * time.Second

	// defaultExpiresIn applies when the token response omits expires_in.
	defaultExpiresIn = 3600
)

// Credentials configure the client-credentials grant.
type Credentials struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// complete reports whether all three required values are set.
func (c Credentials) complete() bool {
	return c.TokenURL != "" && c.ClientID != "" && c.ClientSecret != ""
}

// TokenProvider obtains a client-credentials bearer token from the
// Spotify accounts service and keeps it in an expiring cache.
type TokenProvider struct {
	creds      Credentials
	store      cache.Cache
	httpClient *http.Client

	// refreshMu serializes token fetches so concurrent cache misses do
	// not all hit the accounts service. Correctness does not depend on
	// it: a racing put overwrites with an equally valid token.
	refreshMu sync.Mutex
}

// NewTokenProvider creates a TokenProvider storing tokens in store.
func NewTokenProvider(creds Credentials, store cache.Cache) *TokenProvider {
	return &TokenProvider{
		creds: creds,
		store: store,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetAccessToken returns a valid bearer token, serving from the cache
// when possible. A cache hit performs no network I/O. On a miss it
// requires the token endpoint URL, client id, and client secret; absence
// of any is reported as ErrMissingCredentials without a network call.
// Upstream and transport failures come back as *UpstreamError.
func (p *TokenProvider) GetAccessToken(ctx context.Context) (Token, error) {
	if value, err := p.store.Get(ctx, tokenCacheKey); err == nil {
		return Token{Value: value, Cached: true}, nil
	}

	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if value, err := p.store.Get(ctx, tokenCacheKey); err == nil {
		return Token{Value: value, Cached: true}, nil
	}

	if !p.creds.complete() {
		return Token{}, ErrMissingCredentials
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {p.creds.ClientID},
		"client_secret": {p.creds.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.creds.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, networkFailure("token", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Token{}, networkFailure("token", err)
	}
	defer resp.Body.Close()

	return normalize("token", resp, func(body []byte) (Token, error) {
		return p.storeToken(ctx, body)
	})
}

// storeToken extracts the token from a 200 response body and caches it
// with the safety margin applied to its lifetime.
func (p *TokenProvider) storeToken(ctx context.Context, body []byte) (Token, error) {
	payload, err := decodeTokenPayload(body)
	if err != nil {
		return Token{}, networkFailure("token", err)
	}

	expiresIn := payload.ExpiresIn
	if expiresIn == 0 {
		expiresIn = defaultExpiresIn
	}
	ttl := time.Duration(expiresIn)*time.Second - tokenTTLMargin

	if err := p.store.Put(ctx, tokenCacheKey, payload.AccessToken, ttl); err != nil {
		// The token itself is valid; a broken cache only costs a refetch
		// on the next call.
		logrus.WithError(err).Error("Caching Spotify access token")
	}

	return Token{Value: payload.AccessToken}, nil
}

// decodeTokenPayload parses a token response body. A body without an
// access_token counts as a malformed response.
func decodeTokenPayload(body []byte) (tokenPayload, error) {
	var payload tokenPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return tokenPayload{}, fmt.Errorf("parsing token response: %w", err)
	}
	if payload.AccessToken == "" {
		return tokenPayload{}, fmt.Errorf("token response missing access_token")
	}
	return payload, nil
}
