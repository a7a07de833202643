// Package spotify fetches catalog data from the Spotify Web API using a
// cached client-credentials bearer token.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"tunebase/internal/cache"
)

const (
	artistEndpoint = "https://api.spotify.com/v1/artists/"
	albumEndpoint  = "https://api.spotify.com/v1/albums/"
)

// Client issues authenticated read calls against the Spotify catalog.
// It reads the bearer token from the shared cache and does not fetch one
// itself: a missing token surfaces as ErrTokenExpired so the caller can
// re-acquire via the token endpoint first.
type Client struct {
	store      cache.Cache
	httpClient *http.Client
	limiter    *rate.Limiter

	artistURL string
	albumURL  string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURLs overrides the artist and album resource bases, primarily
// for tests.
func WithBaseURLs(artistURL, albumURL string) ClientOption {
	return func(c *Client) {
		c.artistURL = artistURL
		c.albumURL = albumURL
	}
}

// WithRateLimit caps outgoing catalog requests per second.
func WithRateLimit(rps int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), 1)
	}
}

// NewClient creates a catalog client reading tokens from store.
func NewClient(store cache.Cache, opts ...ClientOption) *Client {
	c := &Client{
		store: store,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter:   rate.NewLimiter(rate.Inf, 1),
		artistURL: artistEndpoint,
		albumURL:  albumEndpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetArtist fetches an artist by its Spotify ID.
func (c *Client) GetArtist(ctx context.Context, artistID string) (*Artist, error) {
	resp, err := c.get(ctx, "artist", c.artistURL+artistID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return normalize("artist", resp, func(data []byte) (*Artist, error) {
		var payload artistPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, networkFailure("artist", fmt.Errorf("parsing artist response: %w", err))
		}
		return payload.toArtist(), nil
	})
}

// GetAlbum fetches an album by its Spotify ID.
func (c *Client) GetAlbum(ctx context.Context, albumID string) (*Album, error) {
	resp, err := c.get(ctx, "album", c.albumURL+albumID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return normalize("album", resp, func(data []byte) (*Album, error) {
		var payload albumPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, networkFailure("album", fmt.Errorf("parsing album response: %w", err))
		}
		return payload.toAlbum(), nil
	})
}

// get issues a bearer-authenticated GET and returns the response for
// normalization. It fails with ErrTokenExpired when no token is cached.
func (c *Client) get(ctx context.Context, op, reqURL string) (*http.Response, error) {
	token, err := c.store.Get(ctx, tokenCacheKey)
	if err != nil {
		return nil, ErrTokenExpired
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, networkFailure(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, networkFailure(op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, networkFailure(op, err)
	}
	return resp, nil
}
