// Palettize - Listening History Color Palette Engine
// Copyright 2026 Palettize Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/palettize/palettize

// Package catalog implements the HTTP client for the third-party music
// catalog service: per-window top tracks and artists, the listener's saved
// albums, artist album listings, and raw cover image bytes.
//
// All requests flow through a shared outbound rate limiter, an HTTP 429
// retry loop honoring Retry-After, and a circuit breaker that sheds load
// when the catalog is persistently failing.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/palettize/palettize/internal/logging"
	"github.com/palettize/palettize/internal/metrics"
)

// ErrRateLimited is returned once the 429 retry budget is exhausted.
var ErrRateLimited = errors.New("catalog rate limit exceeded")

// Endpoint labels for request metrics. Parameterized paths use a placeholder
// so label cardinality stays bounded.
const (
	endpointTopTracks    = "/v1/me/top/tracks"
	endpointTopArtists   = "/v1/me/top/artists"
	endpointSavedAlbums  = "/v1/me/albums"
	endpointArtistAlbums = "/v1/artists/{id}/albums"
	endpointImage        = "image"
)

// Config controls client behavior. Zero values fall back to the defaults
// noted on each field.
type Config struct {
	BaseURL string
	Token   string

	// Timeout bounds a single HTTP exchange. Default 15s.
	Timeout time.Duration
	// RequestsPerSecond is the outbound budget toward the catalog. Default 8.
	RequestsPerSecond float64
	// Burst is the limiter burst size. Default 4.
	Burst int
	// MaxRetries429 is how many times a rate-limited request is retried
	// before surfacing ErrRateLimited. Default 1.
	MaxRetries429 int
	// RetryBaseDelay seeds the exponential 429 backoff. Default 500ms.
	RetryBaseDelay time.Duration
}

// Client talks to the catalog service. Safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]

	maxRetries429  int
	retryBaseDelay time.Duration
}

// NewClient builds a catalog client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 8
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 4
	}
	if cfg.MaxRetries429 <= 0 {
		cfg.MaxRetries429 = 1
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 500 * time.Millisecond
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "catalog",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("catalog circuit breaker state change")
		},
	})

	return &Client{
		baseURL:        cfg.BaseURL,
		token:          cfg.Token,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker:        breaker,
		maxRetries429:  cfg.MaxRetries429,
		retryBaseDelay: cfg.RetryBaseDelay,
	}
}

// TopTracks returns one page of the listener's most played tracks for the
// window, strongest first.
func (c *Client) TopTracks(ctx context.Context, window Window, limit, offset int) ([]Track, error) {
	q := url.Values{}
	q.Set("time_range", string(window))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var page tracksPage
	if err := c.doJSONRequest(ctx, endpointTopTracks, endpointTopTracks, q, &page); err != nil {
		return nil, fmt.Errorf("top tracks %s: %w", window, err)
	}
	return page.Items, nil
}

// TopArtists returns the listener's most played artists for the window,
// strongest first.
func (c *Client) TopArtists(ctx context.Context, window Window, limit int) ([]Artist, error) {
	q := url.Values{}
	q.Set("time_range", string(window))
	q.Set("limit", strconv.Itoa(limit))

	var page artistsPage
	if err := c.doJSONRequest(ctx, endpointTopArtists, endpointTopArtists, q, &page); err != nil {
		return nil, fmt.Errorf("top artists %s: %w", window, err)
	}
	return page.Items, nil
}

// SavedAlbums returns one page of the listener's saved/library albums.
func (c *Client) SavedAlbums(ctx context.Context, limit, offset int) ([]SavedAlbum, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var page savedAlbumsPage
	if err := c.doJSONRequest(ctx, endpointSavedAlbums, endpointSavedAlbums, q, &page); err != nil {
		return nil, fmt.Errorf("saved albums: %w", err)
	}
	return page.Items, nil
}

// ArtistAlbums returns an artist's album catalog, filtered to full releases
// (albums only, no singles or compilations).
func (c *Client) ArtistAlbums(ctx context.Context, artistID string, limit int) ([]Album, error) {
	q := url.Values{}
	q.Set("include_groups", "album")
	q.Set("limit", strconv.Itoa(limit))

	var page albumsPage
	path := fmt.Sprintf("/v1/artists/%s/albums", url.PathEscape(artistID))
	if err := c.doJSONRequest(ctx, path, endpointArtistAlbums, q, &page); err != nil {
		return nil, fmt.Errorf("artist albums %s: %w", artistID, err)
	}
	return page.Items, nil
}

// FetchImage downloads raw cover image bytes. imageURL is absolute (image
// CDNs live outside the API host), so it bypasses baseURL but still flows
// through the limiter, retry loop, and breaker.
func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create image request: %w", err)
	}
	body, err := c.execute(req, endpointImage)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	return body, nil
}

// doJSONRequest executes a GET against an API path and decodes the JSON body
// into result. endpoint is the fixed metrics label for the path.
func (c *Client) doJSONRequest(ctx context.Context, path, endpoint string, query url.Values, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}

	body, err := c.execute(req, endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// execute runs one request through the rate limiter, the 429 retry loop, and
// the circuit breaker, returning the response body on HTTP 200.
func (c *Client) execute(req *http.Request, endpoint string) ([]byte, error) {
	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doWithRateLimit(req)
	})

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.CatalogRequests.WithLabelValues(endpoint, status).Inc()
	metrics.CatalogRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	return body, err
}

// doWithRateLimit waits for the outbound budget, executes the request, and
// retries HTTP 429 responses with exponential backoff, honoring Retry-After
// when the catalog provides one.
func (c *Client) doWithRateLimit(req *http.Request) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("await rate limiter: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute request: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("read response: %w", err)
			}
			return body, nil
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
		}

		retryDelay := c.retryBaseDelay * (1 << attempt)
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil {
				retryDelay = time.Duration(seconds) * time.Second
			}
		}
		resp.Body.Close()

		if attempt >= c.maxRetries429 {
			return nil, ErrRateLimited
		}

		logging.Warn().
			Dur("retry_delay", retryDelay).
			Int("attempt", attempt+1).
			Str("url", req.URL.Path).
			Msg("catalog rate limited (HTTP 429), retrying")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(retryDelay):
		}
	}
}
