package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/marco/cinepick/internal/catalog/cache"
	"github.com/marco/cinepick/internal/retry"
)

const (
	tmdbAPIBaseURL   = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	maxBodyBytes     = 8 << 20
)

// RetryLogFunc is a callback for logging retry attempts
type RetryLogFunc func(attempt int, maxAttempts int, backoff time.Duration, err error)

// CacheLogFunc is a callback for logging cache operations
type CacheLogFunc func(operation string, key string, hit bool)

// Caller performs a catalog action and returns the raw JSON body.
type Caller interface {
	Call(ctx context.Context, action Action, params Params) (json.RawMessage, error)
}

// Client talks to the TMDB API directly.
type Client struct {
	apiKey         string
	language       string
	baseURL        string
	httpClient     *http.Client
	limiter        *rate.Limiter
	maxAttempts    int
	initialBackoff time.Duration
	retryLogFunc   RetryLogFunc
	cache          cache.Cache
	cacheTTL       time.Duration
	cacheLogFunc   CacheLogFunc
}

// ClientConfig holds configuration for the TMDB client
type ClientConfig struct {
	APIKey             string
	Language           string
	BaseURL            string
	RateLimitPerSecond float64
	MaxAttempts        int
	InitialBackoffMs   int
	RequestTimeout     time.Duration
	RetryLogFunc       RetryLogFunc
	Cache              cache.Cache
	CacheTTL           time.Duration
	CacheLogFunc       CacheLogFunc
	HTTPClient         *http.Client
}

// NewClient creates a TMDB client with default retry settings.
func NewClient(apiKey string, language string) *Client {
	return NewClientWithConfig(ClientConfig{
		APIKey:   apiKey,
		Language: language,
	})
}

// NewClientWithConfig creates a new TMDB API client with full configuration
func NewClientWithConfig(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = tmdbAPIBaseURL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoffMs <= 0 {
		cfg.InitialBackoffMs = 1000
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	var limiter *rate.Limiter
	if cfg.RateLimitPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), 1)
	}
	return &Client{
		apiKey:         cfg.APIKey,
		language:       cfg.Language,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:     httpClient,
		limiter:        limiter,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: time.Duration(cfg.InitialBackoffMs) * time.Millisecond,
		retryLogFunc:   cfg.RetryLogFunc,
		cache:          cfg.Cache,
		cacheTTL:       cfg.CacheTTL,
		cacheLogFunc:   cfg.CacheLogFunc,
	}
}

// Call performs an action against TMDB and returns the response body as is.
// Successful responses are cached by path and query.
func (c *Client) Call(ctx context.Context, action Action, params Params) (json.RawMessage, error) {
	path, query, err := endpoint(action, params)
	if err != nil {
		return nil, err
	}
	if c.language != "" {
		query.Set("language", c.language)
	}

	cacheKey := "tmdb:" + path + "?" + query.Encode()
	if cachedData, found := c.getFromCache(cacheKey); found {
		return cachedData, nil
	}

	query.Set("api_key", c.apiKey)
	body, err := c.doRequestWithRetry(ctx, c.baseURL+path+"?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", action, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("failed to decode %s response: invalid JSON", action)
	}

	c.setToCache(cacheKey, body)
	return body, nil
}

// doRequestWithRetry executes an HTTP GET request with retry logic and
// returns the body of a 200 response.
func (c *Client) doRequestWithRetry(ctx context.Context, requestURL string) ([]byte, error) {
	var body []byte
	attempt := 0

	err := retry.Retry(ctx, func() error {
		attempt++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, reqErr := c.httpClient.Do(req)
		if reqErr != nil {
			c.logRetry(attempt, reqErr)
			return reqErr
		}
		defer resp.Body.Close()

		data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if resp.StatusCode != http.StatusOK {
			statusErr := &StatusError{Source: "TMDB", Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
			c.logRetry(attempt, statusErr)
			return statusErr
		}
		if readErr != nil {
			return fmt.Errorf("failed to read response: %w", readErr)
		}
		body = data
		return nil
	}, c.maxAttempts, c.initialBackoff)

	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) logRetry(attempt int, err error) {
	if c.retryLogFunc == nil || attempt >= c.maxAttempts {
		return
	}
	if !retry.IsRetryable(err) && !retry.IsRateLimited(err) {
		return
	}
	c.retryLogFunc(attempt, c.maxAttempts, retry.Backoff(c.initialBackoff, attempt, err), err)
}

// getFromCache retrieves data from cache if available
func (c *Client) getFromCache(key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	data, found := c.cache.Get(key)
	if c.cacheLogFunc != nil {
		c.cacheLogFunc("get", key, found)
	}
	return data, found
}

// setToCache stores data in cache if caching is enabled
func (c *Client) setToCache(key string, data []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(key, data, c.cacheTTL); err != nil {
		// Log error but don't fail the operation
		if c.cacheLogFunc != nil {
			c.cacheLogFunc("set_error", key, false)
		}
	} else if c.cacheLogFunc != nil {
		c.cacheLogFunc("set", key, true)
	}
}

// ImageURL builds an image URL for a poster or backdrop path. Empty paths
// yield an empty URL.
func ImageURL(path string, size string) string {
	if path == "" {
		return ""
	}
	if size == "" {
		size = "w500"
	}
	return fmt.Sprintf("%s/%s%s", tmdbImageBaseURL, size, path)
}
