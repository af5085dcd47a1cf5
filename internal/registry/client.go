package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	dErrors "veritas/pkg/domain-errors"
)

// DefaultCacheTTL bounds how long a registry answer may be served from
// cache. Model registrations change rarely; deregistrations tolerate a
// short stale window.
const DefaultCacheTTL = 5 * time.Minute

const cacheKeyPrefix = "veritas:registry:model:"

// Client resolves models against the external model registry over HTTP.
// Answers are cached in Redis and concurrent lookups for the same model
// are collapsed into a single upstream call.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *redis.Client
	ttl     time.Duration
	group   singleflight.Group
	logger  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCache enables Redis-backed answer caching with the given TTL.
func WithCache(cache *redis.Client, ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.cache = cache
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.http = client }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient builds a registry client against the given base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		ttl:     DefaultCacheTTL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveModel reports whether the model is registered. Both positive and
// negative answers are cached; a cache outage degrades to direct lookups.
func (c *Client) ResolveModel(ctx context.Context, modelID string) (bool, error) {
	if exists, ok := c.cachedAnswer(ctx, modelID); ok {
		return exists, nil
	}

	v, err, _ := c.group.Do(modelID, func() (any, error) {
		exists, err := c.lookup(ctx, modelID)
		if err != nil {
			return false, err
		}
		c.storeAnswer(ctx, modelID, exists)
		return exists, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (c *Client) cachedAnswer(ctx context.Context, modelID string) (exists, ok bool) {
	if c.cache == nil {
		return false, false
	}
	v, err := c.cache.Get(ctx, cacheKeyPrefix+modelID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "registry cache read failed", "model_id", modelID, "error", err)
		}
		return false, false
	}
	return v == "1", true
}

func (c *Client) storeAnswer(ctx context.Context, modelID string, exists bool) {
	if c.cache == nil {
		return
	}
	value := "0"
	if exists {
		value = "1"
	}
	if err := c.cache.Set(ctx, cacheKeyPrefix+modelID, value, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "registry cache write failed", "model_id", modelID, "error", err)
	}
}

func (c *Client) lookup(ctx context.Context, modelID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/v1/models/%s", c.baseURL, url.PathEscape(modelID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "build registry request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "call model registry")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, dErrors.Newf(dErrors.CodeInternal, "model registry returned status %d", resp.StatusCode)
	}
}
