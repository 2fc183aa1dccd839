package registry

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/hoister/pkg/cache"
	"github.com/matzehuels/hoister/pkg/errors"
	"github.com/matzehuels/hoister/pkg/httputil"
	"github.com/matzehuels/hoister/pkg/observability"
)

const httpTimeout = 30 * time.Second

// ClientOptions configures a [Client].
type ClientOptions struct {
	HTTP    *http.Client      // default: 30s timeout
	Cache   cache.Cache       // default: cache.NullCache
	Keyer   cache.Keyer       // default: cache.DefaultKeyer
	TTL     time.Duration     // default: cache.DefaultTTL
	Retry   httputil.Policy   // default: httputil.DefaultPolicy
	Headers map[string]string // sent with every request
}

// WithDefaults returns a copy of ClientOptions with zero values replaced by defaults.
func (o ClientOptions) WithDefaults() ClientOptions {
	opts := o
	if opts.HTTP == nil {
		opts.HTTP = &http.Client{Timeout: httpTimeout}
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.TTL == 0 {
		opts.TTL = cache.DefaultTTL
	}
	if opts.Retry.Attempts == 0 {
		opts.Retry = httputil.DefaultPolicy
	}
	return opts
}

// Client performs cached, retried JSON GETs against a registry.
type Client struct {
	opts ClientOptions
}

// NewClient creates a Client.
func NewClient(opts ClientOptions) *Client {
	return &Client{opts: opts.WithDefaults()}
}

// Keys returns the keyer used for cache entries.
func (c *Client) Keys() cache.Keyer { return c.opts.Keyer }

// Lookup decodes the cached value for key into v. Undecodable entries count
// as misses. kind labels the entry for the cache hooks.
func (c *Client) Lookup(ctx context.Context, key, kind string, v any) bool {
	data, ok, err := c.opts.Cache.Get(ctx, key)
	if err != nil || !ok || json.Unmarshal(data, v) != nil {
		observability.Cache().OnCacheMiss(ctx, kind)
		return false
	}
	observability.Cache().OnCacheHit(ctx, kind)
	return true
}

// Store encodes v under key. Cache write failures are not reported; the
// value is still valid for the caller.
func (c *Client) Store(ctx context.Context, key, kind string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if c.opts.Cache.Set(ctx, key, data, c.opts.TTL) == nil {
		observability.Cache().OnCacheSet(ctx, kind, len(data))
	}
}

// Cached fills v from cache, or runs fetch under the retry policy and caches
// the result. refresh skips the lookup but still stores.
func (c *Client) Cached(ctx context.Context, key, kind string, refresh bool, v any, fetch func() error) error {
	if !refresh && c.Lookup(ctx, key, kind, v) {
		return nil
	}
	if err := httputil.Retry(ctx, c.opts.Retry, fetch); err != nil {
		return err
	}
	c.Store(ctx, key, kind, v)
	return nil
}

// Get GETs rawURL and decodes the JSON body into v. Failures are coded:
// transport errors and 5xx are retryable NETWORK_ERRORs, 404 is
// PACKAGE_NOT_FOUND.
func (c *Client) Get(ctx context.Context, rawURL string, v any) error {
	body, err := c.do(ctx, rawURL)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "decode %s", rawURL)
	}
	return nil
}

func (c *Client) do(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.opts.Headers {
		req.Header.Set(k, v)
	}

	host, path := hostPath(rawURL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)

	start := time.Now()
	resp, err := c.opts.HTTP.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		code := errors.ErrCodeNetwork
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			code = errors.ErrCodeTimeout
		}
		return nil, httputil.Retryable(errors.Wrap(code, err, "GET %s", rawURL))
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := httputil.CheckStatus(resp.StatusCode, rawURL); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func hostPath(rawURL string) (string, string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", rawURL
	}
	return u.Host, u.EscapedPath()
}

