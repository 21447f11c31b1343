package grist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gridworks-io/grist/internal/constants"
)

const cachedResponseKey = "cached_response"

// CacheInterceptor returns a request and response interceptor pair
// wiring a cache manager into the interceptor chain. The request
// interceptor surfaces a cached body through request metadata, the
// response interceptor stores cacheable responses.
func CacheInterceptor(manager *CacheManager, policy *CachingPolicy) (RequestInterceptor, ResponseInterceptor) {
	if policy == nil {
		policy = DefaultCachingPolicy()
	}

	requestInterceptor := func(ctx context.Context, req *Request) error {
		if req.Method != "GET" || !policy.ShouldCache(req.Method, req.Path, 0) {
			return nil
		}

		key := manager.GetCacheKey(req.Method, req.Path, nil)

		data, err := manager.Get(ctx, key)
		if err != nil {
			return nil
		}

		if req.Metadata == nil {
			req.Metadata = make(map[string]interface{})
		}

		req.Metadata[cachedResponseKey] = data

		return nil
	}

	responseInterceptor := func(ctx context.Context, req *Request, resp *Response) error {
		if resp.Error != nil && !policy.CacheErrors {
			return nil
		}

		if !policy.ShouldCache(req.Method, req.Path, resp.StatusCode) {
			return nil
		}

		key := manager.GetCacheKey(req.Method, req.Path, nil)

		if etag := resp.Headers.Get("ETag"); etag != "" {
			return manager.SetWithETag(ctx, key, resp.Body, etag, constants.DefaultCacheTTL)
		}

		return manager.Set(ctx, key, resp.Body, constants.DefaultCacheTTL)
	}

	return requestInterceptor, responseInterceptor
}

// ConditionalRequestInterceptor adds If-None-Match headers from cached
// validators so the server can answer 304 for unchanged resources.
func ConditionalRequestInterceptor(manager *CacheManager) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Method != "GET" {
			return nil
		}

		key := manager.GetCacheKey(req.Method, req.Path, nil)

		entry, err := manager.GetEntry(ctx, key)
		if err != nil || entry.ETag == "" {
			return nil
		}

		if req.Headers == nil {
			return nil
		}

		req.Headers.Set("If-None-Match", entry.ETag)

		return nil
	}
}

// CacheInvalidationInterceptor drops cached reads made stale by a
// successful mutation: the resource itself and its parent listing.
func CacheInvalidationInterceptor(manager *CacheManager) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		switch req.Method {
		case "GET", "HEAD", "OPTIONS":
			return nil
		}

		if resp.StatusCode >= 300 {
			return nil
		}

		_ = manager.Invalidate(ctx, manager.GetCacheKey("GET", req.Path, nil))

		if idx := strings.LastIndex(req.Path, "/"); idx > 0 {
			parent := req.Path[:idx]
			_ = manager.Invalidate(ctx, manager.GetCacheKey("GET", parent, nil))
		}

		return nil
	}
}

// SmartCacheConfig tunes the full caching setup installed by
// ConfigureSmartCache.
type SmartCacheConfig struct {
	EnableSmartInvalidation   bool
	EnableConditionalRequests bool
	EnableMetrics             bool
	// ResourceTTLs overrides entry lifetime per path fragment. The
	// longest matching fragment wins.
	ResourceTTLs map[string]time.Duration
}

// DefaultSmartCacheConfig enables everything with lifetimes matched to
// how often each resource kind changes. Row data moves fastest, site
// structure slowest.
func DefaultSmartCacheConfig() *SmartCacheConfig {
	return &SmartCacheConfig{
		EnableSmartInvalidation:   true,
		EnableConditionalRequests: true,
		EnableMetrics:             true,
		ResourceTTLs: map[string]time.Duration{
			"/orgs":          10 * time.Minute,
			"/workspaces":    5 * time.Minute,
			"/docs":          5 * time.Minute,
			"/tables":        5 * time.Minute,
			"/columns":       5 * time.Minute,
			"/records":       1 * time.Minute,
			"/scim/v2/Users": 10 * time.Minute,
		},
	}
}

// TTLFor returns the entry lifetime for a path.
func (c *SmartCacheConfig) TTLFor(path string) time.Duration {
	var (
		best    string
		bestTTL time.Duration
	)

	for fragment, ttl := range c.ResourceTTLs {
		if strings.Contains(path, fragment) && len(fragment) > len(best) {
			best = fragment
			bestTTL = ttl
		}
	}

	if best == "" {
		return constants.DefaultCacheTTL
	}

	return bestTTL
}

// ConfigureSmartCache installs the caching interceptors on a chain.
func ConfigureSmartCache(chain *InterceptorChain, manager *CacheManager, config *SmartCacheConfig) {
	if config == nil {
		config = DefaultSmartCacheConfig()
	}

	policy := manager.Policy()

	requestInterceptor, _ := CacheInterceptor(manager, policy)
	chain.AddRequestInterceptor(requestInterceptor)

	// Store with per-resource lifetimes instead of the flat default.
	chain.AddResponseInterceptor(func(ctx context.Context, req *Request, resp *Response) error {
		if resp.Error != nil && !policy.CacheErrors {
			return nil
		}

		if !policy.ShouldCache(req.Method, req.Path, resp.StatusCode) {
			return nil
		}

		key := manager.GetCacheKey(req.Method, req.Path, nil)
		ttl := config.TTLFor(req.Path)

		if etag := resp.Headers.Get("ETag"); etag != "" {
			return manager.SetWithETag(ctx, key, resp.Body, etag, ttl)
		}

		return manager.Set(ctx, key, resp.Body, ttl)
	})

	if config.EnableConditionalRequests {
		chain.AddRequestInterceptor(ConditionalRequestInterceptor(manager))
	}

	if config.EnableSmartInvalidation {
		chain.AddResponseInterceptor(CacheInvalidationInterceptor(manager))
	}

	if config.EnableMetrics {
		collector := NewMetricsCollector()
		chain.AddRequestInterceptor(MetricsRequestInterceptor(collector))
		chain.AddResponseInterceptor(MetricsResponseInterceptor(collector))
	}
}

// CacheWarmer primes the cache by reading resources ahead of use.
type CacheWarmer struct {
	client  Client
	manager *CacheManager
}

// NewCacheWarmer creates a cache warmer.
func NewCacheWarmer(client Client, manager *CacheManager) *CacheWarmer {
	return &CacheWarmer{client: client, manager: manager}
}

// Warm reads the site structure so later lookups hit the cache.
func (w *CacheWarmer) Warm(ctx context.Context) error {
	if w.client == nil {
		return ErrClientRequired
	}

	if _, err := w.client.Orgs().List(ctx); err != nil {
		return fmt.Errorf("warming orgs: %w", err)
	}

	if _, err := w.client.Workspaces().List(ctx, ""); err != nil {
		return fmt.Errorf("warming workspaces: %w", err)
	}

	return nil
}

// WarmDoc reads a document's schema so later lookups hit the cache.
func (w *CacheWarmer) WarmDoc(ctx context.Context, docID string) error {
	if w.client == nil {
		return ErrClientRequired
	}

	tables, err := w.client.Tables().List(ctx, docID)
	if err != nil {
		return fmt.Errorf("warming tables: %w", err)
	}

	for _, table := range tables {
		if _, err := w.client.Columns().List(ctx, docID, table.ID, false); err != nil {
			return fmt.Errorf("warming columns of %s: %w", table.ID, err)
		}
	}

	return nil
}
