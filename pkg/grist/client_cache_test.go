package grist_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gridworks-io/grist/pkg/grist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheInterceptor(t *testing.T) {
	t.Parallel()
	// Create cache manager
	cache := grist.NewMemoryCache(100)
	manager := grist.NewCacheManager(cache, nil)
	policy := grist.DefaultCachingPolicy()

	// Create interceptors
	reqInterceptor, respInterceptor := grist.CacheInterceptor(manager, policy)

	ctx := context.Background()

	// Test GET request caching
	req := &grist.Request{
		Method: "GET",
		Path:   "/orgs",
	}

	// First request, nothing cached yet
	err := reqInterceptor(ctx, req)
	require.NoError(t, err)
	assert.NotContains(t, req.Metadata, "cached_response")

	// Simulate response
	resp := &grist.Response{
		StatusCode: 200,
		Headers:    make(http.Header),
		Body:       []byte(`[{"id": 1, "name": "Team"}]`),
	}

	// Response interceptor should cache it
	err = respInterceptor(ctx, req, resp)
	require.NoError(t, err)

	// Second request finds the cached body
	req2 := &grist.Request{
		Method: "GET",
		Path:   "/orgs",
	}

	err = reqInterceptor(ctx, req2)
	require.NoError(t, err)
	assert.Equal(t, resp.Body, req2.Metadata["cached_response"])

	// POST requests bypass the cache
	postReq := &grist.Request{
		Method: "POST",
		Path:   "/orgs",
	}

	err = reqInterceptor(ctx, postReq)
	require.NoError(t, err)
	assert.NotContains(t, postReq.Metadata, "cached_response")
}

func TestConditionalRequestInterceptor(t *testing.T) {
	t.Parallel()
	// Create cache manager with an entry that has an ETag
	cache := grist.NewMemoryCache(100)
	manager := grist.NewCacheManager(cache, nil)

	ctx := context.Background()

	// Store an entry with ETag
	cacheKey := manager.GetCacheKey("GET", "/docs/abc123", nil)
	err := manager.SetWithETag(ctx, cacheKey, []byte("data"), "abc123", 1*time.Hour)
	require.NoError(t, err)

	// Create interceptor
	interceptor := grist.ConditionalRequestInterceptor(manager)

	// Test GET request
	req := &grist.Request{
		Method:  "GET",
		Path:    "/docs/abc123",
		Headers: make(http.Header),
	}

	err = interceptor(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "abc123", req.Headers.Get("If-None-Match"))

	// Test non-GET request
	postReq := &grist.Request{
		Method:  "POST",
		Path:    "/docs/abc123",
		Headers: make(http.Header),
	}

	err = interceptor(ctx, postReq)
	require.NoError(t, err)
	assert.Empty(t, postReq.Headers.Get("If-None-Match"))
}

func TestCacheInvalidationInterceptor(t *testing.T) {
	t.Parallel()
	// Create cache manager
	cache := grist.NewMemoryCache(100)
	manager := grist.NewCacheManager(cache, nil)

	ctx := context.Background()

	// Store cached reads for a doc and the docs listing of its workspace
	docKey := manager.GetCacheKey("GET", "/docs/abc123", nil)
	err := manager.Set(ctx, docKey, []byte("doc data"), 1*time.Hour)
	require.NoError(t, err)

	listKey := manager.GetCacheKey("GET", "/docs", nil)
	err = manager.Set(ctx, listKey, []byte("docs list"), 1*time.Hour)
	require.NoError(t, err)

	// Create interceptor
	interceptor := grist.CacheInvalidationInterceptor(manager)

	// A successful mutation drops the resource and its parent listing
	req := &grist.Request{
		Method: "PATCH",
		Path:   "/docs/abc123",
	}
	resp := &grist.Response{
		StatusCode: 200,
	}

	err = interceptor(ctx, req, resp)
	require.NoError(t, err)
	assert.False(t, cache.Has(ctx, docKey))
	assert.False(t, cache.Has(ctx, listKey))

	// A failed mutation leaves the cache alone
	otherKey := manager.GetCacheKey("GET", "/docs/def456", nil)
	err = manager.Set(ctx, otherKey, []byte("other doc"), 1*time.Hour)
	require.NoError(t, err)

	req2 := &grist.Request{
		Method: "DELETE",
		Path:   "/docs/def456",
	}
	resp2 := &grist.Response{
		StatusCode: 404,
	}

	err = interceptor(ctx, req2, resp2)
	require.NoError(t, err)
	assert.True(t, cache.Has(ctx, otherKey))
}

func TestSmartCacheConfig(t *testing.T) {
	t.Parallel()

	config := grist.DefaultSmartCacheConfig()
	assert.True(t, config.EnableSmartInvalidation)
	assert.True(t, config.EnableConditionalRequests)
	assert.True(t, config.EnableMetrics)
	assert.NotEmpty(t, config.ResourceTTLs)
	assert.Equal(t, 10*time.Minute, config.ResourceTTLs["/orgs"])

	// Row data expires fastest, even though its path also names tables
	assert.Equal(t, 1*time.Minute, config.TTLFor("/docs/abc/tables/People/records"))
	assert.Equal(t, 5*time.Minute, config.TTLFor("/docs/abc/tables"))
	assert.Equal(t, 10*time.Minute, config.TTLFor("/orgs/42"))
}

func TestConfigureSmartCache(t *testing.T) {
	t.Parallel()
	// Create components
	chain := grist.NewInterceptorChain()
	cache := grist.NewMemoryCache(100)
	manager := grist.NewCacheManager(cache, nil)
	config := grist.DefaultSmartCacheConfig()

	// Configure smart cache
	grist.ConfigureSmartCache(chain, manager, config)

	ctx := context.Background()
	req := &grist.Request{
		Method:  "GET",
		Path:    "/orgs",
		Headers: make(http.Header),
	}

	err := chain.ExecuteRequestInterceptors(ctx, req)
	require.NoError(t, err)

	// A stored response flows back through the request side
	resp := &grist.Response{
		StatusCode: 200,
		Headers:    make(http.Header),
		Body:       []byte(`[{"id": 1}]`),
	}

	err = chain.ExecuteResponseInterceptors(ctx, req, resp)
	require.NoError(t, err)

	req2 := &grist.Request{
		Method:  "GET",
		Path:    "/orgs",
		Headers: make(http.Header),
	}

	err = chain.ExecuteRequestInterceptors(ctx, req2)
	require.NoError(t, err)
	assert.Equal(t, resp.Body, req2.Metadata["cached_response"])
}

func TestCacheWarmer(t *testing.T) {
	t.Parallel()

	// Create cache manager
	cache := grist.NewMemoryCache(100)
	manager := grist.NewCacheManager(cache, nil)

	// Creation works without a client, warming does not
	warmer := grist.NewCacheWarmer(nil, manager)
	assert.NotNil(t, warmer)

	err := warmer.Warm(context.Background())
	require.ErrorIs(t, err, grist.ErrClientRequired)
}

func TestCachingPolicy_ShouldCacheExtended(t *testing.T) {
	t.Parallel()

	policy := grist.DefaultCachingPolicy()

	// Test GET request
	assert.True(t, policy.ShouldCache("GET", "/orgs", 200))
	assert.True(t, policy.ShouldCache("GET", "/docs/abc/tables", 200))

	// Test POST request (should not cache by default)
	assert.False(t, policy.ShouldCache("POST", "/orgs", 201))

	// Test error response (should not cache by default)
	assert.False(t, policy.ShouldCache("GET", "/orgs", 500))

	// Test excluded paths
	assert.False(t, policy.ShouldCache("GET", "/docs/abc/sql", 200))
	assert.False(t, policy.ShouldCache("GET", "/docs/abc/download", 200))

	// Test with included paths
	policy.IncludePaths = []string{"/orgs"}
	assert.True(t, policy.ShouldCache("GET", "/orgs", 200))
	assert.False(t, policy.ShouldCache("GET", "/docs/abc/tables", 200))
}
