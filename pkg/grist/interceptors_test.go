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

func TestInterceptorChain_RequestInterceptors(t *testing.T) {
	chain := grist.NewInterceptorChain()
	ctx := context.Background()

	var executionOrder []string

	// Add multiple interceptors
	chain.AddRequestInterceptor(func(ctx context.Context, req *grist.Request) error {
		executionOrder = append(executionOrder, "first")
		return nil
	})

	chain.AddRequestInterceptor(func(ctx context.Context, req *grist.Request) error {
		executionOrder = append(executionOrder, "second")
		return nil
	})

	req := &grist.Request{
		Method: "GET",
		Path:   "/test",
	}

	err := chain.ExecuteRequestInterceptors(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, executionOrder)
}

func TestInterceptorChain_ResponseInterceptors(t *testing.T) {
	chain := grist.NewInterceptorChain()
	ctx := context.Background()

	var executionOrder []string

	// Add multiple interceptors
	chain.AddResponseInterceptor(func(ctx context.Context, req *grist.Request, resp *grist.Response) error {
		executionOrder = append(executionOrder, "first")
		return nil
	})

	chain.AddResponseInterceptor(func(ctx context.Context, req *grist.Request, resp *grist.Response) error {
		executionOrder = append(executionOrder, "second")
		return nil
	})

	req := &grist.Request{
		Method: "GET",
		Path:   "/test",
	}
	resp := &grist.Response{
		StatusCode: 200,
	}

	err := chain.ExecuteResponseInterceptors(ctx, req, resp)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, executionOrder)
}

func TestHeaderInterceptor(t *testing.T) {
	headers := map[string]string{
		"X-Custom-Header": "custom-value",
		"X-Request-ID":    "123456",
	}

	interceptor := grist.HeaderInterceptor(headers)
	ctx := context.Background()
	req := &grist.Request{
		Method: "GET",
		Path:   "/test",
	}

	err := interceptor(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "custom-value", req.Headers.Get("X-Custom-Header"))
	assert.Equal(t, "123456", req.Headers.Get("X-Request-ID"))
}

func TestMetricsCollector(t *testing.T) {
	collector := grist.NewMetricsCollector()

	var notifiedEndpoint string
	var notifiedMetrics *grist.Metrics

	collector.SetOnChange(func(endpoint string, metrics *grist.Metrics) {
		notifiedEndpoint = endpoint
		notifiedMetrics = metrics
	})

	// Set up interceptors
	requestInterceptor := grist.MetricsRequestInterceptor(collector)
	responseInterceptor := grist.MetricsResponseInterceptor(collector)

	ctx := context.Background()
	req := &grist.Request{
		Method: "GET",
		Path:   "/orgs",
	}

	// Execute request interceptor
	err := requestInterceptor(ctx, req)
	require.NoError(t, err)

	// Simulate some delay
	time.Sleep(10 * time.Millisecond)

	// Execute response interceptor with success
	resp := &grist.Response{
		StatusCode: 200,
	}
	err = responseInterceptor(ctx, req, resp)
	require.NoError(t, err)

	// Check metrics
	assert.Equal(t, "GET /orgs", notifiedEndpoint)
	assert.NotNil(t, notifiedMetrics)
	assert.Equal(t, int64(1), notifiedMetrics.TotalRequests)
	assert.Equal(t, int64(0), notifiedMetrics.TotalErrors)
	assert.True(t, notifiedMetrics.AverageLatency > 0)

	// Execute another request with error
	req2 := &grist.Request{
		Method: "GET",
		Path:   "/orgs",
	}
	resp2 := &grist.Response{
		StatusCode: 500,
	}
	err = responseInterceptor(ctx, req2, resp2)
	require.NoError(t, err)

	// Check updated metrics
	metrics := collector.GetMetrics("GET /orgs")
	assert.Equal(t, int64(2), metrics.TotalRequests)
	assert.Equal(t, int64(1), metrics.TotalErrors)
}

func TestCircuitBreaker(t *testing.T) {
	config := &grist.CircuitBreakerConfig{
		Threshold:        2,
		Timeout:          100 * time.Millisecond,
		SuccessThreshold: 1,
	}
	breaker := grist.NewCircuitBreaker(config)

	requestInterceptor := grist.CircuitBreakerRequestInterceptor(breaker)
	responseInterceptor := grist.CircuitBreakerResponseInterceptor(breaker)

	ctx := context.Background()
	req := &grist.Request{
		Method: "GET",
		Path:   "/test",
	}

	// Circuit should be closed initially
	err := requestInterceptor(ctx, req)
	require.NoError(t, err)

	// Simulate failures
	for i := 0; i < 2; i++ {
		resp := &grist.Response{StatusCode: 500}
		err = responseInterceptor(ctx, req, resp)
		require.NoError(t, err)
	}

	// Circuit should be open now
	err = requestInterceptor(ctx, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")

	// Wait for timeout
	time.Sleep(150 * time.Millisecond)

	// Circuit should be half-open now
	err = requestInterceptor(ctx, req)
	require.NoError(t, err)

	// Simulate success
	resp := &grist.Response{StatusCode: 200}
	err = responseInterceptor(ctx, req, resp)
	require.NoError(t, err)

	// Circuit should be closed again
	err = requestInterceptor(ctx, req)
	require.NoError(t, err)
}

func TestRetryResponseInterceptor(t *testing.T) {
	config := &grist.RetryConfig{
		MaxRetries:   3,
		RetryDelay:   100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		RetryOnCodes: []int{429, 500, 502, 503, 504},
	}

	interceptor := grist.RetryResponseInterceptor(config)
	ctx := context.Background()
	req := &grist.Request{
		Method: "GET",
		Path:   "/test",
	}

	// Test retryable status code
	resp := &grist.Response{
		StatusCode: 500,
		Headers:    make(http.Header),
	}

	err := interceptor(ctx, req, resp)
	require.NoError(t, err)
	assert.Equal(t, "true", resp.Headers.Get("X-Should-Retry"))

	// Test non-retryable status code
	resp2 := &grist.Response{
		StatusCode: 404,
		Headers:    make(http.Header),
	}

	err = interceptor(ctx, req, resp2)
	require.NoError(t, err)
	assert.Equal(t, "", resp2.Headers.Get("X-Should-Retry"))
}

func TestRateLimitInterceptor(t *testing.T) {
	interceptor := grist.RateLimitInterceptor(100)
	ctx := context.Background()
	req := &grist.Request{
		Method: "GET",
		Path:   "/test",
	}

	// The bucket starts full, so a burst passes straight through
	for i := 0; i < 5; i++ {
		err := interceptor(ctx, req)
		require.NoError(t, err)
	}

	// A cancelled context interrupts the wait
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	slow := grist.RateLimitInterceptor(1)
	_ = slow(context.Background(), req)
	err := slow(cancelled, req)
	require.ErrorIs(t, err, context.Canceled)
}
