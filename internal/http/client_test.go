package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gristhttp "github.com/gridworks-io/grist/internal/http"
	"github.com/gridworks-io/grist/pkg/grist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockTokenManager for testing.
type MockTokenManager struct {
	token string
	err   error
}

func (m *MockTokenManager) GetToken(ctx context.Context) (string, error) {
	return m.token, m.err
}

// MockLogger for testing.
type MockLogger struct {
	logs []map[string]interface{}
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "debug", "msg": msg, "fields": fields})
}

func (l *MockLogger) Info(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "info", "msg": msg, "fields": fields})
}

func (l *MockLogger) Warn(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "warn", "msg": msg, "fields": fields})
}

func (l *MockLogger) Error(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "error", "msg": msg, "fields": fields})
}

// testConfigurator builds a configuration aimed at a test server. The
// config file points into an empty temp dir so a developer's own
// ~/.gristapi/config.json cannot leak in.
func testConfigurator(t *testing.T, home string, extra map[string]string) *grist.Configurator {
	t.Helper()

	overrides := map[string]string{
		grist.KeyAPIKey:          "test-key-123456",
		grist.KeySelfManaged:     "Y",
		grist.KeySelfManagedHome: home,
		grist.KeyRaiseError:      "Y",
		grist.KeySafeMode:        "N",
	}

	for key, value := range extra {
		overrides[key] = value
	}

	configurator, err := grist.NewConfigurator(overrides,
		grist.WithConfigFile(filepath.Join(t.TempDir(), "absent.json")))
	require.NoError(t, err)

	return configurator
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()
	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api/orgs", request.URL.Path)
			assert.Equal(t, "GET", request.Method)
			assert.Equal(t, "Bearer test-key-123456", request.Header.Get("Authorization"))
			assert.Equal(t, "application/json", request.Header.Get("Accept"))

			response := []map[string]interface{}{{"id": 42, "name": "Test Team"}}
			_ = json.NewEncoder(writer).Encode(response)
		}))
		defer server.Close()

		tokenManager := &MockTokenManager{token: "test-key-123456"}
		client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), tokenManager)

		req := &gristhttp.Request{
			Method: "GET",
			Path:   "/orgs",
		}

		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var result []map[string]interface{}

		err = json.Unmarshal(resp.Body, &result)
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, "Test Team", result[0]["name"])
	})

	t.Run("request with query parameters", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api/docs/doc1/tables/People/records", request.URL.Path)
			assert.Equal(t, "limit=5", request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil)

		req := &gristhttp.Request{
			Method: "GET",
			Path:   "/docs/doc1/tables/People/records",
			Query:  url.Values{"limit": []string{"5"}},
		}

		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("request with body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "POST", request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			var body map[string]string

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, "Staff", body["name"])

			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil)

		req := &gristhttp.Request{
			Method: "POST",
			Path:   "/workspaces",
			Body:   map[string]string{"name": "Staff"},
		}

		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("error response raises by default", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"error": "document not found"}`))
		}))
		defer server.Close()

		client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil)

		resp, err := client.Get(context.Background(), "/docs/missing", nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, 404, resp.StatusCode)

		var statusErr *grist.StatusError

		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, 404, statusErr.StatusCode)
		assert.Contains(t, string(statusErr.Payload), "document not found")

		// The record keeps the error payload too
		assert.Contains(t, client.Record().RespBody, "document not found")
	})

	t.Run("error response suppressed by configuration", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"error": "document not found"}`))
		}))
		defer server.Close()

		configurator := testConfigurator(t, server.URL, map[string]string{grist.KeyRaiseError: "N"})
		client := gristhttp.NewClient(configurator, nil)

		resp, err := client.Get(context.Background(), "/docs/missing", nil)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
		assert.Contains(t, string(resp.Body), "document not found")
		assert.Contains(t, client.Record().RespBody, "document not found")
	})

	t.Run("raise policy can change between calls", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		configurator := testConfigurator(t, server.URL, nil)
		client := gristhttp.NewClient(configurator, nil)

		_, err := client.Get(context.Background(), "/orgs", nil)
		require.Error(t, err)

		_, err = configurator.Patch(map[string]string{grist.KeyRaiseError: "N"})
		require.NoError(t, err)

		resp, err := client.Get(context.Background(), "/orgs", nil)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})

	t.Run("custom headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "manualSort", request.Header.Get("X-Sort"))
			assert.Equal(t, "100", request.Header.Get("X-Limit"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil)

		req := &gristhttp.Request{
			Method: "GET",
			Path:   "/docs/doc1/tables/People/records",
			Headers: map[string]string{
				"X-Sort":  "manualSort",
				"X-Limit": "100",
			},
		}

		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("token manager failure stops the call", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			t.Error("request should never reach the server")
		}))
		defer server.Close()

		tokenManager := &MockTokenManager{err: errors.New("keyring locked")}
		client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), tokenManager)

		_, err := client.Get(context.Background(), "/orgs", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting API key")
		assert.Equal(t, 0, client.Calls())
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(writer).Encode(map[string]string{"result": "ok"})
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil,
			gristhttp.WithLogger(logger), gristhttp.WithDebug(true))

		_, err := client.Get(context.Background(), "/orgs", nil)
		require.NoError(t, err)

		// Should have logged request and response
		assert.Len(t, logger.logs, 2)
		assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
		assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])
	})
}

func TestClient_Methods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		fn     func(*gristhttp.Client, context.Context) (*gristhttp.Response, error)
	}{
		{
			name:   "GET",
			method: "GET",
			fn: func(c *gristhttp.Client, ctx context.Context) (*gristhttp.Response, error) {
				return c.Get(ctx, "/test", nil)
			},
		},
		{
			name:   "POST",
			method: "POST",
			fn: func(c *gristhttp.Client, ctx context.Context) (*gristhttp.Response, error) {
				return c.Post(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PUT",
			method: "PUT",
			fn: func(c *gristhttp.Client, ctx context.Context) (*gristhttp.Response, error) {
				return c.Put(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PATCH",
			method: "PATCH",
			fn: func(c *gristhttp.Client, ctx context.Context) (*gristhttp.Response, error) {
				return c.Patch(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "DELETE",
			method: "DELETE",
			fn: func(c *gristhttp.Client, ctx context.Context) (*gristhttp.Response, error) {
				return c.Delete(ctx, "/test")
			},
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.method, request.Method)
				assert.Equal(t, "/api/test", request.URL.Path)
				writer.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil)
			resp, err := testCase.fn(client, context.Background())
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		})
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()
	t.Run("no retries by default", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil)

		resp, err := client.Get(context.Background(), "/test", nil)
		require.Error(t, err)
		assert.Equal(t, 500, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("retries on 5xx errors when configured", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 3 {
				writer.WriteHeader(http.StatusInternalServerError)
			} else {
				writer.WriteHeader(http.StatusOK)
			}
		}))
		defer server.Close()

		client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil,
			gristhttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("retries on rate limiting", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 2 {
				writer.WriteHeader(http.StatusTooManyRequests)
			} else {
				writer.WriteHeader(http.StatusOK)
			}
		}))
		defer server.Close()

		client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil,
			gristhttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(2), attempts.Load())
	})

	t.Run("does not retry on client errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil,
			gristhttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.Error(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load()) // Should not retry
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_DryRun(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		hits.Add(1)
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil)
	client.SetDryRun(true)
	assert.True(t, client.DryRun())

	resp, err := client.Post(context.Background(), "/docs/doc1/tables/People/records",
		map[string]interface{}{"records": []interface{}{}})
	require.NoError(t, err)
	assert.Equal(t, 418, resp.StatusCode)
	assert.JSONEq(t, `{"warning": "dry run, request not sent"}`, string(resp.Body))
	assert.Equal(t, int32(0), hits.Load())

	// The record shows the request that would have gone out
	record := client.Record()
	assert.Equal(t, grist.StateFakedResponse, record.State)
	assert.Equal(t, "POST", record.Method)
	assert.Contains(t, record.URL, "/docs/doc1/tables/People/records")
	assert.Equal(t, 418, record.StatusCode)
	assert.False(t, record.ResponseStale)
	assert.Equal(t, 1, client.Calls())

	// Back to real calls
	client.SetDryRun(false)

	resp, err = client.Get(context.Background(), "/orgs", nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 2, client.Calls())
}

func TestClient_SafeMode(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		hits.Add(1)
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte(`[]`))
	}))
	defer server.Close()

	configurator := testConfigurator(t, server.URL, map[string]string{
		grist.KeySafeMode:   "Y",
		grist.KeyRaiseError: "N",
	})
	client := gristhttp.NewClient(configurator, nil)

	// Writes are blocked no matter the raise policy
	resp, err := client.Post(context.Background(), "/workspaces", map[string]string{"name": "W"})
	require.ErrorIs(t, err, grist.ErrWriteBlocked)
	assert.Nil(t, resp)
	assert.Equal(t, int32(0), hits.Load())

	// The record looks like a dry run
	record := client.Record()
	assert.Equal(t, grist.StateFakedResponse, record.State)
	assert.Equal(t, 418, record.StatusCode)

	// Reads pass through
	resp, err = client.Get(context.Background(), "/orgs", nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_TransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"id": "doc1"}`))
	}))

	client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil)

	_, err := client.Get(context.Background(), "/docs/doc1", nil)
	require.NoError(t, err)

	// Kill the server, then call again
	server.Close()

	_, err = client.Get(context.Background(), "/docs/doc2", nil)
	require.Error(t, err)

	var transportErr *grist.TransportError

	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "GET", transportErr.Verb)

	// The request half is fresh, the response half is the stale
	// leftover of the previous call
	record := client.Record()
	assert.Equal(t, grist.StateTransportFailed, record.State)
	assert.Contains(t, record.URL, "/docs/doc2")
	assert.True(t, record.ResponseStale)
	assert.Equal(t, 200, record.StatusCode)
	assert.Contains(t, record.RespBody, "doc1")
}

func TestClient_RecordTruncation(t *testing.T) {
	t.Parallel()

	payload := `{"data": "` + strings.Repeat("x", 100) + `"}`

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(payload))
	}))
	defer server.Close()

	client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil,
		gristhttp.WithMaxSavedContent(10))

	resp, err := client.Get(context.Background(), "/docs/doc1", nil)
	require.NoError(t, err)

	// The caller gets the whole payload, the record keeps the cap
	assert.Equal(t, payload, string(resp.Body))
	assert.Equal(t, payload[:10], client.Record().RespBody)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_BinaryResponses(t *testing.T) {
	t.Parallel()

	payload := []byte{0x50, 0x4b, 0x03, 0x04, 0xff, 0x00, 0x01}

	newServer := func() *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Content-Type", "application/zip")
			_, _ = writer.Write(payload)
		}))
	}

	t.Run("download streams to the sink", func(t *testing.T) {
		t.Parallel()

		server := newServer()
		defer server.Close()

		client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil)

		var sink bytes.Buffer

		resp, err := client.Download(context.Background(), "/docs/doc1/download", nil, &sink)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, payload, sink.Bytes())
		assert.Empty(t, resp.Body)

		// Binary payloads stay off the record unless opted in
		record := client.Record()
		assert.True(t, record.BinaryBody)
		assert.Empty(t, record.RespBody)
		assert.Equal(t, "null", record.ResponseAsJSON())
	})

	t.Run("download retains payload when asked to", func(t *testing.T) {
		t.Parallel()

		server := newServer()
		defer server.Close()

		client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil,
			gristhttp.WithSaveBinary(true))

		var sink bytes.Buffer

		_, err := client.Download(context.Background(), "/docs/doc1/download", nil, &sink)
		require.NoError(t, err)
		assert.Equal(t, payload, sink.Bytes())

		record := client.Record()
		assert.True(t, record.BinaryBody)
		assert.Equal(t, string(payload), record.RespBody)
	})

	t.Run("binary body without a sink", func(t *testing.T) {
		t.Parallel()

		server := newServer()
		defer server.Close()

		client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil)

		resp, err := client.Get(context.Background(), "/docs/doc1/download", nil)
		require.NoError(t, err)
		assert.Equal(t, payload, resp.Body)

		record := client.Record()
		assert.True(t, record.BinaryBody)
		assert.Empty(t, record.RespBody)
	})

	t.Run("error status bypasses the sink", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"error": "no such doc"}`))
		}))
		defer server.Close()

		client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil)

		var sink bytes.Buffer

		resp, err := client.Download(context.Background(), "/docs/missing/download", nil, &sink)
		require.Error(t, err)
		assert.Equal(t, 404, resp.StatusCode)
		assert.Zero(t, sink.Len())
		assert.Contains(t, client.Record().RespBody, "no such doc")
	})
}

func TestClient_Upload(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		require.NoError(t, request.ParseMultipartForm(1<<20))

		files := request.MultipartForm.File["upload"]
		require.Len(t, files, 2)
		assert.Equal(t, "notes.txt", files[0].Filename)
		assert.Equal(t, "logo.png", files[1].Filename)

		file, err := files[0].Open()
		require.NoError(t, err)

		defer func() {
			_ = file.Close()
		}()

		content := make([]byte, 5)
		_, err = file.Read(content)
		require.NoError(t, err)
		assert.Equal(t, "alpha", string(content))

		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`[1, 2]`))
	}))
	defer server.Close()

	client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil)

	resp, err := client.Upload(context.Background(), "/docs/doc1/attachments",
		grist.UploadFile{Name: "notes.txt", Reader: strings.NewReader("alpha")},
		grist.UploadFile{Name: "logo.png", Reader: bytes.NewReader([]byte{0x89, 0x50})},
	)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	// The record notes the upload without retaining file contents
	assert.Equal(t, "<multipart body, 2 parts>", client.Record().ReqBody)
}

func TestClient_Inspect(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"id": "doc1"}`))
	}))
	defer server.Close()

	tokenManager := &MockTokenManager{token: "test-key-123456"}
	client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), tokenManager)

	// Nothing to show before the first call
	assert.Contains(t, client.Inspect(), "no request data")

	_, err := client.Get(context.Background(), "/docs/doc1", nil)
	require.NoError(t, err)

	rendered := client.Inspect()
	assert.Contains(t, rendered, "->Req. url:")
	assert.Contains(t, rendered, "/docs/doc1")
	assert.Contains(t, rendered, "->Resp. result: 200")

	// The API key never appears in clear text
	assert.NotContains(t, rendered, "test-key-123456")
	assert.Contains(t, rendered, "te<11>56")
}

func TestClient_Interceptors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "trace-1", request.Header.Get("X-Trace-ID"))
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	chain := grist.NewInterceptorChain()
	chain.AddRequestInterceptor(grist.HeaderInterceptor(map[string]string{"X-Trace-ID": "trace-1"}))

	collector := grist.NewMetricsCollector()
	chain.AddRequestInterceptor(grist.MetricsRequestInterceptor(collector))
	chain.AddResponseInterceptor(grist.MetricsResponseInterceptor(collector))

	client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil,
		gristhttp.WithInterceptors(chain))

	_, err := client.Get(context.Background(), "/orgs", nil)
	require.NoError(t, err)

	// Interceptor mutations are visible on the record because the
	// headers are shared by reference
	assert.Equal(t, "trace-1", client.Record().ReqHeaders.Get("X-Trace-ID"))

	metrics := collector.GetMetrics("GET /orgs")
	require.NotNil(t, metrics)
	assert.Equal(t, int64(1), metrics.TotalRequests)
}

func TestClient_RecordPointerStable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := gristhttp.NewClient(testConfigurator(t, server.URL, nil), nil)

	record := client.Record()

	_, err := client.Get(context.Background(), "/orgs", nil)
	require.NoError(t, err)
	assert.Same(t, record, client.Record())
	assert.Equal(t, "GET", record.Method)

	_, err = client.Post(context.Background(), "/workspaces", map[string]string{"name": "W"})
	require.NoError(t, err)
	assert.Equal(t, "POST", record.Method)
	assert.Equal(t, 2, client.Calls())
}
