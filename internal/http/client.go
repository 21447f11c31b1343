// Package http implements the transport engine. Every API call is one
// HTTP transaction, and the transaction record of the most recent call
// is kept for inspection: the request half is stored before anything
// goes out, so it survives a server that never answers.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/gridworks-io/grist/internal/auth"
	"github.com/gridworks-io/grist/internal/constants"
	"github.com/gridworks-io/grist/pkg/grist"
)

// Client sends API requests against the configured server. Retries are
// off by default so that one call stays one wire transaction.
type Client struct {
	configurator *grist.Configurator
	tokenManager auth.TokenManager
	httpClient   *retryablehttp.Client
	interceptors *grist.InterceptorChain
	logger       grist.Logger
	debug        bool
	userAgent    string
	maxSaved     int

	mutex      sync.Mutex
	record     grist.TransactionRecord
	calls      int
	dryRun     bool
	saveBinary bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for the client.
func WithLogger(logger grist.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithRetryConfig tunes retries for transient failures.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = maxRetries
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithTimeout caps the duration of each attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithInterceptors installs an interceptor chain run around real sends.
func WithInterceptors(chain *grist.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithSaveBinary retains binary response payloads on the record.
func WithSaveBinary(on bool) Option {
	return func(c *Client) {
		c.saveBinary = on
	}
}

// WithMaxSavedContent caps the response text kept on the record.
func WithMaxSavedContent(limit int) Option {
	return func(c *Client) {
		c.maxSaved = limit
	}
}

// NewClient creates a transport bound to the given configuration. The
// configurator snapshot is read per call, so config patches apply to
// the next request without rebuilding anything.
func NewClient(configurator *grist.Configurator, tokenManager auth.TokenManager, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.Logger = nil
	// Hand back the last response when retries run out so a bad
	// status still reaches the record with its payload.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		configurator: configurator,
		tokenManager: tokenManager,
		httpClient:   retryClient,
		maxSaved:     constants.MaxSavedResponse,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Request represents an API request.
type Request struct {
	Method string
	// Path is joined to the per-call base URL and starts with a slash.
	Path string
	// Server overrides the base URL derived from the configuration.
	Server  string
	Query   url.Values
	Headers map[string]string
	// Body is JSON-encoded when non-nil.
	Body interface{}
	// Files switches the request to a multipart upload.
	Files []grist.UploadFile
	// Sink receives the payload of a binary download.
	Sink io.Writer
}

// Response represents an API response. Body is empty for downloads
// streamed to a sink.
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
}

// Do performs one API call. The request half of the transaction record
// is stored before the send; dry run and safe mode stop short of the
// wire with a synthesized record. A bad status surfaces as a
// StatusError only when the configuration says to raise; the payload
// stays on the record either way.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL := c.buildURL(req)

	body, contentType, recordedBody, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	headers, err := c.buildHeaders(ctx, req, contentType)
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	c.calls++
	c.record.BeginRequest(req.Method, fullURL, headers, recordedBody)
	dryRun := c.dryRun
	c.mutex.Unlock()

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
		})
	}

	if dryRun {
		return c.fake(), nil
	}

	if mutatingVerb(req.Method) && c.configurator.SafeMode() {
		c.fake()

		return nil, grist.ErrWriteBlocked
	}

	if c.interceptors != nil {
		ireq := &grist.Request{Method: req.Method, Path: req.Path, Headers: headers, Body: body}

		err = c.interceptors.ExecuteRequestInterceptors(ctx, ireq)
		if err != nil {
			return nil, err
		}
	}

	response, err := c.send(ctx, req, fullURL, headers, body)
	if err != nil {
		c.mutex.Lock()
		c.record.MarkTransportFailed()
		c.mutex.Unlock()

		return nil, grist.NewTransportError(req.Method, fullURL, err)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status": response.StatusCode,
			"url":    fullURL,
		})
	}

	var statusErr error
	if response.StatusCode >= http.StatusMultipleChoices {
		statusErr = &grist.StatusError{
			StatusCode: response.StatusCode,
			Status:     response.Status,
			Payload:    response.Body,
		}
	}

	if c.interceptors != nil {
		ireq := &grist.Request{Method: req.Method, Path: req.Path, Headers: headers}
		iresp := &grist.Response{
			StatusCode: response.StatusCode,
			Headers:    response.Headers,
			Body:       response.Body,
			Error:      statusErr,
		}

		err = c.interceptors.ExecuteResponseInterceptors(ctx, ireq, iresp)
		if err != nil {
			return response, err
		}
	}

	if statusErr != nil && c.configurator.RaiseError() {
		return response, statusErr
	}

	return response, nil
}

// send puts the request on the wire and consumes the response into the
// record. Any error here means the transaction never completed.
func (c *Client) send(ctx context.Context, req *Request, fullURL string, headers http.Header, body []byte) (*Response, error) {
	var rawBody interface{}
	if body != nil {
		rawBody = body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, rawBody)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	httpReq.Header = headers

	c.mutex.Lock()
	c.record.MarkSent()
	c.mutex.Unlock()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	return c.consume(req, httpResp)
}

// consume reads the response body, stores the response half of the
// record, and builds the returned Response. Binary downloads stream to
// the sink chunk by chunk instead of accumulating in memory.
func (c *Client) consume(req *Request, httpResp *http.Response) (*Response, error) {
	status := reasonOf(httpResp)

	if req.Sink != nil && httpResp.StatusCode < http.StatusMultipleChoices {
		return c.consumeBinary(req, httpResp, status)
	}

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	recordBody, binary := c.renderForRecord(httpResp.Header.Get("Content-Type"), data)

	c.mutex.Lock()
	c.record.RecordResponse(httpResp.StatusCode, status, httpResp.Header, recordBody, binary)
	c.mutex.Unlock()

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     status,
		Headers:    httpResp.Header,
		Body:       data,
	}, nil
}

func (c *Client) consumeBinary(req *Request, httpResp *http.Response, status string) (*Response, error) {
	c.mutex.Lock()
	saveBinary := c.saveBinary
	c.mutex.Unlock()

	var saved bytes.Buffer

	reader := io.Reader(httpResp.Body)
	if saveBinary {
		reader = io.TeeReader(reader, &saved)
	}

	buf := make([]byte, constants.DownloadChunkSize)

	_, err := io.CopyBuffer(req.Sink, reader, buf)
	if err != nil {
		return nil, fmt.Errorf("streaming response: %w", err)
	}

	c.mutex.Lock()
	c.record.RecordResponse(httpResp.StatusCode, status, httpResp.Header, saved.String(), true)
	c.mutex.Unlock()

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     status,
		Headers:    httpResp.Header,
	}, nil
}

// renderForRecord decides what of the payload the record keeps: text
// gets truncated at the configured cap, binary is dropped unless the
// client opted into saving it.
func (c *Client) renderForRecord(contentType string, data []byte) (string, bool) {
	if textContent(contentType) {
		text := string(data)
		if c.maxSaved > 0 && len(text) > c.maxSaved {
			text = text[:c.maxSaved]
		}

		return text, false
	}

	c.mutex.Lock()
	saveBinary := c.saveBinary
	c.mutex.Unlock()

	if saveBinary {
		return string(data), true
	}

	return "", true
}

// fake stores a synthesized response for a call that stops short of
// the wire.
func (c *Client) fake() *Response {
	status := http.StatusText(constants.DryRunStatusCode)

	c.mutex.Lock()
	c.record.RecordFake(constants.DryRunStatusCode, status, constants.DryRunBody)
	c.mutex.Unlock()

	return &Response{
		StatusCode: constants.DryRunStatusCode,
		Status:     status,
		Body:       []byte(constants.DryRunBody),
	}
}

func (c *Client) buildURL(req *Request) string {
	base := req.Server
	if base == "" {
		base = c.configurator.Server("")
	}

	fullURL := base + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	return fullURL
}

func (c *Client) buildHeaders(ctx context.Context, req *Request, contentType string) (http.Header, error) {
	headers := make(http.Header)

	if c.tokenManager != nil {
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting API key: %w", err)
		}

		if token != "" {
			headers.Set("Authorization", "Bearer "+token)
		}
	}

	headers.Set("Accept", "application/json")

	if contentType != "" {
		headers.Set("Content-Type", contentType)
	}

	if c.userAgent != "" {
		headers.Set("User-Agent", c.userAgent)
	}

	for key, value := range req.Headers {
		headers.Set(key, value)
	}

	return headers, nil
}

// encodeBody turns the request body into wire bytes plus the string
// form kept on the record. Multipart uploads are assembled here so the
// record can note them without retaining file contents.
func encodeBody(req *Request) ([]byte, string, string, error) {
	if len(req.Files) > 0 {
		buf := &bytes.Buffer{}
		writer := multipart.NewWriter(buf)

		for _, file := range req.Files {
			part, err := writer.CreateFormFile(constants.UploadFieldName, file.Name)
			if err != nil {
				return nil, "", "", fmt.Errorf("building upload %s: %w", file.Name, err)
			}

			_, err = io.Copy(part, file.Reader)
			if err != nil {
				return nil, "", "", fmt.Errorf("reading upload %s: %w", file.Name, err)
			}
		}

		err := writer.Close()
		if err != nil {
			return nil, "", "", fmt.Errorf("finishing upload body: %w", err)
		}

		recorded := fmt.Sprintf("<multipart body, %d parts>", len(req.Files))

		return buf.Bytes(), writer.FormDataContentType(), recorded, nil
	}

	if req.Body == nil {
		return nil, "", "", nil
	}

	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", "", fmt.Errorf("encoding request body: %w", err)
	}

	return data, "application/json", string(data), nil
}

// mutatingVerb reports whether the method can change server state,
// which is what safe mode blocks.
func mutatingVerb(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

// reasonOf extracts the reason phrase from a response status line.
func reasonOf(resp *http.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}

// textContent reports whether a content type is worth keeping as text
// on the record.
func textContent(contentType string) bool {
	if contentType == "" {
		return true
	}

	return strings.Contains(contentType, "json") || strings.HasPrefix(contentType, "text/")
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// Download performs a GET request streaming the payload to sink.
func (c *Client) Download(ctx context.Context, path string, query url.Values, sink io.Writer) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query, Sink: sink})
}

// Upload performs a multipart POST of the given files.
func (c *Client) Upload(ctx context.Context, path string, files ...grist.UploadFile) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Files: files})
}

// Record returns the transaction record of the most recent call. The
// record is reused across calls, so the pointer stays valid.
func (c *Client) Record() *grist.TransactionRecord {
	return &c.record
}

// Inspect renders the last transaction with secrets obfuscated.
func (c *Client) Inspect() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.record.Inspect("\n", constants.InspectMaxContent)
}

// Calls reports how many calls were issued, faked ones included.
func (c *Client) Calls() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.calls
}

// SetDryRun makes subsequent calls stop short of the wire.
func (c *Client) SetDryRun(on bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.dryRun = on
}

// DryRun reports whether dry run is active.
func (c *Client) DryRun() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.dryRun
}

// SetSaveBinary toggles retaining binary payloads on the record.
func (c *Client) SetSaveBinary(on bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.saveBinary = on
}

// Configurator returns the configuration engine behind this client.
func (c *Client) Configurator() *grist.Configurator {
	return c.configurator
}
