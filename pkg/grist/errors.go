package grist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
)

// StatusError represents a completed API call that came back with a
// status code >= 300. The decoded payload travels with the error so a
// caller that catches it loses nothing over one that reads the
// response directly.
type StatusError struct {
	StatusCode int             `json:"status_code" yaml:"status_code"`
	Status     string          `json:"status"      yaml:"status"`
	Payload    json.RawMessage `json:"payload"     yaml:"payload"`
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	msg := e.Message()
	if msg == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}

	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, msg)
}

// Message extracts the human-readable error text Grist puts in its
// error payloads, either {"error": "text"} or {"error": {...}}.
func (e *StatusError) Message() string {
	var wrapper struct {
		Error json.RawMessage `json:"error"`
	}

	if err := json.Unmarshal(e.Payload, &wrapper); err != nil || wrapper.Error == nil {
		return strings.TrimSpace(string(e.Payload))
	}

	var text string
	if err := json.Unmarshal(wrapper.Error, &text); err == nil {
		return text
	}

	return string(wrapper.Error)
}

// TransportError represents a call that never produced a response:
// DNS failure, refused connection, timeout. The verb and URL of the
// attempted request are retained, and SyntheticStatus carries the 52x
// classification used by front ends that must report a status code.
type TransportError struct {
	Verb            string
	URL             string
	SyntheticStatus int
	Err             error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %s %s: %v", e.Verb, e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConfigError represents a resolution that produced an unusable
// snapshot. Keys lists the offending entries; Config holds the full
// snapshot with the API key already obfuscated, ready for display.
type ConfigError struct {
	Keys   []string
	Config map[string]string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration not usable, check: %s\ncurrent config: %v",
		strings.Join(e.Keys, ", "), e.Config)
}

// ConverterError represents an outbound conversion failure. The whole
// call is aborted before any network traffic.
type ConverterError struct {
	Table  string
	Column string
	Err    error
}

// Error implements the error interface.
func (e *ConverterError) Error() string {
	return fmt.Sprintf("converting %s.%s for sending: %v", e.Table, e.Column, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConverterError) Unwrap() error {
	return e.Err
}

// Sentinel errors.
var (
	// ErrWriteBlocked is returned for any mutating call attempted while
	// safe mode is on. It is raised regardless of the error policy.
	ErrWriteBlocked = errors.New("write operation blocked: safe mode is on")

	// ErrExhausted is returned by an iterator whose pages have all been
	// retrieved.
	ErrExhausted = errors.New("no more pages")

	// ErrBadValue marks a conversion failure confined to the value
	// domain. Inbound converters returning an error wrapping it (or a
	// strconv failure) degrade the cell instead of failing the call.
	ErrBadValue = errors.New("value outside converter domain")

	// ErrNotConfigured is wrapped by ConfigError-producing paths that
	// have no snapshot to show.
	ErrNotConfigured = errors.New("client is not configured")
)

// Common static errors that can be wrapped with context.
var (
	ErrConfiguratorRequired  = errors.New("configurator is required")
	ErrClientRequired        = errors.New("client is required")
	ErrWorkspaceIDRequired   = errors.New("workspace id is required")
	ErrDocIDRequired         = errors.New("document id is required")
	ErrTableIDRequired       = errors.New("table id is required")
	ErrNoRequestYet          = errors.New("no request data recorded yet")
	ErrBodyNotRetained       = errors.New("binary body was not retained")
	ErrCacheDisabled         = errors.New("cache is disabled")
	ErrCircuitBreakerOpen    = errors.New("circuit breaker is open")
	ErrKeyNotFound           = errors.New("key not found")
	ErrEntryExpired          = errors.New("cache entry expired")
	ErrValueTooLarge         = errors.New("value exceeds maximum cache size")
	ErrNATSConfigRequired    = errors.New("NATS configuration required for NATS cache")
	ErrUnsupportedCacheType  = errors.New("unsupported cache type")
	ErrKeyNotFoundInAnyCache = errors.New("key not found in any cache")
)

// IsNotFound checks if the error is a 404 status error.
func IsNotFound(err error) bool {
	statusErr := &StatusError{}
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == 404
	}

	return false
}

// IsUnauthorized checks if the error is a 401 status error.
func IsUnauthorized(err error) bool {
	statusErr := &StatusError{}
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == 401
	}

	return false
}

// IsWriteBlocked checks if the error is the safe mode block.
func IsWriteBlocked(err error) bool {
	return errors.Is(err, ErrWriteBlocked)
}

// ClassifyTransport assigns a synthetic 52x status to a transport
// failure: 521 refused, 522 timeout, 523 DNS or unreachable, 520
// anything else.
func ClassifyTransport(err error) int {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return 521
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return 522
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return 522
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return 523
	}

	if errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return 523
	}

	return 520
}

// NewTransportError wraps a transport failure with its classification.
func NewTransportError(verb, url string, err error) *TransportError {
	return &TransportError{
		Verb:            verb,
		URL:             url,
		SyntheticStatus: ClassifyTransport(err),
		Err:             err,
	}
}

// Test error variables for test files to comply with err113.
var (
	ErrTestBoom = errors.New("boom")
)
