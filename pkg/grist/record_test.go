package grist_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridworks-io/grist/pkg/grist"
)

func TestTransactionRecordStates(t *testing.T) {
	t.Parallel()

	record := &grist.TransactionRecord{}
	assert.Equal(t, grist.StateIdle, record.State)
	assert.False(t, record.HasRequest())
	assert.False(t, record.HasResponse())

	record.BeginRequest("GET", "https://docs.getgrist.com/api/orgs", nil, "")
	assert.Equal(t, grist.StateRequestBuilt, record.State)
	assert.True(t, record.HasRequest())
	assert.False(t, record.HasResponse())

	record.MarkSent()
	assert.Equal(t, grist.StateSent, record.State)

	record.RecordResponse(200, "200 OK", http.Header{}, `{"orgs": []}`, false)
	assert.Equal(t, grist.StateResponded, record.State)
	assert.True(t, record.HasResponse())
	assert.Equal(t, `{"orgs": []}`, record.ResponseAsJSON())
}

func TestTransactionRecordStaleResponse(t *testing.T) {
	t.Parallel()

	record := &grist.TransactionRecord{}

	// First call responds normally.
	record.BeginRequest("GET", "https://example.test/api/orgs", nil, "")
	record.MarkSent()
	record.RecordResponse(200, "200 OK", http.Header{}, `{"first": true}`, false)

	// Second call dies on the wire: the response half keeps the first
	// call's data, tagged stale.
	record.BeginRequest("GET", "https://example.test/api/docs/x", nil, "")
	assert.True(t, record.ResponseStale)
	assert.False(t, record.HasResponse())

	record.MarkSent()
	record.MarkTransportFailed()
	assert.Equal(t, grist.StateTransportFailed, record.State)
	assert.True(t, record.ResponseStale)
	assert.Equal(t, 200, record.StatusCode)
	assert.Equal(t, "null", record.ResponseAsJSON())

	inspect := record.Inspect("\n", 1000)
	assert.Contains(t, inspect, "stale, retained from an earlier call")
	assert.Contains(t, inspect, `{"first": true}`)
}

func TestTransactionRecordFake(t *testing.T) {
	t.Parallel()

	record := &grist.TransactionRecord{}
	record.BeginRequest("POST", "https://example.test/api/docs", nil, `{"name": "x"}`)
	record.RecordFake(418, "418 I'm a teapot", `{"warning": "dry run, request not sent"}`)

	assert.Equal(t, grist.StateFakedResponse, record.State)
	assert.True(t, record.HasResponse())
	assert.False(t, record.ResponseStale)
	assert.Equal(t, 418, record.StatusCode)
}

func TestTransactionRecordInspect(t *testing.T) {
	t.Parallel()

	t.Run("no request", func(t *testing.T) {
		t.Parallel()

		record := &grist.TransactionRecord{}
		assert.Equal(t, "->Req.: no request data", record.Inspect("\n", 1000))
	})

	t.Run("request without response", func(t *testing.T) {
		t.Parallel()

		record := &grist.TransactionRecord{}
		record.BeginRequest("GET", "https://example.test/api/orgs", nil, "")

		inspect := record.Inspect("\n", 1000)
		assert.Contains(t, inspect, "->Req. url: https://example.test/api/orgs")
		assert.Contains(t, inspect, "->Req. method: GET")
		assert.Contains(t, inspect, "->Resp.: no response data")
	})

	t.Run("authorization is obfuscated", func(t *testing.T) {
		t.Parallel()

		headers := http.Header{}
		headers.Set("Authorization", "Bearer verysecretapikey")
		headers.Set("Content-Type", "application/json")

		record := &grist.TransactionRecord{}
		record.BeginRequest("GET", "https://example.test/api/orgs", headers, "")

		inspect := record.Inspect("\n", 1000)
		assert.Contains(t, inspect, "Bearer ve<12>ey")
		assert.NotContains(t, inspect, "verysecretapikey")
		// the caller's header map is left alone
		assert.Equal(t, "Bearer verysecretapikey", headers.Get("Authorization"))
	})

	t.Run("content is truncated", func(t *testing.T) {
		t.Parallel()

		record := &grist.TransactionRecord{}
		record.BeginRequest("GET", "https://example.test/api/orgs", nil, "")
		record.RecordResponse(200, "200 OK", nil, strings.Repeat("x", 2000), false)

		inspect := record.Inspect("\n", 100)
		assert.NotContains(t, inspect, strings.Repeat("x", 101))
		assert.Contains(t, inspect, strings.Repeat("x", 100))
	})
}

func TestResponseAsJSONFallbacks(t *testing.T) {
	t.Parallel()

	record := &grist.TransactionRecord{}
	assert.Equal(t, "null", record.ResponseAsJSON())

	record.BeginRequest("GET", "https://example.test/api/orgs", nil, "")
	record.RecordResponse(200, "200 OK", nil, "", false)
	assert.Equal(t, "null", record.ResponseAsJSON())

	record.RecordResponse(200, "200 OK", nil, "<not a valid json>", true)
	assert.Equal(t, "null", record.ResponseAsJSON())
}

func TestCallStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", grist.StateIdle.String())
	assert.Equal(t, "request built", grist.StateRequestBuilt.String())
	assert.Equal(t, "faked response", grist.StateFakedResponse.String())
	assert.Equal(t, "sent", grist.StateSent.String())
	assert.Equal(t, "responded", grist.StateResponded.String())
	assert.Equal(t, "transport failed", grist.StateTransportFailed.String())
	assert.Equal(t, "unknown state 42", grist.CallState(42).String())
}
