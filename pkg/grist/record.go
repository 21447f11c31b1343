package grist

import (
	"fmt"
	"net/http"
	"strings"
)

// CallState tracks one API call through the engine. Every call starts
// at Idle and ends at FakedResponse, Responded or TransportFailed.
type CallState int

// Call states, in the order a call can reach them.
const (
	StateIdle CallState = iota
	StateRequestBuilt
	StateFakedResponse
	StateSent
	StateResponded
	StateTransportFailed
)

// String implements fmt.Stringer.
func (s CallState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequestBuilt:
		return "request built"
	case StateFakedResponse:
		return "faked response"
	case StateSent:
		return "sent"
	case StateResponded:
		return "responded"
	case StateTransportFailed:
		return "transport failed"
	default:
		return fmt.Sprintf("unknown state %d", int(s))
	}
}

// TransactionRecord keeps the request and response halves of the most
// recent API call for inspection. The request half is written before
// the call goes out, so it is trustworthy even when the server never
// answers. The response half survives a transport failure with the
// previous call's data, tagged stale.
type TransactionRecord struct {
	State CallState

	// Request half.
	Method     string
	URL        string
	ReqHeaders http.Header
	ReqBody    string

	// Response half.
	StatusCode    int
	Status        string
	RespHeaders   http.Header
	RespBody      string
	BinaryBody    bool
	ResponseStale bool
}

// BeginRequest stores the request half of a new call and tags whatever
// the response half still holds as stale.
func (r *TransactionRecord) BeginRequest(method, url string, headers http.Header, body string) {
	r.Method = method
	r.URL = url
	r.ReqHeaders = headers
	r.ReqBody = body
	r.ResponseStale = r.StatusCode != 0
	r.State = StateRequestBuilt
}

// RecordResponse stores the response half of the current call.
func (r *TransactionRecord) RecordResponse(statusCode int, status string, headers http.Header, body string, binary bool) {
	r.StatusCode = statusCode
	r.Status = status
	r.RespHeaders = headers
	r.RespBody = body
	r.BinaryBody = binary
	r.ResponseStale = false
	r.State = StateResponded
}

// RecordFake stores a synthesized response for a call that was never
// sent (dry run or safe mode).
func (r *TransactionRecord) RecordFake(statusCode int, status string, body string) {
	r.StatusCode = statusCode
	r.Status = status
	r.RespHeaders = nil
	r.RespBody = body
	r.BinaryBody = false
	r.ResponseStale = false
	r.State = StateFakedResponse
}

// MarkSent advances the state just before the wire send.
func (r *TransactionRecord) MarkSent() {
	r.State = StateSent
}

// MarkTransportFailed records that the send never produced a response.
// The response half keeps its previous content and stays stale.
func (r *TransactionRecord) MarkTransportFailed() {
	r.State = StateTransportFailed
}

// HasRequest reports whether a request half has been recorded.
func (r *TransactionRecord) HasRequest() bool {
	return r.State != StateIdle
}

// HasResponse reports whether the response half belongs to the current
// call.
func (r *TransactionRecord) HasResponse() bool {
	return r.StatusCode != 0 && !r.ResponseStale
}

// ResponseAsJSON returns the retained response body as parsable JSON
// text, "null" when there is nothing current to show.
func (r *TransactionRecord) ResponseAsJSON() string {
	if !r.HasResponse() || r.BinaryBody {
		return "null"
	}

	if r.RespBody == "" {
		return "null"
	}

	return r.RespBody
}

// Inspect renders the record for debugging. Header values are shown
// with the Authorization key obfuscated; body text is cut at
// maxContent characters.
func (r *TransactionRecord) Inspect(sep string, maxContent int) string {
	if !r.HasRequest() {
		return "->Req.: no request data"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "->Req. url: %s%s", r.URL, sep)
	fmt.Fprintf(&b, "->Req. method: %s%s", r.Method, sep)
	fmt.Fprintf(&b, "->Req. headers: %v%s", obfuscateHeaders(r.ReqHeaders), sep)
	fmt.Fprintf(&b, "->Req. body: %s", truncate(r.ReqBody, maxContent))

	if r.StatusCode == 0 {
		fmt.Fprintf(&b, "%s->Resp.: no response data", sep)

		return b.String()
	}

	if r.ResponseStale {
		fmt.Fprintf(&b, "%s->Resp.: stale, retained from an earlier call", sep)
	}

	fmt.Fprintf(&b, "%s->Resp. result: %d %s%s", sep, r.StatusCode, r.Status, sep)
	fmt.Fprintf(&b, "->Resp. headers: %v%s", r.RespHeaders, sep)
	fmt.Fprintf(&b, "->Resp. content: %s", truncate(r.ResponseAsJSON(), maxContent))

	return b.String()
}

// obfuscateHeaders copies headers with the bearer key hidden.
func obfuscateHeaders(headers http.Header) http.Header {
	if headers == nil {
		return nil
	}

	out := headers.Clone()

	auth := out.Get("Authorization")
	if auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 {
			out.Set("Authorization", parts[0]+" "+ObfuscateKey(parts[1]))
		}
	}

	return out
}

// truncate cuts s at limit characters; limit <= 0 means no cut.
func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}

	return s[:limit]
}
