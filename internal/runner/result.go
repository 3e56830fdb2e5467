package runner

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"syscall"
	"time"
)

// Failure labels mirror the error names shown to the user; a zero
// StatusCode always accompanies one of them.
const (
	FailureTimeout    = "Request timeout"
	FailureConnection = "Connection error"
)

// Result is the normalized outcome of one executed request.
// StatusCode 0 is reserved for transport-level failure.
type Result struct {
	StatusCode   int         `json:"status_code"`
	Status       string      `json:"status,omitempty"`
	Headers      http.Header `json:"headers"`
	Body         string      `json:"body"`
	JSON         interface{} `json:"json,omitempty"`
	Size         int         `json:"size"`
	Encoding     string      `json:"encoding,omitempty"`
	ElapsedMS    int64       `json:"execution_time"`
	EffectiveURL string      `json:"request_url,omitempty"`
	Error        string      `json:"error,omitempty"`
}

func (r *Result) Failed() bool {
	return r != nil && r.StatusCode == 0
}

func (r *Result) IsJSON() bool {
	return r != nil && r.JSON != nil
}

// normalizeResponse converts the raw HTTP response into a Result. A
// body that strictly decodes as JSON is stored structured and the body
// text is re-rendered from that structure, so the displayed text may
// differ from the original bytes in formatting only.
func normalizeResponse(
	sent *http.Request,
	resp *http.Response,
	body []byte,
	elapsed time.Duration,
) *Result {
	result := &Result{
		StatusCode:   resp.StatusCode,
		Status:       resp.Status,
		Headers:      resp.Header.Clone(),
		Size:         len(body),
		Encoding:     encodingOf(resp),
		ElapsedMS:    elapsed.Milliseconds(),
		EffectiveURL: effectiveURL(sent, resp),
	}

	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err == nil && decoded != nil {
		result.JSON = decoded
		if pretty, err := json.MarshalIndent(decoded, "", "  "); err == nil {
			result.Body = string(pretty)
			return result
		}
	}
	result.Body = string(body)
	return result
}

// classifyTransportError maps a failed roundtrip onto the fixed
// failure taxonomy. Timeouts report the full timeout as elapsed time;
// every other failure reports zero.
func classifyTransportError(err error, opts Options, requestURL string) *Result {
	result := &Result{
		StatusCode:   0,
		Headers:      http.Header{},
		EffectiveURL: requestURL,
	}

	switch {
	case isTimeout(err):
		result.Error = FailureTimeout
		result.ElapsedMS = opts.Timeout.Milliseconds()
		result.Body = timeoutMessage(opts.Timeout)
	case isConnectionError(err):
		result.Error = FailureConnection
		result.Body = "Could not connect to the server"
	default:
		result.Error = err.Error()
		result.Body = "Request failed: " + err.Error()
	}
	return result
}

// transportFailure covers failures before the request is even sent
// (bad URL, unserializable body). They land in the catch-all bucket.
func transportFailure(err error, requestURL string) *Result {
	return &Result{
		StatusCode:   0,
		Headers:      http.Header{},
		Body:         "Request failed: " + err.Error(),
		Error:        err.Error(),
		EffectiveURL: requestURL,
	}
}

func timeoutMessage(timeout time.Duration) string {
	seconds := int(timeout.Seconds())
	if seconds <= 0 {
		seconds = int(DefaultTimeout.Seconds())
	}
	if seconds == 1 {
		return "Request timed out after 1 second"
	}
	return "Request timed out after " + strconv.Itoa(seconds) + " seconds"
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}

func isConnectionError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func effectiveURL(sent *http.Request, resp *http.Response) string {
	if resp != nil && resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	if sent != nil && sent.URL != nil {
		return sent.URL.String()
	}
	return ""
}

func encodingOf(resp *http.Response) string {
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		return "utf-8"
	}
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if charset := params["charset"]; charset != "" {
			return charset
		}
	}
	return "utf-8"
}
