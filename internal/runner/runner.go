package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"reflect"
	"time"

	"github.com/unkn0wn-root/apidash/internal/telemetry"
	"github.com/unkn0wn-root/apidash/internal/vars"
)

// DefaultTimeout is the hard ceiling for a single test request.
const DefaultTimeout = 30 * time.Second

type Options struct {
	Timeout         time.Duration
	FollowRedirects bool
}

func DefaultOptions() Options {
	return Options{Timeout: DefaultTimeout, FollowRedirects: true}
}

func (o Options) normalized() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Request describes one test invocation. Body may be a string (sent
// verbatim) or a structured value (serialized to JSON). Name and
// Category only feed telemetry and history.
type Request struct {
	Name        string
	Category    string
	Method      string
	URL         string
	Headers     map[string]string
	Body        interface{}
	QueryParams map[string]string
}

type Runner struct {
	jar         http.CookieJar
	httpFactory func(Options) (*http.Client, error)
	telemetry   telemetry.Instrumenter
}

func New() *Runner {
	jar, _ := cookiejar.New(nil)
	r := &Runner{jar: jar, telemetry: telemetry.Noop()}
	r.httpFactory = r.buildHTTPClient
	return r
}

// SetHTTPFactory allows callers to override how http.Client instances
// are created. Passing nil restores the default factory.
func (r *Runner) SetHTTPFactory(factory func(Options) (*http.Client, error)) {
	if factory == nil {
		r.httpFactory = r.buildHTTPClient
		return
	}
	r.httpFactory = factory
}

// SetTelemetry configures the instrumenter used to emit spans. Passing
// nil restores the no-op implementation.
func (r *Runner) SetTelemetry(instr telemetry.Instrumenter) {
	if instr == nil {
		instr = telemetry.Noop()
	}
	r.telemetry = instr
}

func (r *Runner) buildHTTPClient(opts Options) (*http.Client, error) {
	client := &http.Client{Timeout: opts.Timeout, Jar: r.jar}
	if !opts.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client, nil
}

// Execute performs one HTTP call and never fails past its boundary:
// every transport problem comes back as an error-shaped Result.
//
// Substitution applies to the URL and header values only; the body is
// deliberately passed through untouched (the caller substitutes body
// templates itself).
func (r *Runner) Execute(
	ctx context.Context,
	req Request,
	resolver *vars.Resolver,
	opts Options,
) *Result {
	opts = opts.normalized()

	expandedURL := req.URL
	headers := req.Headers
	if resolver != nil {
		expandedURL = resolver.ExpandTemplates(expandedURL)
		if len(headers) > 0 {
			expanded := make(map[string]string, len(headers))
			for name, value := range headers {
				expanded[name] = resolver.ExpandTemplates(value)
			}
			headers = expanded
		}
	}

	bodyReader, contentType, err := prepareBody(req.Body)
	if err != nil {
		return transportFailure(err, expandedURL)
	}
	if contentType != "" {
		// a structured body always wins the Content-Type header, even
		// over a caller-supplied value
		if headers == nil {
			headers = make(map[string]string, 1)
		} else {
			copied := make(map[string]string, len(headers)+1)
			for name, value := range headers {
				copied[name] = value
			}
			headers = copied
		}
		headers["Content-Type"] = contentType
	}

	finalURL, err := appendQueryParams(expandedURL, req.QueryParams)
	if err != nil {
		return transportFailure(err, expandedURL)
	}

	httpReq, err := http.NewRequestWithContext(ctx, normalizeMethod(req.Method), finalURL, bodyReader)
	if err != nil {
		return transportFailure(err, finalURL)
	}
	for name, value := range headers {
		httpReq.Header.Set(name, value)
	}

	client, err := r.httpFactory(opts)
	if err != nil {
		return transportFailure(err, finalURL)
	}

	spanCtx, span := r.telemetry.Start(httpReq.Context(), telemetry.RequestStart{
		Name:        req.Name,
		Category:    req.Category,
		HTTPRequest: httpReq,
	})
	httpReq = httpReq.WithContext(spanCtx)

	start := time.Now()
	httpResp, err := client.Do(httpReq)
	if err != nil {
		result := classifyTransportError(err, opts, finalURL)
		span.End(telemetry.RequestResult{Err: err})
		return result
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		result := classifyTransportError(err, opts, finalURL)
		span.End(telemetry.RequestResult{Err: err})
		return result
	}
	elapsed := time.Since(start)

	result := normalizeResponse(httpReq, httpResp, body, elapsed)
	span.End(telemetry.RequestResult{StatusCode: result.StatusCode})
	return result
}

// prepareBody returns the request body reader and, for structured
// bodies, the forced content type.
func prepareBody(body interface{}) (io.Reader, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case string:
		if v == "" {
			return nil, "", nil
		}
		return bytes.NewReader([]byte(v)), "", nil
	case []byte:
		if len(v) == 0 {
			return nil, "", nil
		}
		return bytes.NewReader(v), "", nil
	}

	kind := reflect.ValueOf(body).Kind()
	if kind == reflect.Map || kind == reflect.Slice || kind == reflect.Array || kind == reflect.Struct {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("serialize request body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
	return bytes.NewReader([]byte(fmt.Sprint(body))), "", nil
}

func appendQueryParams(rawURL string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse request url: %w", err)
	}
	query := parsed.Query()
	for key, value := range params {
		query.Set(key, value)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func normalizeMethod(method string) string {
	if method == "" {
		return http.MethodGet
	}
	return toUpperASCII(method)
}

func toUpperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
