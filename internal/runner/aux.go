package runner

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var supportedMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"}

// SupportedMethods returns the fixed verb catalog, copied so callers
// cannot mutate the shared slice.
func SupportedMethods() []string {
	out := make([]string, len(supportedMethods))
	copy(out, supportedMethods)
	return out
}

// CommonHeaders is the illustrative starting template offered to the
// tester form; the bearer token and API key values stay as
// substitution placeholders.
func CommonHeaders() map[string]string {
	return map[string]string{
		"Content-Type":  "application/json",
		"Accept":        "application/json",
		"User-Agent":    "apidash/1.0",
		"Authorization": "Bearer {{token}}",
		"X-API-Key":     "{{api_key}}",
	}
}

// scheme, domain-name-like host (or localhost, or dotted-quad IPv4),
// optional port, optional path
var urlPattern = regexp.MustCompile(`(?i)^https?://` +
	`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+[A-Z]{2,6}\.?|` +
	`localhost|` +
	`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
	`(?::\d+)?` +
	`(?:/?|[/?]\S+)$`)

// ValidateURL is an advisory shape check only; Execute never refuses
// to send a URL that fails it.
func ValidateURL(rawURL string) bool {
	return urlPattern.MatchString(rawURL)
}

// CurlCommand renders a shell-style reproduction of the request for
// display purposes. It is not meant to be machine-parsed back.
func CurlCommand(req Request) string {
	parts := []string{"curl", "-X", normalizeMethod(req.Method)}

	requestURL := req.URL
	if len(req.QueryParams) > 0 {
		keys := make([]string, 0, len(req.QueryParams))
		for key := range req.QueryParams {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, key := range keys {
			pairs = append(pairs, key+"="+req.QueryParams[key])
		}
		requestURL = requestURL + "?" + strings.Join(pairs, "&")
	}
	parts = append(parts, fmt.Sprintf("%q", requestURL))

	if len(req.Headers) > 0 {
		names := make([]string, 0, len(req.Headers))
		for name := range req.Headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			parts = append(parts, "-H", fmt.Sprintf("%q", name+": "+req.Headers[name]))
		}
	}

	if req.Body != nil {
		var bodyStr string
		switch v := req.Body.(type) {
		case string:
			bodyStr = v
		case []byte:
			bodyStr = string(v)
		default:
			if data, err := json.Marshal(v); err == nil {
				bodyStr = string(data)
			} else {
				bodyStr = fmt.Sprint(v)
			}
		}
		if bodyStr != "" {
			parts = append(parts, "-d", "'"+bodyStr+"'")
		}
	}

	return strings.Join(parts, " ")
}

// StatusColor classifies a status code for display. The bands mirror
// the UI severity scale: 0 and 5xx render as errors, 2xx as success,
// 3xx as info, 4xx as warnings, everything else neutral.
func StatusColor(statusCode int) string {
	switch {
	case statusCode == 0:
		return "red"
	case statusCode >= 200 && statusCode < 300:
		return "green"
	case statusCode >= 300 && statusCode < 400:
		return "blue"
	case statusCode >= 400 && statusCode < 500:
		return "orange"
	case statusCode >= 500:
		return "red"
	default:
		return "gray"
	}
}
