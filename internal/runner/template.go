package runner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/unkn0wn-root/apidash/internal/errdef"
)

// Tester forms submit headers, body and query parameters as JSON
// text. Each template must parse before any request is constructed;
// a failure here means the request is never sent.

// ParseHeaderTemplate decodes a JSON object of header values. Scalar
// non-string values are coerced to their string form.
func ParseHeaderTemplate(text string) (map[string]string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, errdef.Wrap(errdef.CodeTemplate, err, "invalid headers JSON")
	}
	headers := make(map[string]string, len(raw))
	for name, value := range raw {
		headers[name] = coerceString(value)
	}
	return headers, nil
}

// ParseBodyTemplate decodes JSON body text into its structured form.
func ParseBodyTemplate(text string) (interface{}, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}
	var body interface{}
	if err := json.Unmarshal([]byte(trimmed), &body); err != nil {
		return nil, errdef.Wrap(errdef.CodeTemplate, err, "invalid body JSON")
	}
	return body, nil
}

// ParseQueryTemplate decodes a JSON object of query parameters.
func ParseQueryTemplate(text string) (map[string]string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, errdef.Wrap(errdef.CodeTemplate, err, "invalid query params JSON")
	}
	params := make(map[string]string, len(raw))
	for name, value := range raw {
		params[name] = coerceString(value)
	}
	return params, nil
}

func coerceString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case float64:
		// keep integers free of the float suffix
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	default:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return fmt.Sprint(v)
	}
}
