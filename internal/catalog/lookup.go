package catalog

import (
	"sort"
	"strings"
)

// EndpointByRaw returns the endpoint whose raw string matches exactly.
func (d *Document) EndpointByRaw(raw string) (Endpoint, bool) {
	for _, ep := range d.Endpoints {
		if ep.Raw == raw {
			return ep, true
		}
	}
	return Endpoint{}, false
}

// Search filters endpoints by case-insensitive substring match against
// the raw endpoint string, method, category and description. An empty
// query returns the full list.
func (d *Document) Search(query string) []Endpoint {
	if query == "" {
		return append([]Endpoint(nil), d.Endpoints...)
	}

	needle := strings.ToLower(query)
	var matched []Endpoint
	for _, ep := range d.Endpoints {
		if strings.Contains(strings.ToLower(ep.Raw), needle) ||
			strings.Contains(strings.ToLower(ep.Method), needle) ||
			strings.Contains(strings.ToLower(ep.Category), needle) ||
			strings.Contains(strings.ToLower(ep.Description), needle) {
			matched = append(matched, ep)
		}
	}
	return matched
}

// Categories returns the distinct category paths, sorted.
func (d *Document) Categories() []string {
	seen := make(map[string]struct{})
	for _, ep := range d.Endpoints {
		seen[ep.Category] = struct{}{}
	}
	categories := make([]string, 0, len(seen))
	for category := range seen {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// ByCategory returns endpoints whose category matches exactly.
func (d *Document) ByCategory(category string) []Endpoint {
	var matched []Endpoint
	for _, ep := range d.Endpoints {
		if ep.Category == category {
			matched = append(matched, ep)
		}
	}
	return matched
}

// Example assembles the pre-fill bundle for a tester form: derived
// method and URL, headers recovered from the stored curl command, and
// the verbatim request body template.
func (e Endpoint) Example() RequestExample {
	return RequestExample{
		Method:  e.Method,
		URL:     e.URL,
		Headers: HeadersFromCurl(e.CurlCommand),
		Body:    e.RequestBody,
	}
}

// HeadersFromCurl recovers header key/value pairs from a curl-style
// command by splitting on the -H flag and then on the first colon
// inside the quoted segment. Malformed or unquoted segments contribute
// nothing; the extraction itself never fails.
func HeadersFromCurl(command string) map[string]string {
	headers := make(map[string]string)
	if command == "" {
		return headers
	}

	parts := strings.Split(command, " -H ")
	for _, part := range parts[1:] {
		quoted := strings.SplitN(part, `"`, 3)
		if len(quoted) < 2 {
			continue
		}
		segment := quoted[1]
		key, value, ok := strings.Cut(segment, ":")
		if !ok {
			continue
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return headers
}
