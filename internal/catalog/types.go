package catalog

import "encoding/json"

// Section carries the free-form descriptive metadata attached to a
// table-of-contents entry.
type Section struct {
	ContentText string `json:"content_text,omitempty"`
}

// Node is one entry in the hierarchical navigation tree. Children keep
// the insertion order of the source document; Path is the /-joined
// ancestry computed at parse time.
type Node struct {
	Key       string     `json:"key"`
	Level     int        `json:"level"`
	IsLast    bool       `json:"is_last"`
	Path      string     `json:"path"`
	Section   Section    `json:"section"`
	Endpoints []Endpoint `json:"api_endpoints,omitempty"`
	Children  []*Node    `json:"children,omitempty"`
}

func (n *Node) HasEndpoints() bool {
	return n != nil && len(n.Endpoints) > 0
}

func (n *Node) HasChildren() bool {
	return n != nil && len(n.Children) > 0
}

// Child looks up a direct child by key.
func (n *Node) Child(key string) *Node {
	if n == nil {
		return nil
	}
	for _, child := range n.Children {
		if child.Key == key {
			return child
		}
	}
	return nil
}

// Endpoint is one documented operation. Category is the " > "-joined
// ancestry at the point of extraction, which is deliberately distinct
// from Node.Path. RequestBody and Responses are preserved verbatim.
type Endpoint struct {
	Category    string          `json:"category,omitempty"`
	Raw         string          `json:"endpoint"`
	Method      string          `json:"method"`
	URL         string          `json:"url"`
	Description string          `json:"description"`
	RequestBody json.RawMessage `json:"request_body,omitempty"`
	CurlCommand string          `json:"curl_command,omitempty"`
	Responses   json.RawMessage `json:"responses,omitempty"`
}

// DisplayLabel renders the endpoint the way navigation lists show it.
func (e Endpoint) DisplayLabel() string {
	return e.Method + " " + e.URL
}

// RequestExample is the minimal bundle needed to pre-fill a tester
// form for an endpoint.
type RequestExample struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    json.RawMessage   `json:"body,omitempty"`
}

// Document is the result of one parse: the navigation tree plus the
// flat, order-preserving endpoint list. Both are rebuilt from scratch
// on every Parse call.
type Document struct {
	Tree      []*Node    `json:"navigation"`
	Endpoints []Endpoint `json:"endpoints"`
}
