package catalog

import (
	"encoding/json"
	"strings"

	"github.com/unkn0wn-root/apidash/internal/errdef"
)

const rootKey = "toc_dictionary"

// maxDepth bounds both walks. The format is assumed to describe a
// tree, but nothing in it guarantees acyclicity, so a runaway
// document fails the parse instead of blowing the stack.
const maxDepth = 64

var httpMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"}

type rootDocument struct {
	TOC *tocEntries `json:"toc_dictionary"`
}

// Parse converts a raw table-of-contents document into a navigation
// tree and a flat endpoint list. The document must carry the
// toc_dictionary root key; no partial result is returned on failure.
func Parse(data []byte) (*Document, error) {
	var root rootDocument
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errdef.Wrap(errdef.CodeParse, err, "parse api documentation")
	}
	if root.TOC == nil {
		return nil, errdef.New(errdef.CodeParse, "invalid api documentation: missing %q key", rootKey)
	}

	tree, err := buildTree(root.TOC, "", 0)
	if err != nil {
		return nil, err
	}
	endpoints, err := flattenEndpoints(root.TOC, "", 0)
	if err != nil {
		return nil, err
	}
	return &Document{Tree: tree, Endpoints: endpoints}, nil
}

// buildTree walks the entries and computes the /-joined Path for each
// node. An empty parent path yields the bare key.
func buildTree(entries *tocEntries, parentPath string, depth int) ([]*Node, error) {
	if entries.empty() {
		return nil, nil
	}
	if depth >= maxDepth {
		return nil, errdef.New(errdef.CodeParse, "navigation nesting exceeds %d levels", maxDepth)
	}

	nodes := make([]*Node, 0, len(entries.keys))
	for _, key := range entries.keys {
		entry := entries.nodes[key]
		path := key
		if parentPath != "" {
			path = parentPath + "/" + key
		}

		level := 1
		if entry.Level != nil {
			level = *entry.Level
		}

		node := &Node{
			Key:       key,
			Level:     level,
			IsLast:    entry.IsLast,
			Path:      path,
			Section:   entry.Section,
			Endpoints: convertEndpoints(entry, ""),
		}
		if !entry.Children.empty() {
			children, err := buildTree(entry.Children, path, depth+1)
			if err != nil {
				return nil, err
			}
			node.Children = children
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// flattenEndpoints re-walks the same structure independently of
// buildTree. The " > " join for Category is a separate output
// convention from Node.Path, not shared state.
func flattenEndpoints(entries *tocEntries, parentPath string, depth int) ([]Endpoint, error) {
	if entries.empty() {
		return nil, nil
	}
	if depth >= maxDepth {
		return nil, errdef.New(errdef.CodeParse, "navigation nesting exceeds %d levels", maxDepth)
	}

	var endpoints []Endpoint
	for _, key := range entries.keys {
		entry := entries.nodes[key]
		category := key
		if parentPath != "" {
			category = parentPath + " > " + key
		}

		endpoints = append(endpoints, convertEndpoints(entry, category)...)

		if !entry.Children.empty() {
			nested, err := flattenEndpoints(entry.Children, category, depth+1)
			if err != nil {
				return nil, err
			}
			endpoints = append(endpoints, nested...)
		}
	}
	return endpoints, nil
}

func convertEndpoints(entry *tocEntry, category string) []Endpoint {
	if len(entry.Endpoints) == 0 {
		return nil
	}
	out := make([]Endpoint, 0, len(entry.Endpoints))
	for _, raw := range entry.Endpoints {
		out = append(out, Endpoint{
			Category:    category,
			Raw:         raw.Endpoint,
			Method:      MethodFromRaw(raw.Endpoint),
			URL:         URLFromRaw(raw.Endpoint),
			Description: entry.Section.ContentText,
			RequestBody: raw.RequestBody,
			CurlCommand: raw.CurlCommand,
			Responses:   raw.Responses,
		})
	}
	return out
}

// MethodFromRaw derives the HTTP method from a raw "METHOD /url"
// endpoint string by case-insensitive prefix match, defaulting to GET.
func MethodFromRaw(raw string) string {
	if raw == "" {
		return "GET"
	}
	upper := strings.ToUpper(raw)
	for _, method := range httpMethods {
		if strings.HasPrefix(upper, method) {
			return method
		}
	}
	return "GET"
}

// URLFromRaw returns the remainder after the first space, or the whole
// string when no space exists.
func URLFromRaw(raw string) string {
	if raw == "" {
		return ""
	}
	if _, rest, ok := strings.Cut(raw, " "); ok {
		return rest
	}
	return raw
}

// Methods returns the fixed set of verbs the parser recognizes.
func Methods() []string {
	out := make([]string, len(httpMethods))
	copy(out, httpMethods)
	return out
}
