package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/unkn0wn-root/apidash/internal/catalog"
	"github.com/unkn0wn-root/apidash/internal/errdef"
	"github.com/unkn0wn-root/apidash/internal/runner"
	"github.com/unkn0wn-root/apidash/internal/util"
)

// DefaultGroup collects operations that carry no tags.
const DefaultGroup = "General"

type ImportOptions struct {
	ResolveExternalRefs bool
	IncludeDeprecated   bool
	// PreferredServerIndex selects which server URL prefixes the
	// endpoint paths. Out-of-range values fall back to the first server.
	PreferredServerIndex int
}

// Result bundles the parsed catalog with the raw document it was built
// from, so callers can persist the raw form and serve the parsed one.
type Result struct {
	Title    string
	Version  string
	Document *catalog.Document
	Raw      []byte
}

// ImportFile converts an OpenAPI 3 spec on disk into the catalog
// document shape. YAML and JSON sources are both accepted.
func ImportFile(ctx context.Context, path string, opts ImportOptions) (*Result, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = opts.ResolveExternalRefs

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeParse, err, "load OpenAPI spec %s", path)
	}
	return convert(ctx, doc, opts)
}

// Import converts raw OpenAPI 3 spec bytes.
func Import(ctx context.Context, data []byte, opts ImportOptions) (*Result, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = opts.ResolveExternalRefs

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeParse, err, "load OpenAPI spec")
	}
	return convert(ctx, doc, opts)
}

func convert(ctx context.Context, doc *openapi3.T, opts ImportOptions) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, errdef.Wrap(errdef.CodeParse, err, "validate OpenAPI spec")
	}

	baseURL := selectBaseURL(doc.Servers, opts.PreferredServerIndex)
	ops := collectOperations(doc, baseURL, opts)

	raw, err := encodeTOC(groupByTag(doc, ops))
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeParse, err, "encode imported spec")
	}

	parsed, err := catalog.Parse(raw)
	if err != nil {
		return nil, err
	}

	result := &Result{Document: parsed, Raw: raw}
	if doc.Info != nil {
		result.Title = doc.Info.Title
		result.Version = doc.Info.Version
	}
	return result, nil
}

// operation is the flattened view of one path+method pair, already
// rendered into the raw endpoint string the catalog expects.
type operation struct {
	tag         string
	raw         string
	requestBody json.RawMessage
	curl        string
	responses   json.RawMessage
}

func collectOperations(doc *openapi3.T, baseURL string, opts ImportOptions) []operation {
	if doc.Paths == nil {
		return nil
	}

	pathMap := doc.Paths.Map()
	paths := make([]string, 0, len(pathMap))
	for path := range pathMap {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var ops []operation
	for _, path := range paths {
		item := doc.Paths.Value(path)
		if item == nil {
			continue
		}

		methodOrder := []struct {
			method string
			op     *openapi3.Operation
		}{
			{"GET", item.Get},
			{"PUT", item.Put},
			{"POST", item.Post},
			{"DELETE", item.Delete},
			{"OPTIONS", item.Options},
			{"HEAD", item.Head},
			{"PATCH", item.Patch},
		}

		for _, entry := range methodOrder {
			if entry.op == nil {
				continue
			}
			if entry.op.Deprecated && !opts.IncludeDeprecated {
				continue
			}
			ops = append(ops, normalizeOperation(path, entry.method, entry.op, baseURL))
		}
	}
	return ops
}

func normalizeOperation(path, method string, raw *openapi3.Operation, baseURL string) operation {
	op := operation{
		tag: DefaultGroup,
		raw: method + " " + path,
	}
	if len(raw.Tags) > 0 && raw.Tags[0] != "" {
		op.tag = raw.Tags[0]
	}

	op.requestBody = requestBodyExample(raw.RequestBody)
	op.responses = responseExamples(raw)

	headers := map[string]string{"Accept": "application/json"}
	var body interface{}
	if op.requestBody != nil {
		headers["Content-Type"] = "application/json"
		body = string(op.requestBody)
	}
	op.curl = runner.CurlCommand(runner.Request{
		Method:  method,
		URL:     baseURL + path,
		Headers: headers,
		Body:    body,
	})
	return op
}

// requestBodyExample prefers an explicit media-type example and falls
// back to schema example, default, then first enum value.
func requestBodyExample(ref *openapi3.RequestBodyRef) json.RawMessage {
	if ref == nil || ref.Value == nil || len(ref.Value.Content) == 0 {
		return nil
	}

	mediaTypes := make([]string, 0, len(ref.Value.Content))
	for mediaType := range ref.Value.Content {
		mediaTypes = append(mediaTypes, mediaType)
	}
	sort.Strings(mediaTypes)

	for _, mediaType := range mediaTypes {
		mt := ref.Value.Content[mediaType]
		if mt == nil {
			continue
		}
		if value, ok := mediaTypeExample(mt); ok {
			if data, err := json.Marshal(value); err == nil {
				return data
			}
		}
	}
	return nil
}

func mediaTypeExample(mt *openapi3.MediaType) (interface{}, bool) {
	if mt.Example != nil {
		return mt.Example, true
	}
	for _, ref := range mt.Examples {
		if ref != nil && ref.Value != nil && ref.Value.Value != nil {
			return ref.Value.Value, true
		}
	}
	return schemaExample(mt.Schema)
}

func schemaExample(ref *openapi3.SchemaRef) (interface{}, bool) {
	if ref == nil || ref.Value == nil {
		return nil, false
	}
	schema := ref.Value
	if schema.Example != nil {
		return schema.Example, true
	}
	if schema.Default != nil {
		return schema.Default, true
	}
	if len(schema.Enum) > 0 {
		return schema.Enum[0], true
	}
	return nil, false
}

type responseExample struct {
	StatusCode  string      `json:"status_code"`
	Description string      `json:"description"`
	Example     interface{} `json:"example,omitempty"`
}

func responseExamples(op *openapi3.Operation) json.RawMessage {
	if op.Responses == nil || op.Responses.Len() == 0 {
		return nil
	}

	codes := make([]string, 0, op.Responses.Len())
	for code := range op.Responses.Map() {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	examples := make(map[string]responseExample, len(codes))
	for _, code := range codes {
		ref := op.Responses.Value(code)
		if ref == nil || ref.Value == nil {
			continue
		}
		entry := responseExample{StatusCode: code}
		if ref.Value.Description != nil {
			entry.Description = *ref.Value.Description
		}
		for _, mt := range ref.Value.Content {
			if value, ok := mediaTypeExample(mt); ok {
				entry.Example = value
				break
			}
		}
		examples[code] = entry
	}
	if len(examples) == 0 {
		return nil
	}

	data, err := json.Marshal(examples)
	if err != nil {
		return nil
	}
	return data
}

func selectBaseURL(servers openapi3.Servers, preferred int) string {
	if len(servers) == 0 {
		return ""
	}
	if preferred < 0 || preferred >= len(servers) {
		preferred = 0
	}
	server := servers[preferred]
	if server == nil {
		return ""
	}
	return strings.TrimSuffix(resolveServerURL(server), "/")
}

// resolveServerURL substitutes {variable} placeholders with their
// default (or first enum) values.
func resolveServerURL(server *openapi3.Server) string {
	if len(server.Variables) == 0 {
		return server.URL
	}
	resolved := server.URL
	for name, variable := range server.Variables {
		replacement := variable.Default
		if replacement == "" && len(variable.Enum) > 0 {
			replacement = variable.Enum[0]
		}
		resolved = strings.ReplaceAll(resolved, "{"+name+"}", replacement)
	}
	return resolved
}

// groupByTag partitions operations by their first tag, preserving the
// order tags first appear across the sorted path walk. Declared tag
// metadata supplies group descriptions when present.
func groupByTag(doc *openapi3.T, ops []operation) ([]string, map[string]*tocGroup) {
	tags := make([]string, 0, len(ops))
	for _, op := range ops {
		tags = append(tags, op.tag)
	}
	tags = util.DedupeNonEmptyStrings(tags)

	groups := make(map[string]*tocGroup, len(tags))
	for i, tag := range tags {
		groups[tag] = &tocGroup{
			Level:   1,
			IsLast:  i == len(tags)-1,
			Section: catalog.Section{ContentText: tagDescription(doc, tag)},
		}
	}
	for _, op := range ops {
		group := groups[op.tag]
		group.Endpoints = append(group.Endpoints, tocEndpoint{
			Endpoint:    op.raw,
			RequestBody: op.requestBody,
			CurlCommand: op.curl,
			Responses:   op.responses,
		})
	}
	return tags, groups
}

func tagDescription(doc *openapi3.T, name string) string {
	for _, tag := range doc.Tags {
		if tag != nil && tag.Name == name {
			return tag.Description
		}
	}
	return ""
}

type tocGroup struct {
	Level     int             `json:"level"`
	IsLast    bool            `json:"is_last"`
	Section   catalog.Section `json:"section"`
	Endpoints []tocEndpoint   `json:"api_endpoints"`
}

type tocEndpoint struct {
	Endpoint    string          `json:"endpoint"`
	RequestBody json.RawMessage `json:"request_body,omitempty"`
	CurlCommand string          `json:"curl_command,omitempty"`
	Responses   json.RawMessage `json:"responses,omitempty"`
}

// encodeTOC writes the grouped operations as a table-of-contents
// document. Group order is significant, so the object is written by
// hand instead of through a map.
func encodeTOC(tags []string, groups map[string]*tocGroup) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"toc_dictionary":{`)
	for i, tag := range tags {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(tag)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(groups[tag])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}
