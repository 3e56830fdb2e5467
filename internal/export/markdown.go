package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/unkn0wn-root/apidash/internal/catalog"
)

var methodBadges = map[string]string{
	"GET":    "🟢",
	"POST":   "🟡",
	"PUT":    "🔵",
	"DELETE": "🔴",
	"PATCH":  "🟠",
}

// Markdown renders the full documentation with a linked table of
// contents and one detail section per endpoint.
func Markdown(doc *catalog.Document, name, source string, now time.Time) []byte {
	endpoints := doc.Endpoints
	categories := doc.Categories()

	var b strings.Builder
	fmt.Fprintf(&b, "# %s API Documentation\n\n", name)
	fmt.Fprintf(&b, "**Generated on:** %s  \n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Source:** %s  \n", source)
	fmt.Fprintf(&b, "**Total Endpoints:** %d  \n", len(endpoints))
	fmt.Fprintf(&b, "**Categories:** %d\n\n", len(categories))
	b.WriteString("---\n\n## Table of Contents\n\n### Quick Navigation\n")

	for _, category := range categories {
		categoryEndpoints := doc.ByCategory(category)
		fmt.Fprintf(&b, "\n#### [%s](#%s) (%d endpoints)\n",
			category, anchorFor(category), len(categoryEndpoints))
		for _, ep := range categoryEndpoints {
			label := ep.DisplayLabel()
			fmt.Fprintf(&b, "- [%s](#%s)\n", label, anchorFor(label))
		}
	}
	b.WriteString("\n---\n")

	for _, category := range categories {
		categoryEndpoints := doc.ByCategory(category)
		if len(categoryEndpoints) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", category)

		for _, ep := range categoryEndpoints {
			writeEndpointSection(&b, ep)
		}
	}

	fmt.Fprintf(&b, "\n## Documentation Metadata\n\n")
	fmt.Fprintf(&b, "- **Export Date:** %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- **Source Document:** %s\n", name)
	fmt.Fprintf(&b, "- **Total Categories:** %d\n", len(categories))
	fmt.Fprintf(&b, "- **Total Endpoints:** %d\n\n", len(endpoints))
	b.WriteString("---\n\n*Generated by apidash*\n")
	return []byte(b.String())
}

func writeEndpointSection(b *strings.Builder, ep catalog.Endpoint) {
	label := ep.DisplayLabel()
	fmt.Fprintf(b, "### %s\n\n", label)

	badge := methodBadges[ep.Method]
	if badge == "" {
		badge = "⚪"
	}
	fmt.Fprintf(b, "%s **%s** `%s`\n\n", badge, ep.Method, ep.URL)

	description := ep.Description
	if description == "" {
		description = "No description available"
	}
	fmt.Fprintf(b, "**Description:** %s\n\n", description)

	b.WriteString("#### Request Details\n\n**Headers:**\n")
	b.WriteString("```\nContent-Type: application/json\nAuthorization: Bearer {{access_token}}\n```\n\n")

	if len(ep.RequestBody) > 0 {
		b.WriteString("**Request Body:**\n```json\n")
		b.WriteString(prettyJSON(ep.RequestBody))
		b.WriteString("\n```\n\n")
	}
	if ep.CurlCommand != "" {
		b.WriteString("**cURL Example:**\n```bash\n")
		b.WriteString(ep.CurlCommand)
		b.WriteString("\n```\n\n")
	}
	if len(ep.Responses) > 0 {
		writeResponseExamples(b, ep.Responses)
	}
	b.WriteString("---\n\n")
}

func writeResponseExamples(b *strings.Builder, responses json.RawMessage) {
	var decoded map[string]struct {
		StatusCode  interface{}     `json:"status_code"`
		Description string          `json:"description"`
		Example     json.RawMessage `json:"example"`
	}
	if err := json.Unmarshal(responses, &decoded); err != nil || len(decoded) == 0 {
		return
	}

	b.WriteString("#### Response Examples\n\n")
	names := make([]string, 0, len(decoded))
	for name := range decoded {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		response := decoded[name]
		status := "N/A"
		if response.StatusCode != nil {
			status = fmt.Sprintf("%v", response.StatusCode)
		}
		description := response.Description
		if description == "" {
			description = "N/A"
		}
		fmt.Fprintf(b, "**%s Response (%s):**\n*%s*\n\n", titleCase(name), status, description)
		if len(response.Example) > 0 {
			b.WriteString("```json\n")
			b.WriteString(prettyJSON(response.Example))
			b.WriteString("\n```\n\n")
		}
	}
}

// anchorFor mirrors how the markdown viewer slugs headings.
func anchorFor(heading string) string {
	anchor := strings.ToLower(heading)
	anchor = strings.ReplaceAll(anchor, " ", "-")
	anchor = strings.ReplaceAll(anchor, "/", "-")
	anchor = strings.ReplaceAll(anchor, "{", "")
	anchor = strings.ReplaceAll(anchor, "}", "")
	return anchor
}

func prettyJSON(raw json.RawMessage) string {
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return string(raw)
	}
	pretty, err := json.MarshalIndent(decoded, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(pretty)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
