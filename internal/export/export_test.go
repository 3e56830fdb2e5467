package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/unkn0wn-root/apidash/internal/catalog"
)

var exportNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

const exportSampleDoc = `{
  "toc_dictionary": {
    "Users": {
      "level": 1,
      "section": {"content_text": "User management"},
      "api_endpoints": [
        {
          "endpoint": "POST /users",
          "request_body": {"name": "Ada"},
          "curl_command": "curl -X POST \"https://api.example.com/users\"",
          "responses": {"created": {"status_code": "201", "description": "Created", "example": {"id": 1}}}
        },
        {"endpoint": "GET /users"}
      ]
    },
    "Billing": {
      "level": 1,
      "is_last": true,
      "api_endpoints": [{"endpoint": "GET /invoices/{id}"}]
    }
  }
}`

func exportSample(t *testing.T) *catalog.Document {
	t.Helper()
	doc, err := catalog.Parse([]byte(exportSampleDoc))
	if err != nil {
		t.Fatalf("parse sample: %v", err)
	}
	return doc
}

func TestPostmanCollectionStructure(t *testing.T) {
	doc := exportSample(t)
	data, err := Postman(doc, "Sample", "sample.json", exportNow)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var collection struct {
		Info struct {
			Name   string `json:"name"`
			Schema string `json:"schema"`
		} `json:"info"`
		Item []struct {
			Name string `json:"name"`
			Item []struct {
				Name    string `json:"name"`
				Request struct {
					Method string `json:"method"`
					URL    struct {
						Raw   string `json:"raw"`
						Query []struct {
							Key      string `json:"key"`
							Disabled bool   `json:"disabled"`
						} `json:"query"`
					} `json:"url"`
					Body *struct {
						Mode string `json:"mode"`
						Raw  string `json:"raw"`
					} `json:"body"`
				} `json:"request"`
			} `json:"item"`
		} `json:"item"`
	}
	if err := json.Unmarshal(data, &collection); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if collection.Info.Name != "Sample API Collection" {
		t.Fatalf("info name = %q", collection.Info.Name)
	}
	if !strings.Contains(collection.Info.Schema, "v2.1.0") {
		t.Fatalf("schema = %q", collection.Info.Schema)
	}
	// one folder per category, categories sorted
	if len(collection.Item) != 2 {
		t.Fatalf("folders = %d, want 2", len(collection.Item))
	}
	if collection.Item[0].Name != "Billing" || collection.Item[1].Name != "Users" {
		t.Fatalf("folder order: %q, %q", collection.Item[0].Name, collection.Item[1].Name)
	}

	users := collection.Item[1]
	if len(users.Item) != 2 {
		t.Fatalf("user items = %d", len(users.Item))
	}
	post := users.Item[0]
	if post.Name != "POST users" {
		t.Fatalf("item name = %q", post.Name)
	}
	if post.Request.URL.Raw != "{{base_url}}/users" {
		t.Fatalf("raw url = %q", post.Request.URL.Raw)
	}
	if post.Request.Body == nil || post.Request.Body.Mode != "raw" {
		t.Fatalf("body missing on POST item")
	}

	get := users.Item[1]
	if get.Request.Body != nil {
		t.Fatalf("GET item should not carry a body")
	}
	if len(get.Request.URL.Query) != 2 || !get.Request.URL.Query[0].Disabled {
		t.Fatalf("paging query params = %v", get.Request.URL.Query)
	}
}

func TestMarkdownOutput(t *testing.T) {
	doc := exportSample(t)
	output := string(Markdown(doc, "Sample", "sample.json", exportNow))

	for _, want := range []string{
		"# Sample API Documentation",
		"**Total Endpoints:** 3",
		"## Table of Contents",
		"[POST /users](#post--users)",
		"[GET /invoices/{id}](#get--invoices-id)",
		"### POST /users",
		"🟡 **POST** `/users`",
		"**Description:** User management",
		"**cURL Example:**",
		"**Created Response (201):**",
		"*Generated by apidash*",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("markdown missing %q:\n%s", want, output)
		}
	}
}

func TestAnchorFor(t *testing.T) {
	tests := []struct {
		heading string
		want    string
	}{
		{"POST /users", "post--users"},
		{"GET /invoices/{id}", "get--invoices-id"},
		{"Users > Admins", "users->-admins"},
	}
	for _, tt := range tests {
		if got := anchorFor(tt.heading); got != tt.want {
			t.Fatalf("anchorFor(%q) = %q, want %q", tt.heading, got, tt.want)
		}
	}
}

func TestJSONDump(t *testing.T) {
	doc := exportSample(t)
	data, err := JSONDump(doc, "Sample", "sample.json", exportNow)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var decoded struct {
		Name       string            `json:"name"`
		Total      int               `json:"total_endpoints"`
		Categories []string          `json:"categories"`
		Endpoints  []json.RawMessage `json:"endpoints"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Name != "Sample" || decoded.Total != 3 {
		t.Fatalf("summary: %q %d", decoded.Name, decoded.Total)
	}
	if len(decoded.Categories) != 2 || len(decoded.Endpoints) != 3 {
		t.Fatalf("categories=%d endpoints=%d", len(decoded.Categories), len(decoded.Endpoints))
	}
}

func TestReport(t *testing.T) {
	doc := exportSample(t)
	data, err := Report(doc, exportNow)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var decoded struct {
		Summary struct {
			Total        int            `json:"total_endpoints"`
			MethodsCount map[string]int `json:"methods_count"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Summary.Total != 3 {
		t.Fatalf("total = %d", decoded.Summary.Total)
	}
	if decoded.Summary.MethodsCount["GET"] != 2 || decoded.Summary.MethodsCount["POST"] != 1 {
		t.Fatalf("methods count = %v", decoded.Summary.MethodsCount)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "export.json")
	if err := WriteFile(path, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Fatalf("content = %q", data)
	}
}
