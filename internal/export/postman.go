package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/apidash/internal/catalog"
	"github.com/unkn0wn-root/apidash/internal/errdef"
)

const postmanSchema = "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"

type postmanCollection struct {
	Info     postmanInfo       `json:"info"`
	Item     []postmanFolder   `json:"item"`
	Variable []postmanVariable `json:"variable"`
}

type postmanInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PostmanID   string `json:"_postman_id"`
	Schema      string `json:"schema"`
}

type postmanVariable struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

type postmanFolder struct {
	Name        string        `json:"name"`
	Item        []postmanItem `json:"item"`
	Description string        `json:"description"`
}

type postmanItem struct {
	Name     string          `json:"name"`
	Request  postmanRequest  `json:"request"`
	Response []interface{}   `json:"response"`
}

type postmanRequest struct {
	Method      string          `json:"method"`
	Header      []postmanHeader `json:"header"`
	URL         postmanURL      `json:"url"`
	Description string          `json:"description"`
	Body        *postmanBody    `json:"body,omitempty"`
}

type postmanHeader struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

type postmanURL struct {
	Raw   string         `json:"raw"`
	Host  []string       `json:"host"`
	Path  []string       `json:"path"`
	Query []postmanQuery `json:"query,omitempty"`
}

type postmanQuery struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled"`
}

type postmanBody struct {
	Mode    string             `json:"mode"`
	Raw     string             `json:"raw"`
	Options postmanBodyOptions `json:"options"`
}

type postmanBodyOptions struct {
	Raw struct {
		Language string `json:"language"`
	} `json:"raw"`
}

// Postman converts a parsed document into a collection with one folder
// per category and one request item per endpoint.
func Postman(doc *catalog.Document, name, source string, now time.Time) ([]byte, error) {
	collection := postmanCollection{
		Info: postmanInfo{
			Name: name + " API Collection",
			Description: fmt.Sprintf("Exported from apidash\nSource: %s\nExported: %s",
				source, now.Format("2006-01-02 15:04:05")),
			PostmanID: uuid.NewString(),
			Schema:    postmanSchema,
		},
		Item: []postmanFolder{},
		Variable: []postmanVariable{
			{Key: "base_url", Value: "{{base_url}}", Type: "string"},
		},
	}

	for _, category := range doc.Categories() {
		endpoints := doc.ByCategory(category)
		if len(endpoints) == 0 {
			continue
		}
		folder := postmanFolder{
			Name:        category,
			Item:        []postmanItem{},
			Description: "All endpoints related to " + category,
		}
		for _, ep := range endpoints {
			folder.Item = append(folder.Item, buildPostmanItem(ep))
		}
		collection.Item = append(collection.Item, folder)
	}

	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeUnknown, err, "encode postman collection")
	}
	return data, nil
}

func buildPostmanItem(ep catalog.Endpoint) postmanItem {
	urlParts := strings.Split(ep.URL, "/")
	path := urlParts
	if strings.HasPrefix(ep.URL, "/") {
		path = urlParts[1:]
	}

	leaf := urlParts[len(urlParts)-1]
	if leaf == "" {
		leaf = "root"
	}

	item := postmanItem{
		Name: ep.Method + " " + leaf,
		Request: postmanRequest{
			Method: ep.Method,
			Header: []postmanHeader{
				{Key: "Content-Type", Value: "application/json", Type: "text"},
				{Key: "Authorization", Value: "Bearer {{access_token}}", Type: "text"},
			},
			URL: postmanURL{
				Raw:  "{{base_url}}" + ep.URL,
				Host: []string{"{{base_url}}"},
				Path: path,
			},
			Description: ep.Description,
		},
		Response: []interface{}{},
	}

	if len(ep.RequestBody) > 0 {
		var pretty []byte
		var decoded interface{}
		if err := json.Unmarshal(ep.RequestBody, &decoded); err == nil {
			pretty, _ = json.MarshalIndent(decoded, "", "  ")
		} else {
			pretty = ep.RequestBody
		}
		body := &postmanBody{Mode: "raw", Raw: string(pretty)}
		body.Options.Raw.Language = "json"
		item.Request.Body = body
	}

	// illustrative paging params, present but disabled, on reads
	if ep.Method == "GET" {
		item.Request.URL.Query = []postmanQuery{
			{Key: "limit", Value: "{{limit}}", Disabled: true},
			{Key: "offset", Value: "{{offset}}", Disabled: true},
		}
	}
	return item
}
