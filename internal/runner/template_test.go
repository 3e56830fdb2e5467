package runner

import (
	"testing"

	"github.com/unkn0wn-root/apidash/internal/errdef"
)

func TestParseHeaderTemplate(t *testing.T) {
	headers, err := ParseHeaderTemplate(`{"Authorization": "Bearer {{token}}", "X-Retries": 3}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if headers["Authorization"] != "Bearer {{token}}" {
		t.Fatalf("authorization = %q", headers["Authorization"])
	}
	if headers["X-Retries"] != "3" {
		t.Fatalf("numeric value = %q, want 3", headers["X-Retries"])
	}
}

func TestParseHeaderTemplateEmpty(t *testing.T) {
	headers, err := ParseHeaderTemplate("   ")
	if err != nil || headers != nil {
		t.Fatalf("empty input: headers=%v err=%v", headers, err)
	}
}

func TestParseTemplatesRejectInvalidJSON(t *testing.T) {
	if _, err := ParseHeaderTemplate(`{not json}`); errdef.CodeOf(err) != errdef.CodeTemplate {
		t.Fatalf("headers error code = %q", errdef.CodeOf(err))
	}
	if _, err := ParseBodyTemplate(`{"open": `); errdef.CodeOf(err) != errdef.CodeTemplate {
		t.Fatalf("body error code = %q", errdef.CodeOf(err))
	}
	if _, err := ParseQueryTemplate(`[1,2]`); errdef.CodeOf(err) != errdef.CodeTemplate {
		t.Fatalf("query error code = %q", errdef.CodeOf(err))
	}
}

func TestParseBodyTemplate(t *testing.T) {
	body, err := ParseBodyTemplate(`{"name": "Ada", "tags": ["a", "b"]}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	decoded, ok := body.(map[string]interface{})
	if !ok || decoded["name"] != "Ada" {
		t.Fatalf("body = %#v", body)
	}

	if body, err := ParseBodyTemplate(""); err != nil || body != nil {
		t.Fatalf("empty body: %v %v", body, err)
	}
}

func TestParseQueryTemplateCoercion(t *testing.T) {
	params, err := ParseQueryTemplate(`{"page": 2, "ratio": 1.5, "flag": true, "name": "x", "gone": null}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := map[string]string{"page": "2", "ratio": "1.5", "flag": "true", "name": "x", "gone": ""}
	for key, wantValue := range want {
		if params[key] != wantValue {
			t.Fatalf("%s = %q, want %q", key, params[key], wantValue)
		}
	}
}
