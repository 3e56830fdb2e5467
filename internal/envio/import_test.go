package envio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPostmanFormat(t *testing.T) {
	data := []byte(`{
		"_postman_variable_scope": "environment",
		"name": "Production",
		"values": [
			{"key": "base_url", "value": "https://api.example.com", "enabled": true},
			{"key": "token", "value": "abc"},
			{"key": "disabled_key", "value": "skip-me", "enabled": false}
		]
	}`)

	imported, err := Load(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if imported.Format != FormatPostman {
		t.Fatalf("format = %q", imported.Format)
	}
	if imported.Name != "Production" {
		t.Fatalf("name = %q", imported.Name)
	}
	if len(imported.Variables) != 2 {
		t.Fatalf("variables = %v", imported.Variables)
	}
	// a missing enabled flag counts as enabled
	if imported.Variables["token"] != "abc" {
		t.Fatalf("token = %q", imported.Variables["token"])
	}
	if _, ok := imported.Variables["disabled_key"]; ok {
		t.Fatalf("disabled entry imported")
	}
}

func TestLoadVariablesFormat(t *testing.T) {
	data := []byte(`{
		"metadata": {"environment_name": "Staging", "description": "pre-prod"},
		"variables": {"base_url": "https://staging.example.com", "retries": 3}
	}`)

	imported, err := Load(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if imported.Format != FormatVariables {
		t.Fatalf("format = %q", imported.Format)
	}
	if imported.Name != "Staging" || imported.Description != "pre-prod" {
		t.Fatalf("metadata = %q %q", imported.Name, imported.Description)
	}
	if imported.Variables["retries"] != "3" {
		t.Fatalf("numeric variable = %q", imported.Variables["retries"])
	}
}

func TestLoadGenericFormat(t *testing.T) {
	data := []byte(`{"base_url": "https://example.com", "count": 2, "debug": true}`)

	imported, err := Load(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if imported.Format != FormatGeneric {
		t.Fatalf("format = %q", imported.Format)
	}
	if imported.Name != defaultImportName {
		t.Fatalf("name = %q", imported.Name)
	}
	want := map[string]string{"base_url": "https://example.com", "count": "2", "debug": "true"}
	for key, wantValue := range want {
		if imported.Variables[key] != wantValue {
			t.Fatalf("%s = %q, want %q", key, imported.Variables[key], wantValue)
		}
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	if _, err := Load([]byte("not json")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadFileDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "BASE_URL=https://example.com\nAPI_KEY=\"quoted\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	imported, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if imported.Format != FormatDotEnv {
		t.Fatalf("format = %q", imported.Format)
	}
	if imported.Variables["BASE_URL"] != "https://example.com" {
		t.Fatalf("BASE_URL = %q", imported.Variables["BASE_URL"])
	}
	if imported.Variables["API_KEY"] != "quoted" {
		t.Fatalf("API_KEY = %q", imported.Variables["API_KEY"])
	}
}

func TestLoadFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "environment.json")
	if err := os.WriteFile(path, []byte(`{"key": "value"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	imported, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if imported.Format != FormatGeneric {
		t.Fatalf("format = %q", imported.Format)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
