package envio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/unkn0wn-root/apidash/internal/errdef"
	"github.com/unkn0wn-root/apidash/internal/vars"
)

type Format string

const (
	FormatPostman   Format = "postman"
	FormatVariables Format = "variables"
	FormatGeneric   Format = "generic"
	FormatDotEnv    Format = "dotenv"
)

// Imported is an environment recovered from an uploaded file, before
// it is named and saved.
type Imported struct {
	Name        string
	Description string
	Variables   map[string]string
	Format      Format
}

const defaultImportName = "Imported Environment"

type postmanEnvFile struct {
	Scope  string `json:"_postman_variable_scope"`
	Name   string `json:"name"`
	Values []struct {
		Key     string `json:"key"`
		Value   string `json:"value"`
		Enabled *bool  `json:"enabled"`
	} `json:"values"`
}

type variablesEnvFile struct {
	Variables map[string]json.RawMessage `json:"variables"`
	Metadata  struct {
		EnvironmentName string `json:"environment_name"`
		Description     string `json:"description"`
	} `json:"metadata"`
}

// Load detects the environment file format and extracts the variable
// mapping. Three JSON shapes are recognized, in order: the Postman
// scoped-variable format, a top-level "variables" mapping, and as a
// fallback the entire object treated as the mapping itself.
func Load(data []byte) (*Imported, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errdef.Wrap(errdef.CodeParse, err, "parse environment file")
	}

	if scopeRaw, ok := probe["_postman_variable_scope"]; ok {
		var scope string
		if err := json.Unmarshal(scopeRaw, &scope); err == nil && scope == "environment" {
			return loadPostman(data)
		}
	}
	if raw, ok := probe["variables"]; ok && bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return loadVariables(data)
	}
	return loadGeneric(probe)
}

// LoadFile reads an environment file from disk, treating .env-looking
// paths as dotenv and everything else as JSON.
func LoadFile(path string) (*Imported, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "read environment file %s", path)
	}
	if vars.IsDotEnvPath(path) {
		values, err := vars.ParseDotEnv(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return &Imported{
			Name:      defaultImportName,
			Variables: values,
			Format:    FormatDotEnv,
		}, nil
	}
	return Load(data)
}

func loadPostman(data []byte) (*Imported, error) {
	var file postmanEnvFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errdef.Wrap(errdef.CodeParse, err, "parse postman environment")
	}

	name := file.Name
	if name == "" {
		name = defaultImportName
	}
	variables := make(map[string]string, len(file.Values))
	for _, value := range file.Values {
		// disabled entries are skipped; a missing flag counts as enabled
		if value.Enabled != nil && !*value.Enabled {
			continue
		}
		variables[value.Key] = value.Value
	}
	return &Imported{Name: name, Variables: variables, Format: FormatPostman}, nil
}

func loadVariables(data []byte) (*Imported, error) {
	var file variablesEnvFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errdef.Wrap(errdef.CodeParse, err, "parse environment variables")
	}

	name := file.Metadata.EnvironmentName
	if name == "" {
		name = defaultImportName
	}
	variables := make(map[string]string, len(file.Variables))
	for key, raw := range file.Variables {
		variables[key] = rawToString(raw)
	}
	return &Imported{
		Name:        name,
		Description: file.Metadata.Description,
		Variables:   variables,
		Format:      FormatVariables,
	}, nil
}

func loadGeneric(probe map[string]json.RawMessage) (*Imported, error) {
	variables := make(map[string]string, len(probe))
	for key, raw := range probe {
		variables[key] = rawToString(raw)
	}
	return &Imported{
		Name:      defaultImportName,
		Variables: variables,
		Format:    FormatGeneric,
	}, nil
}

// rawToString keeps string values unquoted and renders everything
// else as compact JSON.
func rawToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err == nil {
		switch tv := v.(type) {
		case float64:
			if tv == float64(int64(tv)) {
				return fmt.Sprintf("%d", int64(tv))
			}
			return fmt.Sprintf("%v", tv)
		case bool:
			return fmt.Sprintf("%t", tv)
		case nil:
			return ""
		}
	}
	return string(bytes.TrimSpace(raw))
}
