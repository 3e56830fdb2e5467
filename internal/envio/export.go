package envio

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/apidash/internal/errdef"
	"github.com/unkn0wn-root/apidash/internal/store"
)

const exportedBy = "apidash"

// secretWords marks variables whose values are masked in Markdown and
// typed as secret in Postman exports.
var secretWords = []string{"password", "token", "secret", "key", "auth"}

func isSecretName(name string) bool {
	lowered := strings.ToLower(name)
	for _, word := range secretWords {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}

func sortedKeys(variables map[string]string) []string {
	keys := make([]string, 0, len(variables))
	for key := range variables {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ExportJSON renders an environment in the dashboard's own JSON
// format, the same shape LoadVariables understands on the way back in.
func ExportJSON(env store.Environment, now time.Time) ([]byte, error) {
	payload := map[string]interface{}{
		"metadata": map[string]interface{}{
			"export_timestamp": now.Format(time.RFC3339),
			"environment_name": env.Name,
			"description":      env.Description,
			"source":           exportedBy,
		},
		"variables": env.Variables,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeUnknown, err, "encode environment export")
	}
	return data, nil
}

type postmanEnvValue struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

type postmanEnvExport struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Values        []postmanEnvValue `json:"values"`
	Scope         string            `json:"_postman_variable_scope"`
	ExportedAt    string            `json:"_postman_exported_at"`
	ExportedUsing string            `json:"_postman_exported_using"`
}

// ExportPostman renders the scoped-variable format Postman imports.
func ExportPostman(env store.Environment, now time.Time) ([]byte, error) {
	export := postmanEnvExport{
		ID:            uuid.NewString(),
		Name:          env.Name,
		Scope:         "environment",
		ExportedAt:    now.UTC().Format(time.RFC3339),
		ExportedUsing: exportedBy,
	}
	for _, key := range sortedKeys(env.Variables) {
		varType := "default"
		if isSecretName(key) {
			varType = "secret"
		}
		export.Values = append(export.Values, postmanEnvValue{
			Key:     key,
			Value:   env.Variables[key],
			Type:    varType,
			Enabled: true,
		})
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeUnknown, err, "encode postman environment")
	}
	return data, nil
}

// ExportMarkdown renders a variable table with secret values masked.
func ExportMarkdown(env store.Environment, now time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# Environment Variables: %s\n\n", env.Name)
	fmt.Fprintf(&b, "Generated on: %s\n\n", now.Format("2006-01-02 15:04:05"))

	b.WriteString("## Description\n")
	if env.Description != "" {
		b.WriteString(env.Description)
	} else {
		b.WriteString("No description available")
	}
	b.WriteString("\n\n## Variables\n\n")
	b.WriteString("| Variable | Value | Type |\n")
	b.WriteString("|----------|-------|------|\n")

	for _, key := range sortedKeys(env.Variables) {
		value := env.Variables[key]
		varType := "Default"
		if isSecretName(key) {
			value = "***HIDDEN***"
			varType = "Secret"
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", key, value, varType)
	}

	fmt.Fprintf(&b, "\n## Summary\n- Total Variables: %d\n", len(env.Variables))
	return []byte(b.String())
}

// ExportReport summarizes every stored environment, flagging the
// active one.
func ExportReport(envs []store.Environment, now time.Time) ([]byte, error) {
	summary := map[string]interface{}{
		"total_environments": len(envs),
		"export_date":        now.Format(time.RFC3339),
		"active_environment": nil,
	}

	entries := make([]map[string]interface{}, 0, len(envs))
	for _, env := range envs {
		if env.IsActive {
			summary["active_environment"] = env.Name
		}
		entries = append(entries, map[string]interface{}{
			"name":           env.Name,
			"description":    env.Description,
			"is_active":      env.IsActive,
			"variable_count": len(env.Variables),
			"created_at":     env.CreatedAt.Format(time.RFC3339),
			"variables":      env.Variables,
		})
	}

	data, err := json.MarshalIndent(map[string]interface{}{
		"summary":      summary,
		"environments": entries,
	}, "", "  ")
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeUnknown, err, "encode environment report")
	}
	return data, nil
}
