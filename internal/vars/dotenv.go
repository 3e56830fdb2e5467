package vars

import (
	"bufio"
	"io"
	"path/filepath"
	"strings"

	"github.com/unkn0wn-root/apidash/internal/errdef"
)

// IsDotEnvPath reports whether a path intentionally looks like a .env
// file. JSON files are never treated as dotenv regardless of name.
func IsDotEnvPath(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(base, ".json") {
		return false
	}
	if base == ".env" || strings.HasPrefix(base, ".env.") || strings.HasSuffix(base, ".env") {
		return true
	}
	return false
}

// ParseDotEnv reads KEY=VALUE assignments, one per line. Blank lines
// and lines starting with # or ; are skipped; values may be wrapped in
// single or double quotes.
func ParseDotEnv(r io.Reader) (map[string]string, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	values := make(map[string]string)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
			continue
		}
		trimmed = strings.TrimPrefix(trimmed, "export ")

		key, rawValue, ok := strings.Cut(trimmed, "=")
		if !ok {
			return nil, errdef.New(errdef.CodeParse, "line %d: expected KEY=VALUE", lineNumber)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, errdef.New(errdef.CodeParse, "line %d: empty variable name", lineNumber)
		}
		values[key] = unquoteDotEnv(strings.TrimSpace(rawValue))
	}
	if err := scanner.Err(); err != nil {
		return nil, errdef.Wrap(errdef.CodeParse, err, "read env file")
	}
	return values, nil
}

func unquoteDotEnv(value string) string {
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			return value[1 : len(value)-1]
		}
	}
	// strip trailing inline comments only for unquoted values
	if idx := strings.Index(value, " #"); idx >= 0 {
		return strings.TrimSpace(value[:idx])
	}
	return value
}
