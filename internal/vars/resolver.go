package vars

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"regexp"
	"strings"
	"time"
)

type Provider interface {
	Resolve(name string) (string, bool)
	Label() string
}

type Resolver struct {
	providers []Provider
}

func NewResolver(providers ...Provider) *Resolver {
	return &Resolver{providers: providers}
}

// First tries direct lookup across all providers. If that fails and
// the name has a dot, tries to match a provider prefix - so
// "production.api_key" looks for a provider labeled "production" then
// asks it for "api_key".
func (r *Resolver) Resolve(name string) (string, bool) {
	if r == nil || name == "" {
		return "", false
	}
	for _, provider := range r.providers {
		if value, ok := provider.Resolve(name); ok {
			return value, true
		}
	}
	if !strings.Contains(name, ".") {
		return "", false
	}
	lowered := strings.ToLower(name)
	for _, provider := range r.providers {
		label := strings.ToLower(strings.TrimSpace(provider.Label()))
		if label == "" {
			continue
		}
		if strings.HasPrefix(lowered, label+".") {
			subject := name[len(label)+1:]
			if subject == "" {
				continue
			}
			if value, ok := provider.Resolve(subject); ok {
				return value, true
			}
		}
	}
	return "", false
}

var templateVarPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// ExpandTemplates replaces every {{name}} token whose name a provider
// can resolve. Unknown names are left in place untouched, so expansion
// is idempotent against a mapping that resolves nothing.
func (r *Resolver) ExpandTemplates(input string) string {
	if input == "" || !strings.Contains(input, "{{") {
		return input
	}
	return templateVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		sub := templateVarPattern.FindStringSubmatch(match)
		if len(sub) < 2 || sub[1] == "" {
			return match
		}
		name := sub[1]
		if value, ok := r.Resolve(name); ok {
			return value
		}
		if strings.HasPrefix(name, "$") {
			if value, ok := resolveDynamic(name); ok {
				return value
			}
		}
		return match
	})
}

// $-prefixed names fall back to generated values when no provider
// claims them.
func resolveDynamic(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "$timestamp":
		return fmt.Sprintf("%d", time.Now().Unix()), true
	case "$timestampiso8601":
		return time.Now().UTC().Format(time.RFC3339), true
	case "$randomint":
		n, _ := rand.Int(rand.Reader, big.NewInt(1<<62))
		return n.String(), true
	case "$uuid", "$guid":
		return generateUUID(), true
	default:
		return "", false
	}
}

type MapProvider struct {
	values map[string]string
	label  string
}

// Lookups are exact: variable names are case-sensitive keys, matching
// how the stored mapping is applied during substitution.
func NewMapProvider(label string, values map[string]string) Provider {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &MapProvider{values: copied, label: label}
}

func (p *MapProvider) Resolve(name string) (string, bool) {
	value, ok := p.values[name]
	return value, ok
}

func (p *MapProvider) Label() string {
	return p.label
}

type EnvProvider struct{}

func (EnvProvider) Resolve(name string) (string, bool) {
	if value, ok := os.LookupEnv(name); ok {
		return value, true
	}
	return os.LookupEnv(strings.ToUpper(name))
}

func (EnvProvider) Label() string {
	return "env"
}

func generateUUID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
