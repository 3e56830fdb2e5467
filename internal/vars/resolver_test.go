package vars

import (
	"regexp"
	"strconv"
	"testing"
	"time"
)

func TestExpandTemplates(t *testing.T) {
	resolver := NewResolver(NewMapProvider("production", map[string]string{
		"base_url": "https://api.example.com",
		"token":    "abc123",
	}))

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single variable", "{{base_url}}/v1/users", "https://api.example.com/v1/users"},
		{"multiple variables", "{{base_url}}?t={{token}}", "https://api.example.com?t=abc123"},
		{"unknown left untouched", "{{base_url}}/{{missing}}", "https://api.example.com/{{missing}}"},
		{"no templates", "https://plain.example.com", "https://plain.example.com"},
		{"empty input", "", ""},
		{"empty braces untouched", "{{}}", "{{}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolver.ExpandTemplates(tt.input); got != tt.want {
				t.Fatalf("ExpandTemplates(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExpandTemplatesIsIdempotentWithoutMatches(t *testing.T) {
	resolver := NewResolver(NewMapProvider("empty", nil))
	input := "{{a}} and {{b}} stay"
	once := resolver.ExpandTemplates(input)
	twice := resolver.ExpandTemplates(once)
	if once != input || twice != input {
		t.Fatalf("expansion mutated unknown tokens: %q -> %q -> %q", input, once, twice)
	}
}

func TestMapProviderIsCaseSensitive(t *testing.T) {
	resolver := NewResolver(NewMapProvider("env", map[string]string{"Token": "upper"}))
	if got := resolver.ExpandTemplates("{{token}}"); got != "{{token}}" {
		t.Fatalf("lowercase lookup resolved to %q, want untouched", got)
	}
	if got := resolver.ExpandTemplates("{{Token}}"); got != "upper" {
		t.Fatalf("exact lookup = %q, want upper", got)
	}
}

func TestResolverProviderPrefix(t *testing.T) {
	resolver := NewResolver(
		NewMapProvider("production", map[string]string{"api_key": "prod-key"}),
		NewMapProvider("staging", map[string]string{"api_key": "stage-key"}),
	)

	if got, ok := resolver.Resolve("production.api_key"); !ok || got != "prod-key" {
		t.Fatalf("prefixed lookup = %q ok=%v", got, ok)
	}
	if got, ok := resolver.Resolve("staging.api_key"); !ok || got != "stage-key" {
		t.Fatalf("prefixed lookup = %q ok=%v", got, ok)
	}
	if _, ok := resolver.Resolve("other.api_key"); ok {
		t.Fatalf("unknown prefix should not resolve")
	}
	if got, ok := resolver.Resolve("api_key"); !ok || got != "prod-key" {
		t.Fatalf("direct lookup should hit the first provider, got %q ok=%v", got, ok)
	}
}

func TestDynamicVariables(t *testing.T) {
	resolver := NewResolver(NewMapProvider("empty", nil))

	ts := resolver.ExpandTemplates("{{$timestamp}}")
	seconds, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		t.Fatalf("$timestamp produced %q: %v", ts, err)
	}
	if delta := time.Now().Unix() - seconds; delta < 0 || delta > 5 {
		t.Fatalf("$timestamp too far from now: %d", seconds)
	}

	iso := resolver.ExpandTemplates("{{$timestampIso8601}}")
	if _, err := time.Parse(time.RFC3339, iso); err != nil {
		t.Fatalf("$timestampIso8601 produced %q: %v", iso, err)
	}

	uuidPattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	id := resolver.ExpandTemplates("{{$uuid}}")
	if !uuidPattern.MatchString(id) {
		t.Fatalf("$uuid produced %q", id)
	}
	if other := resolver.ExpandTemplates("{{$guid}}"); !uuidPattern.MatchString(other) {
		t.Fatalf("$guid produced %q", other)
	}

	if got := resolver.ExpandTemplates("{{$randomint}}"); got == "{{$randomint}}" {
		t.Fatalf("$randomint did not expand")
	}

	// provider values win over dynamic generation
	pinned := NewResolver(NewMapProvider("env", map[string]string{"$uuid": "fixed"}))
	if got := pinned.ExpandTemplates("{{$uuid}}"); got != "fixed" {
		t.Fatalf("provider should shadow dynamic value, got %q", got)
	}
}

func TestEnvProvider(t *testing.T) {
	t.Setenv("APIDASH_TEST_VALUE", "from-env")
	provider := EnvProvider{}

	if got, ok := provider.Resolve("APIDASH_TEST_VALUE"); !ok || got != "from-env" {
		t.Fatalf("env lookup = %q ok=%v", got, ok)
	}
	if got, ok := provider.Resolve("apidash_test_value"); !ok || got != "from-env" {
		t.Fatalf("uppercase fallback = %q ok=%v", got, ok)
	}
}
