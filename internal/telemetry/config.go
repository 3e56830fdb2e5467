package telemetry

import (
	"strings"
	"time"
)

const (
	envEndpoint = "APIDASH_OTEL_ENDPOINT"
	envInsecure = "APIDASH_OTEL_INSECURE"
	envService  = "APIDASH_OTEL_SERVICE"
	envHeaders  = "APIDASH_OTEL_HEADERS"

	defaultServiceName = "apidash"
)

type Config struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
	Version     string
	Headers     map[string]string
	DialTimeout time.Duration
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

// ConfigFromEnv reads the exporter configuration from environment
// variables via the supplied lookup so tests can inject their own.
func ConfigFromEnv(getenv func(string) string) Config {
	cfg := Config{
		Endpoint:    strings.TrimSpace(getenv(envEndpoint)),
		ServiceName: strings.TrimSpace(getenv(envService)),
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}
	switch strings.ToLower(strings.TrimSpace(getenv(envInsecure))) {
	case "1", "true", "yes":
		cfg.Insecure = true
	}
	if raw := strings.TrimSpace(getenv(envHeaders)); raw != "" {
		cfg.Headers = parseHeaderList(raw)
	}
	return cfg
}

// parseHeaderList handles "key1=val1,key2=val2" the way OTEL exporters
// expect header env values.
func parseHeaderList(raw string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(value)
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}
