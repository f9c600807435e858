// Package config loads layered application configuration. Sources are
// merged in priority order: defaults, config.yaml, an environment specific
// config.<env>.yaml, then SKIFF_ prefixed environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables before key mapping,
// so SKIFF_SERVER_PORT populates server.port.
const EnvPrefix = "SKIFF_"

// Load reads configuration from all sources and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Config files are optional; a missing file is not an error.
	_ = k.Load(file.Provider("config.yaml"), yaml.Parser())
	if env := k.String("app.env"); env != "" {
		_ = k.Load(file.Provider(fmt.Sprintf("config.%s.yaml", env)), yaml.Parser())
	}

	if err := k.Load(envprovider.Provider(EnvPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return finish(k)
}

// LoadBytes builds a configuration from inline YAML layered over defaults.
// Intended for tests and embedded setups.
func LoadBytes(data []byte) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse config bytes: %w", err)
	}

	return finish(k)
}

func finish(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func envKeyMapper(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":       "skiff-service",
		"app.version":    "v0.1.0",
		"app.env":        EnvDevelopment,
		"app.debug":      false,
		"app.rate.limit": 100,
		"app.rate.burst": 200,

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.timeout.read":     "15s",
		"server.timeout.write":    "30s",
		"server.timeout.idle":     "60s",
		"server.timeout.shutdown": "10s",
		"server.path.base":        "",
		"server.path.health":      "/health",
		"server.path.ready":       "/ready",
		"server.path.docs":        "/openapi.yaml",

		"binding.maxwrapperdepth": 64,
		"binding.maxnesteddepth":  8,

		"docs.enabled":     true,
		"docs.title":       "",
		"docs.description": "",

		"log.level":  "info",
		"log.pretty": false,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
