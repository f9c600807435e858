package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config is the root configuration structure.
type Config struct {
	App     AppConfig     `koanf:"app"`
	Server  ServerConfig  `koanf:"server"`
	Binding BindingConfig `koanf:"binding"`
	Docs    DocsConfig    `koanf:"docs"`
	Log     LogConfig     `koanf:"log"`

	k *koanf.Koanf
}

// AppConfig holds application identity settings.
type AppConfig struct {
	Name    string     `koanf:"name"`
	Version string     `koanf:"version"`
	Env     string     `koanf:"env"`
	Debug   bool       `koanf:"debug"`
	Rate    RateConfig `koanf:"rate"`
}

// RateConfig holds request rate limiting settings.
type RateConfig struct {
	// Limit is requests per second per client; zero disables limiting.
	Limit int `koanf:"limit"`
	Burst int `koanf:"burst"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout TimeoutConfig `koanf:"timeout"`
	Path    PathConfig    `koanf:"path"`
}

// TimeoutConfig holds server timeout settings.
type TimeoutConfig struct {
	Read     time.Duration `koanf:"read"`
	Write    time.Duration `koanf:"write"`
	Idle     time.Duration `koanf:"idle"`
	Shutdown time.Duration `koanf:"shutdown"`
}

// PathConfig holds the server's well-known route paths.
type PathConfig struct {
	Base   string `koanf:"base"`
	Health string `koanf:"health"`
	Ready  string `koanf:"ready"`
	Docs   string `koanf:"docs"`
}

// BindingConfig bounds the type normalization and transfer machinery.
type BindingConfig struct {
	// MaxWrapperDepth bounds wrapper annotation nesting during normalization.
	MaxWrapperDepth int `koanf:"maxwrapperdepth"`
	// MaxNestedDepth bounds nested model recursion in transfer schemas.
	MaxNestedDepth int `koanf:"maxnesteddepth"`
}

// DocsConfig holds the generated OpenAPI document settings.
type DocsConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Title       string `koanf:"title"`
	Description string `koanf:"description"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// Supported application environments.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// IsDevelopment reports whether the application runs in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == EnvDevelopment || a.Env == ""
}

// Koanf exposes the underlying koanf instance for ad-hoc key access.
func (c *Config) Koanf() *koanf.Koanf {
	return c.k
}
