package config

import (
	"errors"
	"fmt"
)

var validEnvs = map[string]struct{}{
	EnvDevelopment: {},
	EnvStaging:     {},
	EnvProduction:  {},
}

// Validate checks a loaded configuration for invalid settings.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration is nil")
	}

	var errs []error
	if cfg.App.Name == "" {
		errs = append(errs, errors.New("app.name must not be empty"))
	}
	if _, ok := validEnvs[cfg.App.Env]; !ok {
		errs = append(errs, fmt.Errorf("app.env %q must be one of development, staging, production", cfg.App.Env))
	}
	if cfg.App.Rate.Limit < 0 {
		errs = append(errs, errors.New("app.rate.limit must not be negative"))
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", cfg.Server.Port))
	}
	if cfg.Binding.MaxWrapperDepth < 1 {
		errs = append(errs, errors.New("binding.maxwrapperdepth must be positive"))
	}
	if cfg.Binding.MaxNestedDepth < 1 {
		errs = append(errs, errors.New("binding.maxnesteddepth must be positive"))
	}

	return errors.Join(errs...)
}
