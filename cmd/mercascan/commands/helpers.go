package commands

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mercascan/mercascan/internal/cache"
	"github.com/mercascan/mercascan/internal/config"
	"github.com/mercascan/mercascan/internal/observability"
)

// loadConfig loads configuration from the --config file (or defaults plus
// environment overrides) and validates it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level := cfg.Observability.LogLevel
	if verbose {
		level = "debug"
	}
	return observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "mercascan",
	})
}

// openCache builds the configured cache client, degrading to no cache when
// the backend is unreachable.
func openCache(cfg *config.Config, log zerolog.Logger) cache.Client {
	client, err := cache.FromConfig(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("cache unavailable, lookups will not be cached")
		return cache.Nop{}
	}
	return client
}
