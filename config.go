package dbbind

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is the environment-driven setup of a Binder.
type Config struct {
	// TypeMapFile is an optional YAML type map applied on top of the
	// standard registry (or an empty one).
	TypeMapFile string `env:"DBBIND_TYPE_MAP"`

	// NameConvention maps Go field names without a db tag: none, snake or lower.
	NameConvention string `env:"DBBIND_NAME_CONVENTION" envDefault:"none"`

	LogLevel slog.Level `env:"DBBIND_LOG_LEVEL" envDefault:"INFO"`

	EscapeArrayNames bool `env:"DBBIND_ESCAPE_ARRAY_NAMES" envDefault:"true"`

	// StandardTypes seeds the registry with common Go type mappings.
	StandardTypes bool `env:"DBBIND_STANDARD_TYPES" envDefault:"true"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// NameMapper returns the mapper selected by NameConvention.
func (c Config) NameMapper() (NameMapper, error) {
	switch strings.ToLower(c.NameConvention) {
	case "", "none":
		return nil, nil
	case "snake", "snake_case":
		return SnakeCase, nil
	case "lower", "lowercase":
		return LowerCase, nil
	default:
		return nil, invalidArgument("unknown name convention %q", c.NameConvention)
	}
}

// NewFromConfig builds a Binder from cfg. A nil logger writes text records at
// cfg.LogLevel to stderr.
func NewFromConfig(cfg Config, logger *slog.Logger) (*Binder, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	}

	names, err := cfg.NameMapper()
	if err != nil {
		return nil, err
	}

	rb := NewRegistryBuilder()
	if cfg.StandardTypes {
		rb = StandardRegistry()
	}
	if cfg.TypeMapFile != "" {
		if err := LoadTypeMapFile(rb, cfg.TypeMapFile); err != nil {
			return nil, err
		}
	}
	registry := rb.Build()

	logger.Debug("binder configured",
		slog.Int("registry_types", registry.Len()),
		slog.String("name_convention", cfg.NameConvention),
		slog.Bool("escape_array_names", cfg.EscapeArrayNames))

	return New(
		WithRegistry(registry),
		WithCatalog(NewCatalog(names, logger)),
		WithLogger(logger),
		WithArrayNameEscaping(cfg.EscapeArrayNames),
	), nil
}
