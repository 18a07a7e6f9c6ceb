// Package config provides unified configuration loading for the analyzer.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the analyzer.
type Config struct {
	Marketplace   MarketplaceConfig   `yaml:"marketplace"`
	Completion    CompletionConfig    `yaml:"completion"`
	Scoring       ScoringConfig       `yaml:"scoring"`
	Kits          KitsConfig          `yaml:"kits"`
	Categories    CategoriesConfig    `yaml:"categories"`
	Cache         CacheConfig         `yaml:"cache"`
	Report        ReportConfig        `yaml:"report"`
	History       HistoryConfig       `yaml:"history"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// MarketplaceConfig holds public marketplace scraping settings.
type MarketplaceConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	BackoffFactor  float64       `yaml:"backoff_factor"`
	MaxListings    int           `yaml:"max_listings"`
	DetailLookups  int           `yaml:"detail_lookups"`  // listings whose seller page is fetched
	MinQueryLength int           `yaml:"min_query_length"`
}

// CompletionConfig holds text-completion service settings.
type CompletionConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"-"` // env only, never from file
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Enabled reports whether the completion collaborator can be called at all.
func (c CompletionConfig) Enabled() bool {
	return c.APIKey != ""
}

// ScoringConfig holds scoring engine settings.
type ScoringConfig struct {
	UseAI      bool          `yaml:"use_ai"`
	Retries    int           `yaml:"retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// KitsConfig holds kit composition settings.
type KitsConfig struct {
	MaxKits       int     `yaml:"max_kits"`
	KitSize       int     `yaml:"kit_size"`
	UseAI         bool    `yaml:"use_ai"`
	AIAcceptRatio float64 `yaml:"ai_accept_ratio"` // accept AI kits when count >= ratio*max_kits
}

// CategoriesConfig carries the hand-curated product taxonomy. It is data,
// not logic: the keyword lists and complementary pairs are configurable and
// default to the curated sets below.
type CategoriesConfig struct {
	Keywords map[string][]string `yaml:"keywords"`
	Pairs    [][2]string         `yaml:"pairs"`
	Fallback string              `yaml:"fallback"`
}

// CacheConfig holds marketplace lookup cache settings.
type CacheConfig struct {
	Driver string        `yaml:"driver"` // memory, redis or none
	TTL    time.Duration `yaml:"ttl"`
	Redis  RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Prefix   string `yaml:"prefix"`
}

// ReportConfig holds report output settings.
type ReportConfig struct {
	OutputDir    string `yaml:"output_dir"`
	ProductsFile string `yaml:"products_file"`
	KitsFile     string `yaml:"kits_file"`
}

// HistoryConfig holds run history store settings.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Marketplace: MarketplaceConfig{
			BaseURL:        "https://www.mercadolivre.com.br",
			Timeout:        15 * time.Second,
			MaxRetries:     3,
			BackoffFactor:  1.5,
			MaxListings:    10,
			DetailLookups:  3,
			MinQueryLength: 3,
		},
		Completion: CompletionConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.3,
			MaxTokens:   1000,
			Timeout:     30 * time.Second,
		},
		Scoring: ScoringConfig{
			UseAI:      true,
			Retries:    2,
			RetryDelay: 2 * time.Second,
		},
		Kits: KitsConfig{
			MaxKits:       5,
			KitSize:       3,
			UseAI:         true,
			AIAcceptRatio: 0.5,
		},
		Categories: DefaultCategories(),
		Cache: CacheConfig{
			Driver: "memory",
			TTL:    30 * time.Minute,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				PoolSize: 10,
				Prefix:   "mercascan:",
			},
		},
		Report: ReportConfig{
			OutputDir:    ".",
			ProductsFile: "analise_produtos.xlsx",
			KitsFile:     "kits_recomendados.xlsx",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "mercascan.db",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// DefaultCategories returns the curated product taxonomy. The keyword lists
// mirror the catalog vocabulary the extraction targets (Portuguese product
// descriptions).
func DefaultCategories() CategoriesConfig {
	return CategoriesConfig{
		Keywords: map[string][]string{
			"Eletrônicos":      {"celular", "smartphone", "tv", "televisão", "monitor", "tablet", "notebook", "laptop", "fone", "headphone"},
			"Informática":      {"computador", "pc", "teclado", "mouse", "impressora", "scanner", "webcam", "hd", "ssd", "pendrive"},
			"Móveis":           {"mesa", "cadeira", "sofá", "poltrona", "armário", "estante", "cama", "guarda-roupa", "criado-mudo"},
			"Eletrodomésticos": {"geladeira", "fogão", "microondas", "liquidificador", "batedeira", "cafeteira", "aspirador"},
			"Ferramentas":      {"martelo", "chave", "parafusadeira", "furadeira", "alicate", "serra", "esmerilhadeira"},
			"Decoração":        {"tapete", "cortina", "quadro", "luminária", "espelho", "vaso", "almofada"},
			"Vestuário":        {"camisa", "camiseta", "calça", "vestido", "bermuda", "jaqueta", "casaco", "sapato", "tênis"},
			"Brinquedos":       {"boneca", "carrinho", "jogo", "puzzle", "quebra-cabeça", "lego", "nerf"},
		},
		Pairs: [][2]string{
			{"Eletrônicos", "Informática"},
			{"Móveis", "Decoração"},
			{"Ferramentas", "Eletrodomésticos"},
		},
		Fallback: "Diversos",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Marketplace.Timeout <= 0 {
		return fmt.Errorf("marketplace timeout must be positive")
	}
	if c.Marketplace.MaxRetries < 0 {
		return fmt.Errorf("marketplace max_retries must not be negative")
	}
	if c.Marketplace.BackoffFactor < 1 {
		return fmt.Errorf("marketplace backoff_factor must be >= 1")
	}
	if c.Kits.KitSize < 2 {
		return fmt.Errorf("kit_size must be at least 2")
	}
	if c.Kits.MaxKits < 1 {
		return fmt.Errorf("max_kits must be at least 1")
	}
	if c.Kits.AIAcceptRatio <= 0 || c.Kits.AIAcceptRatio > 1 {
		return fmt.Errorf("ai_accept_ratio must be in (0,1]")
	}
	switch c.Cache.Driver {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Completion.APIKey = v
	}

	if v := os.Getenv("COMPLETION_BASE_URL"); v != "" {
		cfg.Completion.BaseURL = v
	}

	if v := os.Getenv("COMPLETION_MODEL"); v != "" {
		cfg.Completion.Model = v
	}

	if v := os.Getenv("MARKETPLACE_BASE_URL"); v != "" {
		cfg.Marketplace.BaseURL = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("MAX_KITS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Kits.MaxKits = n
		}
	}

	if v := os.Getenv("KIT_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			cfg.Kits.KitSize = n
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
