// Package config provides configuration loading and management for blocksmith.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration.
type Config struct {
	StateDir   string           `json:"state_dir"   mapstructure:"state_dir"`
	Schema     SchemaConfig     `json:"schema"      mapstructure:"schema"`
	Providers  ProvidersConfig  `json:"providers"   mapstructure:"providers"`
	Generation GenerationConfig `json:"generation"  mapstructure:"generation"`
	RateLimit  RateLimitConfig  `json:"rate_limit"  mapstructure:"rate_limit"`
	Web        WebConfig        `json:"web"         mapstructure:"web"`
}

// SchemaConfig locates the raw field-group and block-catalog sources.
type SchemaConfig struct {
	GroupDirs     []string `json:"group_dirs"      mapstructure:"group_dirs"`
	CatalogDirs   []string `json:"catalog_dirs"    mapstructure:"catalog_dirs"`
	CacheTTLHours int      `json:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// ProviderConfig holds credentials for one model provider.
type ProviderConfig struct {
	APIKey    string `json:"api_key,omitempty"     mapstructure:"api_key"`
	APIKeyEnv string `json:"api_key_env,omitempty" mapstructure:"api_key_env"`
}

// Key returns the configured API key, falling back to the environment.
func (p ProviderConfig) Key() string {
	if p.APIKey != "" {
		return p.APIKey
	}
	if p.APIKeyEnv != "" {
		return os.Getenv(p.APIKeyEnv)
	}
	return ""
}

// ProvidersConfig configures the model providers and call defaults.
type ProvidersConfig struct {
	Anthropic    ProviderConfig `json:"anthropic"     mapstructure:"anthropic"`
	OpenAI       ProviderConfig `json:"openai"        mapstructure:"openai"`
	Gemini       ProviderConfig `json:"gemini"        mapstructure:"gemini"`
	DefaultModel string         `json:"default_model" mapstructure:"default_model"`
	CheapModel   string         `json:"cheap_model"   mapstructure:"cheap_model"`
	MaxTokens    int            `json:"max_tokens"    mapstructure:"max_tokens"`
}

// GenerationConfig tunes the generation pipeline.
type GenerationConfig struct {
	AllowedRoles       []string `json:"allowed_roles"                 mapstructure:"allowed_roles"`
	ImageryKeywords    []string `json:"imagery_keywords"              mapstructure:"imagery_keywords"`
	CustomInstructions string   `json:"custom_instructions,omitempty" mapstructure:"custom_instructions"`
	IncludeLayouts     bool     `json:"include_layouts"               mapstructure:"include_layouts"`
	IncludePatterns    bool     `json:"include_patterns"              mapstructure:"include_patterns"`
}

// RateLimitConfig bounds per-caller request volume.
type RateLimitConfig struct {
	PerHour int `json:"per_hour" mapstructure:"per_hour"`
	PerDay  int `json:"per_day"  mapstructure:"per_day"`
}

// WebConfig configures the HTTP surface.
type WebConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`
}

// DefaultImageryKeywords gate the prior-art image restore heuristic. The set
// is deliberately configurable: it is not assumed to be exhaustive.
var DefaultImageryKeywords = []string{
	"image", "photo", "picture", "img", "logo", "icon", "banner", "thumbnail",
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		StateDir: ".blocksmith",
		Schema: SchemaConfig{
			GroupDirs:     []string{"fields"},
			CatalogDirs:   []string{"blocks"},
			CacheTTLHours: 24,
		},
		Providers: ProvidersConfig{
			Anthropic:    ProviderConfig{APIKeyEnv: "ANTHROPIC_API_KEY"},
			OpenAI:       ProviderConfig{APIKeyEnv: "OPENAI_API_KEY"},
			Gemini:       ProviderConfig{APIKeyEnv: "GEMINI_API_KEY"},
			DefaultModel: "claude-sonnet-4-5-20250929",
			CheapModel:   "claude-haiku-4-5-20251001",
			MaxTokens:    8192,
		},
		Generation: GenerationConfig{
			AllowedRoles:    []string{"administrator", "editor"},
			ImageryKeywords: DefaultImageryKeywords,
			IncludeLayouts:  true,
			IncludePatterns: true,
		},
		RateLimit: RateLimitConfig{PerHour: 20, PerDay: 100},
		Web:       WebConfig{Addr: ":8386"},
	}
}

// Load reads the config file through viper and validates it.
func Load() (Config, error) {
	cfg := Default()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *fs.PathError
		if errors.As(err, &notFound) || errors.As(err, &pathErr) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := ValidateSettings(viper.AllSettings()); err != nil {
		return cfg, err
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// CacheTTL returns the schema cache lifetime.
func (c SchemaConfig) CacheTTL() time.Duration {
	hours := c.CacheTTLHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}
