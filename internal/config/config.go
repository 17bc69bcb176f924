// Package config loads lexicache settings from file, environment and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ZaguanLabs/lexicache"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. LEXICACHE_STORE_DRIVER.
const EnvPrefix = "LEXICACHE"

// ConfigName is the config file name searched in the home and current directories.
const ConfigName = ".lexicache"

// Config is the complete runtime configuration.
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Normalize NormalizeConfig `mapstructure:"normalize"`
	Log       LogConfig       `mapstructure:"log"`
}

// StoreConfig selects and configures the record store.
type StoreConfig struct {
	Driver      string `mapstructure:"driver"` // sqlite, memory or redis
	Path        string `mapstructure:"path"`
	RedisURL    string `mapstructure:"redis_url"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

// ProviderConfig selects and configures the translation provider.
type ProviderConfig struct {
	Name          string        `mapstructure:"name"` // mymemory or openai
	Endpoint      string        `mapstructure:"endpoint"`
	UserAgent     string        `mapstructure:"user_agent"`
	Email         string        `mapstructure:"email"`
	Timeout       time.Duration `mapstructure:"timeout"`
	OpenAIKey     string        `mapstructure:"openai_key"`
	OpenAIModel   string        `mapstructure:"openai_model"`
	OpenAIBaseURL string        `mapstructure:"openai_base_url"`
}

// NormalizeConfig controls how provider payloads are turned into results.
type NormalizeConfig struct {
	StripMarkup      bool   `mapstructure:"strip_markup"`
	OriginalLabel    string `mapstructure:"original_label"`
	TranslationLabel string `mapstructure:"translation_label"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every key with its default value. Keys must be known
// to v for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "dictionary_cache.db")
	v.SetDefault("store.redis_url", "redis://localhost:6379/0")
	v.SetDefault("store.redis_prefix", "lexicache:")

	v.SetDefault("provider.name", "mymemory")
	v.SetDefault("provider.endpoint", "https://api.mymemory.translated.net/get")
	v.SetDefault("provider.user_agent", lexicache.UserAgent())
	v.SetDefault("provider.email", "")
	v.SetDefault("provider.timeout", lexicache.DefaultTimeout)
	v.SetDefault("provider.openai_key", "")
	v.SetDefault("provider.openai_model", "gpt-4o-mini")
	v.SetDefault("provider.openai_base_url", "")

	v.SetDefault("normalize.strip_markup", true)
	v.SetDefault("normalize.original_label", "Original")
	v.SetDefault("normalize.translation_label", "Translation")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// New returns a viper instance with defaults and environment overrides set.
// If cfgFile is empty, .lexicache.yaml is searched in the home and current
// directories.
func New(cfgFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(ConfigName)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// ReadFile reads the config file into v. A missing file is only an error
// when it was named explicitly.
func ReadFile(v *viper.Viper, explicit bool) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if !explicit && errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("reading config: %w", err)
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.Provider.OpenAIKey == "" {
		cfg.Provider.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration can be used to build a dictionary.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite":
		if strings.TrimSpace(c.Store.Path) == "" {
			return errors.New("store.path is required for the sqlite driver")
		}
	case "redis":
		if strings.TrimSpace(c.Store.RedisURL) == "" {
			return errors.New("store.redis_url is required for the redis driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store driver %q (want sqlite, memory or redis)", c.Store.Driver)
	}

	switch c.Provider.Name {
	case "mymemory":
		if strings.TrimSpace(c.Provider.Endpoint) == "" {
			return errors.New("provider.endpoint is required for mymemory")
		}
	case "openai":
		if c.Provider.OpenAIKey == "" {
			return errors.New("provider.openai_key or OPENAI_API_KEY is required for openai")
		}
	default:
		return fmt.Errorf("unknown provider %q (want mymemory or openai)", c.Provider.Name)
	}

	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider.timeout must be positive, got %s", c.Provider.Timeout)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.Log.Format)
	}

	return nil
}
