package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional config.yaml and from SIXU_*
// environment variables, with environment values taking precedence.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SIXU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only covers keys viper already knows about; the two
	// secrets have no defaults, so they need explicit bindings.
	_ = v.BindEnv("database.url")
	_ = v.BindEnv("llm.gemini_api_key")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars can carry everything
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for everything that has a sensible one.
// API key and database URL deliberately have no default.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_output_tokens", 4096)

	v.SetDefault("generation.concurrency", 5)
	v.SetDefault("generation.max_chunk_size", 3000)
	v.SetDefault("generation.retry_delay_seconds", 1)
	v.SetDefault("generation.default_card_count", 10)
	v.SetDefault("generation.notes_dir", ".")

	v.SetDefault("study.new_per_day", 20)
	v.SetDefault("study.review_per_day", 200)
}
