// Package config defines the application's typed configuration and its
// loading rules. Settings are threaded through constructors explicitly;
// nothing reads configuration ambiently after startup.
package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm"        validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Study      StudyConfig      `mapstructure:"study"      validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// LLMConfig contains the text-generation API settings.
type LLMConfig struct {
	GeminiAPIKey    string  `mapstructure:"gemini_api_key" validate:"required"`
	ModelName       string  `mapstructure:"model_name"     validate:"required"`
	Temperature     float32 `mapstructure:"temperature"    validate:"gte=0,lte=2"`
	MaxOutputTokens int32   `mapstructure:"max_output_tokens" validate:"gte=0"`
}

// GenerationConfig tunes the chunked generation pipeline.
type GenerationConfig struct {
	// Concurrency caps in-flight generation calls per document
	Concurrency int `mapstructure:"concurrency" validate:"required,gt=0"`

	// MaxChunkSize bounds chunk content length in runes
	MaxChunkSize int `mapstructure:"max_chunk_size" validate:"required,gt=0"`

	// RetryDelaySeconds is the base backoff delay between attempts
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" validate:"required,gt=0"`

	// DefaultCardCount is the target card count when a request omits one
	DefaultCardCount int `mapstructure:"default_card_count" validate:"required,gt=0"`

	// NotesDir is the base directory relative note references resolve against
	NotesDir string `mapstructure:"notes_dir"`
}

// StudyConfig holds the default per-session study limits applied to decks
// that carry no explicit settings.
type StudyConfig struct {
	NewPerDay    int `mapstructure:"new_per_day"    validate:"required,gt=0"`
	ReviewPerDay int `mapstructure:"review_per_day" validate:"required,gt=0"`
}
