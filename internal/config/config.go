// Package config resolves medguide settings from the environment.
//
// Settings are read once at startup and passed explicitly to the components
// that need them; nothing below the command layer reads the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
	AI      AIConfig
	Places  PlacesConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int
	Environment     string
	ShutdownTimeout time.Duration
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// AIConfig holds the provider selection and every provider's credentials.
type AIConfig struct {
	Service   string
	Timeout   time.Duration
	Gemini    GeminiConfig
	OpenAI    OpenAIConfig
	Azure     AzureConfig
	Anthropic AnthropicConfig
}

// GeminiConfig holds Google Gemini settings.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIConfig holds OpenAI settings.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// AzureConfig holds Azure OpenAI settings.
type AzureConfig struct {
	APIKey     string
	Endpoint   string
	Deployment string
	APIVersion string
}

// AnthropicConfig holds Anthropic settings.
type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// PlacesConfig holds settings for the hospital finder.
type PlacesConfig struct {
	OverpassURL  string
	NominatimURL string
	Radius       int
	UserAgent    string
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 5*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("ai.service", string(Gemini))
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.gemini.model", "gemini-1.5-flash")
	v.SetDefault("ai.gemini.baseurl", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("ai.openai.model", "gpt-4")
	v.SetDefault("ai.openai.baseurl", "https://api.openai.com/v1")
	v.SetDefault("ai.azure.apiversion", "2024-02-15-preview")
	v.SetDefault("ai.anthropic.model", "claude-3-sonnet-20240229")
	v.SetDefault("ai.anthropic.baseurl", "https://api.anthropic.com/v1")

	v.SetDefault("places.overpassurl", "https://overpass-api.de/api/interpreter")
	v.SetDefault("places.nominatimurl", "https://nominatim.openstreetmap.org")
	v.SetDefault("places.radius", 5000)
	v.SetDefault("places.useragent", "medguide/1.0 (+https://github.com/kamilpajak/medguide)")
}

// bindEnvVars binds config keys to environment variables. The VITE_ names
// are what the browser build of the app used and are still honored.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("server.environment", "ENVIRONMENT", "ENV")

	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")

	_ = v.BindEnv("ai.service", "AI_SERVICE", "VITE_AI_SERVICE")
	_ = v.BindEnv("ai.timeout", "HTTP_TIMEOUT")

	_ = v.BindEnv("ai.gemini.apikey", "GEMINI_API_KEY", "VITE_GEMINI_API_KEY")
	_ = v.BindEnv("ai.gemini.model", "GEMINI_MODEL", "VITE_GEMINI_MODEL")
	_ = v.BindEnv("ai.gemini.baseurl", "GEMINI_BASE_URL")

	_ = v.BindEnv("ai.openai.apikey", "OPENAI_API_KEY", "VITE_OPENAI_API_KEY")
	_ = v.BindEnv("ai.openai.model", "OPENAI_MODEL", "VITE_OPENAI_MODEL")
	_ = v.BindEnv("ai.openai.baseurl", "OPENAI_BASE_URL")

	_ = v.BindEnv("ai.azure.apikey", "AZURE_OPENAI_API_KEY", "VITE_AZURE_OPENAI_API_KEY")
	_ = v.BindEnv("ai.azure.endpoint", "AZURE_OPENAI_ENDPOINT", "VITE_AZURE_OPENAI_ENDPOINT")
	_ = v.BindEnv("ai.azure.deployment", "AZURE_OPENAI_DEPLOYMENT_NAME", "VITE_AZURE_OPENAI_DEPLOYMENT_NAME")
	_ = v.BindEnv("ai.azure.apiversion", "AZURE_OPENAI_API_VERSION")

	_ = v.BindEnv("ai.anthropic.apikey", "ANTHROPIC_API_KEY", "VITE_ANTHROPIC_API_KEY")
	_ = v.BindEnv("ai.anthropic.model", "ANTHROPIC_MODEL")
	_ = v.BindEnv("ai.anthropic.baseurl", "ANTHROPIC_BASE_URL")

	_ = v.BindEnv("places.overpassurl", "OVERPASS_URL")
	_ = v.BindEnv("places.nominatimurl", "NOMINATIM_URL")
	_ = v.BindEnv("places.radius", "HOSPITAL_SEARCH_RADIUS")
	_ = v.BindEnv("places.useragent", "PLACES_USER_AGENT")
}

// Validate checks the settings that must hold for the process to start.
// Provider credentials are not checked here; see Provider.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	if c.Places.Radius <= 0 {
		return fmt.Errorf("places.radius must be positive, got %d", c.Places.Radius)
	}

	return nil
}
