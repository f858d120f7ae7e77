// Package config loads the application configuration from environment
// variables, with an optional YAML overlay file for values that are
// awkward as env vars. The overlay can be hot-reloaded in development
// (see watcher.go).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Storage
	DatabasePath string

	// CORS
	AllowedOrigins []string

	// AI collaborator
	AIBaseURL string
	AIAPIKey  string
	AIModel   string
	AITimeout time.Duration

	// Logging and metrics
	LogLevel         string
	MetricsNamespace string

	// Optional YAML overlay, hot-reloaded in development
	OverlayPath string
}

// overlay mirrors the YAML file; pointer fields so absent keys leave the
// env-derived value untouched.
type overlay struct {
	ServerAddress  *string   `yaml:"serverAddress"`
	DatabasePath   *string   `yaml:"databasePath"`
	AllowedOrigins *[]string `yaml:"allowedOrigins"`
	AI             struct {
		BaseURL        *string `yaml:"baseUrl"`
		Model          *string `yaml:"model"`
		TimeoutSeconds *int    `yaml:"timeoutSeconds"`
	} `yaml:"ai"`
	LogLevel *string `yaml:"logLevel"`
}

// Load builds the configuration from the environment plus the optional
// overlay file named by CONFIG_FILE.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddress:    getEnv("SERVER_ADDRESS", ":8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		DatabasePath:     getEnv("DATABASE_PATH", "learninglog.db"),
		AllowedOrigins:   splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		AIBaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		AIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		AIModel:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AITimeout:        time.Duration(getEnvInt("OPENAI_TIMEOUT_SECONDS", 30)) * time.Second,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "learninglog"),
		OverlayPath:      getEnv("CONFIG_FILE", ""),
	}

	if cfg.OverlayPath != "" {
		if err := cfg.applyOverlay(cfg.OverlayPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading overlay file: %w", err)
	}

	var o overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("config: parsing overlay file: %w", err)
	}

	if o.ServerAddress != nil {
		c.ServerAddress = *o.ServerAddress
	}
	if o.DatabasePath != nil {
		c.DatabasePath = *o.DatabasePath
	}
	if o.AllowedOrigins != nil {
		c.AllowedOrigins = *o.AllowedOrigins
	}
	if o.AI.BaseURL != nil {
		c.AIBaseURL = *o.AI.BaseURL
	}
	if o.AI.Model != nil {
		c.AIModel = *o.AI.Model
	}
	if o.AI.TimeoutSeconds != nil {
		c.AITimeout = time.Duration(*o.AI.TimeoutSeconds) * time.Second
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	return nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("SERVER_ADDRESS cannot be empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH cannot be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
