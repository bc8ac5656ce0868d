package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Oracle     OracleConfig     `yaml:"oracle"`
	FoodSearch FoodSearchConfig `yaml:"food_search"`
	Generation GenerationConfig `yaml:"generation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// OracleConfig configures the generative model used to propose plans.
type OracleConfig struct {
	Provider string `yaml:"provider"` // genai, gateway
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`    // provider default when empty
	BaseURL  string `yaml:"base_url"` // gateway proxy URL
	Timeout  string `yaml:"timeout"`
}

// FoodSearchConfig configures the external food database.
type FoodSearchConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	MaxResults int    `yaml:"max_results"`
	Timeout    string `yaml:"timeout"`
}

// GenerationConfig tunes the oracle requests of a generation run.
type GenerationConfig struct {
	ConceptCount       int     `yaml:"concept_count"`
	ConceptTemperature float32 `yaml:"concept_temperature"`
	ConceptMaxTokens   int     `yaml:"concept_max_tokens"`
	PlanTemperature    float32 `yaml:"plan_temperature"`
	PlanMaxTokens      int     `yaml:"plan_max_tokens"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8011,
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: "10s",
		},
		Database: DatabaseConfig{
			Path: "/data/sustento.db",
		},
		Oracle: OracleConfig{
			Provider: "genai",
			BaseURL:  "http://mcp-compose-http-proxy:9876",
			Timeout:  "120s",
		},
		FoodSearch: FoodSearchConfig{
			BaseURL:    "http://localhost:8090/api/aliments",
			MaxResults: 10,
			Timeout:    "30s",
		},
		Generation: GenerationConfig{
			ConceptCount:       10,
			ConceptTemperature: 0.8,
			ConceptMaxTokens:   600,
			PlanTemperature:    0.2,
			PlanMaxTokens:      3000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadDotEnv loads a .env file into the process environment. A missing file
// is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load loads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
			// Defaults when the file doesn't exist
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if host := os.Getenv("SUSTENTO_HOST"); host != "" {
		c.Server.Host = host
	}
	if port, err := strconv.Atoi(os.Getenv("SUSTENTO_PORT")); err == nil && port > 0 {
		c.Server.Port = port
	}
	if path := os.Getenv("SUSTENTO_DB_PATH"); path != "" {
		c.Database.Path = path
	}

	// Oracle credentials; an explicit ORACLE_PROVIDER wins over inference.
	if key := os.Getenv("MCP_PROXY_API_KEY"); key != "" {
		c.Oracle.APIKey = key
		c.Oracle.Provider = "gateway"
	}
	if url := os.Getenv("MCP_PROXY_URL"); url != "" {
		c.Oracle.BaseURL = url
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Oracle.APIKey = key
		c.Oracle.Provider = "genai"
	}
	if provider := os.Getenv("ORACLE_PROVIDER"); provider != "" {
		c.Oracle.Provider = provider
	}
	if model := os.Getenv("OPENROUTER_MODEL"); model != "" && c.Oracle.Provider == "gateway" {
		c.Oracle.Model = model
	}
	if model := os.Getenv("ORACLE_MODEL"); model != "" {
		c.Oracle.Model = model
	}

	if url := os.Getenv("FOOD_SEARCH_URL"); url != "" {
		c.FoodSearch.BaseURL = url
	}
	if key := os.Getenv("FOOD_SEARCH_API_KEY"); key != "" {
		c.FoodSearch.APIKey = key
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	switch c.Oracle.Provider {
	case "genai", "gateway":
	default:
		return fmt.Errorf("unknown oracle provider: %q", c.Oracle.Provider)
	}
	if c.FoodSearch.BaseURL == "" {
		return fmt.Errorf("food search base URL is required")
	}
	if c.FoodSearch.MaxResults <= 0 {
		return fmt.Errorf("food search max_results must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.Logging.Level)
	}
	return nil
}

// GetOracleTimeout returns the oracle request timeout.
func (c *Config) GetOracleTimeout() time.Duration {
	return parseDuration(c.Oracle.Timeout, 120*time.Second)
}

// GetFoodSearchTimeout returns the food search request timeout.
func (c *Config) GetFoodSearchTimeout() time.Duration {
	return parseDuration(c.FoodSearch.Timeout, 30*time.Second)
}

// GetShutdownTimeout returns how long the server waits for in-flight requests.
func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
