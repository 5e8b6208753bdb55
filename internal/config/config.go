package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the categorizer API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Engine   EngineConfig   `yaml:"engine"`
	Taxonomy TaxonomyConfig `yaml:"taxonomy"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// LLMConfig holds settings for the OpenAI-compatible inference backend
// shared by both pipeline agents.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	TimeoutSec  int     `yaml:"timeout_sec"`
}

// EngineConfig holds resolution-engine thresholds and pipeline bounds.
type EngineConfig struct {
	MaxAttempts      int      `yaml:"max_attempts"`      // selection attempts before fallback
	MinDepth         int      `yaml:"min_depth"`         // specificity floor for a valid category
	CandidateLimit   int      `yaml:"candidate_limit"`   // top-N candidate set size
	ReviewThreshold  float64  `yaml:"review_threshold"`  // below this, needs_review
	PromoteThreshold float64  `yaml:"promote_threshold"` // below this, promote to parent
	ProtectThreshold float64  `yaml:"protect_threshold"` // at or above this, writes require force
	FallbackPath     string   `yaml:"fallback_path"`     // generic category used on exhaustion
	PreferredRoots   []string `yaml:"preferred_roots"`   // root segments favored by the retriever
	AutoRules        bool     `yaml:"auto_rules"`        // write type rules back after pipeline runs
	BatchConcurrency int      `yaml:"batch_concurrency"` // parallel resolutions per batch
}

// TaxonomyConfig holds taxonomy catalog settings.
type TaxonomyConfig struct {
	Path string `yaml:"path"` // taxonomy file imported when the store is empty
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Batch resolutions wait on LLM round-trips; give them room.
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 5000
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 60
	}
	if c.Engine.MaxAttempts <= 0 {
		c.Engine.MaxAttempts = 2
	}
	if c.Engine.MinDepth <= 0 {
		c.Engine.MinDepth = 3
	}
	if c.Engine.CandidateLimit <= 0 {
		c.Engine.CandidateLimit = 15
	}
	if c.Engine.ReviewThreshold <= 0 {
		c.Engine.ReviewThreshold = 0.8
	}
	if c.Engine.PromoteThreshold <= 0 {
		c.Engine.PromoteThreshold = 0.5
	}
	if c.Engine.ProtectThreshold <= 0 {
		c.Engine.ProtectThreshold = 0.9
	}
	if c.Engine.BatchConcurrency <= 0 {
		c.Engine.BatchConcurrency = 4
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.Engine.PromoteThreshold > c.Engine.ReviewThreshold {
		return fmt.Errorf("engine.promote_threshold (%.2f) must not exceed engine.review_threshold (%.2f)",
			c.Engine.PromoteThreshold, c.Engine.ReviewThreshold)
	}
	if c.Engine.ProtectThreshold > 1 {
		return fmt.Errorf("engine.protect_threshold must be at most 1.0, got %.2f", c.Engine.ProtectThreshold)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
