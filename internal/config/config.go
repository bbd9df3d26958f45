// Package config provides unified configuration loading for loopcore.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains all loopcore configuration settings.
type Config struct {
	// Loop contains the loop lifecycle settings.
	Loop LoopConfig `json:"loop" yaml:"loop"`

	// Memory contains retention settings for agent memory banks.
	Memory MemoryConfig `json:"memory" yaml:"memory"`

	// Evolution contains the engine tunables.
	Evolution EvolutionConfig `json:"evolution" yaml:"evolution"`

	// LLM contains settings for scenario generation.
	LLM LLMConfig `json:"llm" yaml:"llm"`

	// Logging contains settings for operational and event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// LoopConfig configures loop timing.
type LoopConfig struct {
	// DurationSeconds is the wall-clock length of one loop.
	DurationSeconds int `json:"duration_seconds" yaml:"duration_seconds"`

	// MaxPerSession caps how many loops one session may run.
	MaxPerSession int `json:"max_per_session" yaml:"max_per_session"`
}

// MemoryConfig configures memory retention.
type MemoryConfig struct {
	// Capacity is the per-agent memory bank size.
	Capacity int `json:"capacity" yaml:"capacity"`
}

// EvolutionConfig configures the evolution engine.
type EvolutionConfig struct {
	// BreakthroughChance is the per-decision probability of a random
	// breakthrough boost. Range: 0.0 to 1.0.
	BreakthroughChance float64 `json:"breakthrough_chance" yaml:"breakthrough_chance"`

	// MutationThreshold gates environment mutation intensity.
	// Range: 0.0 to 1.0.
	MutationThreshold float64 `json:"mutation_threshold" yaml:"mutation_threshold"`
}

// LoggingConfig configures loopcore's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables event logging to .loopcore/events.jsonl.
	// "trace" additionally includes full generation prompt/response content.
	Level string `json:"level" yaml:"level"`
}

// LLMConfig configures LLM-backed scenario generation.
type LLMConfig struct {
	// Provider identifies the backend: "openai", "ollama", or "" for disabled.
	// Generation always fails soft to the built-in scenario.
	Provider string `json:"provider" yaml:"provider"`

	// APIKey is the API key for the provider. Supports ${VAR} syntax for
	// env vars. Not required for ollama.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL is the API endpoint URL. Used for ollama or custom
	// OpenAI-compatible endpoints.
	// Defaults: ollama=http://localhost:11434/v1, openai=https://api.openai.com/v1
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Model is the model used for scenario generation.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// Timeout is the maximum duration to wait for generation.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// Enabled indicates whether LLM generation is attempted at all.
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// RedactedAPIKey returns the API key with most characters masked.
// Shows first 4 and last 4 characters, e.g., "sk-a...xyz9".
// Returns "" for empty keys and "(set)" for keys shorter than 12 chars.
func (c LLMConfig) RedactedAPIKey() string {
	if c.APIKey == "" {
		return ""
	}
	if len(c.APIKey) < 12 {
		return "(set)"
	}
	return c.APIKey[:4] + "..." + c.APIKey[len(c.APIKey)-4:]
}

// String implements fmt.Stringer to prevent accidental API key logging.
func (c LLMConfig) String() string {
	return fmt.Sprintf("LLMConfig{Provider:%s, Enabled:%t, APIKey:%s, Model:%s}",
		c.Provider, c.Enabled, c.RedactedAPIKey(), c.Model)
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Loop: LoopConfig{
			DurationSeconds: 300,
			MaxPerSession:   50,
		},
		Memory: MemoryConfig{
			Capacity: 100,
		},
		Evolution: EvolutionConfig{
			BreakthroughChance: 0.05,
			MutationThreshold:  0.15,
		},
		LLM: LLMConfig{
			Provider: "",
			Model:    "gpt-4o-mini",
			Timeout:  30 * time.Second,
			Enabled:  false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.loopcore/config.yaml -> environment variables
func Load() (*Config, error) {
	config := Default()

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".loopcore", "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Expand environment variables in API key
	config.LLM.APIKey = expandEnvVars(config.LLM.APIKey)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Loop.DurationSeconds <= 0 {
		return fmt.Errorf("loop duration must be positive, got %d", c.Loop.DurationSeconds)
	}
	if c.Loop.MaxPerSession <= 0 {
		return fmt.Errorf("max loops per session must be positive, got %d", c.Loop.MaxPerSession)
	}
	if c.Memory.Capacity <= 0 {
		return fmt.Errorf("memory capacity must be positive, got %d", c.Memory.Capacity)
	}
	if c.Evolution.BreakthroughChance < 0 || c.Evolution.BreakthroughChance > 1 {
		return fmt.Errorf("breakthrough_chance must be between 0 and 1, got %f", c.Evolution.BreakthroughChance)
	}
	if c.Evolution.MutationThreshold < 0 || c.Evolution.MutationThreshold > 1 {
		return fmt.Errorf("mutation_threshold must be between 0 and 1, got %f", c.Evolution.MutationThreshold)
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %v", c.LLM.Timeout)
	}

	validProviders := map[string]bool{"": true, "openai": true, "ollama": true}
	if !validProviders[c.LLM.Provider] {
		return fmt.Errorf("invalid provider: %s (valid: openai, ollama, or empty)", c.LLM.Provider)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("LOOPCORE_LOOP_DURATION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Loop.DurationSeconds = n
		}
	}
	if v := os.Getenv("LOOPCORE_MAX_LOOPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Loop.MaxPerSession = n
		}
	}
	if v := os.Getenv("LOOPCORE_MEMORY_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Memory.Capacity = n
		}
	}
	if v := os.Getenv("LOOPCORE_BREAKTHROUGH_CHANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Evolution.BreakthroughChance = f
		}
	}

	if v := os.Getenv("LOOPCORE_LLM_PROVIDER"); v != "" {
		config.LLM.Provider = v
	}
	if v := os.Getenv("LOOPCORE_LLM_ENABLED"); v != "" {
		config.LLM.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("LOOPCORE_LLM_MODEL"); v != "" {
		config.LLM.Model = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && config.LLM.Provider == "openai" {
		config.LLM.APIKey = v
	}

	// Ollama uses OLLAMA_HOST for base URL (no API key needed)
	if config.LLM.Provider == "ollama" {
		if v := os.Getenv("OLLAMA_HOST"); v != "" {
			config.LLM.BaseURL = v
		} else if config.LLM.BaseURL == "" {
			config.LLM.BaseURL = "http://localhost:11434/v1"
		}
	}

	if v := os.Getenv("LOOPCORE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
