// Package config loads settings from defaults, an optional TOML or YAML
// file, a .env file and the process environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/smallnest/agentcases/store/backend"
)

// DefaultFile is read when no file is given and it exists in the working directory.
const DefaultFile = "agentcases.toml"

// ErrMissingAPIKey is returned by RequireLLM when no model credentials are configured.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set; add it to the environment or to .env")

// Config holds every setting of the CLI.
type Config struct {
	LLM    LLMConfig    `toml:"llm" yaml:"llm"`
	Search SearchConfig `toml:"search" yaml:"search"`
	Store  StoreConfig  `toml:"store" yaml:"store"`
	Log    LogConfig    `toml:"log" yaml:"log"`
}

// LLMConfig contains model provider settings.
type LLMConfig struct {
	APIKey         string  `toml:"api_key" yaml:"api_key"`
	BaseURL        string  `toml:"base_url" yaml:"base_url" validate:"omitempty,url"`
	Model          string  `toml:"model" yaml:"model" validate:"required"`
	EmbeddingModel string  `toml:"embedding_model" yaml:"embedding_model" validate:"required"`
	Temperature    float64 `toml:"temperature" yaml:"temperature" validate:"min=0,max=2"`
	MaxRetries     int     `toml:"max_retries" yaml:"max_retries" validate:"min=0,max=10"`
}

// SearchConfig selects the web search backend.
type SearchConfig struct {
	Provider    string `toml:"provider" yaml:"provider" validate:"oneof=duckduckgo brave"`
	BraveAPIKey string `toml:"brave_api_key" yaml:"brave_api_key" validate:"required_if=Provider brave"`
	BaseURL     string `toml:"base_url" yaml:"base_url" validate:"omitempty,url"`
	MaxResults  int    `toml:"max_results" yaml:"max_results" validate:"min=1,max=20"`
}

// StoreConfig selects where graph checkpoints go.
type StoreConfig struct {
	Kind     string        `toml:"kind" yaml:"kind" validate:"oneof=memory file sqlite redis postgres"`
	Path     string        `toml:"path" yaml:"path" validate:"required_if=Kind file,required_if=Kind sqlite"`
	DSN      string        `toml:"dsn" yaml:"dsn" validate:"required_if=Kind redis,required_if=Kind postgres"`
	Password string        `toml:"password" yaml:"password"`
	Prefix   string        `toml:"prefix" yaml:"prefix"`
	TTL      time.Duration `toml:"ttl" yaml:"ttl" validate:"min=0"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level" yaml:"level" validate:"oneof=debug info warn warning error none off"`
}

// New returns the built-in defaults.
func New() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
			Temperature:    0.7,
			MaxRetries:     2,
		},
		Search: SearchConfig{
			Provider:   "duckduckgo",
			MaxResults: 5,
		},
		Store: StoreConfig{
			Kind:   "memory",
			Prefix: "agentcases:",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path (or DefaultFile when path is empty), then .env and the
// process environment.
func Load(path string) (*Config, error) {
	return (&Loader{Path: path, EnvFile: ".env", LookupEnv: os.LookupEnv}).Load()
}

// Loader makes the sources of Load explicit.
type Loader struct {
	Path      string
	EnvFile   string
	LookupEnv func(string) (string, bool)
}

// Load builds and validates a Config.
func (l *Loader) Load() (*Config, error) {
	cfg := New()

	path := l.Path
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	e := env{lookup: l.LookupEnv}
	if l.EnvFile != "" {
		// A missing .env is fine.
		if vars, err := godotenv.Read(l.EnvFile); err == nil {
			e.dotenv = vars
		}
	}
	if err := cfg.applyEnv(e); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}
	return nil
}

func (c *Config) applyEnv(e env) error {
	c.LLM.APIKey = e.getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = e.getEnv("OPENAI_API_BASE", c.LLM.BaseURL)
	c.LLM.Model = e.getEnv("OPENAI_MODEL", c.LLM.Model)
	c.LLM.EmbeddingModel = e.getEnv("OPENAI_EMBEDDING_MODEL", c.LLM.EmbeddingModel)

	c.Search.Provider = e.getEnv("SEARCH_PROVIDER", c.Search.Provider)
	c.Search.BraveAPIKey = e.getEnv("BRAVE_API_KEY", c.Search.BraveAPIKey)
	c.Search.BaseURL = e.getEnv("SEARCH_BASE_URL", c.Search.BaseURL)

	c.Store.Kind = e.getEnv("STORE_KIND", c.Store.Kind)
	c.Store.Path = e.getEnv("STORE_PATH", c.Store.Path)
	c.Store.DSN = e.getEnv("STORE_DSN", c.Store.DSN)
	c.Store.Password = e.getEnv("STORE_PASSWORD", c.Store.Password)
	c.Store.Prefix = e.getEnv("STORE_PREFIX", c.Store.Prefix)

	c.Log.Level = strings.ToLower(e.getEnv("LOG_LEVEL", c.Log.Level))

	var err error
	if c.LLM.Temperature, err = e.getFloat("LLM_TEMPERATURE", c.LLM.Temperature); err != nil {
		return err
	}
	if c.LLM.MaxRetries, err = e.getInt("LLM_MAX_RETRIES", c.LLM.MaxRetries); err != nil {
		return err
	}
	if c.Search.MaxResults, err = e.getInt("SEARCH_MAX_RESULTS", c.Search.MaxResults); err != nil {
		return err
	}
	if c.Store.TTL, err = e.getDuration("STORE_TTL", c.Store.TTL); err != nil {
		return err
	}
	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// RequireLLM reports ErrMissingAPIKey when model-backed commands cannot run.
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Backend converts the store settings for backend.Open.
func (c *Config) Backend() backend.Options {
	return backend.Options{
		Kind:     c.Store.Kind,
		Path:     c.Store.Path,
		DSN:      c.Store.DSN,
		Password: c.Store.Password,
		Prefix:   c.Store.Prefix,
		TTL:      c.Store.TTL,
	}
}

// env resolves a key from the process environment first, then from .env.
type env struct {
	lookup func(string) (string, bool)
	dotenv map[string]string
}

// getEnv retrieves an environment variable or returns a default value.
func (e env) getEnv(key, defaultValue string) string {
	if e.lookup != nil {
		if value, ok := e.lookup(key); ok && value != "" {
			return value
		}
	}
	if value := e.dotenv[key]; value != "" {
		return value
	}
	return defaultValue
}

func (e env) getInt(key string, defaultValue int) (int, error) {
	raw := e.getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func (e env) getFloat(key string, defaultValue float64) (float64, error) {
	raw := e.getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func (e env) getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := e.getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
