package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nikhilbhutani/promptbench/internal/models"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	LLM      LLMConfig      `yaml:"llm"`
	LogLevel string         `yaml:"log_level"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// RunRateLimit caps run and compare requests per second per client.
	// Zero disables the limiter.
	RunRateLimit int `yaml:"run_rate_limit"`
	RunRateBurst int `yaml:"run_rate_burst"`
}

// StorageConfig selects the KV backend holding folders, prompts, keys,
// the model catalog and UI preferences.
type StorageConfig struct {
	Backend string `yaml:"backend"` // memory, file, sqlite, redis, postgres
	Path    string `yaml:"path"`    // directory for file, database file for sqlite
	Prefix  string `yaml:"prefix"`  // key namespace for redis
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MaxConns       int    `yaml:"max_conns"`
	MinConns       int    `yaml:"min_conns"`
	MigrationsPath string `yaml:"migrations_path"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LLMConfig struct {
	// DefaultProvider handles model ids found in neither the caller's
	// catalog nor the built-in one.
	DefaultProvider    string `yaml:"default_provider"`
	OpenAIBaseURL      string `yaml:"openai_base_url"`
	AnthropicBaseURL   string `yaml:"anthropic_base_url"`
	GeminiBaseURL      string `yaml:"gemini_base_url"`
	AnthropicMaxTokens int    `yaml:"anthropic_max_tokens"`
	AnthropicKeyModel  string `yaml:"anthropic_key_model"`
	GeminiKeyModel     string `yaml:"gemini_key_model"`
}

var validBackends = []string{"memory", "file", "sqlite", "redis", "postgres"}

// Load builds the configuration from defaults, the optional YAML file named
// by PROMPTBENCH_CONFIG, and environment variables, in that order.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("PROMPTBENCH_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			AllowedOrigins: []string{"*"},
			RunRateLimit:   5,
			RunRateBurst:   10,
		},
		Storage: StorageConfig{
			Backend: "file",
			Path:    "data",
			Prefix:  "promptbench:",
		},
		Database: DatabaseConfig{
			MaxConns:       5,
			MinConns:       1,
			MigrationsPath: "migrations",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		LLM: LLMConfig{
			DefaultProvider:    "openai",
			AnthropicMaxTokens: 4096,
			AnthropicKeyModel:  "claude-3-haiku-20240307",
			GeminiKeyModel:     "gemini-1.5-flash",
		},
		LogLevel: "info",
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var err error

	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	if c.Server.Port, err = getEnvInt("SERVER_PORT", c.Server.Port); err != nil {
		return fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if c.Server.RunRateLimit, err = getEnvInt("RUN_RATE_LIMIT", c.Server.RunRateLimit); err != nil {
		return fmt.Errorf("invalid RUN_RATE_LIMIT: %w", err)
	}
	if c.Server.RunRateBurst, err = getEnvInt("RUN_RATE_BURST", c.Server.RunRateBurst); err != nil {
		return fmt.Errorf("invalid RUN_RATE_BURST: %w", err)
	}

	c.Storage.Backend = getEnv("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.Path = getEnv("STORAGE_PATH", c.Storage.Path)
	c.Storage.Prefix = getEnv("STORAGE_PREFIX", c.Storage.Prefix)

	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	if c.Database.MaxConns, err = getEnvInt("DB_MAX_CONNS", c.Database.MaxConns); err != nil {
		return fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	if c.Database.MinConns, err = getEnvInt("DB_MIN_CONNS", c.Database.MinConns); err != nil {
		return fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}
	c.Database.MigrationsPath = getEnv("MIGRATIONS_PATH", c.Database.MigrationsPath)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	if c.Redis.DB, err = getEnvInt("REDIS_DB", c.Redis.DB); err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	c.LLM.DefaultProvider = getEnv("LLM_DEFAULT_PROVIDER", c.LLM.DefaultProvider)
	c.LLM.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.LLM.OpenAIBaseURL)
	c.LLM.AnthropicBaseURL = getEnv("ANTHROPIC_BASE_URL", c.LLM.AnthropicBaseURL)
	c.LLM.GeminiBaseURL = getEnv("GEMINI_BASE_URL", c.LLM.GeminiBaseURL)
	if c.LLM.AnthropicMaxTokens, err = getEnvInt("LLM_ANTHROPIC_MAX_TOKENS", c.LLM.AnthropicMaxTokens); err != nil {
		return fmt.Errorf("invalid LLM_ANTHROPIC_MAX_TOKENS: %w", err)
	}
	c.LLM.AnthropicKeyModel = getEnv("LLM_ANTHROPIC_KEY_MODEL", c.LLM.AnthropicKeyModel)
	c.LLM.GeminiKeyModel = getEnv("LLM_GEMINI_KEY_MODEL", c.LLM.GeminiKeyModel)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var problems []string

	backendOK := false
	for _, b := range validBackends {
		if c.Storage.Backend == b {
			backendOK = true
		}
	}
	if !backendOK {
		problems = append(problems, fmt.Sprintf("STORAGE_BACKEND must be one of %s", strings.Join(validBackends, ", ")))
	}
	if c.Storage.Backend == "postgres" && c.Database.URL == "" {
		problems = append(problems, "DATABASE_URL is required for the postgres backend")
	}
	if (c.Storage.Backend == "file" || c.Storage.Backend == "sqlite") && c.Storage.Path == "" {
		problems = append(problems, "STORAGE_PATH is required for the "+c.Storage.Backend+" backend")
	}
	if _, err := models.ParseProvider(c.LLM.DefaultProvider); err != nil {
		problems = append(problems, fmt.Sprintf("LLM_DEFAULT_PROVIDER: %v", err))
	}
	if c.Server.RunRateLimit > 0 && c.Server.RunRateBurst < 1 {
		problems = append(problems, "RUN_RATE_BURST must be at least 1 when RUN_RATE_LIMIT is set")
	}
	if c.LLM.AnthropicMaxTokens <= 0 {
		problems = append(problems, "LLM_ANTHROPIC_MAX_TOKENS must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// SlogLevel maps LogLevel onto slog, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
