package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/submission-intake/constants"
)

// Config holds all application configuration
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Submission SubmissionConfig `yaml:"submission"`
	Redis      RedisConfig      `yaml:"redis"`
	S3         S3Config         `yaml:"s3"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// LLMConfig holds extraction-service configuration
type LLMConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	Strict      bool          `yaml:"strict"`
}

// QuoteEnvConfig holds the quote API endpoints and credentials of one environment
type QuoteEnvConfig struct {
	BaseURL      string `yaml:"base_url"`
	TokenURL     string `yaml:"token_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Audience     string `yaml:"audience"`
}

// SubmissionConfig holds quote API configuration
type SubmissionConfig struct {
	Environment string         `yaml:"environment"`
	Test        QuoteEnvConfig `yaml:"test"`
	Production  QuoteEnvConfig `yaml:"production"`
	QuotePath   string         `yaml:"quote_path"`
	Timeout     time.Duration  `yaml:"timeout"`
}

// RedisConfig configures the shared token cache; an empty Addr keeps tokens in memory
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// S3Config configures s3:// source loading
type S3Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr    string `yaml:"grpc_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:   "gpt-4o-mini",
			Timeout: 120 * time.Second,
		},
		Submission: SubmissionConfig{
			Environment: "test",
			Timeout:     60 * time.Second,
		},
		Server: ServerConfig{
			GRPCAddr:    ":8080",
			MetricsAddr: ":9090",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig reads the optional YAML file at path, then applies environment overrides.
// A missing file is not an error; a malformed one is.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("parse %s", path), err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("read %s", path), err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnv("OPENAI_MODEL", c.LLM.Model)
	c.LLM.Temperature = getEnvAsFloat32("OPENAI_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvAsDuration("OPENAI_TIMEOUT", c.LLM.Timeout)
	c.LLM.Strict = getEnvAsBool("OPENAI_STRICT", c.LLM.Strict)

	c.Submission.Environment = getEnv("QUOTE_ENV", c.Submission.Environment)
	c.Submission.Timeout = getEnvAsDuration("QUOTE_TIMEOUT", c.Submission.Timeout)
	c.Submission.QuotePath = getEnv("QUOTE_PATH", c.Submission.QuotePath)
	overrideQuoteEnv(&c.Submission.Test, "QUOTE_TEST_")
	overrideQuoteEnv(&c.Submission.Production, "QUOTE_PROD_")

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvAsInt("REDIS_DB", c.Redis.DB)

	c.S3.Region = getEnv("S3_REGION", c.S3.Region)
	c.S3.Endpoint = getEnv("S3_ENDPOINT", c.S3.Endpoint)
	c.S3.AccessKeyID = getEnv("S3_ACCESS_KEY_ID", c.S3.AccessKeyID)
	c.S3.SecretAccessKey = getEnv("S3_SECRET_ACCESS_KEY", c.S3.SecretAccessKey)

	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.MetricsAddr = getEnv("METRICS_ADDR", c.Server.MetricsAddr)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

func overrideQuoteEnv(q *QuoteEnvConfig, prefix string) {
	q.BaseURL = getEnv(prefix+"BASE_URL", q.BaseURL)
	q.TokenURL = getEnv(prefix+"TOKEN_URL", q.TokenURL)
	q.ClientID = getEnv(prefix+"CLIENT_ID", q.ClientID)
	q.ClientSecret = getEnv(prefix+"CLIENT_SECRET", q.ClientSecret)
	q.Audience = getEnv(prefix+"AUDIENCE", q.Audience)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateForAnalyze checks what extraction needs
func (c *Config) ValidateForAnalyze() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	return nil
}

// QuoteEnvironment resolves the selected quote environment and its settings.
func (c *Config) QuoteEnvironment() (constants.Environment, QuoteEnvConfig, error) {
	env, ok := constants.ParseEnvironment(c.Submission.Environment)
	if !ok {
		return env, QuoteEnvConfig{}, NewAppError("CONFIG_ERROR",
			fmt.Sprintf("unknown QUOTE_ENV %q", c.Submission.Environment), ErrInvalidInput)
	}
	if env == constants.EnvProduction {
		return env, c.Submission.Production, nil
	}
	return env, c.Submission.Test, nil
}

// ValidateForSubmit checks the credentials of the selected quote environment
func (c *Config) ValidateForSubmit() error {
	env, q, err := c.QuoteEnvironment()
	if err != nil {
		return err
	}
	prefix := "QUOTE_TEST_"
	if env == constants.EnvProduction {
		prefix = "QUOTE_PROD_"
	}
	v := NewValidator().
		Field(prefix+"BASE_URL", q.BaseURL, Required).
		Field(prefix+"TOKEN_URL", q.TokenURL, Required).
		Field(prefix+"CLIENT_ID", q.ClientID, Required).
		Field(prefix+"CLIENT_SECRET", q.ClientSecret, Required)
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// Validate validates the loaded configuration for the daemon
func (c *Config) Validate() error {
	if err := c.ValidateForAnalyze(); err != nil {
		return err
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	return nil
}
