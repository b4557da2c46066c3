package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Pipeline      PipelineConfig
	Rules         RulesConfig
	Observability ObservabilityConfig
	Logging       LoggingConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerSecond int
	RateLimitBurst     int
	CORSOrigins        []string
	MaxUploadMB        int
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type PipelineConfig struct {
	UseML               bool
	ConfidenceThreshold float64
	FallbackToRules     bool
	ModelPath           string
	MerchantPolicy      string
	TagPolicy           string
	PersonalTransfer    bool
	Workers             int
	ParseTimeout        time.Duration
}

type RulesConfig struct {
	RulesFile             string
	MerchantOverridesFile string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	TracingEnabled bool
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables, after loading a .env
// file from the working directory when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 10),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 20),
			CORSOrigins:        getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
			MaxUploadMB:        getEnvAsInt("MAX_UPLOAD_MB", 10),
		},
		Pipeline: PipelineConfig{
			UseML:               getEnvAsBool("USE_ML", true),
			ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.7),
			FallbackToRules:     getEnvAsBool("FALLBACK_TO_RULES", true),
			ModelPath:           getEnv("MODEL_PATH", ""),
			MerchantPolicy:      strings.ToLower(getEnv("MERCHANT_POLICY", "lenient")),
			TagPolicy:           strings.ToLower(getEnv("TAG_POLICY", "inferred")),
			PersonalTransfer:    getEnvAsBool("PERSONAL_TRANSFER", true),
			Workers:             getEnvAsInt("PIPELINE_WORKERS", 0),
			ParseTimeout:        getEnvAsDuration("PARSE_TIMEOUT", 2*time.Minute),
		},
		Rules: RulesConfig{
			RulesFile:             getEnv("RULES_FILE", ""),
			MerchantOverridesFile: getEnv("MERCHANT_OVERRIDES_FILE", ""),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			TracingEnabled: getEnvAsBool("TRACING_ENABLED", false),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects out-of-range values and unknown policies.
func (c *Config) Validate() error {
	var errs []error
	if t := c.Pipeline.ConfidenceThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("CONFIDENCE_THRESHOLD must be within [0, 1], got %v", t))
	}
	switch c.Pipeline.MerchantPolicy {
	case "lenient", "strict":
	default:
		errs = append(errs, fmt.Errorf("MERCHANT_POLICY must be lenient or strict, got %q", c.Pipeline.MerchantPolicy))
	}
	switch c.Pipeline.TagPolicy {
	case "inferred", "observed":
	default:
		errs = append(errs, fmt.Errorf("TAG_POLICY must be inferred or observed, got %q", c.Pipeline.TagPolicy))
	}
	if c.Pipeline.Workers < 0 {
		errs = append(errs, fmt.Errorf("PIPELINE_WORKERS must not be negative, got %d", c.Pipeline.Workers))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT out of range: %d", c.Server.Port))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.Server.MaxUploadMB))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
