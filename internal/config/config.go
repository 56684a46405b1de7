// Package config provides unified configuration for the datagroom service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the unified configuration for all datagroom components.
type Config struct {
	// DataDir is the base directory for all data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// HTTP configuration
	HTTP HTTPConfig `json:"http" yaml:"http"`

	// Parser configuration for the semantic rule parser
	Parser ParserConfig `json:"parser" yaml:"parser"`

	// Limits on accepted input
	Limits LimitsConfig `json:"limits" yaml:"limits"`

	// Storage configuration for archived exports
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Retention configuration for stored cleaning runs
	Retention RetentionConfig `json:"retention" yaml:"retention"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error
	Level string `json:"level" yaml:"level"`

	// Format is the log encoding: json, console
	Format string `json:"format" yaml:"format"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	// Addr is the listen address for the API server
	Addr string `json:"addr" yaml:"addr"`

	// ReadTimeout is the HTTP read timeout
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the HTTP write timeout
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the HTTP idle timeout
	IdleTimeout time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
}

// ParserConfig holds semantic parser configuration. When APIKey is empty the
// pipeline parses prompts with the pattern parser alone.
type ParserConfig struct {
	// Model is the generative model used to translate prompts
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the model endpoint. Set via GEMINI_API_KEY.
	APIKey string `json:"-" yaml:"-"`

	// Endpoint is the base URL of the model API
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Timeout bounds a single model call
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Temperature controls model sampling
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

// SemanticEnabled reports whether prompts go to the model first.
func (p ParserConfig) SemanticEnabled() bool {
	return p.APIKey != ""
}

// LimitsConfig bounds accepted input files.
type LimitsConfig struct {
	// MaxFileSizeMB is the largest accepted CSV upload in megabytes (1–1024)
	MaxFileSizeMB int `json:"max_file_size_mb" yaml:"max_file_size_mb"`

	// PreviewRows is the number of rows returned in dataset previews
	PreviewRows int `json:"preview_rows" yaml:"preview_rows"`
}

// MaxFileSizeBytes returns the upload cap in bytes.
func (l LimitsConfig) MaxFileSizeBytes() int64 {
	return int64(l.MaxFileSizeMB) * 1024 * 1024
}

// StorageConfig holds archive storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// RetentionConfig controls pruning of stored datasets.
type RetentionConfig struct {
	// Enabled turns the retention daemon on
	Enabled bool `json:"enabled" yaml:"enabled"`

	// CheckInterval is the interval between retention sweeps
	CheckInterval time.Duration `json:"check_interval" yaml:"check_interval"`

	// TTLDays is the age in days after which stored datasets are pruned
	TTLDays int `json:"ttl_days" yaml:"ttl_days"`
}

// TTL returns the retention age as a duration.
func (r RetentionConfig) TTL() time.Duration {
	return time.Duration(r.TTLDays) * 24 * time.Hour
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/datagroom",
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Parser: ParserConfig{
			Model:       "gemini-2.0-flash",
			Endpoint:    "https://generativelanguage.googleapis.com/v1beta/models",
			Timeout:     30 * time.Second,
			Temperature: 0.1,
		},
		Limits: LimitsConfig{
			MaxFileSizeMB: 100,
			PreviewRows:   10,
		},
		Storage: StorageConfig{
			Type: "local",
			Path: "",
		},
		Retention: RetentionConfig{
			Enabled:       true,
			CheckInterval: time.Hour,
			TTLDays:       30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/datagroom"
	}

	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "archive")
	}
}

// DatabasePath returns the path to the dataset store database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "datagroom.db")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}

	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	if c.Limits.MaxFileSizeMB < 1 || c.Limits.MaxFileSizeMB > 1024 {
		return fmt.Errorf("limits.max_file_size_mb must be between 1 and 1024, got %d", c.Limits.MaxFileSizeMB)
	}

	if c.Parser.Temperature < 0 || c.Parser.Temperature > 2 {
		return fmt.Errorf("parser.temperature must be between 0 and 2, got %g", c.Parser.Temperature)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid logging format: %s (must be json or console)", c.Logging.Format)
	}

	if c.Retention.Enabled {
		if c.Retention.TTLDays < 1 {
			return fmt.Errorf("retention.ttl_days must be at least 1, got %d", c.Retention.TTLDays)
		}
		if c.Retention.CheckInterval <= 0 {
			return fmt.Errorf("retention.check_interval must be positive, got %s", c.Retention.CheckInterval)
		}
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the DATAGROOM_ prefix; the model key is read
// from GEMINI_API_KEY.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("DATAGROOM_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// HTTP configuration
	if v := os.Getenv("DATAGROOM_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("DATAGROOM_HTTP_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ReadTimeout = d
		}
	}
	if v := os.Getenv("DATAGROOM_HTTP_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.WriteTimeout = d
		}
	}

	// Parser configuration
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Parser.APIKey = v
	}
	if v := os.Getenv("DATAGROOM_PARSER_MODEL"); v != "" {
		cfg.Parser.Model = v
	}
	if v := os.Getenv("DATAGROOM_PARSER_ENDPOINT"); v != "" {
		cfg.Parser.Endpoint = v
	}
	if v := os.Getenv("DATAGROOM_PARSER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Parser.Timeout = d
		}
	}

	// Limits configuration
	if v := os.Getenv("DATAGROOM_LIMITS_MAX_FILE_SIZE_MB"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Limits.MaxFileSizeMB)
	}
	if v := os.Getenv("DATAGROOM_LIMITS_PREVIEW_ROWS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Limits.PreviewRows)
	}

	// Logging configuration
	if v := os.Getenv("DATAGROOM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DATAGROOM_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Retention configuration
	if v := os.Getenv("DATAGROOM_RETENTION_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Retention.Enabled = b
		}
	}
	if v := os.Getenv("DATAGROOM_RETENTION_CHECK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Retention.CheckInterval = d
		}
	}
	if v := os.Getenv("DATAGROOM_RETENTION_TTL_DAYS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Retention.TTLDays)
	}

	// Storage configuration
	if v := os.Getenv("DATAGROOM_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("DATAGROOM_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("DATAGROOM_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("DATAGROOM_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("DATAGROOM_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		c.Storage.Path,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
