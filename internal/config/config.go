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

// Config holds the kvsearch daemon's configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the connection settings for the key-space the field
// loader reads document hashes from.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// PipelineConfig holds the query execution pipeline's tunables (spec.md §6
// "Configuration").
type PipelineConfig struct {
	// ConcurrentMode sizes the executor's worker pool at SearchPoolSize;
	// when false the pool is unbounded. Service.Execute runs each pipeline
	// on the calling goroutine either way and does not go through the pool.
	// Immutable once the server has started.
	ConcurrentMode bool `yaml:"concurrent_mode"`
	// QueryTimeoutMS bounds a single pipeline's wall time; 0 = unlimited.
	QueryTimeoutMS int64 `yaml:"query_timeout_ms"`
	// TimeoutPolicy is "return" (graceful partial results) or "fail"
	// (propagate TimedOut all the way to the caller).
	TimeoutPolicy string `yaml:"timeout_policy"`
	// MaxSearchResults is the hard cap on the sorter's K.
	MaxSearchResults int `yaml:"max_search_results"`
	// MaxResultsToUnsortedMode is the threshold above which the sorter
	// switches to dynamic growth (K=0) instead of a bounded top-K heap.
	MaxResultsToUnsortedMode int `yaml:"max_results_to_unsorted_mode"`
	// SearchPoolSize bounds the concurrent-pipeline worker pool.
	SearchPoolSize int `yaml:"search_pool_size"`
	// NoMemPool disables the sorter's pooled-record reuse.
	NoMemPool bool `yaml:"no_mem_pool"`
}

// ResolvedTimeoutPolicy parses TimeoutPolicy and reports whether it selects
// the "fail" policy. Callers needing the pipeline package's
// type do the mapping themselves to avoid an import cycle from config into
// pipeline.
func (p PipelineConfig) ResolvedTimeoutPolicy() (isFail bool, err error) {
	switch strings.ToLower(p.TimeoutPolicy) {
	case "", "return":
		return false, nil
	case "fail":
		return true, nil
	default:
		return false, fmt.Errorf("pipeline.timeout_policy must be \"return\" or \"fail\", got %q", p.TimeoutPolicy)
	}
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
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
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Pipeline.TimeoutPolicy == "" {
		c.Pipeline.TimeoutPolicy = "return"
	}
	if c.Pipeline.MaxSearchResults <= 0 {
		c.Pipeline.MaxSearchResults = 1000
	}
	if c.Pipeline.MaxResultsToUnsortedMode <= 0 {
		c.Pipeline.MaxResultsToUnsortedMode = 10000
	}
	if c.Pipeline.SearchPoolSize <= 0 {
		c.Pipeline.SearchPoolSize = 16
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "kvsearch:"
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
	if _, err := c.Pipeline.ResolvedTimeoutPolicy(); err != nil {
		return err
	}
	if c.Pipeline.MaxResultsToUnsortedMode > 0 && c.Pipeline.MaxSearchResults > c.Pipeline.MaxResultsToUnsortedMode {
		return fmt.Errorf(
			"pipeline.max_search_results (%d) must not exceed pipeline.max_results_to_unsorted_mode (%d)",
			c.Pipeline.MaxSearchResults, c.Pipeline.MaxResultsToUnsortedMode,
		)
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
