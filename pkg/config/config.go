package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the downloader
type Config struct {
	// Listing categories to process (currently "post")
	Mode []string `yaml:"mode" json:"mode"`

	// Per-mode hard cap on collected items (0 means unlimited)
	Number map[string]int `yaml:"number" json:"number"`

	// Per-mode incremental mode: only items newer than the latest stored timestamp
	Increase map[string]bool `yaml:"increase" json:"increase"`

	// Inclusive date filter bounds, YYYY-MM-DD (empty means unbounded)
	StartTime string `yaml:"start_time" json:"start_time"`
	EndTime   string `yaml:"end_time" json:"end_time"`

	// Sidecar asset toggles
	Cover  bool `yaml:"cover" json:"cover"`
	Music  bool `yaml:"music" json:"music"`
	Avatar bool `yaml:"avatar" json:"avatar"`
	JSON   bool `yaml:"json" json:"json"`

	// Per-item subdirectories under the author directory
	FolderStyle bool `yaml:"folderstyle" json:"folderstyle"`

	// Outbound requests per second shared by listing, detail and asset fetches
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"`

	// Concurrent download workers
	Thread int `yaml:"thread" json:"thread"`

	BrowserFallback BrowserFallbackConfig `yaml:"browser_fallback" json:"browser_fallback"`
	Output          OutputConfig          `yaml:"output" json:"output"`
	Database        DatabaseConfig        `yaml:"database" json:"database"`
	Retry           RetryConfig           `yaml:"retry" json:"retry"`
	Logging         LoggingConfig         `yaml:"logging" json:"logging"`
}

// BrowserFallbackConfig controls the browser collector used when API
// pagination is restricted
type BrowserFallbackConfig struct {
	Enabled            bool   `yaml:"enabled" json:"enabled"`
	Headless           bool   `yaml:"headless" json:"headless"`
	MaxScrolls         int    `yaml:"max_scrolls" json:"max_scrolls"`
	IdleRounds         int    `yaml:"idle_rounds" json:"idle_rounds"`
	WaitTimeoutSeconds int    `yaml:"wait_timeout_seconds" json:"wait_timeout_seconds"`
	CollectorPath      string `yaml:"collector_path" json:"collector_path"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
}

// DatabaseConfig holds persistent store configuration
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// RetryConfig holds download retry configuration
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:        []string{"post"},
		Number:      map[string]int{"post": 0},
		Increase:    map[string]bool{"post": false},
		Cover:       true,
		Music:       false,
		Avatar:      false,
		JSON:        true,
		FolderStyle: true,
		RateLimit:   2.0,
		Thread:      5,
		BrowserFallback: BrowserFallbackConfig{
			Enabled:            true,
			Headless:           false,
			MaxScrolls:         240,
			IdleRounds:         8,
			WaitTimeoutSeconds: 600,
		},
		Output: OutputConfig{
			BaseDirectory: "./downloads",
		},
		Database: DatabaseConfig{
			Enabled: true,
			Path:    "./downloads/douget.db",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if outputDir := os.Getenv("DOUGET_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if dbPath := os.Getenv("DOUGET_DB_PATH"); dbPath != "" {
		c.Database.Path = dbPath
	}
	if rateLimit := os.Getenv("DOUGET_RATE_LIMIT"); rateLimit != "" {
		if val, err := strconv.ParseFloat(rateLimit, 64); err == nil && val > 0 {
			c.RateLimit = val
		}
	}
	if thread := os.Getenv("DOUGET_THREAD"); thread != "" {
		if val, err := strconv.Atoi(thread); err == nil && val > 0 {
			c.Thread = val
		}
	}
	if logLevel := os.Getenv("DOUGET_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if fallback := os.Getenv("DOUGET_BROWSER_FALLBACK"); fallback != "" {
		c.BrowserFallback.Enabled = strings.ToLower(fallback) == "true"
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".douget.yaml",
		".douget.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "douget", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "douget", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".douget.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if len(c.Mode) == 0 {
		errs = append(errs, errors.New("at least one mode is required"))
	}
	if c.RateLimit <= 0 {
		errs = append(errs, errors.New("rate limit must be positive"))
	}
	if c.Thread <= 0 {
		errs = append(errs, errors.New("thread count must be positive"))
	}
	if c.Thread > 16 {
		errs = append(errs, errors.New("thread count should not exceed 16"))
	}
	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("retry attempts cannot be negative"))
	}
	for _, bound := range []string{c.StartTime, c.EndTime} {
		if bound == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", bound); err != nil {
			errs = append(errs, fmt.Errorf("invalid date filter %q: expected YYYY-MM-DD", bound))
		}
	}
	if c.BrowserFallback.Enabled {
		if c.BrowserFallback.MaxScrolls <= 0 {
			errs = append(errs, errors.New("browser fallback max_scrolls must be positive"))
		}
		if c.BrowserFallback.WaitTimeoutSeconds <= 0 {
			errs = append(errs, errors.New("browser fallback wait_timeout_seconds must be positive"))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if thread, ok := flags["thread"].(int); ok && thread > 0 {
		c.Thread = thread
	}
	if rateLimit, ok := flags["rate-limit"].(float64); ok && rateLimit > 0 {
		c.RateLimit = rateLimit
	}
	if number, ok := flags["number"].(int); ok && number > 0 {
		if c.Number == nil {
			c.Number = make(map[string]int)
		}
		for _, mode := range c.Mode {
			c.Number[mode] = number
		}
	}
	if noDB, ok := flags["no-db"].(bool); ok && noDB {
		c.Database.Enabled = false
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".douget.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
