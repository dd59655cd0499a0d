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

// EnvPrefix is prepended to every environment variable the crawler reads
const EnvPrefix = "LISTINGCRAWLER_"

// Config holds all configuration options for the listing crawler
type Config struct {
	// Source site description
	Site SiteConfig `yaml:"site" json:"site"`

	// Page range and request settings
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Retry policy for page fetches
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Politeness limit between page fetches
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Control API for resolving verification pauses
	Control ControlConfig `yaml:"control" json:"control"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SiteConfig describes the listing site being crawled
type SiteConfig struct {
	BaseURL         string   `yaml:"base_url" json:"base_url"`
	PageURLTemplate string   `yaml:"page_url_template" json:"page_url_template"`
	UserAgent       string   `yaml:"user_agent" json:"user_agent"`
	Sentinels       []string `yaml:"sentinels" json:"sentinels"`
}

// CrawlConfig holds the default page range and per-request timeout
type CrawlConfig struct {
	StartPage      int           `yaml:"start_page" json:"start_page"`
	EndPage        int           `yaml:"end_page" json:"end_page"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// RetryConfig holds the fetch retry policy
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay    time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// RateLimitConfig holds the page request rate; zero disables limiting
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	Burst             int `yaml:"burst" json:"burst"`
}

// OutputConfig holds output locations
type OutputConfig struct {
	Directory      string `yaml:"directory" json:"directory"`
	CheckpointFile string `yaml:"checkpoint_file" json:"checkpoint_file"`
	MergeFile      string `yaml:"merge_file" json:"merge_file"`
}

// ControlConfig holds the control API listen address; empty disables it
type ControlConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	NotificationType string `yaml:"notification_type" json:"notification_type"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

const (
	// DefaultUserAgent is the desktop browser identity sent with every page request
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	DefaultBaseURL         = "https://alonhadat.com.vn"
	DefaultPageURLTemplate = DefaultBaseURL + "/nha-dat/can-ban/nha-dat/1/ha-noi/trang--{page}.html"
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:         DefaultBaseURL,
			PageURLTemplate: DefaultPageURLTemplate,
			UserAgent:       DefaultUserAgent,
			Sentinels:       []string{"Vui lòng xác minh không phải Robot", "THÔNG BÁO"},
		},
		Crawl: CrawlConfig{
			StartPage:      2,
			EndPage:        200,
			RequestTimeout: 30 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			BaseDelay:    5 * time.Second,
			MaxDelay:     5 * time.Minute,
			Multiplier:   2.0,
			JitterFactor: 0,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
			Burst:             1,
		},
		Output: OutputConfig{
			Directory:      filepath.Join("data", "alonhadat", "json"),
			CheckpointFile: "crawl_progress.txt",
			MergeFile:      filepath.Join("data", "alonhadat", "raw", "merged_alonhadat.csv"),
		},
		Control: ControlConfig{
			Addr: "",
		},
		Notifications: NotificationConfig{
			Enabled:          true,
			NotificationType: "terminal",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv(EnvPrefix + "USER_AGENT"); v != "" {
		c.Site.UserAgent = v
	}
	if v := os.Getenv(EnvPrefix + "PAGE_URL_TEMPLATE"); v != "" {
		c.Site.PageURLTemplate = v
	}
	if v := os.Getenv(EnvPrefix + "OUTPUT_DIR"); v != "" {
		c.Output.Directory = v
	}
	if v := os.Getenv(EnvPrefix + "CHECKPOINT_FILE"); v != "" {
		c.Output.CheckpointFile = v
	}
	if v := os.Getenv(EnvPrefix + "CONTROL_ADDR"); v != "" {
		c.Control.Addr = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv(EnvPrefix + "NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.ToLower(v) == "true"
	}

	intVars := map[string]*int{
		"START_PAGE":          &c.Crawl.StartPage,
		"END_PAGE":            &c.Crawl.EndPage,
		"MAX_RETRIES":         &c.Retry.MaxAttempts,
		"REQUESTS_PER_MINUTE": &c.RateLimit.RequestsPerMinute,
	}
	for name, target := range intVars {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			continue
		}
		*target = n
	}

	if v := os.Getenv(EnvPrefix + "RETRY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sRETRY_DELAY: %w", EnvPrefix, err))
		} else {
			c.Retry.BaseDelay = d
		}
	}

	return errors.Join(errs...)
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
	home, _ := os.UserHomeDir()
	locations := []string{
		"listingcrawler.yaml",
		".listingcrawler.yaml",
		".listingcrawler.yml",
	}
	if home != "" {
		locations = append(locations,
			filepath.Join(home, ".config", "listingcrawler", "config.yaml"),
			filepath.Join(home, ".listingcrawler.yaml"),
		)
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

	if c.Site.BaseURL == "" {
		errs = append(errs, errors.New("site base URL is required"))
	}
	if c.Site.PageURLTemplate == "" {
		errs = append(errs, errors.New("page URL template is required"))
	} else if !strings.Contains(c.Site.PageURLTemplate, "{page}") {
		errs = append(errs, errors.New("page URL template must contain {page}"))
	}
	if c.Site.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}
	if len(c.Site.Sentinels) == 0 {
		errs = append(errs, errors.New("at least one interception sentinel is required"))
	}

	if c.Crawl.StartPage < 1 {
		errs = append(errs, errors.New("start page must be at least 1"))
	}
	if c.Crawl.EndPage < c.Crawl.StartPage {
		errs = append(errs, errors.New("end page must not be before start page"))
	}
	if c.Crawl.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("max attempts must be at least 1"))
	}
	if c.Retry.BaseDelay < 0 {
		errs = append(errs, errors.New("retry base delay cannot be negative"))
	}
	if c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry multiplier must be at least 1"))
	}
	if c.Retry.JitterFactor < 0 || c.Retry.JitterFactor > 1 {
		errs = append(errs, errors.New("retry jitter factor must be between 0 and 1"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.CheckpointFile == "" {
		errs = append(errs, errors.New("checkpoint file is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	validNotifTypes := map[string]bool{
		"terminal": true, "desktop": true, "none": true,
	}
	if !validNotifTypes[strings.ToLower(c.Notifications.NotificationType)] {
		errs = append(errs, errors.New("invalid notification type"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.Directory = v
	}
	if v, ok := flags["checkpoint"].(string); ok && v != "" {
		c.Output.CheckpointFile = v
	}
	if v, ok := flags["merge-file"].(string); ok && v != "" {
		c.Output.MergeFile = v
	}
	if v, ok := flags["start-page"].(int); ok && v > 0 {
		c.Crawl.StartPage = v
	}
	if v, ok := flags["end-page"].(int); ok && v > 0 {
		c.Crawl.EndPage = v
	}
	if v, ok := flags["max-attempts"].(int); ok && v > 0 {
		c.Retry.MaxAttempts = v
	}
	if v, ok := flags["retry-delay"].(time.Duration); ok && v >= 0 {
		c.Retry.BaseDelay = v
	}
	if v, ok := flags["requests-per-minute"].(int); ok && v >= 0 {
		c.RateLimit.RequestsPerMinute = v
	}
	if v, ok := flags["control-addr"].(string); ok {
		c.Control.Addr = v
	}
	if v, ok := flags["notifications-enabled"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".listingcrawler.env"))
	}

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
