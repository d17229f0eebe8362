package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the scraper
type Config struct {
	// Target site
	Site SiteConfig `yaml:"site" json:"site"`

	// Where scraped records are forwarded
	Relay RelayConfig `yaml:"relay" json:"relay"`

	// Page fetching for headless scrapes
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Trigger server
	Listen ListenConfig `yaml:"listen" json:"listen"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SiteConfig describes the site whose photo pages are scraped
type SiteConfig struct {
	Origin          string `yaml:"origin" json:"origin"`
	PhotoPathPrefix string `yaml:"photo_path_prefix" json:"photo_path_prefix"`
}

// PhotoPagePrefix is the URL prefix a page must have to be scraped
func (s SiteConfig) PhotoPagePrefix() string {
	return strings.TrimRight(s.Origin, "/") + s.PhotoPathPrefix
}

// RelayConfig holds the collector endpoint. A zero Timeout leaves requests
// bounded only by the network stack.
type RelayConfig struct {
	Endpoint string        `yaml:"endpoint" json:"endpoint"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
}

// FetchConfig holds page fetching options
type FetchConfig struct {
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// ListenConfig holds the trigger server options. AllowedOrigins are the
// browser origins that may post pages; empty means the site origin.
type ListenConfig struct {
	Addr           string   `yaml:"addr" json:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty" json:"allowed_origins,omitempty"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Origin:          "https://www.flickr.com",
			PhotoPathPrefix: "/photos/",
		},
		Relay: RelayConfig{
			Endpoint: "http://localhost:5000",
			Timeout:  0,
		},
		Fetch: FetchConfig{
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			Timeout:   30 * time.Second,
		},
		Listen: ListenConfig{
			Addr: "127.0.0.1:5001",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if origin := os.Getenv("FLICKRSCRAPR_ORIGIN"); origin != "" {
		c.Site.Origin = origin
	}
	if prefix := os.Getenv("FLICKRSCRAPR_PHOTO_PATH_PREFIX"); prefix != "" {
		c.Site.PhotoPathPrefix = prefix
	}
	if endpoint := os.Getenv("FLICKRSCRAPR_RELAY_ENDPOINT"); endpoint != "" {
		c.Relay.Endpoint = endpoint
	}
	if timeout := os.Getenv("FLICKRSCRAPR_RELAY_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid FLICKRSCRAPR_RELAY_TIMEOUT: %w", err)
		}
		c.Relay.Timeout = d
	}
	if userAgent := os.Getenv("FLICKRSCRAPR_USER_AGENT"); userAgent != "" {
		c.Fetch.UserAgent = userAgent
	}
	if addr := os.Getenv("FLICKRSCRAPR_LISTEN_ADDR"); addr != "" {
		c.Listen.Addr = addr
	}
	if origins := os.Getenv("FLICKRSCRAPR_ALLOWED_ORIGINS"); origins != "" {
		c.Listen.AllowedOrigins = splitList(origins)
	}
	if logLevel := os.Getenv("FLICKRSCRAPR_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("FLICKRSCRAPR_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = FindConfigFile()
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

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	locations := []string{
		"flickrscrapr.yaml",
		".flickrscrapr.yaml",
		".flickrscrapr.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "flickrscrapr", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".flickrscrapr.yaml"),
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

	if err := validateAbsoluteURL(c.Site.Origin); err != nil {
		errs = append(errs, fmt.Errorf("site origin: %w", err))
	}
	if !strings.HasPrefix(c.Site.PhotoPathPrefix, "/") {
		errs = append(errs, errors.New("site photo path prefix must start with /"))
	}

	if err := validateAbsoluteURL(c.Relay.Endpoint); err != nil {
		errs = append(errs, fmt.Errorf("relay endpoint: %w", err))
	}
	if c.Relay.Timeout < 0 {
		errs = append(errs, errors.New("relay timeout cannot be negative"))
	}

	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}

	if c.Listen.Addr == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	for _, origin := range c.Listen.AllowedOrigins {
		if origin == "*" {
			continue
		}
		if err := validateAbsoluteURL(origin); err != nil {
			errs = append(errs, fmt.Errorf("listen allowed origin %q: %w", origin, err))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func validateAbsoluteURL(raw string) error {
	if raw == "" {
		return errors.New("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is required")
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

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if endpoint, ok := flags["endpoint"].(string); ok && endpoint != "" {
		c.Relay.Endpoint = endpoint
	}
	if addr, ok := flags["addr"].(string); ok && addr != "" {
		c.Listen.Addr = addr
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile, ok := flags["log-file"].(string); ok && logFile != "" {
		c.Logging.File = logFile
	}
	if noColor, ok := flags["no-color"].(bool); ok && noColor {
		c.Logging.NoColor = true
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".flickrscrapr.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if len(config.Listen.AllowedOrigins) == 0 {
		config.Listen.AllowedOrigins = []string{strings.TrimRight(config.Site.Origin, "/")}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
