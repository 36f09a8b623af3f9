// Package config loads apicli settings from config.yml and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/vedsharma/apiclient/internal/monitor"
)

const (
	configFilename = "config.yml"
	appDir         = "apicli"

	defaultStorage         = "sqlite"
	defaultLogLevel        = "info"
	defaultLogFormat       = "text"
	defaultOpenAIModel     = "gpt-3.5-turbo"
	defaultOpenAIBaseURL   = "https://api.openai.com/v1"
	defaultServerAddr      = "127.0.0.1:9464"
	defaultLogGroup        = "apicli"
	defaultMaxResponseSize = 50 * 1024 * 1024
)

// Config is the full set of user settings
type Config struct {
	DataDir    string           `yaml:"data_dir"`
	Storage    string           `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
	HTTP       HTTPConfig       `yaml:"http"`
	Monitor    MonitorConfig    `yaml:"monitor"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
	Server     ServerConfig     `yaml:"server"`
}

// LogConfig controls slog output
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTPConfig controls the request executor
type HTTPConfig struct {
	MaxResponseBytes int64 `yaml:"max_response_bytes"`
	// BlockMetadataEndpoints is a pointer so an explicit false survives defaults
	BlockMetadataEndpoints *bool `yaml:"block_metadata_endpoints"`
}

// MonitorConfig holds the monitoring dashboard defaults
type MonitorConfig struct {
	Window          string        `yaml:"window"`
	View            string        `yaml:"view"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// OpenAIConfig configures response analysis
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// CloudWatchConfig selects where monitor publish sends events
type CloudWatchConfig struct {
	Profile   string `yaml:"profile"`
	Region    string `yaml:"region"`
	LogGroup  string `yaml:"log_group"`
	LogStream string `yaml:"log_stream"`
}

// ServerConfig configures monitor serve
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is present
func Default() Config {
	var c Config
	c.applyDefaults()
	return c
}

// Load reads the first config file found, applies environment overrides,
// fills defaults and validates. A missing file is not an error.
func Load() (Config, error) {
	path, found := FindConfigPath()
	if !found {
		cfg := Config{}
		cfg.applyEnv()
		cfg.applyDefaults()
		return cfg, cfg.Validate()
	}
	return LoadFile(path)
}

// LoadFile reads the config at path
func LoadFile(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// FindConfigPath searches for config.yml in standard locations.
// Returns the path and whether a file was found.
func FindConfigPath() (string, bool) {
	var searchPaths []string

	if explicit := os.Getenv("APICLI_CONFIG"); explicit != "" {
		searchPaths = append(searchPaths, explicit)
	}
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		searchPaths = append(searchPaths, filepath.Join(xdgConfig, appDir, configFilename))
	}
	if home := os.Getenv("HOME"); home != "" {
		searchPaths = append(searchPaths,
			filepath.Join(home, ".config", appDir, configFilename),
			filepath.Join(home, ".apicli", configFilename),
		)
	}

	slog.Debug("Searching for config file", "paths", searchPaths)

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			slog.Debug("Found config file", "path", path)
			return path, true
		}
	}
	return "", false
}

func (c *Config) applyEnv() {
	if v := os.Getenv("APICLI_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("APICLI_STORAGE"); v != "" {
		c.Storage = v
	}
	if v := os.Getenv("APICLI_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("APICLI_AWS_PROFILE"); v != "" {
		c.CloudWatch.Profile = v
	}
	if v := os.Getenv("APICLI_BLOCK_METADATA"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.HTTP.BlockMetadataEndpoints = &b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Storage == "" {
		c.Storage = defaultStorage
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
	if c.HTTP.MaxResponseBytes == 0 {
		c.HTTP.MaxResponseBytes = defaultMaxResponseSize
	}
	if c.HTTP.BlockMetadataEndpoints == nil {
		block := true
		c.HTTP.BlockMetadataEndpoints = &block
	}
	if c.Monitor.Window == "" {
		c.Monitor.Window = string(monitor.DefaultWindow)
	}
	if c.Monitor.View == "" {
		c.Monitor.View = string(monitor.ViewAll)
	}
	if c.Monitor.RefreshInterval == 0 {
		c.Monitor.RefreshInterval = monitor.DefaultRefreshInterval
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = defaultOpenAIModel
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = defaultOpenAIBaseURL
	}
	if c.CloudWatch.LogGroup == "" {
		c.CloudWatch.LogGroup = defaultLogGroup
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultServerAddr
	}
}

// Validate checks enumerations and ranges
func (c Config) Validate() error {
	var errs []error

	switch c.Storage {
	case "sqlite", "json":
	default:
		errs = append(errs, fmt.Errorf("storage must be sqlite or json, got %q", c.Storage))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.HTTP.MaxResponseBytes <= 0 {
		errs = append(errs, fmt.Errorf("http.max_response_bytes must be > 0"))
	}
	if _, err := monitor.ParseWindow(c.Monitor.Window); err != nil {
		errs = append(errs, fmt.Errorf("monitor.window: %w", err))
	}
	if _, err := monitor.ParseViewMode(c.Monitor.View); err != nil {
		errs = append(errs, fmt.Errorf("monitor.view: %w", err))
	}
	if c.Monitor.RefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("monitor.refresh_interval must be > 0"))
	}

	return errors.Join(errs...)
}

// BlockMetadata reports whether cloud metadata hosts are refused
func (c Config) BlockMetadata() bool {
	return c.HTTP.BlockMetadataEndpoints == nil || *c.HTTP.BlockMetadataEndpoints
}

// ParseLevel maps a level name to its slog level
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level must be debug, info, warn or error, got %q", s)
}
