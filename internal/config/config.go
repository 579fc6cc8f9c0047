package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values
const (
	DefaultDataDir       = ".steershaft"
	DefaultChecklist     = "default"
	DefaultAPIAddr       = ":8080"
	DefaultWatchDebounce = 500 // milliseconds
	DefaultMaxLogFiles   = 20
	DefaultTheme         = "catppuccin"
)

// Environment variable overrides
const (
	EnvSubmitURL = "CHECKLIST_SUBMIT_URL"
	EnvDebug     = "CHECKLIST_DEBUG"
	EnvLogFile   = "CHECKLIST_LOG_FILE"
)

// Config holds all application configuration
type Config struct {
	// Submission
	SubmitURL     string        `yaml:"submit_url"`
	SubmitTimeout time.Duration `yaml:"submit_timeout"` // zero relies on the transport

	// Checklists
	DataDir         string `yaml:"data_dir"`
	ActiveChecklist string `yaml:"checklist"`

	// Input
	ScanTerminators []string `yaml:"scan_terminators"` // keys that confirm a scanned work order

	// UI settings
	Theme string `yaml:"theme"`

	// Watch mode
	WatchEnabled  bool `yaml:"watch"`
	WatchDebounce int  `yaml:"watch_debounce"` // milliseconds

	// Kiosk API
	APIAddr            string   `yaml:"api_addr"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// Logging
	Debug       bool   `yaml:"debug"`
	LogFile     string `yaml:"log_file"`
	MaxLogFiles int    `yaml:"max_log_files"`

	// Private: where the config was loaded from
	source string
}

// New creates a new Config with default values
func New() *Config {
	dataDir := DefaultDataDir
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, DefaultDataDir)
	}

	return &Config{
		DataDir:            dataDir,
		ActiveChecklist:    DefaultChecklist,
		ScanTerminators:    []string{"enter"},
		Theme:              DefaultTheme,
		WatchEnabled:       false,
		WatchDebounce:      DefaultWatchDebounce,
		APIAddr:            DefaultAPIAddr,
		CORSAllowedOrigins: []string{"http://localhost:*"},
		MaxLogFiles:        DefaultMaxLogFiles,
	}
}

// DefaultPath returns the config file looked up when none is given
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, "config.yaml")
}

// Load returns defaults merged with the YAML file at path (if it exists)
// and then with environment overrides. An empty path uses DefaultPath.
func Load(path string) (*Config, error) {
	cfg := New()
	if path == "" {
		return cfg.load(DefaultPath(cfg.DataDir), false)
	}
	return cfg.load(path, true)
}

// LoadDir is Load for an explicit data directory. Only the config file in
// dataDir is read; the one in the home directory is ignored.
func LoadDir(dataDir string) (*Config, error) {
	cfg := New()
	cfg.DataDir = dataDir
	return cfg.load(DefaultPath(dataDir), false)
}

func (c *Config) load(path string, required bool) (*Config, error) {
	if err := c.mergeFile(path); err != nil {
		if required || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return c, nil
}

// mergeFile overlays values present in the YAML file onto cfg
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	c.source = path
	return nil
}

// ApplyEnv applies environment overrides using lookup (os.LookupEnv in
// production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvSubmitURL); ok && v != "" {
		c.SubmitURL = v
	}
	if v, ok := lookup(EnvDebug); ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvDebug, err)
		}
		c.Debug = debug
	}
	if v, ok := lookup(EnvLogFile); ok && v != "" {
		c.LogFile = v
	}
	return nil
}

// Validate reports configuration that would make the app unusable
func (c *Config) Validate() error {
	if c.ActiveChecklist == "" {
		return fmt.Errorf("checklist name cannot be empty")
	}
	if c.SubmitTimeout < 0 {
		return fmt.Errorf("submit_timeout cannot be negative")
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce cannot be negative")
	}
	for _, k := range c.ScanTerminators {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("scan_terminators cannot contain empty keys")
		}
	}
	return nil
}

// Source returns the file the config was loaded from, if any
func (c *Config) Source() string {
	return c.source
}

// Debounce returns the watch debounce as a duration
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.WatchDebounce) * time.Millisecond
}

// IsScanTerminator reports whether key confirms a scanned work order
func (c *Config) IsScanTerminator(key string) bool {
	for _, k := range c.ScanTerminators {
		if k == key {
			return true
		}
	}
	return false
}
