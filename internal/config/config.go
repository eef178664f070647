package config

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/open-edge-platform/firmware-selector/internal/config/validate"
)

// Default values of the global configuration.
const (
	DefaultDownloadsURL = "https://downloads.openwrt.org"
	DefaultWorkers      = 4
	DefaultTimeout      = "30s"
	DefaultCacheDir     = "./cache"
	DefaultLogLevel     = "info"
)

// DefaultBinaryIndexVersions lists the firmware versions whose feeds publish
// packages.adb instead of Packages.
var DefaultBinaryIndexVersions = []string{"SNAPSHOT", "25.12*"}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// GlobalConfig is the tool-wide configuration.
type GlobalConfig struct {
	DownloadsURL        string        `yaml:"downloads_url"`
	BinaryIndexVersions []string      `yaml:"binary_index_versions"`
	Workers             int           `yaml:"workers"`
	Timeout             string        `yaml:"timeout"`
	CacheDir            string        `yaml:"cache_dir"`
	Logging             LoggingConfig `yaml:"logging"`
}

// DefaultGlobalConfig returns the configuration used when no file is given.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		DownloadsURL:        DefaultDownloadsURL,
		BinaryIndexVersions: append([]string(nil), DefaultBinaryIndexVersions...),
		Workers:             DefaultWorkers,
		Timeout:             DefaultTimeout,
		CacheDir:            DefaultCacheDir,
		Logging:             LoggingConfig{Level: DefaultLogLevel},
	}
}

// LoadGlobalConfig reads a YAML configuration file. An empty path returns the
// defaults. Values missing from the file keep their defaults.
func LoadGlobalConfig(configPath string) (*GlobalConfig, error) {
	if configPath == "" {
		return DefaultGlobalConfig(), nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
	}
	cfg, err := ParseGlobalConfig(data)
	if err != nil {
		return nil, fmt.Errorf("loading config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// ParseGlobalConfig validates YAML data against the config schema and decodes
// it on top of the defaults.
func ParseGlobalConfig(data []byte) (*GlobalConfig, error) {
	cfg := DefaultGlobalConfig()
	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}

	jsonData, err := validate.YAMLToJSON(data)
	if err != nil {
		return nil, err
	}
	if err := validate.ValidateConfigJSON(jsonData); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the schema cannot express.
func (c *GlobalConfig) Validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	for _, pattern := range c.BinaryIndexVersions {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid binary index version pattern %q: %w", pattern, err)
		}
	}
	return nil
}
