// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"leakguard/internal/diagnostics"
	"leakguard/internal/paths"

	"github.com/docker/go-units"
	"gopkg.in/yaml.v3"
)

// TestFilePolicy controls how files under test paths are treated
type TestFilePolicy string

const (
	// TestFilesScan scans test files like any other file
	TestFilesScan TestFilePolicy = "scan"
	// TestFilesDowngrade scans test files but lowers the severity of their findings
	TestFilesDowngrade TestFilePolicy = "downgrade"
	// TestFilesExclude removes test files in the filter pipeline
	TestFilesExclude TestFilePolicy = "exclude"
)

const (
	DefaultEntropyThreshold = 4.5
	DefaultMinTokenLength   = 16
	DefaultConcurrency      = 4
	DefaultContextWindow    = 2
	DefaultMaxFileSize      = "10MB"
	DefaultInlineAllow      = "leakguard:allow"
	MaxEntropyThreshold     = 8.0
)

// Config is the scan configuration. It is immutable for the duration of a scan.
type Config struct {
	Entropy        EntropyConfig     `yaml:"entropy"`
	Categories     []string          `yaml:"categories"`
	CustomPatterns []PatternConfig   `yaml:"custom_patterns"`
	Allowlist      AllowlistConfig   `yaml:"allowlist"`
	Filters        FilterConfig      `yaml:"filters"`
	TestFiles      TestFilePolicy    `yaml:"test_files"`
	Strict         bool              `yaml:"strict"`
	Concurrency    int               `yaml:"concurrency"`
	Context        ContextConfig     `yaml:"context"`
	Aggregation    AggregationConfig `yaml:"aggregation"`

	// SuppressionsFile holds fingerprint suppression rules; empty disables them
	SuppressionsFile string `yaml:"suppressions_file"`
}

// EntropyConfig configures the entropy detector
type EntropyConfig struct {
	Enabled         bool    `yaml:"enabled"`
	Threshold       float64 `yaml:"threshold"`
	MinLength       int     `yaml:"min_length"`
	DictionaryCheck bool    `yaml:"dictionary_check"`
}

// PatternConfig is a user supplied detection rule
type PatternConfig struct {
	ID          string   `yaml:"id"`
	Category    string   `yaml:"category"`
	Pattern     string   `yaml:"pattern"`
	Severity    string   `yaml:"severity"`
	Confidence  float64  `yaml:"confidence"`
	Keywords    []string `yaml:"keywords"`
	MultiLine   bool     `yaml:"multiline"`
	SecretGroup int      `yaml:"secret_group"`
}

// AllowlistConfig lists values that must never be reported
type AllowlistConfig struct {
	Literals []string `yaml:"literals"`
	Regexes  []string `yaml:"regexes"`
}

// FilterConfig configures the filter pipeline
type FilterConfig struct {
	IncludeExtensions []string `yaml:"include_extensions"`
	ExcludeExtensions []string `yaml:"exclude_extensions"`
	IncludePaths      []string `yaml:"include_paths"`
	ExcludePaths      []string `yaml:"exclude_paths"`
	MaxFileSize       string   `yaml:"max_file_size"`
	SkipBinary        bool     `yaml:"skip_binary"`
	InlineAllowMarker string   `yaml:"inline_allow_marker"`

	// Priorities overrides the priority of built-in filters by name
	Priorities map[string]int `yaml:"priorities"`

	// Custom holds user defined regex, path, extension and composite filters
	Custom []FilterSpec `yaml:"custom"`
}

// FilterSpec declares a single filter. Composite filters nest children.
type FilterSpec struct {
	Name       string       `yaml:"name"`
	Type       string       `yaml:"type"` // extension, path, regex, size, binary, composite
	Priority   *int         `yaml:"priority"` // nil takes the custom filter default
	Include    []string     `yaml:"include"`
	Exclude    []string     `yaml:"exclude"`
	Pattern    string       `yaml:"pattern"`
	Target     string       `yaml:"target"` // path or line
	Action     string       `yaml:"action"` // include or exclude
	Extensions []string     `yaml:"extensions"`
	MaxSize    string       `yaml:"max_size"`
	Operation  string       `yaml:"operation"` // all, any, exclusive, none
	Children   []FilterSpec `yaml:"children"`
}

// ContextConfig configures the context analyzer
type ContextConfig struct {
	Window int `yaml:"window"`
}

// AggregationConfig configures how raw matches are merged
type AggregationConfig struct {
	Adjacency int `yaml:"adjacency"`
}

// DefaultConfig returns the configuration used when no file is supplied
func DefaultConfig() *Config {
	cfg := &Config{
		TestFiles:   TestFilesDowngrade,
		Concurrency: DefaultConcurrency,
	}
	cfg.Entropy.Enabled = true
	cfg.Entropy.Threshold = DefaultEntropyThreshold
	cfg.Entropy.MinLength = DefaultMinTokenLength
	cfg.Entropy.DictionaryCheck = true
	cfg.Filters.MaxFileSize = DefaultMaxFileSize
	cfg.Filters.SkipBinary = true
	cfg.Filters.InlineAllowMarker = DefaultInlineAllow
	cfg.Context.Window = DefaultContextWindow
	return cfg
}

// LoadConfig loads configuration from the specified file path. Keys absent from
// the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	cleanPath := filepath.Clean(configPath)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", cleanPath, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of the default configuration
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MaxFileSizeBytes parses the human readable size limit. Zero means unlimited.
func (c *Config) MaxFileSizeBytes() (int64, error) {
	if strings.TrimSpace(c.Filters.MaxFileSize) == "" {
		return 0, nil
	}
	return units.FromHumanSize(c.Filters.MaxFileSize)
}

// CategoryEnabled reports whether findings of category should be produced.
// An empty category list enables everything.
func (c *Config) CategoryEnabled(category string) bool {
	if len(c.Categories) == 0 {
		return true
	}
	for _, enabled := range c.Categories {
		if strings.EqualFold(strings.TrimSpace(enabled), category) {
			return true
		}
	}
	return false
}

// Normalize resets out-of-range values to their defaults and returns a
// configuration error for each value it had to change. Regex and glob syntax
// is checked where those are compiled.
func (c *Config) Normalize() []error {
	var errs []error

	if c.Entropy.Threshold < 0 || c.Entropy.Threshold > MaxEntropyThreshold {
		errs = append(errs, diagnostics.NewConfigurationError("entropy.threshold",
			fmt.Sprintf("threshold %.2f outside [0, %.1f], using %.1f", c.Entropy.Threshold, MaxEntropyThreshold, DefaultEntropyThreshold), nil))
		c.Entropy.Threshold = DefaultEntropyThreshold
	}

	if c.Entropy.MinLength < DefaultMinTokenLength {
		if c.Entropy.MinLength != 0 {
			errs = append(errs, diagnostics.NewConfigurationError("entropy.min_length",
				fmt.Sprintf("min length %d below floor, using %d", c.Entropy.MinLength, DefaultMinTokenLength), nil))
		}
		c.Entropy.MinLength = DefaultMinTokenLength
	}

	if c.Concurrency < 1 {
		if c.Concurrency != 0 {
			errs = append(errs, diagnostics.NewConfigurationError("concurrency",
				fmt.Sprintf("concurrency %d must be positive, using %d", c.Concurrency, DefaultConcurrency), nil))
		}
		c.Concurrency = DefaultConcurrency
	}

	switch c.TestFiles {
	case TestFilesScan, TestFilesDowngrade, TestFilesExclude:
	case "":
		c.TestFiles = TestFilesDowngrade
	default:
		errs = append(errs, diagnostics.NewConfigurationError("test_files",
			fmt.Sprintf("unknown test file policy %q, using %q", c.TestFiles, TestFilesDowngrade), nil))
		c.TestFiles = TestFilesDowngrade
	}

	if c.Context.Window < 0 {
		errs = append(errs, diagnostics.NewConfigurationError("context.window",
			fmt.Sprintf("window %d must not be negative, using %d", c.Context.Window, DefaultContextWindow), nil))
		c.Context.Window = DefaultContextWindow
	}

	if c.Aggregation.Adjacency < 0 {
		errs = append(errs, diagnostics.NewConfigurationError("aggregation.adjacency",
			fmt.Sprintf("adjacency %d must not be negative, using 0", c.Aggregation.Adjacency), nil))
		c.Aggregation.Adjacency = 0
	}

	if _, err := c.MaxFileSizeBytes(); err != nil {
		errs = append(errs, diagnostics.NewConfigurationError("filters.max_file_size",
			fmt.Sprintf("cannot parse %q, size limit disabled", c.Filters.MaxFileSize), err))
		c.Filters.MaxFileSize = ""
	}

	return errs
}

// FindConfigFile looks for a configuration file in standard locations
func FindConfigFile() string {
	for _, name := range []string{".leakguard.yaml", ".leakguard.yml", "leakguard.yaml", "leakguard.yml"} {
		if fileExists(name) {
			return name
		}
	}

	if standardConfig := paths.GetConfigFile(); fileExists(standardConfig) {
		return standardConfig
	}

	if runtime.GOOS != "windows" {
		if home, err := os.UserHomeDir(); err == nil {
			homeConfig := filepath.Join(home, ".leakguard.yaml")
			if fileExists(homeConfig) {
				return homeConfig
			}
		}
	}

	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// LoadConfigOrDefault loads configuration from configFile (or searches standard
// locations when configFile is empty). If loading fails, it returns the default
// configuration together with the load error so callers can report it.
func LoadConfigOrDefault(configFile string) (*Config, error) {
	configPath := configFile
	if configPath == "" {
		configPath = FindConfigFile()
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}
