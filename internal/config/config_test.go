// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"leakguard/internal/diagnostics"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Entropy.Enabled || cfg.Entropy.Threshold != DefaultEntropyThreshold {
		t.Errorf("unexpected entropy defaults: %+v", cfg.Entropy)
	}
	if cfg.TestFiles != TestFilesDowngrade {
		t.Errorf("expected test file policy %q, got %q", TestFilesDowngrade, cfg.TestFiles)
	}
	if cfg.Filters.InlineAllowMarker != DefaultInlineAllow {
		t.Errorf("expected inline marker %q, got %q", DefaultInlineAllow, cfg.Filters.InlineAllowMarker)
	}
	if errs := cfg.Normalize(); len(errs) != 0 {
		t.Errorf("default configuration should normalize cleanly, got %v", errs)
	}
}

func TestLoadConfigOrDefault_NoFile(t *testing.T) {
	t.Setenv("LEAKGUARD_CONFIG_DIR", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfigOrDefault("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("expected default concurrency, got %d", cfg.Concurrency)
	}
}

func TestLoadConfigOrDefault_NonexistentFile(t *testing.T) {
	cfg, err := LoadConfigOrDefault("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected an error for a missing file")
	}
	if cfg == nil {
		t.Fatal("expected non-nil config (fallback to defaults)")
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
entropy:
  threshold: 3.5
categories: [AWS Access Key]
filters:
  exclude_paths: ["**/vendor/**"]
  max_file_size: 1MB
custom_patterns:
  - id: internal-token
    pattern: 'itk_[a-z0-9]{20}'
test_files: exclude
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Entropy.Threshold != 3.5 {
		t.Errorf("expected threshold 3.5, got %v", cfg.Entropy.Threshold)
	}
	// Keys absent from the file keep their defaults.
	if !cfg.Entropy.Enabled || cfg.Entropy.MinLength != DefaultMinTokenLength {
		t.Errorf("expected entropy defaults to survive, got %+v", cfg.Entropy)
	}
	if len(cfg.Filters.ExcludePaths) != 1 || cfg.Filters.ExcludePaths[0] != "**/vendor/**" {
		t.Errorf("unexpected exclude paths: %v", cfg.Filters.ExcludePaths)
	}
	if len(cfg.CustomPatterns) != 1 || cfg.CustomPatterns[0].ID != "internal-token" {
		t.Errorf("unexpected custom patterns: %+v", cfg.CustomPatterns)
	}
	if cfg.TestFiles != TestFilesExclude {
		t.Errorf("expected test file policy exclude, got %q", cfg.TestFiles)
	}
	if size, err := cfg.MaxFileSizeBytes(); err != nil || size != 1000*1000 {
		t.Errorf("expected 1MB limit, got %d (%v)", size, err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(configPath, []byte("entropy: [unclosed"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := LoadConfig(configPath); err == nil {
		t.Error("expected a parse error")
	}
	cfg, err := LoadConfigOrDefault(configPath)
	if err == nil || cfg == nil {
		t.Errorf("expected defaults and an error, got %v, %v", cfg, err)
	}
}

func TestNormalize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Entropy.Threshold = 9
	cfg.Entropy.MinLength = 4
	cfg.Concurrency = -2
	cfg.TestFiles = "sometimes"
	cfg.Context.Window = -1
	cfg.Aggregation.Adjacency = -3
	cfg.Filters.MaxFileSize = "lots"

	errs := cfg.Normalize()
	if len(errs) != 7 {
		t.Fatalf("expected 7 configuration errors, got %d: %v", len(errs), errs)
	}
	for _, err := range errs {
		if !errors.Is(err, diagnostics.ErrConfiguration) {
			t.Errorf("expected a configuration error, got %v", err)
		}
	}

	if cfg.Entropy.Threshold != DefaultEntropyThreshold {
		t.Errorf("threshold not reset: %v", cfg.Entropy.Threshold)
	}
	if cfg.Entropy.MinLength != DefaultMinTokenLength {
		t.Errorf("min length not reset: %d", cfg.Entropy.MinLength)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("concurrency not reset: %d", cfg.Concurrency)
	}
	if cfg.TestFiles != TestFilesDowngrade {
		t.Errorf("test file policy not reset: %q", cfg.TestFiles)
	}
	if cfg.Context.Window != DefaultContextWindow || cfg.Aggregation.Adjacency != 0 {
		t.Errorf("window/adjacency not reset: %d/%d", cfg.Context.Window, cfg.Aggregation.Adjacency)
	}
	if size, err := cfg.MaxFileSizeBytes(); err != nil || size != 0 {
		t.Errorf("expected size limit disabled, got %d (%v)", size, err)
	}
}

func TestNormalize_ZeroValuesTakeDefaultsSilently(t *testing.T) {
	cfg := &Config{}
	if errs := cfg.Normalize(); len(errs) != 0 {
		t.Errorf("expected no errors for zero values, got %v", errs)
	}
	if cfg.Concurrency != DefaultConcurrency || cfg.Entropy.MinLength != DefaultMinTokenLength {
		t.Errorf("zero values not defaulted: %+v", cfg)
	}
}

func TestCategoryEnabled(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.CategoryEnabled("AWS Access Key") {
		t.Error("empty category list should enable everything")
	}

	cfg.Categories = []string{" aws access key "}
	if !cfg.CategoryEnabled("AWS Access Key") {
		t.Error("category match should be case and space insensitive")
	}
	if cfg.CategoryEnabled("GitHub Token") {
		t.Error("unlisted category should be disabled")
	}
}

func TestFindConfigFile_StandardLocation(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LEAKGUARD_CONFIG_DIR", dir)
	t.Setenv("HOME", t.TempDir())

	if got := FindConfigFile(); got != "" {
		t.Fatalf("expected no config file, got %q", got)
	}

	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("strict: true\n"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if got := FindConfigFile(); got != configPath {
		t.Errorf("expected %q, got %q", configPath, got)
	}

	cfg, err := LoadConfigOrDefault("")
	if err != nil || !cfg.Strict {
		t.Errorf("expected strict config from standard location, got %+v (%v)", cfg, err)
	}
}

func TestParse_ExplicitZeroFilterPriority(t *testing.T) {
	cfg, err := Parse([]byte(`
filters:
  custom:
    - name: explicit
      type: binary
      priority: 0
    - name: unset
      type: binary
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Filters.Custom) != 2 {
		t.Fatalf("expected 2 custom filters, got %d", len(cfg.Filters.Custom))
	}
	if p := cfg.Filters.Custom[0].Priority; p == nil || *p != 0 {
		t.Errorf("expected explicit priority 0, got %v", p)
	}
	if p := cfg.Filters.Custom[1].Priority; p != nil {
		t.Errorf("expected unset priority, got %d", *p)
	}
}
