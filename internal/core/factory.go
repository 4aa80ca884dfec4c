// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"fmt"
	"strings"

	"leakguard/internal/aggregator"
	"leakguard/internal/config"
	"leakguard/internal/context"
	"leakguard/internal/detector"
	"leakguard/internal/diagnostics"
	"leakguard/internal/entropy"
	"leakguard/internal/filters"
	"leakguard/internal/patterns"
	"leakguard/internal/suppressions"
)

// engine is the compiled, read-only form of a configuration. Workers share it.
type engine struct {
	pipeline   *filters.Pipeline
	patterns   *patterns.Detector
	strategies []detector.Strategy
	analyzer   *context.Analyzer
	testPaths  *filters.TestPathMatcher
	aggregate  aggregator.Options
	workers    int
}

// compileConfig builds every component a scan needs from cfg. Configuration
// problems are returned with the offending rule or filter left out.
func compileConfig(cfg *config.Config) (*engine, []error) {
	var errs []error

	errs = append(errs, cfg.Normalize()...)

	pipeline, filterErrs := filters.Build(cfg)
	errs = append(errs, filterErrs...)

	patternDetector, patternErrs := patterns.New(cfg)
	errs = append(errs, patternErrs...)

	allowlist, allowErrs := suppressions.NewAllowlist(cfg.Allowlist)
	errs = append(errs, allowErrs...)

	return &engine{
		pipeline:   pipeline,
		patterns:   patternDetector,
		strategies: BuildStrategySet(cfg, patternDetector),
		analyzer:   context.NewAnalyzer(cfg, allowlist),
		testPaths:  filters.NewTestPathMatcher(),
		aggregate:  aggregator.Options{Adjacency: cfg.Aggregation.Adjacency},
		workers:    cfg.Concurrency,
	}, errs
}

// BuildStrategySet returns the detection strategies enabled by cfg in
// precedence order. The pattern detector is always present.
func BuildStrategySet(cfg *config.Config, patternDetector *patterns.Detector) []detector.Strategy {
	strategies := []detector.Strategy{patternDetector}
	if cfg.Entropy.Enabled && cfg.CategoryEnabled(entropy.Category) {
		strategies = append(strategies, entropy.New(cfg.Entropy))
	}
	return strategies
}

// ParseCategories converts a comma-separated category list into the
// configuration form. An empty list or "all" enables every category.
func ParseCategories(list string) []string {
	var result []string
	for _, category := range strings.Split(list, ",") {
		category = strings.TrimSpace(category)
		if category == "" {
			continue
		}
		if strings.EqualFold(category, "all") {
			return nil
		}
		result = append(result, category)
	}
	return result
}

// FailThreshold is the minimum severity that fails a build. FailNever disables
// the gate.
type FailThreshold struct {
	Severity detector.Severity
	Never    bool
}

// ParseFailThreshold parses the --fail-on value: critical, warning, safe or none
func ParseFailThreshold(value string) (FailThreshold, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none", "never", "off":
		return FailThreshold{Never: true}, nil
	case "":
		return FailThreshold{Severity: detector.SeverityCritical}, nil
	}
	severity, err := detector.ParseSeverity(value)
	if err != nil {
		return FailThreshold{}, diagnostics.NewConfigurationError("fail-on",
			fmt.Sprintf("expected critical, warning, safe or none, got %q", value), err)
	}
	return FailThreshold{Severity: severity}, nil
}

// Trips reports whether any finding meets the threshold
func (t FailThreshold) Trips(findings []detector.Finding) bool {
	if t.Never {
		return false
	}
	for _, f := range findings {
		if f.Severity >= t.Severity {
			return true
		}
	}
	return false
}
