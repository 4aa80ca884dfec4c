// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// GlobSet is a compiled list of path globs. "*" stays within one path segment
// and "**" crosses segments.
type GlobSet struct {
	patterns []string
	globs    []glob.Glob
}

// CompileGlobs compiles patterns, returning the valid ones and an error per
// invalid pattern
func CompileGlobs(patterns []string) (*GlobSet, []error) {
	set := &GlobSet{}
	var errs []error
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		compiled, err := glob.Compile(pattern, '/')
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid glob %q: %w", pattern, err))
			continue
		}
		set.patterns = append(set.patterns, pattern)
		set.globs = append(set.globs, compiled)
	}
	return set, errs
}

// Len returns the number of compiled globs
func (s *GlobSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.globs)
}

// Match returns the first pattern matching path. The path is tried as given
// and with a leading slash so "**/build/**" also matches "build/x".
func (s *GlobSet) Match(path string) (string, bool) {
	if s == nil {
		return "", false
	}
	rooted := "/" + strings.TrimPrefix(path, "/")
	for i, g := range s.globs {
		if g.Match(path) || g.Match(rooted) {
			return s.patterns[i], true
		}
	}
	return "", false
}

// PathFilter admits files by path glob
type PathFilter struct {
	base
	include *GlobSet
	exclude *GlobSet
}

// NewPathFilter creates a path filter from compiled glob sets. Either set may be nil.
func NewPathFilter(name string, priority int, include, exclude *GlobSet) *PathFilter {
	return &PathFilter{
		base:    newBase(name, priority, nil),
		include: include,
		exclude: exclude,
	}
}

func (f *PathFilter) EvaluateFile(file *File) (Decision, error) {
	if pattern, ok := f.exclude.Match(file.Path); ok {
		return exclude(f.name, fmt.Sprintf("path matches exclude pattern %q", pattern)), nil
	}
	if f.include.Len() > 0 {
		if _, ok := f.include.Match(file.Path); !ok {
			return exclude(f.name, "path matches no include pattern"), nil
		}
	}
	return include(f.name, "path allowed"), nil
}

func (f *PathFilter) EvaluateLine(*File, int, string) (Decision, error) {
	return neutral(), nil
}

// DefaultTestPathPatterns recognise test sources and fixtures across common ecosystems
var DefaultTestPathPatterns = []string{
	"**/test/**",
	"**/tests/**",
	"**/testdata/**",
	"**/__tests__/**",
	"**/spec/**",
	"**/fixtures/**",
	"**/*_test.go",
	"**/test_*.py",
	"**/*_test.py",
	"**/*.test.js",
	"**/*.test.ts",
	"**/*.spec.js",
	"**/*.spec.ts",
	"**/*Test.java",
	"**/*Tests.cs",
}

// TestPathMatcher reports whether a relative path belongs to tests
type TestPathMatcher struct {
	globs *GlobSet
}

// NewTestPathMatcher compiles DefaultTestPathPatterns
func NewTestPathMatcher() *TestPathMatcher {
	globs, _ := CompileGlobs(DefaultTestPathPatterns)
	return &TestPathMatcher{globs: globs}
}

// IsTestPath reports whether path looks like a test file
func (m *TestPathMatcher) IsTestPath(path string) bool {
	_, ok := m.globs.Match(path)
	return ok
}
