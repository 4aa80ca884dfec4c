// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"fmt"
	"strings"

	"leakguard/internal/config"
	"leakguard/internal/diagnostics"

	"github.com/docker/go-units"
)

// Names of the built-in filters, usable as keys of filters.priorities
const (
	NameSize        = "size"
	NameBinary      = "binary"
	NameExtensions  = "extensions"
	NamePaths       = "paths"
	NameTestFiles   = "test-files"
	NameInlineAllow = "inline-allow"
)

// DefaultCustomPriority applies to custom filters declaring no priority
const DefaultCustomPriority = 50

var builtinPriorities = map[string]int{
	NameSize:        100,
	NameBinary:      90,
	NameExtensions:  80,
	NamePaths:       70,
	NameTestFiles:   60,
	NameInlineAllow: 10,
}

// Build assembles the pipeline described by cfg. Invalid entries are dropped
// and reported as configuration errors; the returned pipeline is always usable.
func Build(cfg *config.Config) (*Pipeline, []error) {
	b := &builder{cfg: cfg}

	var list []Filter

	if maxBytes, err := cfg.MaxFileSizeBytes(); err != nil {
		b.fail("filters.max_file_size", fmt.Sprintf("cannot parse %q", cfg.Filters.MaxFileSize), err)
	} else if maxBytes > 0 {
		list = append(list, NewSizeFilter(NameSize, b.priority(NameSize), maxBytes))
	}

	if cfg.Filters.SkipBinary {
		list = append(list, NewBinaryFilter(NameBinary, b.priority(NameBinary)))
	}

	includeExt, excludeExt := b.resolveOverlap("filters.extensions",
		normalizeAll(cfg.Filters.IncludeExtensions), normalizeAll(cfg.Filters.ExcludeExtensions))
	if len(includeExt) > 0 || len(excludeExt) > 0 {
		list = append(list, NewExtensionFilter(NameExtensions, b.priority(NameExtensions), includeExt, excludeExt))
	}

	includePaths, excludePaths := b.resolveOverlap("filters.paths",
		trimAll(cfg.Filters.IncludePaths), trimAll(cfg.Filters.ExcludePaths))
	if len(includePaths) > 0 || len(excludePaths) > 0 {
		inc := b.globs("filters.include_paths", includePaths)
		exc := b.globs("filters.exclude_paths", excludePaths)
		if inc.Len() > 0 || exc.Len() > 0 {
			list = append(list, NewPathFilter(NamePaths, b.priority(NamePaths), inc, exc))
		}
	}

	if cfg.TestFiles == config.TestFilesExclude {
		tests, _ := CompileGlobs(DefaultTestPathPatterns)
		list = append(list, NewPathFilter(NameTestFiles, b.priority(NameTestFiles), nil, tests))
	}

	if marker := strings.TrimSpace(cfg.Filters.InlineAllowMarker); marker != "" {
		list = append(list, NewMarkerFilter(NameInlineAllow, b.priority(NameInlineAllow), marker))
	}

	for i, spec := range cfg.Filters.Custom {
		source := fmt.Sprintf("filters.custom[%d]", i)
		if f := b.custom(source, spec); f != nil {
			list = append(list, f)
		}
	}

	return NewPipeline(list...), b.errs
}

type builder struct {
	cfg  *config.Config
	errs []error
}

func (b *builder) fail(source, message string, err error) {
	b.errs = append(b.errs, diagnostics.NewConfigurationError(source, message, err))
}

func (b *builder) priority(name string) int {
	if p, ok := b.cfg.Filters.Priorities[name]; ok {
		return p
	}
	return builtinPriorities[name]
}

// resolveOverlap drops entries present in both sets from the exclude set
func (b *builder) resolveOverlap(source string, include, exclude []string) ([]string, []string) {
	if len(include) == 0 || len(exclude) == 0 {
		return include, exclude
	}
	inSet := make(map[string]bool, len(include))
	for _, v := range include {
		inSet[v] = true
	}
	kept := exclude[:0:0]
	for _, v := range exclude {
		if inSet[v] {
			b.fail(source, fmt.Sprintf("%q is both included and excluded, keeping include", v), nil)
			continue
		}
		kept = append(kept, v)
	}
	return include, kept
}

func (b *builder) globs(source string, patterns []string) *GlobSet {
	set, errs := CompileGlobs(patterns)
	for _, err := range errs {
		b.fail(source, "dropping invalid glob", err)
	}
	return set
}

func (b *builder) custom(source string, spec config.FilterSpec) Filter {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		name = source
	}
	priority := DefaultCustomPriority
	if spec.Priority != nil {
		priority = *spec.Priority
	}
	excludeOnMatch := true
	switch strings.ToLower(strings.TrimSpace(spec.Action)) {
	case "", "exclude":
	case "include":
		excludeOnMatch = false
	default:
		b.fail(source, fmt.Sprintf("unknown action %q", spec.Action), nil)
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(spec.Type)) {
	case "extension":
		inc, exc := b.resolveOverlap(source, normalizeAll(spec.Include), normalizeAll(spec.Exclude))
		return NewExtensionFilter(name, priority, inc, exc)

	case "path":
		inc, exc := b.resolveOverlap(source, trimAll(spec.Include), trimAll(spec.Exclude))
		incSet := b.globs(source, inc)
		excSet := b.globs(source, exc)
		if incSet.Len() == 0 && excSet.Len() == 0 {
			b.fail(source, "path filter has no valid patterns", nil)
			return nil
		}
		return NewPathFilter(name, priority, incSet, excSet)

	case "regex":
		target := RegexTarget(strings.ToLower(strings.TrimSpace(spec.Target)))
		if target == "" {
			target = TargetLine
		}
		f, err := NewRegexFilter(name, priority, spec.Pattern, target, excludeOnMatch, spec.Extensions)
		if err != nil {
			b.fail(source, "dropping regex filter", err)
			return nil
		}
		return f

	case "size":
		maxBytes, err := units.FromHumanSize(strings.TrimSpace(spec.MaxSize))
		if err != nil || maxBytes <= 0 {
			b.fail(source, fmt.Sprintf("invalid max_size %q", spec.MaxSize), err)
			return nil
		}
		return NewSizeFilter(name, priority, maxBytes)

	case "binary":
		return NewBinaryFilter(name, priority)

	case "composite":
		op, err := ParseOperation(spec.Operation)
		if err != nil {
			b.fail(source, "dropping composite filter", err)
			return nil
		}
		var children []Filter
		for i, childSpec := range spec.Children {
			if child := b.custom(fmt.Sprintf("%s.children[%d]", source, i), childSpec); child != nil {
				children = append(children, child)
			}
		}
		if len(children) == 0 {
			b.fail(source, "composite filter has no valid children", nil)
			return nil
		}
		return NewCompositeFilter(name, priority, op, spec.Extensions, children...)
	}

	b.fail(source, fmt.Sprintf("unknown filter type %q", spec.Type), nil)
	return nil
}

func normalizeAll(exts []string) []string {
	var out []string
	for _, ext := range exts {
		if ext = NormalizeExtension(ext); ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
