// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"fmt"

	regexp "github.com/wasilibs/go-re2"
)

// RegexTarget selects what a RegexFilter inspects
type RegexTarget string

const (
	TargetPath RegexTarget = "path"
	TargetLine RegexTarget = "line"
)

// RegexFilter matches a user supplied regular expression against either the
// relative path or each line
type RegexFilter struct {
	base
	re          *regexp.Regexp
	target      RegexTarget
	excludeOnly bool
}

// NewRegexFilter compiles pattern. When excludeOnMatch is true a match excludes,
// otherwise only matching content is included.
func NewRegexFilter(name string, priority int, pattern string, target RegexTarget, excludeOnMatch bool, extensions []string) (*RegexFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	if target != TargetPath && target != TargetLine {
		return nil, fmt.Errorf("unknown regex filter target %q", target)
	}
	return &RegexFilter{
		base:        newBase(name, priority, extensions),
		re:          re,
		target:      target,
		excludeOnly: excludeOnMatch,
	}, nil
}

func (f *RegexFilter) decide(subject, what string) Decision {
	matched := f.re.MatchString(subject)
	switch {
	case matched && f.excludeOnly:
		return exclude(f.name, fmt.Sprintf("%s matches %q", what, f.re.String()))
	case !matched && !f.excludeOnly:
		return exclude(f.name, fmt.Sprintf("%s does not match %q", what, f.re.String()))
	}
	return include(f.name, what+" allowed")
}

func (f *RegexFilter) EvaluateFile(file *File) (Decision, error) {
	if f.target != TargetPath {
		return neutral(), nil
	}
	return f.decide(file.Path, "path"), nil
}

func (f *RegexFilter) EvaluateLine(_ *File, _ int, line string) (Decision, error) {
	if f.target != TargetLine {
		return neutral(), nil
	}
	return f.decide(line, "line"), nil
}

// MarkerFilter excludes lines carrying an inline allow marker
type MarkerFilter struct {
	base
	marker string
}

// NewMarkerFilter creates a filter for the given inline marker
func NewMarkerFilter(name string, priority int, marker string) *MarkerFilter {
	return &MarkerFilter{base: newBase(name, priority, nil), marker: marker}
}

func (f *MarkerFilter) EvaluateFile(*File) (Decision, error) {
	return neutral(), nil
}

func (f *MarkerFilter) EvaluateLine(_ *File, _ int, line string) (Decision, error) {
	if containsFold(line, f.marker) {
		return exclude(f.name, fmt.Sprintf("line carries %q", f.marker)), nil
	}
	return include(f.name, "no inline marker"), nil
}
