// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"io"
	"strings"
)

// Verdict is a filter's vote on a file or line
type Verdict int

const (
	// Neutral means the filter has no opinion and does not vote
	Neutral Verdict = iota
	Include
	Exclude
)

func (v Verdict) String() string {
	switch v {
	case Include:
		return "include"
	case Exclude:
		return "exclude"
	}
	return "neutral"
}

// Decision is the outcome of evaluating a file or a line
type Decision struct {
	Verdict Verdict
	Reason  string
	Filter  string
}

// Included reports whether content should be scanned. Neutral counts as included.
func (d Decision) Included() bool {
	return d.Verdict != Exclude
}

func neutral() Decision {
	return Decision{Verdict: Neutral}
}

func include(filter, reason string) Decision {
	return Decision{Verdict: Include, Filter: filter, Reason: reason}
}

func exclude(filter, reason string) Decision {
	return Decision{Verdict: Exclude, Filter: filter, Reason: reason}
}

// File describes a candidate file before its content is read
type File struct {
	// Path is slash separated and relative to the scan root
	Path string
	Ext  string
	Size int64

	// Open gives content-inspecting filters access to the file
	Open func() (io.ReadCloser, error)
}

// Filter decides whether files and lines are scanned. Implementations must be
// free of hidden state: evaluating the same input twice gives the same result.
// A filter that fails returns Neutral together with the error.
type Filter interface {
	Name() string
	Priority() int
	// AppliesTo reports whether the filter is relevant for files with ext
	AppliesTo(ext string) bool
	EvaluateFile(file *File) (Decision, error)
	EvaluateLine(file *File, lineNumber int, line string) (Decision, error)
}

// base carries the name, priority and applicability shared by every filter
type base struct {
	name       string
	priority   int
	extensions map[string]bool
}

func newBase(name string, priority int, extensions []string) base {
	b := base{name: name, priority: priority}
	if len(extensions) > 0 {
		b.extensions = make(map[string]bool, len(extensions))
		for _, ext := range extensions {
			b.extensions[NormalizeExtension(ext)] = true
		}
	}
	return b
}

func (b base) Name() string {
	return b.name
}

func (b base) Priority() int {
	return b.priority
}

func (b base) AppliesTo(ext string) bool {
	if len(b.extensions) == 0 {
		return true
	}
	return b.extensions[NormalizeExtension(ext)]
}

// NormalizeExtension lower-cases ext and guarantees a leading dot
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
