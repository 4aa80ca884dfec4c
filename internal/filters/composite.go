// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"errors"
	"fmt"
	"strings"
)

// Operation combines the votes of a composite filter's children
type Operation string

const (
	OpAll       Operation = "all"
	OpAny       Operation = "any"
	OpExclusive Operation = "exclusive"
	OpNone      Operation = "none"
)

// ParseOperation accepts the operation names and their logical aliases
func ParseOperation(name string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "all", "and":
		return OpAll, nil
	case "any", "or":
		return OpAny, nil
	case "exclusive", "xor", "one":
		return OpExclusive, nil
	case "none", "nor", "not":
		return OpNone, nil
	}
	return "", fmt.Errorf("unknown composite operation %q", name)
}

// CompositeFilter is an immutable tree node combining child filters.
// Neutral or inapplicable children do not vote; a composite without votes is
// itself neutral. A failing child is skipped and its error returned alongside
// the composite's decision.
type CompositeFilter struct {
	base
	op       Operation
	children []Filter
}

// NewCompositeFilter creates a composite over children. Children are evaluated
// in the given order.
func NewCompositeFilter(name string, priority int, op Operation, extensions []string, children ...Filter) *CompositeFilter {
	kids := make([]Filter, len(children))
	copy(kids, children)
	return &CompositeFilter{
		base:     newBase(name, priority, extensions),
		op:       op,
		children: kids,
	}
}

// AppliesTo is true when the composite's own extension set admits ext and at
// least one child applies
func (f *CompositeFilter) AppliesTo(ext string) bool {
	if !f.base.AppliesTo(ext) {
		return false
	}
	for _, child := range f.children {
		if child.AppliesTo(ext) {
			return true
		}
	}
	return false
}

func (f *CompositeFilter) EvaluateFile(file *File) (Decision, error) {
	return f.combine(file.Ext, func(child Filter) (Decision, error) {
		return child.EvaluateFile(file)
	})
}

func (f *CompositeFilter) EvaluateLine(file *File, lineNumber int, line string) (Decision, error) {
	return f.combine(file.Ext, func(child Filter) (Decision, error) {
		return child.EvaluateLine(file, lineNumber, line)
	})
}

func (f *CompositeFilter) combine(ext string, eval func(Filter) (Decision, error)) (Decision, error) {
	var (
		errs     []error
		votes    int
		includes int
	)

	for _, child := range f.children {
		if !child.AppliesTo(ext) {
			continue
		}
		d, err := eval(child)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", child.Name(), err))
			continue
		}
		if d.Verdict == Neutral {
			continue
		}
		votes++
		if d.Verdict == Include {
			includes++
		}

		switch {
		case f.op == OpAll && d.Verdict == Exclude:
			return exclude(f.name, fmt.Sprintf("all: %s rejected (%s)", child.Name(), d.Reason)), errors.Join(errs...)
		case f.op == OpAny && d.Verdict == Include:
			return include(f.name, fmt.Sprintf("any: %s accepted", child.Name())), errors.Join(errs...)
		case f.op == OpNone && d.Verdict == Include:
			return exclude(f.name, fmt.Sprintf("none: %s accepted", child.Name())), errors.Join(errs...)
		}
	}

	joined := errors.Join(errs...)
	if votes == 0 {
		return neutral(), joined
	}

	switch f.op {
	case OpAll:
		return include(f.name, "all: every child accepted"), joined
	case OpAny:
		return exclude(f.name, "any: no child accepted"), joined
	case OpNone:
		return include(f.name, "none: every child rejected"), joined
	case OpExclusive:
		if includes == 1 {
			return include(f.name, "exclusive: exactly one child accepted"), joined
		}
		return exclude(f.name, fmt.Sprintf("exclusive: %d children accepted", includes)), joined
	}
	return neutral(), joined
}
