// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"sort"

	"leakguard/internal/diagnostics"

	"github.com/jellydator/ttlcache/v3"
)

const applicabilityCacheSize = 16384

type applicabilityKey struct {
	path string
	ext  string
}

// Pipeline evaluates filters in descending priority order. A file or line is
// included unless an applicable filter excludes it.
type Pipeline struct {
	filters []Filter

	// applicable caches which filters apply to a (path, extension) pair. It is
	// a pure performance optimisation; concurrent misses compute the same value.
	applicable *ttlcache.Cache[applicabilityKey, []Filter]
}

// NewPipeline orders filters by priority, keeping registration order on ties
func NewPipeline(filters ...Filter) *Pipeline {
	ordered := make([]Filter, len(filters))
	copy(ordered, filters)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() > ordered[j].Priority()
	})

	return &Pipeline{
		filters: ordered,
		applicable: ttlcache.New[applicabilityKey, []Filter](
			ttlcache.WithCapacity[applicabilityKey, []Filter](applicabilityCacheSize),
			ttlcache.WithDisableTouchOnHit[applicabilityKey, []Filter](),
		),
	}
}

// Filters returns the filters in evaluation order
func (p *Pipeline) Filters() []Filter {
	out := make([]Filter, len(p.filters))
	copy(out, p.filters)
	return out
}

func (p *Pipeline) applicableFilters(file *File) []Filter {
	key := applicabilityKey{path: file.Path, ext: NormalizeExtension(file.Ext)}
	if item := p.applicable.Get(key); item != nil {
		return item.Value()
	}

	var applicable []Filter
	for _, f := range p.filters {
		if f.AppliesTo(key.ext) {
			applicable = append(applicable, f)
		}
	}
	p.applicable.Set(key, applicable, ttlcache.NoTTL)
	return applicable
}

// ShouldIncludeFile decides whether a file is scanned. Errors from failing
// filters are returned as diagnostics; a failing filter never excludes.
func (p *Pipeline) ShouldIncludeFile(file *File) (Decision, []error) {
	return p.evaluate(file, func(f Filter) (Decision, error) {
		return f.EvaluateFile(file)
	})
}

// ShouldIncludeLine decides whether a line of an included file is scanned
func (p *Pipeline) ShouldIncludeLine(file *File, lineNumber int, line string) (Decision, []error) {
	return p.evaluate(file, func(f Filter) (Decision, error) {
		return f.EvaluateLine(file, lineNumber, line)
	})
}

func (p *Pipeline) evaluate(file *File, eval func(Filter) (Decision, error)) (Decision, []error) {
	var errs []error
	for _, f := range p.applicableFilters(file) {
		d, err := eval(f)
		if err != nil {
			errs = append(errs, diagnostics.NewFilterError(f.Name(), file.Path, err))
		}
		if d.Verdict == Exclude {
			return d, errs
		}
	}
	return Decision{Verdict: Include, Reason: "no filter excluded"}, errs
}
