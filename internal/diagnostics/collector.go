// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package diagnostics

import (
	"errors"
	"sort"
	"sync"
)

// Diagnostic is a non-fatal problem surfaced in the scan summary
type Diagnostic struct {
	Kind    string `json:"kind" yaml:"kind"`
	Source  string `json:"source,omitempty" yaml:"source,omitempty"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// FromError converts an error into a Diagnostic
func FromError(err error) Diagnostic {
	var diagErr *Error
	if errors.As(err, &diagErr) {
		return Diagnostic{
			Kind:    diagErr.Kind.String(),
			Source:  diagErr.Source,
			Path:    diagErr.Path,
			Message: diagErr.Error(),
		}
	}
	return Diagnostic{Kind: KindUnknown.String(), Message: err.Error()}
}

// Collector gathers diagnostics from concurrent workers
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{}
}

// Add records err as a diagnostic. nil errors are ignored.
func (c *Collector) Add(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, FromError(err))
}

// AddAll records every error in errs
func (c *Collector) AddAll(errs []error) {
	for _, err := range errs {
		c.Add(err)
	}
}

// Len returns the number of recorded diagnostics
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Diagnostics returns a sorted copy so output does not depend on worker timing
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Message < out[j].Message
	})
	return out
}
