// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package suppressions

import (
	"fmt"
	"strings"

	"leakguard/internal/config"
	"leakguard/internal/detector"
	"leakguard/internal/diagnostics"

	regexp "github.com/wasilibs/go-re2"
)

// Allowlist holds values that are never reported
type Allowlist struct {
	literals []string
	regexes  []*regexp.Regexp
}

// NewAllowlist compiles the configured entries. Invalid regexes are dropped
// and reported as configuration errors.
func NewAllowlist(cfg config.AllowlistConfig) (*Allowlist, []error) {
	a := &Allowlist{}
	var errs []error

	for _, literal := range cfg.Literals {
		if literal != "" {
			a.literals = append(a.literals, literal)
		}
	}
	for i, expr := range cfg.Regexes {
		// entries must match the whole matched text
		re, err := regexp.Compile(`^(?:` + expr + `)$`)
		if err != nil {
			errs = append(errs, diagnostics.NewConfigurationError(
				fmt.Sprintf("allowlist.regexes[%d]", i), "dropping invalid allowlist regex", err))
			continue
		}
		a.regexes = append(a.regexes, re)
	}
	return a, errs
}

// Len returns the number of usable entries
func (a *Allowlist) Len() int {
	if a == nil {
		return 0
	}
	return len(a.literals) + len(a.regexes)
}

// Allows reports whether m is allowlisted: its text equals a literal or fully
// matches a regex, or it overlaps an occurrence of a literal in line. The
// returned reason names the entry.
func (a *Allowlist) Allows(line string, m detector.RawMatch) (string, bool) {
	if a == nil {
		return "", false
	}

	for _, literal := range a.literals {
		if m.Text == literal {
			return fmt.Sprintf("allowlisted literal %q", literal), true
		}
	}
	for _, re := range a.regexes {
		if re.MatchString(m.Text) {
			return fmt.Sprintf("allowlisted pattern %s", re.String()), true
		}
	}
	for _, literal := range a.literals {
		for offset := 0; offset < len(line); {
			idx := strings.Index(line[offset:], literal)
			if idx < 0 {
				break
			}
			start := offset + idx
			end := start + len(literal)
			if start < m.End && m.Start < end {
				return fmt.Sprintf("overlaps allowlisted literal %q", literal), true
			}
			offset = start + 1
		}
	}
	return "", false
}
