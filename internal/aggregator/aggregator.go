// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package aggregator turns one file's raw matches into ordered findings.
package aggregator

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"leakguard/internal/detector"
)

// maxPreviewPrefix is the most leading characters a preview reveals
const maxPreviewPrefix = 4

// Options tunes merging
type Options struct {
	// Adjacency merges same-line matches whose gap is smaller than this many
	// bytes. Zero merges overlapping matches only.
	Adjacency int
}

// Aggregate merges the raw matches of target into findings ordered by line
// and offset. It depends only on its arguments.
func Aggregate(target *detector.ScanTarget, matches []detector.RawMatch, opts Options) []detector.Finding {
	if len(matches) == 0 {
		return nil
	}

	sorted := absorbContinuations(matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})

	var (
		findings []detector.Finding
		group    []detector.RawMatch
		end      int
	)
	flush := func() {
		if len(group) == 0 {
			return
		}
		f := merge(target, group)
		if n := len(findings); n > 0 && sameRange(findings[n-1], f) {
			group = group[:0]
			return
		}
		findings = append(findings, f)
		group = group[:0]
	}

	for _, m := range sorted {
		if joins(group, end, m, opts.Adjacency) {
			group = append(group, m)
			if m.End > end {
				end = m.End
			}
			continue
		}
		flush()
		group = append(group, m)
		end = m.End
	}
	flush()

	return findings
}

// joins reports whether m belongs to the group ending at end: same line, and
// overlapping or closer than adjacency
func joins(group []detector.RawMatch, end int, m detector.RawMatch, adjacency int) bool {
	if len(group) == 0 || m.Line != group[0].Line {
		return false
	}
	return m.Start < end || m.Start-end < adjacency
}

// absorbContinuations drops matches on the continuation lines of a multi-line
// match; a PEM body is reported once, through its header line.
func absorbContinuations(matches []detector.RawMatch) []detector.RawMatch {
	type lineRange struct{ from, to int }
	var blocks []lineRange
	for _, m := range matches {
		if m.EndLine > m.Line {
			blocks = append(blocks, lineRange{m.Line, m.EndLine})
		}
	}

	out := make([]detector.RawMatch, 0, len(matches))
	for _, m := range matches {
		covered := false
		for _, b := range blocks {
			if m.Line > b.from && m.Line <= b.to {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, m)
		}
	}
	return out
}

func less(a, b detector.RawMatch) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.End != b.End {
		return a.End < b.End
	}
	if a.Strategy != b.Strategy {
		return a.Strategy < b.Strategy
	}
	return a.RuleIndex < b.RuleIndex
}

// outranks reports whether a's category takes precedence over b's: pattern
// before entropy, then rule declaration order
func outranks(a, b detector.RawMatch) bool {
	if a.Strategy != b.Strategy {
		return a.Strategy < b.Strategy
	}
	return a.RuleIndex < b.RuleIndex
}

func sameRange(a, b detector.Finding) bool {
	return a.Line == b.Line && a.StartOffset == b.StartOffset && a.EndOffset == b.EndOffset
}

func merge(target *detector.ScanTarget, group []detector.RawMatch) detector.Finding {
	lead := group[0]
	start, end, endLine := lead.Start, lead.End, lead.EndLine
	confidence := lead.Confidence
	severity := lead.Severity
	kinds := make(map[detector.StrategyKind]bool)
	adjusted := false

	for _, m := range group {
		if outranks(m, lead) {
			lead = m
		}
		if m.Start < start {
			start = m.Start
		}
		if m.End > end {
			end = m.End
		}
		if m.EndLine > endLine {
			endLine = m.EndLine
		}
		if m.Confidence > confidence {
			confidence = m.Confidence
		}
		if m.Severity > severity {
			severity = m.Severity
		}
		kinds[m.Strategy] = true
		adjusted = adjusted || m.Adjusted()
	}
	if adjusted {
		kinds[detector.StrategyContext] = true
	}

	var strategies []string
	for _, k := range []detector.StrategyKind{detector.StrategyPattern, detector.StrategyEntropy, detector.StrategyContext} {
		if kinds[k] {
			strategies = append(strategies, k.String())
		}
	}

	text := lead.Text
	if line := target.Line(lead.Line); end <= len(line) {
		text = line[start:end]
	}

	f := detector.Finding{
		Path:        target.Path,
		Line:        lead.Line,
		StartOffset: start,
		EndOffset:   end,
		Category:    lead.Category,
		RuleID:      lead.RuleID,
		Origin:      lead.Origin,
		Severity:    severity,
		Preview:     Preview(text),
		Confidence:  confidence,
		Strategies:  strategies,
		Fingerprint: Fingerprint(lead.Category, target.Path, lead.Line, text),
	}
	if endLine > lead.Line {
		f.EndLine = endLine
	}
	return f
}

// Preview redacts text, keeping at most four leading characters and never
// more than a quarter of it
func Preview(text string) string {
	runes := []rune(text)
	keep := len(runes) / 4
	if keep > maxPreviewPrefix {
		keep = maxPreviewPrefix
	}
	return string(runes[:keep]) + strings.Repeat("*", len(runes)-keep)
}

// Fingerprint identifies a finding across scans without storing the secret
func Fingerprint(category, path string, line int, text string) string {
	textHash := sha256.Sum256([]byte(text))
	composite := strings.Join([]string{
		category,
		path,
		fmt.Sprintf("%d", line),
		fmt.Sprintf("%x", textHash)[:16],
	}, "|")
	return fmt.Sprintf("%x", sha256.Sum256([]byte(composite)))
}
