// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"fmt"
	"strings"
)

// Severity is the ordinal classification of a finding
type Severity int

const (
	SeveritySafe Severity = iota
	SeverityWarning
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeveritySafe:     "SAFE",
	SeverityWarning:  "WARNING",
	SeverityCritical: "CRITICAL",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Downgrade lowers the severity by one level, bottoming out at SAFE
func (s Severity) Downgrade() Severity {
	if s <= SeveritySafe {
		return SeveritySafe
	}
	return s - 1
}

// Escalate raises the severity by one level, capped at CRITICAL
func (s Severity) Escalate() Severity {
	if s >= SeverityCritical {
		return SeverityCritical
	}
	return s + 1
}

// ParseSeverity converts a case-insensitive name into a Severity
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "CRITICAL", "HIGH":
		return SeverityCritical, nil
	case "WARNING", "MEDIUM":
		return SeverityWarning, nil
	case "SAFE", "LOW", "INFO":
		return SeveritySafe, nil
	}
	return SeveritySafe, fmt.Errorf("unknown severity %q", name)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Severities lists every severity from most to least severe
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityWarning, SeveritySafe}
}

// StrategyKind identifies the detection strategy that produced or touched a match.
// The numeric order is the precedence order used when merging matches.
type StrategyKind int

const (
	StrategyPattern StrategyKind = iota
	StrategyEntropy
	StrategyContext
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyPattern:
		return "pattern"
	case StrategyEntropy:
		return "entropy"
	case StrategyContext:
		return "context"
	}
	return fmt.Sprintf("strategy(%d)", int(k))
}

// Origin distinguishes built-in detections from user supplied ones
type Origin string

const (
	OriginBuiltin Origin = "builtin"
	OriginCustom  Origin = "custom"
)

// Adjustment records a single context-driven change to a raw match
type Adjustment struct {
	Reason          string  `json:"reason"`
	ConfidenceDelta float64 `json:"confidenceDelta,omitempty"`
	SeverityDelta   int     `json:"severityDelta,omitempty"`
}

// RawMatch is an unmerged detector output. Offsets are byte offsets into the
// line; End is exclusive.
type RawMatch struct {
	Line       int
	EndLine    int
	Start      int
	End        int
	Text       string
	Category   string
	RuleID     string
	RuleIndex  int
	Origin     Origin
	Severity   Severity
	Confidence float64
	Strategy   StrategyKind

	Adjustments []Adjustment
}

// Overlaps reports whether two matches on the same line share at least one byte
func (m RawMatch) Overlaps(other RawMatch) bool {
	return m.Line == other.Line && m.Start < other.End && other.Start < m.End
}

// Adjusted reports whether the context analyzer changed this match
func (m RawMatch) Adjusted() bool {
	return len(m.Adjustments) > 0
}

// Finding is the aggregated, deduplicated unit of report output
type Finding struct {
	Path        string   `json:"path" yaml:"path"`
	Line        int      `json:"line" yaml:"line"`
	EndLine     int      `json:"endLine,omitempty" yaml:"endLine,omitempty"`
	StartOffset int      `json:"startOffset" yaml:"startOffset"`
	EndOffset   int      `json:"endOffset" yaml:"endOffset"`
	Category    string   `json:"category" yaml:"category"`
	RuleID      string   `json:"ruleId,omitempty" yaml:"ruleId,omitempty"`
	Origin      Origin   `json:"origin,omitempty" yaml:"origin,omitempty"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Preview     string   `json:"preview" yaml:"preview"`
	Confidence  float64  `json:"confidence" yaml:"confidence"`
	Strategies  []string `json:"strategies" yaml:"strategies"`
	Fingerprint string   `json:"fingerprint" yaml:"fingerprint"`
}

// Strategy is implemented by the pattern and entropy detectors. Detect inspects
// a single line of the target; multi-line strategies may read ahead.
type Strategy interface {
	Kind() StrategyKind
	Detect(target *ScanTarget, lineNumber int) []RawMatch
}
