// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"strings"
	"testing"

	"leakguard/internal/core"
	"leakguard/internal/detector"
	"leakguard/internal/diagnostics"
	"leakguard/internal/formatters"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *core.Result {
	return &core.Result{
		ScanID: "scan-1",
		State:  core.StateCompleted,
		Findings: []detector.Finding{
			{
				Path:        "deploy/credentials.txt",
				Line:        6,
				StartOffset: 20,
				EndOffset:   40,
				Category:    "AWS Access Key",
				RuleID:      "aws-access-key",
				Origin:      detector.OriginBuiltin,
				Severity:    detector.SeverityCritical,
				Preview:     "AKIA****************",
				Confidence:  1,
				Strategies:  []string{"pattern", "context"},
				Fingerprint: "f00d",
			},
			{
				Path:       "keys/server.pem",
				Line:       1,
				EndLine:    3,
				Category:   "Private Key Block",
				Severity:   detector.SeverityWarning,
				Preview:    "----*******",
				Confidence: 0.9,
				Strategies: []string{"pattern"},
			},
		},
		Statistics: core.Statistics{
			FilesEvaluated:     4,
			FilesIncluded:      3,
			FilesExcluded:      1,
			FilesUnreadable:    1,
			FilesScanned:       2,
			LinesScanned:       12,
			FindingsBySeverity: map[string]int{"CRITICAL": 1, "WARNING": 1, "SAFE": 0},
			Suppressed:         2,
			ElapsedMillis:      42,
		},
		Diagnostics: []diagnostics.Diagnostic{
			{Kind: "IOError", Path: "locked.txt", Message: "permission denied"},
		},
	}
}

func TestFormat_Summary(t *testing.T) {
	out, err := NewFormatter().Format(sampleResult(), formatters.FormatterOptions{NoColor: true})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.True(t, strings.HasPrefix(lines[0], "SEVERITY"))
	assert.Contains(t, lines[2], "[CRITICAL]")
	assert.Contains(t, lines[2], "AWS Access Key")
	assert.Contains(t, lines[2], "100%")
	assert.Contains(t, lines[2], "line     6")
	assert.Contains(t, lines[2], "deploy/credentials.txt")
	assert.Contains(t, lines[3], "[WARNING ]")

	assert.Contains(t, out, "Files:    4 evaluated, 3 included, 1 excluded, 1 unreadable")
	assert.Contains(t, out, "Findings: 1 critical, 1 warning, 0 safe (2 suppressed)")
	assert.Contains(t, out, "Elapsed:  42ms")
	assert.Contains(t, out, "1 problem(s) reported")
	assert.NotContains(t, out, "\x1b[")
}

func TestFormat_Verbose(t *testing.T) {
	out, err := NewFormatter().Format(sampleResult(), formatters.FormatterOptions{NoColor: true, Verbose: true})
	require.NoError(t, err)

	assert.Contains(t, out, "Found in deploy/credentials.txt on line 6")
	assert.Contains(t, out, "Found in keys/server.pem on lines 1-3")
	assert.Contains(t, out, "Rule: aws-access-key (builtin)")
	assert.Contains(t, out, "Strategies: pattern, context")
	assert.Contains(t, out, "Fingerprint: f00d")
	assert.Contains(t, out, "  - [IOError] locked.txt: permission denied")
}

func TestFormat_NoFindings(t *testing.T) {
	result := &core.Result{Statistics: core.Statistics{FindingsBySeverity: map[string]int{}}}

	out, err := NewFormatter().Format(result, formatters.FormatterOptions{NoColor: true})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "No secrets found."))
	assert.Contains(t, out, "Findings: 0 critical, 0 warning, 0 safe\n")
}

func TestFormat_ShowSuppressed(t *testing.T) {
	result := sampleResult()
	result.Suppressed = []detector.Finding{result.Findings[0]}

	out, err := NewFormatter().Format(result, formatters.FormatterOptions{NoColor: true, ShowSuppressed: true})
	require.NoError(t, err)
	assert.Contains(t, out, "Suppressed findings")
	assert.Contains(t, out, "[SUPP    ]")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
