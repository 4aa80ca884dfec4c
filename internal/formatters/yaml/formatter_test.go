// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package yaml

import (
	"testing"

	"leakguard/internal/core"
	"leakguard/internal/detector"
	"leakguard/internal/formatters"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFormat_MatchesJSONFieldNames(t *testing.T) {
	result := &core.Result{
		ScanID: "scan-2",
		State:  core.StateCompleted,
		Findings: []detector.Finding{{
			Path:       "a.txt",
			Line:       1,
			Category:   "GitHub Token",
			Severity:   detector.SeverityWarning,
			Strategies: []string{"pattern", "context"},
		}},
		Statistics: core.Statistics{FindingsBySeverity: map[string]int{"WARNING": 1}},
	}

	out, err := NewFormatter().Format(result, formatters.FormatterOptions{})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "scan-2", decoded["scanId"])
	assert.Equal(t, "completed", decoded["state"])

	findings := decoded["findings"].([]any)
	first := findings[0].(map[string]any)
	assert.Equal(t, "WARNING", first["severity"])
	assert.Equal(t, "GitHub Token", first["category"])
	assert.Contains(t, out, "findingsBySeverity:")
}
