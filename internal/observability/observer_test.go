// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var events []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var event map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &event))
		events = append(events, event)
	}
	return events
}

func TestStartTimingAtDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	observer := NewStandardObserver(ObservabilityDebug, &buf)

	finish := observer.StartTiming("scanner", "scan_file", "config/app.env")
	finish(true, map[string]interface{}{"findings": 2})

	events := decodeLines(t, &buf)
	require.Len(t, events, 1)
	assert.Equal(t, "debug", events[0]["level"])
	assert.Equal(t, "scanner", events[0]["component"])
	assert.Equal(t, "config/app.env", events[0]["file_path"])
	assert.Equal(t, float64(2), events[0]["findings"])
}

func TestMetricsLevelOnlyReportsFailures(t *testing.T) {
	var buf bytes.Buffer
	observer := NewStandardObserver(ObservabilityMetrics, &buf)

	observer.StartTiming("scanner", "scan_file", "ok.txt")(true, nil)
	observer.LogOperation(StandardObservabilityData{
		Component: "scanner",
		Operation: "scan_file",
		FilePath:  "broken.txt",
		Error:     "permission denied",
	})

	events := decodeLines(t, &buf)
	require.Len(t, events, 1)
	assert.Equal(t, "warn", events[0]["level"])
	assert.Equal(t, "broken.txt", events[0]["file_path"])
	assert.Equal(t, "permission denied", events[0]["error"])
}

func TestOffAndNopDiscard(t *testing.T) {
	var buf bytes.Buffer
	observer := NewStandardObserver(ObservabilityOff, &buf)
	observer.LogOperation(StandardObservabilityData{Component: "x", Operation: "y"})
	observer.Logger().Error().Msg("dropped")
	assert.Empty(t, buf.String())

	nop := Nop()
	assert.Equal(t, ObservabilityOff, nop.Level())
	nop.StartTiming("x", "y", "")(false, nil)
}
