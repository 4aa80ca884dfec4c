// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// StandardObserver implements observability for all components
type StandardObserver struct {
	level  ObservabilityLevel
	logger zerolog.Logger
}

type ObservabilityLevel int

const (
	ObservabilityOff     ObservabilityLevel = 0
	ObservabilityMetrics ObservabilityLevel = 1
	ObservabilityDebug   ObservabilityLevel = 2
)

// NewStandardObserver creates an observer writing structured events to writer
func NewStandardObserver(level ObservabilityLevel, writer io.Writer) *StandardObserver {
	if writer == nil {
		writer = io.Discard
	}
	return NewObserverWithLogger(level, zerolog.New(writer).With().Timestamp().Logger())
}

// NewConsoleObserver creates an observer with human friendly output on stderr
func NewConsoleObserver(level ObservabilityLevel) *StandardObserver {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return NewObserverWithLogger(level, zerolog.New(output).With().Timestamp().Logger())
}

// NewObserverWithLogger wraps an existing zerolog logger
func NewObserverWithLogger(level ObservabilityLevel, logger zerolog.Logger) *StandardObserver {
	switch level {
	case ObservabilityOff:
		logger = logger.Level(zerolog.Disabled)
	case ObservabilityMetrics:
		logger = logger.Level(zerolog.InfoLevel)
	default:
		logger = logger.Level(zerolog.DebugLevel)
	}
	return &StandardObserver{level: level, logger: logger}
}

// Nop returns an observer that discards everything
func Nop() *StandardObserver {
	return &StandardObserver{level: ObservabilityOff, logger: zerolog.Nop()}
}

// Logger exposes the underlying logger for components that log directly
func (o *StandardObserver) Logger() *zerolog.Logger {
	return &o.logger
}

// Level returns the configured observability level
func (o *StandardObserver) Level() ObservabilityLevel {
	return o.level
}

// StartTiming returns a function to complete timing
func (o *StandardObserver) StartTiming(component, operation, filePath string) func(success bool, metadata map[string]interface{}) {
	start := time.Now()

	return func(success bool, metadata map[string]interface{}) {
		o.LogOperation(StandardObservabilityData{
			Component:  component,
			Operation:  operation,
			FilePath:   filePath,
			DurationMs: time.Since(start).Milliseconds(),
			Success:    success,
			Metadata:   metadata,
		})
	}
}

// LogOperation logs operation data. Per-operation events are debug level;
// failures are always reported as warnings.
func (o *StandardObserver) LogOperation(data StandardObservabilityData) {
	if o.level == ObservabilityOff {
		return
	}

	event := o.logger.Debug()
	if !data.Success {
		event = o.logger.Warn()
	}

	event = event.
		Str("component", data.Component).
		Str("operation", data.Operation).
		Bool("success", data.Success)
	if data.FilePath != "" {
		event = event.Str("file_path", data.FilePath)
	}
	if data.DurationMs > 0 {
		event = event.Int64("duration_ms", data.DurationMs)
	}
	if data.MatchCount > 0 {
		event = event.Int("match_count", data.MatchCount)
	}
	if data.Error != "" {
		event = event.Str("error", data.Error)
	}
	if len(data.Metadata) > 0 {
		event = event.Fields(data.Metadata)
	}
	event.Msg(data.Operation)
}

// StandardObservabilityData for all components
type StandardObservabilityData struct {
	Component  string                 `json:"component"`
	Operation  string                 `json:"operation"`
	FilePath   string                 `json:"file_path,omitempty"`
	DurationMs int64                  `json:"duration_ms,omitempty"`
	Success    bool                   `json:"success"`
	Error      string                 `json:"error,omitempty"`
	MatchCount int                    `json:"match_count,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}
