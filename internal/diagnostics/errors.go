// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package diagnostics

import (
	"errors"
	"fmt"
)

// Kind represents the error taxonomy of a scan
type Kind int

const (
	KindUnknown       Kind = iota
	KindConfiguration      // Invalid regex, conflicting filter sets, out-of-range values
	KindFilter             // A filter failed while evaluating a file or line
	KindIO                 // A single file could not be read
	KindRootPath           // The scan root is missing or unreadable
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "ConfigurationError"
	case KindFilter:
		return "FilterEvaluationError"
	case KindIO:
		return "IOError"
	case KindRootPath:
		return "RootPathError"
	}
	return "UnknownError"
}

// Sentinel errors for errors.Is checks
var (
	ErrConfiguration    = errors.New("configuration error")
	ErrFilterEvaluation = errors.New("filter evaluation error")
	ErrIO               = errors.New("i/o error")
	ErrRootPath         = errors.New("invalid scan root")
)

// Error wraps an underlying error with its kind and the component it came from
type Error struct {
	Kind     Kind
	Source   string // filter name, rule id, config key, ...
	Path     string
	Message  string
	Original error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Original != nil {
		msg = e.Original.Error()
	} else if e.Original != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Original)
	}

	switch {
	case e.Source != "" && e.Path != "":
		return fmt.Sprintf("%s [%s] %s: %s", e.Kind, e.Source, e.Path, msg)
	case e.Source != "":
		return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Source, msg)
	case e.Path != "":
		return fmt.Sprintf("%s %s: %s", e.Kind, e.Path, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Original
}

// Is matches the kind sentinels so callers can use errors.Is(err, ErrConfiguration)
func (e *Error) Is(target error) bool {
	switch target {
	case ErrConfiguration:
		return e.Kind == KindConfiguration
	case ErrFilterEvaluation:
		return e.Kind == KindFilter
	case ErrIO:
		return e.Kind == KindIO
	case ErrRootPath:
		return e.Kind == KindRootPath
	}
	return false
}

// NewConfigurationError creates a configuration error attributed to source
func NewConfigurationError(source, message string, original error) *Error {
	return &Error{Kind: KindConfiguration, Source: source, Message: message, Original: original}
}

// NewFilterError creates a filter evaluation error for a file
func NewFilterError(filterName, path string, original error) *Error {
	return &Error{Kind: KindFilter, Source: filterName, Path: path, Message: "filter skipped", Original: original}
}

// NewIOError creates an error for a file that could not be read
func NewIOError(path string, original error) *Error {
	return &Error{Kind: KindIO, Path: path, Message: "file skipped", Original: original}
}

// NewRootPathError creates a fatal error for an invalid scan root
func NewRootPathError(path string, original error) *Error {
	return &Error{Kind: KindRootPath, Path: path, Message: "cannot scan root", Original: original}
}

// KindOf extracts the kind of err, or KindUnknown
func KindOf(err error) Kind {
	var diagErr *Error
	if errors.As(err, &diagErr) {
		return diagErr.Kind
	}
	return KindUnknown
}
