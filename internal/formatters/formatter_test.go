// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters

import (
	"testing"

	"leakguard/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFormatter struct{ name string }

func (s stubFormatter) Format(result *core.Result, _ FormatterOptions) (string, error) {
	return s.name + ":" + result.ScanID, nil
}
func (s stubFormatter) Name() string          { return s.name }
func (s stubFormatter) Description() string   { return "stub" }
func (s stubFormatter) FileExtension() string { return ".stub" }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(stubFormatter{name: "zeta"})
	r.Register(stubFormatter{name: "alpha"})

	assert.Equal(t, []string{"alpha", "zeta"}, r.List())

	f, ok := r.Get("ALPHA")
	require.True(t, ok)
	assert.Equal(t, "alpha", f.Name())

	out, err := r.Export("zeta", &core.Result{ScanID: "id-1"}, FormatterOptions{})
	require.NoError(t, err)
	assert.Equal(t, "zeta:id-1", out)
}

func TestRegistry_UnknownFormat(t *testing.T) {
	r := NewRegistry()
	r.Register(stubFormatter{name: "text"})

	_, err := r.Export("xml", &core.Result{}, FormatterOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Available formats: text")
}
