// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package filters

import "fmt"

// ExtensionFilter admits files by extension. When an include set is given only
// those extensions pass; extensions in the exclude set never pass.
type ExtensionFilter struct {
	base
	include map[string]bool
	exclude map[string]bool
}

// NewExtensionFilter creates an extension filter
func NewExtensionFilter(name string, priority int, include, exclude []string) *ExtensionFilter {
	return &ExtensionFilter{
		base:    newBase(name, priority, nil),
		include: extensionSet(include),
		exclude: extensionSet(exclude),
	}
}

func extensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		if ext = NormalizeExtension(ext); ext != "" {
			set[ext] = true
		}
	}
	return set
}

func (f *ExtensionFilter) EvaluateFile(file *File) (Decision, error) {
	ext := NormalizeExtension(file.Ext)
	if f.exclude[ext] {
		return exclude(f.name, fmt.Sprintf("extension %q is excluded", ext)), nil
	}
	if len(f.include) > 0 && !f.include[ext] {
		return exclude(f.name, fmt.Sprintf("extension %q is not in the include set", ext)), nil
	}
	return include(f.name, "extension allowed"), nil
}

func (f *ExtensionFilter) EvaluateLine(*File, int, string) (Decision, error) {
	return neutral(), nil
}
