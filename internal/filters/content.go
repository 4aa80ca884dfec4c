// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"errors"
	"fmt"
	"strings"

	"github.com/docker/go-units"
	"github.com/gabriel-vasile/mimetype"
)

// SizeFilter excludes files larger than a byte limit
type SizeFilter struct {
	base
	maxBytes int64
}

// NewSizeFilter creates a size filter. A non-positive limit admits everything.
func NewSizeFilter(name string, priority int, maxBytes int64) *SizeFilter {
	return &SizeFilter{base: newBase(name, priority, nil), maxBytes: maxBytes}
}

func (f *SizeFilter) EvaluateFile(file *File) (Decision, error) {
	if f.maxBytes > 0 && file.Size > f.maxBytes {
		return exclude(f.name, fmt.Sprintf("file size %s exceeds limit %s",
			units.HumanSize(float64(file.Size)), units.HumanSize(float64(f.maxBytes)))), nil
	}
	return include(f.name, "file size within limit"), nil
}

func (f *SizeFilter) EvaluateLine(*File, int, string) (Decision, error) {
	return neutral(), nil
}

// BinaryFilter sniffs the start of a file and excludes non-text content
type BinaryFilter struct {
	base
}

// NewBinaryFilter creates a binary content filter
func NewBinaryFilter(name string, priority int) *BinaryFilter {
	return &BinaryFilter{base: newBase(name, priority, nil)}
}

var errNoOpener = errors.New("file has no content opener")

// textExtensions are source and config formats that are always scanned. Stray
// NUL bytes or odd encodings in such files must not hide their content.
var textExtensions = map[string]bool{
	".go": true, ".js": true, ".jsx": true, ".mjs": true, ".cjs": true, ".ts": true, ".tsx": true,
	".py": true, ".rb": true, ".php": true, ".java": true, ".kt": true, ".scala": true,
	".swift": true, ".c": true, ".h": true, ".cpp": true, ".cc": true, ".cs": true,
	".rs": true, ".dart": true, ".groovy": true, ".gradle": true, ".sh": true,
	".bash": true, ".zsh": true, ".ps1": true, ".sql": true, ".lua": true, ".pl": true,
	".r": true, ".tf": true, ".hcl": true, ".json": true, ".yaml": true, ".yml": true,
	".toml": true, ".ini": true, ".cfg": true, ".conf": true, ".properties": true,
	".env": true, ".xml": true, ".html": true, ".txt": true, ".md": true,
}

func (f *BinaryFilter) EvaluateFile(file *File) (Decision, error) {
	if file.Size == 0 {
		return include(f.name, "empty file"), nil
	}
	if ext := strings.ToLower(file.Ext); textExtensions[ext] {
		return include(f.name, "text extension "+ext), nil
	}
	if file.Open == nil {
		return neutral(), errNoOpener
	}
	r, err := file.Open()
	if err != nil {
		return neutral(), err
	}
	defer r.Close()

	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return neutral(), err
	}
	if isText(mtype) {
		return include(f.name, "text content ("+mtype.String()+")"), nil
	}
	return exclude(f.name, "binary content ("+mtype.String()+")"), nil
}

func (f *BinaryFilter) EvaluateLine(*File, int, string) (Decision, error) {
	return neutral(), nil
}

func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	if substr == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
