// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"path"
	"strings"
)

// ScanTarget is a file's content as an ordered sequence of lines
type ScanTarget struct {
	// Path is the slash separated path relative to the scan root
	Path string
	// DisplayPath is how the file is shown to the user
	DisplayPath string
	Ext         string
	IsTestPath  bool

	lines []string

	// blockComments holds, per line, the byte ranges inside /* */ or <!-- -->
	blockComments map[int][]span
}

type span struct {
	start, end int
}

// NewScanTarget splits content into lines. Both "\n" and "\r\n" endings are
// accepted; a trailing newline does not produce an empty final line.
func NewScanTarget(relPath, displayPath string, content []byte) *ScanTarget {
	text := string(content)
	text = strings.TrimSuffix(text, "\n")

	var lines []string
	if len(content) > 0 {
		lines = strings.Split(text, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimSuffix(line, "\r")
		}
	}

	return &ScanTarget{
		Path:          relPath,
		DisplayPath:   displayPath,
		Ext:           strings.ToLower(path.Ext(relPath)),
		lines:         lines,
		blockComments: mapBlockComments(lines),
	}
}

var blockDelimiters = []struct{ open, close string }{
	{"/*", "*/"},
	{"<!--", "-->"},
}

// mapBlockComments tracks block comments across lines. String literals are
// not tokenized, so a delimiter inside a string opens a comment too.
func mapBlockComments(lines []string) map[int][]span {
	comments := make(map[int][]span)
	closing := ""

	for i, line := range lines {
		lineNumber := i + 1
		pos := 0
		for pos < len(line) {
			start := pos
			if closing == "" {
				next, which := -1, -1
				for d, delim := range blockDelimiters {
					if idx := strings.Index(line[pos:], delim.open); idx >= 0 && (next < 0 || idx < next) {
						next, which = idx, d
					}
				}
				if next < 0 {
					break
				}
				start = pos + next
				closing = blockDelimiters[which].close
				pos = start + len(blockDelimiters[which].open)
			}

			end := strings.Index(line[pos:], closing)
			if end < 0 {
				comments[lineNumber] = append(comments[lineNumber], span{start, len(line)})
				break
			}
			pos += end + len(closing)
			comments[lineNumber] = append(comments[lineNumber], span{start, pos})
			closing = ""
		}
	}
	return comments
}

// InBlockComment reports whether the byte at offset on the 1-based line lies
// inside a block comment
func (t *ScanTarget) InBlockComment(lineNumber, offset int) bool {
	for _, s := range t.blockComments[lineNumber] {
		if offset >= s.start && offset < s.end {
			return true
		}
	}
	return false
}

// LineCount returns the number of lines
func (t *ScanTarget) LineCount() int {
	return len(t.lines)
}

// Line returns the 1-based line, or "" when out of range
func (t *ScanTarget) Line(lineNumber int) string {
	if lineNumber < 1 || lineNumber > len(t.lines) {
		return ""
	}
	return t.lines[lineNumber-1]
}

// Window returns lines [from, to] clamped to the file, 1-based and inclusive
func (t *ScanTarget) Window(from, to int) []string {
	if from < 1 {
		from = 1
	}
	if to > len(t.lines) {
		to = len(t.lines)
	}
	if from > to {
		return nil
	}
	return t.lines[from-1 : to]
}
