// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"math"
	"strings"

	"leakguard/internal/config"
	"leakguard/internal/detector"
	"leakguard/internal/entropy"
	"leakguard/internal/suppressions"

	regexp "github.com/wasilibs/go-re2"
)

const (
	positiveNameBoost   = 0.2
	windowKeywordWeight = -0.1
)

// Adjustment reasons recorded on matches
const (
	ReasonComment      = "comment"
	ReasonTestContext  = "test context"
	ReasonSafeName     = "placeholder name"
	ReasonSensitive    = "sensitive name"
	ReasonWindowSample = "sample keywords nearby"
)

var (
	// assignmentPattern captures the name assigned to just before a match,
	// e.g. `apiKey := "`, `"password": "`, `SECRET=`
	assignmentPattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_.\-]*)["']?\s*(?::=|=>|==?|:)\s*["'\x60]?\s*$`)

	testMarkerPattern = regexp.MustCompile(
		`(?i)(\bfunc\s+Test\w*\s*\(|\bdef\s+test_\w*|@Test\b|\bdescribe\s*\(|\bit\s*\(\s*["'\x60]|\bfixtures?\b|\btestdata\b)`)

	windowKeywordPattern = regexp.MustCompile(`(?i)\b(?:examples?|placeholders?|dummy|samples?|lorem)\b`)

	safeNameParts      = []string{"example", "test", "placeholder", "dummy", "sample", "fake", "mock"}
	sensitiveNameParts = []string{"password", "secret", "key", "token", "credential", "auth", "private"}
)

// Analyzer adjusts matches using the text around them. It never creates
// matches, it only removes or rescores them.
type Analyzer struct {
	allowlist  *suppressions.Allowlist
	window     int
	testPolicy config.TestFilePolicy
}

// NewAnalyzer creates an analyzer over the given allowlist
func NewAnalyzer(cfg *config.Config, allowlist *suppressions.Allowlist) *Analyzer {
	return &Analyzer{
		allowlist:  allowlist,
		window:     cfg.Context.Window,
		testPolicy: cfg.TestFiles,
	}
}

func (a *Analyzer) Kind() detector.StrategyKind {
	return detector.StrategyContext
}

// Analyze applies context rules to the matches found on one line. Allowlisted
// matches are removed. Negative context lowers severity by exactly one level
// however many signals apply.
func (a *Analyzer) Analyze(target *detector.ScanTarget, lineNumber int, matches []detector.RawMatch) []detector.RawMatch {
	if len(matches) == 0 {
		return nil
	}
	line := target.Line(lineNumber)
	testContext := a.testContext(target, lineNumber)
	windowSample := a.windowHasSampleKeywords(target, lineNumber)

	out := make([]detector.RawMatch, 0, len(matches))
	for _, m := range matches {
		if _, allowed := a.allowlist.Allows(line, m); allowed {
			continue
		}

		name := assignedName(line, m.Start)

		var negatives []string
		if inComment(target, lineNumber, line, m.Start) {
			negatives = append(negatives, ReasonComment)
		}
		if testContext {
			negatives = append(negatives, ReasonTestContext)
		}
		if name != "" && hasNamePart(name, safeNameParts) {
			negatives = append(negatives, ReasonSafeName)
		}

		if len(negatives) > 0 {
			downgraded := m.Severity.Downgrade()
			m.Adjustments = append(m.Adjustments, detector.Adjustment{
				Reason:        strings.Join(negatives, ", "),
				SeverityDelta: int(downgraded) - int(m.Severity),
			})
			m.Severity = downgraded
		}

		if name != "" && containsAny(strings.ToLower(name), sensitiveNameParts) {
			adj := detector.Adjustment{Reason: ReasonSensitive + " " + name, ConfidenceDelta: positiveNameBoost}
			if m.Strategy == detector.StrategyEntropy && len(negatives) == 0 {
				escalated := m.Severity.Escalate()
				adj.SeverityDelta = int(escalated) - int(m.Severity)
				m.Severity = escalated
			}
			m.Confidence = clamp(m.Confidence + positiveNameBoost)
			m.Adjustments = append(m.Adjustments, adj)
		}

		if windowSample {
			m.Confidence = clamp(m.Confidence + windowKeywordWeight)
			m.Adjustments = append(m.Adjustments, detector.Adjustment{
				Reason:          ReasonWindowSample,
				ConfidenceDelta: windowKeywordWeight,
			})
		}

		out = append(out, m)
	}
	return out
}

func (a *Analyzer) testContext(target *detector.ScanTarget, lineNumber int) bool {
	if a.testPolicy != config.TestFilesDowngrade {
		return false
	}
	if target.IsTestPath {
		return true
	}
	for _, l := range target.Window(lineNumber-a.window, lineNumber+a.window) {
		if testMarkerPattern.MatchString(l) {
			return true
		}
	}
	return false
}

// windowHasSampleKeywords looks at neighbouring lines only; the match's own
// line is covered by the assignment name check
func (a *Analyzer) windowHasSampleKeywords(target *detector.ScanTarget, lineNumber int) bool {
	for n := lineNumber - a.window; n <= lineNumber+a.window; n++ {
		if n == lineNumber {
			continue
		}
		if windowKeywordPattern.MatchString(target.Line(n)) {
			return true
		}
	}
	return false
}

// assignedName returns the identifier assigned to the value starting at offset
func assignedName(line string, offset int) string {
	if offset <= 0 || offset > len(line) {
		return ""
	}
	sub := assignmentPattern.FindStringSubmatch(line[:offset])
	if len(sub) < 2 {
		return ""
	}
	return sub[1]
}

// lineCommentMarkers lists the markers that start a comment for an extension
var lineCommentMarkers = map[string][]string{
	".go": {"//"}, ".js": {"//"}, ".jsx": {"//"}, ".ts": {"//"}, ".tsx": {"//"},
	".java": {"//"}, ".kt": {"//"}, ".scala": {"//"}, ".swift": {"//"}, ".c": {"//"},
	".h": {"//"}, ".cpp": {"//"}, ".cc": {"//"}, ".cs": {"//"}, ".rs": {"//"},
	".dart": {"//"}, ".groovy": {"//"}, ".gradle": {"//"}, ".php": {"//", "#"},
	".py": {"#"}, ".rb": {"#"}, ".sh": {"#"}, ".bash": {"#"}, ".zsh": {"#"},
	".yaml": {"#"}, ".yml": {"#"}, ".toml": {"#"}, ".conf": {"#"}, ".cfg": {"#", ";"},
	".properties": {"#"}, ".env": {"#"}, ".tf": {"#", "//"}, ".r": {"#"}, ".pl": {"#"},
	".sql": {"--"}, ".lua": {"--"}, ".hs": {"--"},
	".ini": {";", "#"}, ".asm": {";"}, ".clj": {";"}, ".el": {";"}, ".lisp": {";"},
}

var fallbackCommentMarkers = []string{"//", "#"}

// inComment reports whether offset lies in a block comment or after a line
// comment marker. A marker only counts at the start of the line or after
// whitespace, so URLs and anchors are not mistaken for comments.
func inComment(target *detector.ScanTarget, lineNumber int, line string, offset int) bool {
	if target.InBlockComment(lineNumber, offset) {
		return true
	}

	markers, ok := lineCommentMarkers[target.Ext]
	if !ok {
		markers = fallbackCommentMarkers
	}
	for _, marker := range markers {
		for from := 0; from < offset; {
			idx := strings.Index(line[from:], marker)
			if idx < 0 {
				break
			}
			pos := from + idx
			if pos >= offset {
				break
			}
			if pos == 0 || line[pos-1] == ' ' || line[pos-1] == '\t' {
				return true
			}
			from = pos + len(marker)
		}
	}
	return false
}

// hasNamePart matches whole identifier parts so that e.g. "latest" is not
// read as "test"
func hasNamePart(name string, parts []string) bool {
	for _, word := range entropy.SplitWords(name) {
		word = strings.ToLower(word)
		for _, p := range parts {
			if word == p || word == p+"s" {
				return true
			}
		}
	}
	return false
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
