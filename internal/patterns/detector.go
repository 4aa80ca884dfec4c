// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package patterns

import (
	"fmt"
	"strings"

	"leakguard/internal/config"
	"leakguard/internal/detector"
	"leakguard/internal/diagnostics"

	ahocorasick "github.com/BobuSumisu/aho-corasick"
	regexp "github.com/wasilibs/go-re2"
)

// MaxWindowLines bounds how many lines a multi-line rule may span
const MaxWindowLines = 100

// Rule is a compiled detection rule
type Rule struct {
	Definition
	Origin detector.Origin
	// Index is the declaration position across built-in and custom rules
	Index int

	re *regexp.Regexp
}

// Detector recognises known secret shapes line by line
type Detector struct {
	rules []*Rule

	// prefilter finds rule keywords in a lower-cased line
	prefilter      *ahocorasick.Trie
	keywordToRules map[string][]int
	noKeywordRules []int
}

// New compiles the rules whose category cfg enables, built-ins first, then
// custom patterns. A custom pattern that cannot be compiled is disabled and reported
// as a configuration error.
func New(cfg *config.Config) (*Detector, []error) {
	var (
		defs    []Definition
		origins []detector.Origin
		errs    []error
	)

	for _, def := range Builtin() {
		if cfg.CategoryEnabled(def.Category) {
			defs = append(defs, def)
			origins = append(origins, detector.OriginBuiltin)
		}
	}

	for i, custom := range cfg.CustomPatterns {
		def, err := customDefinition(i, custom)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !cfg.CategoryEnabled(def.Category) {
			continue
		}
		defs = append(defs, def)
		origins = append(origins, detector.OriginCustom)
	}

	d, compileErrs := compile(defs, origins)
	return d, append(errs, compileErrs...)
}

// NewFromDefinitions compiles defs as built-in rules
func NewFromDefinitions(defs []Definition) (*Detector, []error) {
	origins := make([]detector.Origin, len(defs))
	for i := range origins {
		origins[i] = detector.OriginBuiltin
	}
	return compile(defs, origins)
}

func customDefinition(i int, p config.PatternConfig) (Definition, error) {
	source := fmt.Sprintf("custom_patterns[%d]", i)

	def := Definition{
		ID:          strings.TrimSpace(p.ID),
		Category:    strings.TrimSpace(p.Category),
		Pattern:     p.Pattern,
		Severity:    detector.SeverityWarning,
		Confidence:  p.Confidence,
		Keywords:    p.Keywords,
		MultiLine:   p.MultiLine,
		SecretGroup: p.SecretGroup,
	}
	if def.ID == "" {
		def.ID = fmt.Sprintf("custom-%d", i)
	}
	if def.Category == "" {
		def.Category = def.ID
	}
	if strings.TrimSpace(def.Pattern) == "" {
		return def, diagnostics.NewConfigurationError(source, "pattern "+def.ID+" is empty", nil)
	}
	if p.Severity != "" {
		severity, err := detector.ParseSeverity(p.Severity)
		if err != nil {
			return def, diagnostics.NewConfigurationError(source, "pattern "+def.ID+" disabled", err)
		}
		def.Severity = severity
	}
	if def.Confidence == 0 {
		def.Confidence = 1.0
	}
	if def.Confidence < 0 || def.Confidence > 1 {
		return def, diagnostics.NewConfigurationError(source,
			fmt.Sprintf("pattern %s confidence %.2f outside [0, 1]", def.ID, def.Confidence), nil)
	}
	return def, nil
}

func compile(defs []Definition, origins []detector.Origin) (*Detector, []error) {
	d := &Detector{keywordToRules: make(map[string][]int)}
	var errs []error

	for i, def := range defs {
		re, err := regexp.Compile(def.Pattern)
		if err != nil {
			errs = append(errs, diagnostics.NewConfigurationError(def.ID, "invalid pattern, rule disabled", err))
			continue
		}
		if def.SecretGroup < 0 || def.SecretGroup > re.NumSubexp() {
			errs = append(errs, diagnostics.NewConfigurationError(def.ID,
				fmt.Sprintf("secret group %d out of range, rule disabled", def.SecretGroup), nil))
			continue
		}

		rule := &Rule{Definition: def, Origin: origins[i], Index: i, re: re}
		pos := len(d.rules)
		d.rules = append(d.rules, rule)

		keyed := false
		for _, kw := range def.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				d.keywordToRules[kw] = append(d.keywordToRules[kw], pos)
				keyed = true
			}
		}
		if !keyed {
			d.noKeywordRules = append(d.noKeywordRules, pos)
		}
	}

	keywords := make([]string, 0, len(d.keywordToRules))
	for kw := range d.keywordToRules {
		keywords = append(keywords, kw)
	}
	d.prefilter = ahocorasick.NewTrieBuilder().AddStrings(keywords).Build()

	return d, errs
}

// Rules returns the compiled rules in declaration order
func (d *Detector) Rules() []*Rule {
	return d.rules
}

func (d *Detector) Kind() detector.StrategyKind {
	return detector.StrategyPattern
}

// Detect runs every applicable rule against the line. Rules are independent,
// so one line can yield matches of several categories.
func (d *Detector) Detect(target *detector.ScanTarget, lineNumber int) []detector.RawMatch {
	line := target.Line(lineNumber)
	if line == "" {
		return nil
	}

	var matches []detector.RawMatch
	for _, pos := range d.candidates(line) {
		rule := d.rules[pos]
		if rule.MultiLine {
			matches = append(matches, rule.detectWindow(target, lineNumber)...)
		} else {
			matches = append(matches, rule.detectLine(line, lineNumber)...)
		}
	}
	return matches
}

// candidates returns the positions of rules whose keywords occur in line,
// plus every keyword-less rule, in declaration order
func (d *Detector) candidates(line string) []int {
	selected := make([]bool, len(d.rules))
	for _, pos := range d.noKeywordRules {
		selected[pos] = true
	}
	for _, m := range d.prefilter.Match([]byte(strings.ToLower(line))) {
		for _, pos := range d.keywordToRules[string(m.Match())] {
			selected[pos] = true
		}
	}

	var out []int
	for pos, ok := range selected {
		if ok {
			out = append(out, pos)
		}
	}
	return out
}

func (r *Rule) detectLine(line string, lineNumber int) []detector.RawMatch {
	var matches []detector.RawMatch
	for _, loc := range r.re.FindAllStringSubmatchIndex(line, -1) {
		start, end := r.span(loc)
		if start < 0 || start == end {
			continue
		}
		matches = append(matches, r.rawMatch(lineNumber, lineNumber, start, end, line[start:end]))
	}
	return matches
}

// detectWindow matches against lineNumber and the lines after it. Only matches
// starting on lineNumber are kept so a block is reported once, at its first
// line, with the span clamped to that line.
func (r *Rule) detectWindow(target *detector.ScanTarget, lineNumber int) []detector.RawMatch {
	lines := target.Window(lineNumber, lineNumber+MaxWindowLines-1)
	if len(lines) == 0 {
		return nil
	}
	first := lines[0]
	text := strings.Join(lines, "\n")

	var matches []detector.RawMatch
	for _, loc := range r.re.FindAllStringSubmatchIndex(text, -1) {
		start, end := r.span(loc)
		if start < 0 || start >= len(first) {
			continue
		}
		endLine := lineNumber + strings.Count(text[start:end], "\n")
		if end > len(first) {
			end = len(first)
		}
		matches = append(matches, r.rawMatch(lineNumber, endLine, start, end, first[start:end]))
	}
	return matches
}

func (r *Rule) span(loc []int) (int, int) {
	g := r.SecretGroup
	if 2*g+1 >= len(loc) {
		return loc[0], loc[1]
	}
	return loc[2*g], loc[2*g+1]
}

func (r *Rule) rawMatch(line, endLine, start, end int, text string) detector.RawMatch {
	return detector.RawMatch{
		Line:       line,
		EndLine:    endLine,
		Start:      start,
		End:        end,
		Text:       text,
		Category:   r.Category,
		RuleID:     r.ID,
		RuleIndex:  r.Index,
		Origin:     r.Origin,
		Severity:   r.Severity,
		Confidence: r.Confidence,
		Strategy:   detector.StrategyPattern,
	}
}
