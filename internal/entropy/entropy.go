// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package entropy

import (
	"math"

	"leakguard/internal/config"
	"leakguard/internal/detector"
)

// Category is reported for every entropy match
const Category = "High Entropy String"

// RuleID identifies entropy matches in findings
const RuleID = "high-entropy"

// maxEntropyCeiling caps the entropy used to scale confidence
const maxEntropyCeiling = 6.0

// Detector flags tokens whose character distribution looks random
type Detector struct {
	threshold  float64
	minLength  int
	dictionary *Dictionary
}

// New creates an entropy detector. The minimum token length never drops
// below config.DefaultMinTokenLength.
func New(cfg config.EntropyConfig) *Detector {
	d := &Detector{
		threshold: cfg.Threshold,
		minLength: cfg.MinLength,
	}
	if d.minLength < config.DefaultMinTokenLength {
		d.minLength = config.DefaultMinTokenLength
	}
	if cfg.DictionaryCheck {
		d.dictionary = DefaultDictionary()
	}
	return d
}

func (d *Detector) Kind() detector.StrategyKind {
	return detector.StrategyEntropy
}

// Detect emits one match per qualifying token, spanning exactly that token
func (d *Detector) Detect(target *detector.ScanTarget, lineNumber int) []detector.RawMatch {
	line := target.Line(lineNumber)

	var matches []detector.RawMatch
	for _, tok := range Tokenize(line) {
		text := line[tok.Start:tok.End]
		if len(text) < d.minLength {
			continue
		}
		h := ShannonEntropy(text)
		if h < d.threshold {
			continue
		}
		if d.dictionary != nil && d.dictionary.IsWordy(text) {
			continue
		}
		matches = append(matches, detector.RawMatch{
			Line:       lineNumber,
			EndLine:    lineNumber,
			Start:      tok.Start,
			End:        tok.End,
			Text:       text,
			Category:   Category,
			RuleID:     RuleID,
			Origin:     detector.OriginBuiltin,
			Severity:   detector.SeverityWarning,
			Confidence: d.confidence(h, len(text)),
			Strategy:   detector.StrategyEntropy,
		})
	}
	return matches
}

// confidence grows linearly from 0.5 at the threshold to 1.0 at the highest
// entropy a token of this length can reach
func (d *Detector) confidence(h float64, length int) float64 {
	hmax := math.Min(math.Log2(float64(length)), maxEntropyCeiling)
	if hmax <= d.threshold {
		return 1.0
	}
	c := 0.5 + 0.5*(h-d.threshold)/(hmax-d.threshold)
	return math.Max(0, math.Min(1, c))
}

// ShannonEntropy returns -Σ p(c)·log2 p(c) over the bytes of s
func ShannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	var counts [256]int
	for i := 0; i < len(s); i++ {
		counts[s[i]]++
	}

	n := float64(len(s))
	h := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	return h
}

// Token is a byte range [Start, End) of a line
type Token struct {
	Start int
	End   int
}

func isTokenByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' ||
		b == '+' || b == '/' || b == '_' || b == '-'
}

// Tokenize splits line into maximal runs of base64, base64url and hex
// characters in one left-to-right pass. '=' only extends a token as trailing
// padding, so "name=value" yields two tokens.
func Tokenize(line string) []Token {
	var tokens []Token
	i := 0
	for i < len(line) {
		if !isTokenByte(line[i]) {
			i++
			continue
		}
		start := i
		for i < len(line) && isTokenByte(line[i]) {
			i++
		}
		for pad := 0; pad < 2 && i < len(line) && line[i] == '='; pad++ {
			if i+1 < len(line) && isTokenByte(line[i+1]) {
				break
			}
			i++
		}
		tokens = append(tokens, Token{Start: start, End: i})
	}
	return tokens
}
