// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package patterns

import "leakguard/internal/detector"

// Definition declares a detection rule before compilation
type Definition struct {
	ID         string
	Category   string
	Pattern    string
	Severity   detector.Severity
	Confidence float64

	// Keywords gate the rule: it only runs on lines containing one of them
	// (case-insensitive). A rule without keywords runs on every line.
	Keywords []string

	// MultiLine rules run over a window of consecutive lines
	MultiLine bool

	// SecretGroup selects the capture group reported as the secret; zero
	// reports the whole match
	SecretGroup int
}

// Private key headers and footers are assembled so the rule table itself
// does not trip secret scanners.
const (
	pemBegin = "-----" + "BEGIN"
	pemEnd   = "-----" + "END"
	pemKinds = `(?:(?:RSA|DSA|EC|OPENSSH|ENCRYPTED|PGP) )?PRIVATE KEY(?: BLOCK)?-----`
)

// Builtin returns the built-in rules in declaration order. Order matters: it
// breaks category ties between overlapping pattern matches.
func Builtin() []Definition {
	return []Definition{
		{
			ID:         "private-key-block",
			Category:   "Private Key Block",
			Pattern:    pemBegin + ` ` + pemKinds + `[\s\S]*?` + pemEnd + ` ` + pemKinds,
			Severity:   detector.SeverityCritical,
			Confidence: 1.0,
			Keywords:   []string{"private key"},
			MultiLine:  true,
		},
		{
			ID:         "aws-access-key",
			Category:   "AWS Access Key",
			Pattern:    `\b(?:AKIA|ASIA|ABIA|ACCA)[0-9A-Z]{16}\b`,
			Severity:   detector.SeverityCritical,
			Confidence: 1.0,
			Keywords:   []string{"akia", "asia", "abia", "acca"},
		},
		{
			ID:          "aws-secret-key",
			Category:    "AWS Secret Key",
			Pattern:     `(?i)aws_?secret_?(?:access_?)?key["']?\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})\b`,
			Severity:    detector.SeverityCritical,
			Confidence:  0.9,
			Keywords:    []string{"aws"},
			SecretGroup: 1,
		},
		{
			ID:         "github-token",
			Category:   "GitHub Token",
			Pattern:    `\bgh[pousr]_[A-Za-z0-9]{36}\b`,
			Severity:   detector.SeverityCritical,
			Confidence: 1.0,
			Keywords:   []string{"ghp_", "gho_", "ghu_", "ghs_", "ghr_"},
		},
		{
			ID:         "github-fine-grained-token",
			Category:   "GitHub Token",
			Pattern:    `\bgithub_pat_[A-Za-z0-9_]{82}\b`,
			Severity:   detector.SeverityCritical,
			Confidence: 1.0,
			Keywords:   []string{"github_pat_"},
		},
		{
			ID:         "gitlab-pat",
			Category:   "GitLab Token",
			Pattern:    `\bglpat-[A-Za-z0-9_-]{20}\b`,
			Severity:   detector.SeverityCritical,
			Confidence: 1.0,
			Keywords:   []string{"glpat-"},
		},
		{
			ID:         "slack-token",
			Category:   "Slack Token",
			Pattern:    `\bxox[baprs]-[0-9A-Za-z-]{10,72}`,
			Severity:   detector.SeverityCritical,
			Confidence: 1.0,
			Keywords:   []string{"xoxb-", "xoxa-", "xoxp-", "xoxr-", "xoxs-"},
		},
		{
			ID:         "slack-webhook",
			Category:   "Slack Webhook",
			Pattern:    `https://hooks\.slack\.com/services/T[A-Z0-9]+/B[A-Z0-9]+/[A-Za-z0-9]{16,}`,
			Severity:   detector.SeverityWarning,
			Confidence: 1.0,
			Keywords:   []string{"hooks.slack.com"},
		},
		{
			ID:         "stripe-live-key",
			Category:   "Stripe API Key",
			Pattern:    `\b(?:sk|rk)_live_[0-9a-zA-Z]{24,99}\b`,
			Severity:   detector.SeverityCritical,
			Confidence: 1.0,
			Keywords:   []string{"_live_"},
		},
		{
			ID:         "stripe-test-key",
			Category:   "Stripe API Key",
			Pattern:    `\b(?:sk|rk)_test_[0-9a-zA-Z]{24,99}\b`,
			Severity:   detector.SeverityWarning,
			Confidence: 1.0,
			Keywords:   []string{"_test_"},
		},
		{
			ID:         "google-api-key",
			Category:   "Google API Key",
			Pattern:    `\bAIza[0-9A-Za-z_-]{35}`,
			Severity:   detector.SeverityCritical,
			Confidence: 1.0,
			Keywords:   []string{"aiza"},
		},
		{
			ID:         "jwt",
			Category:   "JSON Web Token",
			Pattern:    `\beyJ[A-Za-z0-9_-]{5,}\.eyJ[A-Za-z0-9_-]{5,}\.[A-Za-z0-9_-]{10,}`,
			Severity:   detector.SeverityWarning,
			Confidence: 0.9,
			Keywords:   []string{"eyj"},
		},
		{
			ID:         "docker-pat",
			Category:   "Docker Hub Token",
			Pattern:    `\bdckr_pat_[A-Za-z0-9_-]{27,}`,
			Severity:   detector.SeverityCritical,
			Confidence: 1.0,
			Keywords:   []string{"dckr_pat_"},
		},
		{
			ID:         "npm-token",
			Category:   "npm Token",
			Pattern:    `\bnpm_[A-Za-z0-9]{36}\b`,
			Severity:   detector.SeverityCritical,
			Confidence: 1.0,
			Keywords:   []string{"npm_"},
		},
		{
			ID:         "sendgrid-api-key",
			Category:   "SendGrid API Key",
			Pattern:    `\bSG\.[A-Za-z0-9_-]{22}\.[A-Za-z0-9_-]{43}\b`,
			Severity:   detector.SeverityCritical,
			Confidence: 1.0,
			Keywords:   []string{"sg."},
		},
		{
			ID:         "database-connection-string",
			Category:   "Database Connection String",
			Pattern:    `(?i)\b(?:postgres(?:ql)?|mysql|mongodb(?:\+srv)?|redis|rediss|amqps?|mssql|sqlserver)://[^\s'"/:@]+:[^\s'"@]+@[^\s'"]+`,
			Severity:   detector.SeverityCritical,
			Confidence: 0.9,
			Keywords:   []string{"postgres", "mysql", "mongodb", "redis", "amqp", "mssql", "sqlserver"},
		},
		{
			ID:          "password-in-url",
			Category:    "Password in URL",
			Pattern:     `\b[a-zA-Z][a-zA-Z0-9+.-]*://[^\s'"/:@]+:([^\s'"/:@]{3,})@`,
			Severity:    detector.SeverityCritical,
			Confidence:  0.9,
			Keywords:    []string{"://"},
			SecretGroup: 1,
		},
		{
			ID:          "generic-password-assignment",
			Category:    "Generic Password Assignment",
			Pattern:     `(?i)\b[\w.-]*(?:password|passwd|pwd|secret|api_?key|token)[\w.-]*["']?\s*[:=]\s*["']([^"'\s]{8,})["']`,
			Severity:    detector.SeverityWarning,
			Confidence:  0.7,
			Keywords:    []string{"password", "passwd", "pwd", "secret", "api_key", "apikey", "token"},
			SecretGroup: 1,
		},
	}
}
