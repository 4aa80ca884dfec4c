// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"strings"
	"time"

	"leakguard/internal/core"
	"leakguard/internal/detector"
	"leakguard/internal/formatters"

	"github.com/docker/go-units"
	"github.com/fatih/color"
)

const (
	categoryWidth = 28
	previewWidth  = 24
)

// Formatter implements text-based output formatting
type Formatter struct {
	colors map[string]*color.Color
}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{
		colors: map[string]*color.Color{
			"green":   color.New(color.FgGreen),
			"yellow":  color.New(color.FgYellow),
			"red":     color.New(color.FgRed, color.Bold),
			"cyan":    color.New(color.FgCyan),
			"magenta": color.New(color.FgMagenta),
			"blue":    color.New(color.FgBlue),
			"white":   color.New(color.FgWhite, color.Bold),
			"dim":     color.New(color.Faint),
		},
	}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable text output with colors and a summary"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

func (f *Formatter) Format(result *core.Result, options formatters.FormatterOptions) (string, error) {
	if result == nil {
		return "", fmt.Errorf("no scan result to format")
	}

	var builder strings.Builder

	switch {
	case len(result.Findings) == 0:
		builder.WriteString(f.paint(options, "green", "No secrets found.") + "\n")
	case options.Verbose:
		for _, finding := range result.Findings {
			f.appendDetailedFinding(&builder, finding, false, options)
		}
	default:
		f.appendHeaders(&builder, options)
		for _, finding := range result.Findings {
			f.appendSummaryLine(&builder, finding, false, options)
		}
	}

	if options.ShowSuppressed && len(result.Suppressed) > 0 {
		builder.WriteString("\n" + f.paint(options, "white", "Suppressed findings") + "\n")
		for _, finding := range result.Suppressed {
			if options.Verbose {
				f.appendDetailedFinding(&builder, finding, true, options)
				continue
			}
			f.appendSummaryLine(&builder, finding, true, options)
		}
	}

	f.appendDiagnostics(&builder, result, options)
	f.appendStatistics(&builder, result, options)
	return builder.String(), nil
}

// paint colours text unless colours are disabled
func (f *Formatter) paint(options formatters.FormatterOptions, name, text string) string {
	if options.NoColor {
		return text
	}
	return f.colors[name].Sprint(text)
}

func severityColor(severity detector.Severity) string {
	switch severity {
	case detector.SeverityCritical:
		return "red"
	case detector.SeverityWarning:
		return "yellow"
	}
	return "green"
}

// appendHeaders adds column headers to the string builder
func (f *Formatter) appendHeaders(builder *strings.Builder, options formatters.FormatterOptions) {
	header := fmt.Sprintf("%-10s %-*s %-6s %-10s %-*s %s",
		"SEVERITY", categoryWidth, "CATEGORY", "CONF%", "LINE", previewWidth, "PREVIEW", "FILE")
	builder.WriteString(f.paint(options, "white", header) + "\n")
	builder.WriteString(f.paint(options, "white", strings.Repeat("-", len(header))) + "\n")
}

// appendSummaryLine adds a single line summary to the string builder
func (f *Formatter) appendSummaryLine(builder *strings.Builder, finding detector.Finding, suppressed bool, options formatters.FormatterOptions) {
	level := fmt.Sprintf("[%-8s]", finding.Severity.String())
	levelStr := f.paint(options, severityColor(finding.Severity), level)
	if suppressed {
		levelStr = f.paint(options, "dim", fmt.Sprintf("[%-8s]", "SUPP"))
	}

	category := truncate(finding.Category, categoryWidth)
	categoryStr := f.paint(options, "cyan", fmt.Sprintf("%-*s", categoryWidth, category))

	confidenceStr := f.paint(options, "blue", fmt.Sprintf("%5.0f%%", finding.Confidence*100))
	lineStr := f.paint(options, "magenta", fmt.Sprintf("line %5d", finding.Line))
	previewStr := fmt.Sprintf("%-*s", previewWidth, truncate(finding.Preview, previewWidth))
	fileStr := f.paint(options, "white", finding.Path)

	fmt.Fprintf(builder, "%s %s %s %s %s %s\n",
		levelStr,
		categoryStr,
		confidenceStr,
		lineStr,
		previewStr,
		fileStr)
}

// appendDetailedFinding adds detailed finding information to the string builder
func (f *Formatter) appendDetailedFinding(builder *strings.Builder, finding detector.Finding, suppressed bool, options formatters.FormatterOptions) {
	title := "=== Finding ==="
	if suppressed {
		title = "=== Suppressed Finding ==="
	}
	builder.WriteString(f.paint(options, "white", title) + "\n")

	location := fmt.Sprintf("line %d", finding.Line)
	if finding.EndLine > finding.Line {
		location = fmt.Sprintf("lines %d-%d", finding.Line, finding.EndLine)
	}
	fmt.Fprintf(builder, "%s %s %s %s\n",
		f.paint(options, "cyan", "Found in"),
		f.paint(options, "white", finding.Path),
		f.paint(options, "cyan", "on"),
		f.paint(options, "magenta", location))

	f.appendField(builder, options, "Category", finding.Category)
	f.appendField(builder, options, "Severity",
		f.paint(options, severityColor(finding.Severity), finding.Severity.String()))
	f.appendField(builder, options, "Confidence", fmt.Sprintf("%.2f", finding.Confidence))
	f.appendField(builder, options, "Preview", finding.Preview)
	f.appendField(builder, options, "Columns", fmt.Sprintf("%d-%d", finding.StartOffset, finding.EndOffset))
	if finding.RuleID != "" {
		f.appendField(builder, options, "Rule", fmt.Sprintf("%s (%s)", finding.RuleID, finding.Origin))
	}
	f.appendField(builder, options, "Strategies", strings.Join(finding.Strategies, ", "))
	f.appendField(builder, options, "Fingerprint", finding.Fingerprint)
	builder.WriteString("\n")
}

func (f *Formatter) appendField(builder *strings.Builder, options formatters.FormatterOptions, label, value string) {
	fmt.Fprintf(builder, "%s %s\n", f.paint(options, "cyan", label+":"), value)
}

// appendDiagnostics lists every diagnostic in verbose mode and a count otherwise
func (f *Formatter) appendDiagnostics(builder *strings.Builder, result *core.Result, options formatters.FormatterOptions) {
	if len(result.Diagnostics) == 0 {
		return
	}

	builder.WriteString("\n")
	if !options.Verbose {
		fmt.Fprintf(builder, "%s %d problem(s) reported, rerun with --verbose for details\n",
			f.paint(options, "yellow", "Diagnostics:"), len(result.Diagnostics))
		return
	}

	builder.WriteString(f.paint(options, "yellow", "Diagnostics:") + "\n")
	for _, d := range result.Diagnostics {
		subject := d.Path
		if subject == "" {
			subject = d.Source
		}
		if subject != "" {
			fmt.Fprintf(builder, "  - [%s] %s: %s\n", d.Kind, subject, d.Message)
			continue
		}
		fmt.Fprintf(builder, "  - [%s] %s\n", d.Kind, d.Message)
	}
}

// appendStatistics writes the scan summary
func (f *Formatter) appendStatistics(builder *strings.Builder, result *core.Result, options formatters.FormatterOptions) {
	stats := result.Statistics

	builder.WriteString("\n" + f.paint(options, "white", "Summary") + "\n")
	fmt.Fprintf(builder, "  Files:    %d evaluated, %d included, %d excluded, %d unreadable\n",
		stats.FilesEvaluated, stats.FilesIncluded, stats.FilesExcluded, stats.FilesUnreadable)
	fmt.Fprintf(builder, "  Lines:    %d scanned, %d excluded\n", stats.LinesScanned, stats.LinesExcluded)

	var counts []string
	for _, severity := range detector.Severities() {
		name := severity.String()
		counts = append(counts, f.paint(options, severityColor(severity),
			fmt.Sprintf("%d %s", stats.FindingsBySeverity[name], strings.ToLower(name))))
	}
	fmt.Fprintf(builder, "  Findings: %s", strings.Join(counts, ", "))
	if stats.Suppressed > 0 {
		fmt.Fprintf(builder, " (%d suppressed)", stats.Suppressed)
	}
	builder.WriteString("\n")

	elapsed := units.HumanDuration(time.Duration(stats.ElapsedMillis) * time.Millisecond)
	if stats.ElapsedMillis < 1000 {
		elapsed = fmt.Sprintf("%dms", stats.ElapsedMillis)
	}
	fmt.Fprintf(builder, "  Elapsed:  %s\n", elapsed)
}

// truncate shortens s to width runes, marking the cut with "..."
func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
