// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"leakguard/internal/aggregator"
	"leakguard/internal/config"
	"leakguard/internal/detector"
	"leakguard/internal/diagnostics"
	"leakguard/internal/filters"
	"leakguard/internal/observability"
	"leakguard/internal/parallel"
	"leakguard/internal/suppressions"

	"github.com/google/uuid"
)

// ErrStrictConfiguration is returned when strict mode turns configuration
// errors into a failed scan
var ErrStrictConfiguration = errors.New("configuration errors in strict mode")

// Statistics are the aggregate counters of one scan. FilesEvaluated counts
// every enumerated file; each one ends up either included or excluded.
// Included files that could not be read are counted as unreadable, the rest
// as scanned.
type Statistics struct {
	FilesEvaluated     int            `json:"filesEvaluated" yaml:"filesEvaluated"`
	FilesIncluded      int            `json:"filesIncluded" yaml:"filesIncluded"`
	FilesExcluded      int            `json:"filesExcluded" yaml:"filesExcluded"`
	FilesUnreadable    int            `json:"filesUnreadable" yaml:"filesUnreadable"`
	FilesScanned       int            `json:"filesScanned" yaml:"filesScanned"`
	LinesScanned       int            `json:"linesScanned" yaml:"linesScanned"`
	LinesExcluded      int            `json:"linesExcluded" yaml:"linesExcluded"`
	FindingsBySeverity map[string]int `json:"findingsBySeverity" yaml:"findingsBySeverity"`
	Suppressed         int            `json:"suppressed" yaml:"suppressed"`
	ElapsedMillis      int64          `json:"elapsedMillis" yaml:"elapsedMillis"`
}

func newStatistics() Statistics {
	bySeverity := make(map[string]int)
	for _, s := range detector.Severities() {
		bySeverity[s.String()] = 0
	}
	return Statistics{FindingsBySeverity: bySeverity}
}

// Result is everything a reporter needs from a scan
type Result struct {
	ScanID      string                   `json:"scanId" yaml:"scanId"`
	Root        string                   `json:"root" yaml:"root"`
	State       State                    `json:"state" yaml:"state"`
	Findings    []detector.Finding       `json:"findings" yaml:"findings"`
	Suppressed  []detector.Finding       `json:"suppressed,omitempty" yaml:"suppressed,omitempty"`
	Statistics  Statistics               `json:"statistics" yaml:"statistics"`
	Diagnostics []diagnostics.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
}

// FileResult is produced by one worker for one file and never modified after
type FileResult struct {
	Path          string
	Included      bool
	Decision      filters.Decision
	Unreadable    bool
	LinesScanned  int
	LinesExcluded int
	Findings      []detector.Finding
	Errors        []error
}

// Option configures a Scanner
type Option func(*Scanner)

// WithObserver sets the observer used for structured logging
func WithObserver(observer *observability.StandardObserver) Option {
	return func(s *Scanner) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// WithSuppressionManager applies fingerprint suppressions to the findings,
// taking precedence over Config.SuppressionsFile
func WithSuppressionManager(manager *suppressions.SuppressionManager) Option {
	return func(s *Scanner) {
		s.suppressions = manager
	}
}

// WithProgress registers a callback invoked once per completed file
func WithProgress(callback parallel.ProgressCallback) Option {
	return func(s *Scanner) {
		s.progress = callback
	}
}

// Scanner runs scans with a fixed configuration. It may be reused; every scan
// compiles the configuration afresh.
type Scanner struct {
	cfg          config.Config
	observer     *observability.StandardObserver
	suppressions *suppressions.SuppressionManager
	progress     parallel.ProgressCallback
}

// NewScanner creates a scanner for cfg. A nil cfg uses the defaults. The
// configuration is copied so later changes by the caller have no effect.
func NewScanner(cfg *config.Config, opts ...Option) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Scanner{
		cfg:      *cfg,
		observer: observability.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run holds the per-scan mutable state. Only the goroutine executing the scan
// touches it.
type run struct {
	scanner     *Scanner
	result      *Result
	diagnostics *diagnostics.Collector
	started     time.Time
}

func (s *Scanner) newRun(root string) *run {
	return &run{
		scanner: s,
		result: &Result{
			ScanID:     uuid.NewString(),
			Root:       root,
			State:      StateConfigured,
			Findings:   []detector.Finding{},
			Statistics: newStatistics(),
		},
		diagnostics: diagnostics.NewCollector(),
		started:     time.Now(),
	}
}

func (r *run) transition(to State) {
	from := r.result.State
	if !canTransition(from, to) {
		panic(fmt.Sprintf("invalid scan state transition %s -> %s", from, to))
	}
	r.result.State = to
	r.scanner.observer.Logger().Debug().
		Str("scan_id", r.result.ScanID).
		Stringer("from", from).
		Stringer("to", to).
		Msg("scan state")
}

// fail moves the scan to Failed and returns the partial result with err
func (r *run) fail(err error) (*Result, error) {
	r.transition(StateFailed)
	r.finish()
	r.scanner.observer.Logger().Error().
		Str("scan_id", r.result.ScanID).
		Err(err).
		Msg("scan failed")
	return r.result, err
}

func (r *run) finish() {
	r.result.Diagnostics = r.diagnostics.Diagnostics()
	r.result.Statistics.ElapsedMillis = time.Since(r.started).Milliseconds()
}

// Scan scans root, which may be a directory or a single file
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	r := s.newRun(root)

	eng, suppressor, err := r.configure()
	if err != nil {
		return r.fail(err)
	}

	info, err := os.Stat(root)
	if err != nil {
		r.transition(StateEnumerating)
		return r.fail(diagnostics.NewRootPathError(root, err))
	}

	if info.IsDir() {
		return r.execute(ctx, eng, suppressor, os.DirFS(root), ".")
	}
	if !info.Mode().IsRegular() {
		r.transition(StateEnumerating)
		return r.fail(diagnostics.NewRootPathError(root, errors.New("not a regular file or directory")))
	}
	return r.execute(ctx, eng, suppressor, os.DirFS(filepath.Dir(root)), filepath.Base(root))
}

// ScanFS scans every file of fsys. label names the root in the result.
func (s *Scanner) ScanFS(ctx context.Context, fsys fs.FS, label string) (*Result, error) {
	r := s.newRun(label)

	eng, suppressor, err := r.configure()
	if err != nil {
		return r.fail(err)
	}
	return r.execute(ctx, eng, suppressor, fsys, ".")
}

// configure compiles the configuration before any file is touched
func (r *run) configure() (*engine, *suppressions.SuppressionManager, error) {
	cfg := r.scanner.cfg
	eng, errs := compileConfig(&cfg)

	suppressor := r.scanner.suppressions
	if suppressor == nil && cfg.SuppressionsFile != "" {
		suppressor = suppressions.NewSuppressionManager(cfg.SuppressionsFile)
	}
	if suppressor != nil && suppressor.LoadError() != nil {
		errs = append(errs, diagnostics.NewConfigurationError("suppressions_file",
			"suppression rules not loaded", suppressor.LoadError()))
	}

	for _, err := range errs {
		r.scanner.observer.Logger().Warn().Err(err).Msg("configuration problem")
	}

	if len(errs) > 0 && cfg.Strict {
		r.diagnostics.AddAll(errs)
		return nil, nil, fmt.Errorf("%w: %w", ErrStrictConfiguration, errors.Join(errs...))
	}
	r.diagnostics.AddAll(errs)
	return eng, suppressor, nil
}

// execute walks start inside fsys and runs the per-file pipeline on a worker pool
func (r *run) execute(ctx context.Context, eng *engine, suppressor *suppressions.SuppressionManager, fsys fs.FS, start string) (*Result, error) {
	s := r.scanner
	finishTiming := s.observer.StartTiming("scanner", "scan", r.result.Root)

	r.transition(StateEnumerating)
	files, err := r.enumerate(fsys, start)
	if err != nil {
		finishTiming(false, nil)
		return r.fail(err)
	}
	if err := ctx.Err(); err != nil {
		finishTiming(false, nil)
		return r.fail(err)
	}

	r.transition(StateScanning)
	jobs := make([]parallel.Job, len(files))
	for i, name := range files {
		jobs[i] = parallel.Job{Index: i, Path: name}
	}

	perFile := make([][]detector.Finding, len(files))
	stats := &r.result.Statistics

	processor := parallel.NewParallelProcessor[*FileResult](eng.workers, s.observer)
	_, err = processor.ProcessFilesWithProgress(ctx, jobs,
		func(_ context.Context, job *parallel.Job) (*FileResult, error) {
			return eng.scanFile(fsys, job.Path), nil
		},
		func(res *parallel.Result[*FileResult]) {
			stats.FilesEvaluated++
			if res.Error != nil {
				r.diagnostics.Add(fmt.Errorf("%s: %w", res.Path, res.Error))
				return
			}
			fr := res.Value
			r.diagnostics.AddAll(fr.Errors)
			if !fr.Included {
				stats.FilesExcluded++
				return
			}
			stats.FilesIncluded++
			if fr.Unreadable {
				stats.FilesUnreadable++
				return
			}
			stats.FilesScanned++
			stats.LinesScanned += fr.LinesScanned
			stats.LinesExcluded += fr.LinesExcluded
			perFile[res.Index] = fr.Findings
		},
		s.progress)
	if err != nil {
		finishTiming(false, nil)
		return r.fail(err)
	}

	r.transition(StateAggregating)
	for _, findings := range perFile {
		r.result.Findings = append(r.result.Findings, findings...)
	}
	if suppressor != nil {
		kept, suppressed := suppressor.Apply(r.result.Findings)
		r.result.Findings = append([]detector.Finding{}, kept...)
		r.result.Suppressed = suppressed
		stats.Suppressed = len(suppressed)
	}
	for _, f := range r.result.Findings {
		stats.FindingsBySeverity[f.Severity.String()]++
	}

	r.transition(StateCompleted)
	r.finish()
	finishTiming(true, map[string]interface{}{
		"scan_id":        r.result.ScanID,
		"files_scanned":  stats.FilesScanned,
		"findings":       len(r.result.Findings),
		"files_excluded": stats.FilesExcluded,
	})
	return r.result, nil
}

// enumerate lists regular files below start in path order. Errors below the
// root become diagnostics; an unreadable root fails the scan.
func (r *run) enumerate(fsys fs.FS, start string) ([]string, error) {
	var files []string

	err := fs.WalkDir(fsys, start, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			if name == start {
				return diagnostics.NewRootPathError(r.result.Root, err)
			}
			r.diagnostics.Add(diagnostics.NewIOError(name, err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		switch {
		case d.Type().IsRegular():
			files = append(files, name)
		case d.Type()&fs.ModeSymlink != 0:
			// Linked directories are not followed; linked files are scanned
			info, err := fs.Stat(fsys, name)
			if err != nil {
				r.diagnostics.Add(diagnostics.NewIOError(name, err))
				return nil
			}
			if info.Mode().IsRegular() {
				files = append(files, name)
			}
		}
		return nil
	})
	if err != nil {
		var diagErr *diagnostics.Error
		if !errors.As(err, &diagErr) {
			err = diagnostics.NewRootPathError(r.result.Root, err)
		}
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// scanFile runs filter, detection, context and aggregation for one file. It
// only reads shared state.
func (e *engine) scanFile(fsys fs.FS, name string) *FileResult {
	result := &FileResult{Path: name}

	info, err := fs.Stat(fsys, name)
	if err != nil {
		result.Included = true
		result.Unreadable = true
		result.Errors = append(result.Errors, diagnostics.NewIOError(name, err))
		return result
	}

	file := &filters.File{
		Path: name,
		Ext:  path.Ext(name),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) {
			f, err := fsys.Open(name)
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}

	decision, errs := e.pipeline.ShouldIncludeFile(file)
	result.Decision = decision
	result.Errors = append(result.Errors, errs...)
	if !decision.Included() {
		return result
	}
	result.Included = true

	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		result.Unreadable = true
		result.Errors = append(result.Errors, diagnostics.NewIOError(name, err))
		return result
	}

	target := detector.NewScanTarget(name, name, content)
	target.IsTestPath = e.testPaths.IsTestPath(name)

	var raw []detector.RawMatch
	for n := 1; n <= target.LineCount(); n++ {
		lineDecision, errs := e.pipeline.ShouldIncludeLine(file, n, target.Line(n))
		result.Errors = append(result.Errors, errs...)
		if !lineDecision.Included() {
			result.LinesExcluded++
			continue
		}
		result.LinesScanned++

		var matches []detector.RawMatch
		for _, strategy := range e.strategies {
			matches = append(matches, strategy.Detect(target, n)...)
		}
		raw = append(raw, e.analyzer.Analyze(target, n, matches)...)
	}

	result.Findings = aggregator.Aggregate(target, raw, e.aggregate)
	return result
}
