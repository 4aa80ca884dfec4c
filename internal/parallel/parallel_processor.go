// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"runtime"
	"time"

	"leakguard/internal/observability"
)

// MaxDefaultWorkers caps the pool size chosen when none is configured
const MaxDefaultWorkers = 8

// ParallelProcessor fans jobs out to a worker pool and folds the results back
// on the calling goroutine
type ParallelProcessor[R any] struct {
	workers  int
	observer *observability.StandardObserver
}

// ProcessingStats tracks parallel processing statistics
type ProcessingStats struct {
	TotalJobs     int           `json:"total_jobs"`
	ProcessedJobs int           `json:"processed_jobs"`
	FailedJobs    int           `json:"failed_jobs"`
	TotalDuration time.Duration `json:"total_duration_ms"`
	WorkerCount   int           `json:"worker_count"`
	AvgJobTime    time.Duration `json:"avg_job_time_ms"`
}

// ProgressCallback is called when a job is completed
type ProgressCallback func(completed, total int, current string)

// CollectFunc receives every result. It is only ever called from the goroutine
// running ProcessFiles, so it may mutate state without locking.
type CollectFunc[R any] func(result *Result[R])

// NewParallelProcessor creates a new parallel processor. A non-positive worker
// count selects the number of CPUs, capped at MaxDefaultWorkers.
func NewParallelProcessor[R any](workers int, observer *observability.StandardObserver) *ParallelProcessor[R] {
	if workers < 1 {
		workers = min(runtime.NumCPU(), MaxDefaultWorkers)
	}
	if observer == nil {
		observer = observability.Nop()
	}

	return &ParallelProcessor[R]{
		workers:  workers,
		observer: observer,
	}
}

// Workers returns the configured pool size
func (pp *ParallelProcessor[R]) Workers() int {
	return pp.workers
}

// ProcessFiles processes jobs in parallel without a progress callback
func (pp *ParallelProcessor[R]) ProcessFiles(ctx context.Context, jobs []Job, process ProcessFunc[R], collect CollectFunc[R]) (*ProcessingStats, error) {
	return pp.ProcessFilesWithProgress(ctx, jobs, process, collect, nil)
}

// ProcessFilesWithProgress runs process for every job and hands each result to
// collect. When ctx is cancelled submission stops, in-flight jobs finish, their
// results are discarded and the context error is returned.
func (pp *ParallelProcessor[R]) ProcessFilesWithProgress(ctx context.Context, jobs []Job, process ProcessFunc[R], collect CollectFunc[R], progressCallback ProgressCallback) (*ProcessingStats, error) {
	start := time.Now()
	finishTiming := pp.observer.StartTiming("parallel_processor", "process_files", "batch")

	pool := NewWorkerPool[R](ctx, pp.workers, process, pp.observer)
	pool.Start()

	// Submit jobs in a separate goroutine so the collector below keeps draining
	go func() {
		defer pool.Close()
		for i := range jobs {
			if err := pool.Submit(&jobs[i]); err != nil {
				return
			}
		}
	}()

	stats := &ProcessingStats{
		TotalJobs:   len(jobs),
		WorkerCount: pool.Workers(),
	}
	jobTime := time.Duration(0)
	completed := 0

	for result := range pool.Results() {
		completed++
		if ctx.Err() != nil {
			continue
		}

		if result.Error != nil {
			stats.FailedJobs++
		} else {
			stats.ProcessedJobs++
		}
		jobTime += result.Duration
		collect(result)

		if progressCallback != nil {
			progressCallback(completed, len(jobs), result.Path)
		}
	}

	stats.TotalDuration = time.Since(start)
	stats.AvgJobTime = jobTime / time.Duration(max(stats.ProcessedJobs+stats.FailedJobs, 1))

	err := ctx.Err()
	finishTiming(err == nil, map[string]interface{}{
		"total_jobs":     stats.TotalJobs,
		"processed_jobs": stats.ProcessedJobs,
		"failed_jobs":    stats.FailedJobs,
		"worker_count":   stats.WorkerCount,
	})

	return stats, err
}
