// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"leakguard/internal/observability"
)

// Job is one unit of work, usually a single file
type Job struct {
	Index int
	Path  string
}

// ProcessFunc handles a single job. It must not share mutable state with other
// jobs; everything it produces travels back in the returned value.
type ProcessFunc[R any] func(ctx context.Context, job *Job) (R, error)

// Result is the outcome of one job
type Result[R any] struct {
	Index    int
	Path     string
	Value    R
	Error    error
	Duration time.Duration
}

// WorkerPool runs jobs on a fixed number of goroutines
type WorkerPool[R any] struct {
	workers   int
	process   ProcessFunc[R]
	jobs      chan *Job
	results   chan *Result[R]
	wg        sync.WaitGroup
	ctx       context.Context
	observer  *observability.StandardObserver
	closeOnce sync.Once
}

// NewWorkerPool creates a new worker pool. Jobs submitted after ctx is done are
// rejected; jobs already queued are reported with the context error.
func NewWorkerPool[R any](ctx context.Context, workers int, process ProcessFunc[R], observer *observability.StandardObserver) *WorkerPool[R] {
	if workers < 1 {
		workers = 1
	}
	if observer == nil {
		observer = observability.Nop()
	}

	return &WorkerPool[R]{
		workers:  workers,
		process:  process,
		jobs:     make(chan *Job, workers*2),
		results:  make(chan *Result[R], workers*2),
		ctx:      ctx,
		observer: observer,
	}
}

// Workers returns the pool size
func (wp *WorkerPool[R]) Workers() int {
	return wp.workers
}

// Start starts the worker pool. The results channel is closed once every
// worker has exited, which happens after Close.
func (wp *WorkerPool[R]) Start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}

	go func() {
		wp.wg.Wait()
		close(wp.results)
	}()
}

// Close signals that no more jobs will be submitted
func (wp *WorkerPool[R]) Close() {
	wp.closeOnce.Do(func() { close(wp.jobs) })
}

// Submit queues a job, blocking while the queue is full
func (wp *WorkerPool[R]) Submit(job *Job) error {
	if err := wp.ctx.Err(); err != nil {
		return err
	}

	select {
	case wp.jobs <- job:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// Results returns the results channel. Callers must drain it until closed.
func (wp *WorkerPool[R]) Results() <-chan *Result[R] {
	return wp.results
}

// worker processes jobs from the queue
func (wp *WorkerPool[R]) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobs {
		wp.results <- wp.processJob(job, id)
	}
}

// processJob executes a single job and isolates panics to that job
func (wp *WorkerPool[R]) processJob(job *Job, workerID int) (result *Result[R]) {
	start := time.Now()
	result = &Result[R]{Index: job.Index, Path: job.Path}

	if err := wp.ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	finishTiming := wp.observer.StartTiming("worker_pool", "process_job", job.Path)

	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("panic processing %s: %v", job.Path, r)
		}
		result.Duration = time.Since(start)
		finishTiming(result.Error == nil, map[string]interface{}{
			"worker_id": workerID,
			"had_error": result.Error != nil,
		})
	}()

	result.Value, result.Error = wp.process(wp.ctx, job)
	return result
}
