package dbq

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// runnable erases a Job's Input/Output types so Pool can hold a single
// channel of heterogeneous job types (Go generics can't express a
// homogeneous channel of Job[I, O] for varying I/O without this).
type runnable interface {
	run(ctx context.Context)
}

// Pool is the bounded worker pool of spec.md §5 "Worker pool. DB queries
// execute on a bounded worker pool. A worker only touches its own
// Input/Output buffers; completion is posted back to the event-loop
// thread."
type Pool struct {
	jobs   chan runnable
	g      *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool starts workers workers, each draining the shared job queue until
// parent is canceled or Close is called. The jobs channel is never closed
// (only the context is canceled on Close) so a racing Submit can never hit
// a send-on-closed-channel panic.
func NewPool(parent context.Context, workers int) *Pool {
	ctx, cancel := context.WithCancel(parent)
	g, gctx := errgroup.WithContext(ctx)
	p := &Pool{
		jobs:   make(chan runnable, workers*4),
		g:      g,
		ctx:    gctx,
		cancel: cancel,
	}

	for range workers {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case job := <-p.jobs:
					job.run(gctx)
				}
			}
		})
	}

	return p
}

// Submit enqueues job for execution. It does not block on the job running
// to completion — only on queue capacity — so the caller's event-loop
// thread is never blocked on DB I/O (spec.md §5 "Suspension points").
func (p *Pool) Submit(job runnable) error {
	if p.ctx.Err() != nil {
		return fmt.Errorf("submitting job: pool closed: %w", p.ctx.Err())
	}
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("submitting job: pool closed: %w", p.ctx.Err())
	}
}

// Close stops accepting new jobs and waits for in-flight workers to drain.
func (p *Pool) Close() error {
	p.cancel()
	return p.g.Wait()
}

// Job is one DbQueryJob<Definition> instance (spec.md §4.B). Done receives
// exactly one Result; the caller's event-loop goroutine must be the only
// reader.
type Job[Input, Output any] struct {
	ID         uuid.UUID
	Input      Input
	Definition Definition[Input, Output]
	Done       chan Result[Output]
}

// NewJob creates a job with a fresh correlation id and a buffered Done
// channel (buffered so run() never blocks if the caller stops listening —
// e.g. after the session has already been canceled).
func NewJob[Input, Output any](input Input, def Definition[Input, Output]) *Job[Input, Output] {
	return &Job[Input, Output]{
		ID:         uuid.New(),
		Input:      input,
		Definition: def,
		Done:       make(chan Result[Output], 1),
	}
}

func (j *Job[Input, Output]) run(ctx context.Context) {
	if ctx.Err() != nil {
		j.deliver(Result[Output]{JobID: j.ID, Status: StatusCanceled})
		return
	}

	if !j.Definition.PreProcess(&j.Input) {
		j.deliver(Result[Output]{JobID: j.ID, Status: StatusOK})
		return
	}

	rows, err := j.Definition.Execute(ctx, &j.Input)
	if ctx.Err() != nil {
		j.deliver(Result[Output]{JobID: j.ID, Status: StatusCanceled})
		return
	}
	if err != nil {
		j.deliver(Result[Output]{JobID: j.ID, Status: StatusDbError, Err: fmt.Errorf("executing query: %w", err)})
		return
	}

	accepted := make([]Output, 0, len(rows))
	for _, row := range rows {
		if j.Definition.RowDone(&j.Input, row) {
			accepted = append(accepted, row)
		}
	}

	j.deliver(Result[Output]{JobID: j.ID, Status: StatusOK, Rows: accepted})
}

// deliver posts the result without blocking: Done is always buffered by
// one, and a canceled session's abandoned channel simply never gets read,
// which is the "must not touch the dead session" requirement of spec.md
// §4.B — nothing here reaches back into session state.
func (j *Job[Input, Output]) deliver(result Result[Output]) {
	select {
	case j.Done <- result:
	default:
	}
}

// Cancel marks the job dead from the submitter's side: it does not stop an
// already-running query, but callers that tear down a session should stop
// reading Done afterward, which combined with deliver's non-blocking send
// satisfies spec.md §5's cancellation contract without needing a shared
// mutable flag.
func (j *Job[Input, Output]) Cancel() {
	j.deliver(Result[Output]{JobID: j.ID, Status: StatusCanceled})
}

// Submit is a type-safe convenience wrapper around Pool.Submit for a
// generic Job.
func Submit[Input, Output any](p *Pool, job *Job[Input, Output]) error {
	return p.Submit(job)
}
