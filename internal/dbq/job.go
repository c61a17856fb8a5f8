// Package dbq implements the asynchronous DB query layer of spec.md §4.B:
// a session submits a DbQueryJob with a strongly-typed Input, a worker pool
// runs it, and exactly one completion is posted back — never touched by
// more than one goroutine, never blocking the caller's event-loop thread.
//
// Grounded on golang.org/x/sync/errgroup's supervised-goroutine idiom
// (cmd/gameserver/main.go in la2go: `g, gctx := errgroup.WithContext(ctx);
// g.Go(...); g.Wait()`), generalized from "one goroutine per long-running
// subsystem" into "N worker goroutines draining one job queue". The
// teacher's own DB layer (internal/db/db.go) calls pgxpool synchronously
// inline in the handler; this package is new work, not adapted from an
// existing teacher file, because spec.md §4.B requires an async
// job/worker-pool contract the teacher doesn't have.
package dbq

import (
	"context"

	"github.com/google/uuid"
)

// Status is the outcome of a completed job, per spec.md §4.B: "a status
// code in {OK, Canceled, DbError}".
type Status int

const (
	StatusOK Status = iota
	StatusCanceled
	StatusDbError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusCanceled:
		return "CANCELED"
	case StatusDbError:
		return "DB_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Result is the single callback payload delivered to the submitting
// session's event-loop thread.
type Result[Output any] struct {
	JobID  uuid.UUID
	Status Status
	Rows   []Output
	Err    error
}

// Definition is the strongly-typed contract a query type implements
// (spec.md §9 "each query type is a value describing (param_binders,
// column_binders, per_row_hook, pre_hook)").
type Definition[Input, Output any] interface {
	// PreProcess may veto the entire job before any query runs — used to
	// reject `@`-prefixed account names, and to derive the salted-MD5-hex
	// parameter from the plaintext password prior to binding (spec.md
	// §4.B). input is a pointer so PreProcess can fill in derived fields
	// Execute will read. Returning false short-circuits Execute/RowDone and
	// yields a zero-row StatusOK result.
	PreProcess(input *Input) bool

	// Execute runs the query and returns the raw rows; it is the only
	// method that may block on I/O, and must respect ctx cancellation.
	Execute(ctx context.Context, input *Input) ([]Output, error)

	// RowDone runs on the worker for each row and may veto it (drop it
	// before delivery). It receives the same input PreProcess populated —
	// e.g. DB_Account's per-row acceptance needs the password hash
	// PreProcess derived to compare against the row's stored hash — so a
	// single stateless Definition can serve every job without smuggling
	// per-request state onto the Definition itself. This is deliberately a
	// row-accept signal only — spec.md §9's "Open question" about the
	// original's dual-purpose onRowDone (accept-but-stop vs reject-and-stop)
	// is resolved here by giving PreProcess sole responsibility for
	// whole-job rejection and RowDone sole responsibility for per-row
	// filtering.
	RowDone(input *Input, row Output) bool
}
