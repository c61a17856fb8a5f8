// Package store is the pgx-backed half of spec.md §4.B's async DB query
// layer: a connection pool plus the concrete dbq.Definition implementations
// (DB_Account, DB_UpdateLastServerIdx, DB_SecurityNoCheck). DB_Account runs
// the query text from internal/config's sql.db_account block (spec.md §6)
// with the login name as its single argument and scans columns by
// position; the other two use SQL written in Go.
//
// Grounded on internal/db/db.go (la2go) for the pgxpool lifecycle (New/
// Close/Ping) — the teacher calls pgxpool synchronously inline in its
// handler; here the pool is only ever touched from inside a dbq.Pool
// worker goroutine, never from the event-loop thread.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps the pgx connection pool shared by every query Definition.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to PostgreSQL and verifies connectivity with a ping.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases every pooled connection. Call only after the dbq.Pool
// feeding on this Store has been closed and drained.
func (s *Store) Close() {
	s.pool.Close()
}

// Pool exposes the underlying pgx pool for test fixtures and maintenance
// tasks outside the async query layer, mirroring internal/db/db.go's
// DB.Pool() accessor (la2go).
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}
