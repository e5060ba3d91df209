package database

import (
	"context"
	"database/sql"
)

// Session is one unit of work: a single transaction on a single pooled
// connection, bounded by WithSession. It is not safe for concurrent use.
type Session struct {
	conn *sql.Conn
	tx   *sql.Tx
	done bool
}

// ExecContext runs a statement inside the session's transaction.
func (s *Session) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.tx.ExecContext(ctx, query, args...)
}

// QueryContext runs a query inside the session's transaction.
func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.tx.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query inside the session's transaction.
func (s *Session) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.tx.QueryRowContext(ctx, query, args...)
}

// commit finishes the transaction. Further commit/rollback calls are no-ops.
func (s *Session) commit() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.tx.Commit()
}

// rollback abandons the transaction. Safe to call after commit.
func (s *Session) rollback() {
	if s.done {
		return
	}
	s.done = true
	_ = s.tx.Rollback()
}

// release rolls back any unfinished transaction and returns the
// connection to the pool. It runs on every WithSession exit path and is
// idempotent.
func (s *Session) release() {
	s.rollback()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}
