// Package db opens the Postgres store backing the directory, contact,
// call-session, and history collections, and embeds the schema migrations.
package db

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrUnavailable marks a store call that failed or timed out. Services wrap
// repository failures in it so callers can tell a typed rejection from an
// unreachable store. Retrying is the caller's decision; initiate is not
// retried automatically because a retry could create a second session.
var ErrUnavailable = errors.New("store unavailable")

// Unavailable wraps err in ErrUnavailable, preserving the cause in the message.
func Unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// Open opens a Postgres connection pool using the given DSN. Caller must call Close when done.
func Open(dsn string) (*sql.DB, error) {
	pool, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return pool, nil
}
