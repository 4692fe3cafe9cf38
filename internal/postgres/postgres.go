// Package postgres implements the persistence interfaces against
// PostgreSQL through the shared pgx pool. Hot-path queries run as
// prepared statements registered in internal/db; multi-row mutations
// run in transactions so the game mirror, ledger, and winner rows can
// never drift apart.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gridpools/scorewire/internal/db"
	"github.com/gridpools/scorewire/internal/ledger"
	"github.com/gridpools/scorewire/internal/squares"
)

// Store runs all reads and writes through one connection pool.
type Store struct {
	db *db.Pool
}

// New wraps the pool in a store.
func New(pool *db.Pool) *Store {
	return &Store{db: pool}
}

// HealthCheck runs the prepared liveness query against the pool.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

// execer lets transaction-scoped helpers run on either the pool or an
// open pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// uniqueViolation reports whether err is a unique constraint failure.
func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// foreignKeyViolation reports whether err is a foreign key failure,
// which surfaces as ErrNotFound for the referenced record.
func foreignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// --------------------------------------------------------------------------
// Column conversions
// --------------------------------------------------------------------------

func markersToSQL(ms []squares.Checkpoint) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = string(m)
	}
	return out
}

func markersFromSQL(ss []string) []squares.Checkpoint {
	if len(ss) == 0 {
		return nil
	}
	out := make([]squares.Checkpoint, len(ss))
	for i, s := range ss {
		out[i] = squares.Checkpoint(s)
	}
	return out
}

// digitsParam renders a digit assignment as an int array parameter,
// NULL while the pool is unlocked.
func digitsParam(d squares.Digits, locked bool) any {
	if !locked {
		return nil
	}
	out := make([]int64, len(d))
	for i, v := range d {
		out[i] = int64(v)
	}
	return out
}

func digitsFromSQL(vals []int64) (squares.Digits, error) {
	var d squares.Digits
	if len(vals) != len(d) {
		return d, fmt.Errorf("digit column has %d entries, want %d", len(vals), len(d))
	}
	for i, v := range vals {
		d[i] = int(v)
	}
	return d, nil
}

// notFound converts pgx's no-rows sentinel to the shared ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.ErrNotFound
	}
	return err
}
