package lock

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Advisory is a TryLocker backed by Postgres session advisory locks.
// Each held lock pins one pooled connection: pg_advisory_unlock must
// run on the session that took the lock, so the connection is only
// returned to the pool on release. Lock keys are derived from the name
// with hashtext, matching how other sessions would compete for it.
type Advisory struct {
	pool *pgxpool.Pool
}

// NewAdvisory creates an advisory-lock TryLocker on the given pool.
func NewAdvisory(pool *pgxpool.Pool) *Advisory {
	return &Advisory{pool: pool}
}

// TryAcquire implements TryLocker.
func (a *Advisory) TryAcquire(ctx context.Context, name string) (func(), bool, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var locked bool
	err = conn.QueryRow(ctx, "SELECT pg_try_advisory_lock(hashtext($1)::bigint)", name).Scan(&locked)
	if err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock %q: %w", name, err)
	}
	if !locked {
		conn.Release()
		return nil, false, nil
	}

	release := func() {
		// Background context: release must run even when the caller's
		// context is already cancelled.
		_, _ = conn.Exec(context.Background(), "SELECT pg_advisory_unlock(hashtext($1)::bigint)", name)
		conn.Release()
	}
	return release, true, nil
}
