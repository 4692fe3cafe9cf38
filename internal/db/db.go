// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gridpools/scorewire/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers the statements the poll scheduler and
// ledger service run on every cycle. Prepared statements eliminate parse
// overhead on the hot paths; one-off admin queries stay inline.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Poller: candidate selection, cadence, and leases
		"pollable_events": "SELECT id, sport, label, event_type, provider, external_ref, start_time, status, metadata, created_at, updated_at FROM events WHERE provider = 'external' AND status NOT IN ('final', 'cancelled') ORDER BY start_time, id",
		"event_state":     "SELECT event_id, home_team, away_team, home_score, away_score, period, game_clock, halftime, current_round, round_status, leaderboard, last_provider_update, updated_at FROM event_states WHERE event_id = $1",
		"worker_lease":    "SELECT event_id, worker_id, acquired_at, expires_at, last_poll_at FROM worker_leases WHERE event_id = $1",
		"tracked_games":   "SELECT g.id, g.pool_id, g.event_id, g.home_team, g.away_team, g.home_score, g.away_score, g.status, g.quarter_scores, g.created_at, g.updated_at, p.mode FROM games g JOIN pools p ON p.id = g.pool_id WHERE g.event_id = $1 ORDER BY g.id",
		"game_markers":    "SELECT markers FROM score_changes WHERE game_id = $1 AND cardinality(markers) > 0",

		// Ledger hot path
		"latest_change":  "SELECT id, game_id, home_score, away_score, change_order, markers, created_at FROM score_changes WHERE game_id = $1 ORDER BY change_order DESC LIMIT 1",
		"list_changes":   "SELECT id, game_id, home_score, away_score, change_order, markers, created_at FROM score_changes WHERE game_id = $1 ORDER BY change_order",
		"square_by_cell": "SELECT id, pool_id, row_index, col_index, claimed_by, created_at FROM pool_squares WHERE pool_id = $1 AND row_index = $2 AND col_index = $3",

		// API reads
		"game_by_id":    "SELECT id, pool_id, event_id, home_team, away_team, home_score, away_score, status, quarter_scores, created_at, updated_at FROM games WHERE id = $1",
		"pool_by_id":    "SELECT id, label, sport, mode, reverse_scoring, locked, row_digits, col_digits, locked_at, created_at, updated_at FROM pools WHERE id = $1",
		"event_by_id":   "SELECT id, sport, label, event_type, provider, external_ref, start_time, status, metadata, created_at, updated_at FROM events WHERE id = $1",
		"game_winners":  "SELECT id, game_id, square_id, row_index, col_index, win_checkpoint, win_direction, payout_ref, label, created_at FROM winners WHERE game_id = $1 ORDER BY payout_ref, win_direction",
		"pool_squares":  "SELECT id, pool_id, row_index, col_index, claimed_by, created_at FROM pool_squares WHERE pool_id = $1 ORDER BY row_index, col_index",
		"games_by_pool": "SELECT id, pool_id, event_id, home_team, away_team, home_score, away_score, status, quarter_scores, created_at, updated_at FROM games WHERE pool_id = $1 ORDER BY id",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
