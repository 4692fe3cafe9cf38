// Package maintenance runs periodic background tasks as Go tickers.
// All scheduled work is driven from the API process since it is already
// a persistent, long-running service hosting the poll scheduler.
package maintenance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gridpools/scorewire/internal/ledger"
	"github.com/gridpools/scorewire/internal/squares"
)

// Store is the slice of persistence the maintenance tasks touch.
type Store interface {
	PurgeTerminalLeases(ctx context.Context) (int64, error)
	ListGames(ctx context.Context) ([]ledger.Game, error)
	GetPool(ctx context.Context, id int64) (squares.Pool, error)
	ListChanges(ctx context.Context, gameID int64) ([]ledger.ScoreChange, error)
	ListWinners(ctx context.Context, gameID int64) ([]squares.Winner, error)
}

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	LeasePurgeInterval  time.Duration // Remove worker leases left behind by finished events
	ConsistencyInterval time.Duration // Sweep for ledger entries with missing winner rows
	WatermarkInterval   time.Duration // Refresh the poll-watermark view

	// WatermarkRefresh runs on the watermark ticker when set. The API
	// process wires it to RefreshPollWatermarks; in-memory deployments
	// have no view to refresh and leave it nil.
	WatermarkRefresh func(ctx context.Context) error
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		LeasePurgeInterval:  5 * time.Minute,
		ConsistencyInterval: 15 * time.Minute,
		WatermarkInterval:   time.Minute,
	}
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, store Store, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"lease_purge", cfg.LeasePurgeInterval,
		"consistency", cfg.ConsistencyInterval,
		"watermark", cfg.WatermarkInterval)

	tickers := make([]*time.Ticker, 0, 3)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if cfg.LeasePurgeInterval > 0 {
		t := time.NewTicker(cfg.LeasePurgeInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { purgeLeases(ctx, store, logger) })
	}

	if cfg.ConsistencyInterval > 0 {
		t := time.NewTicker(cfg.ConsistencyInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { sweepConsistency(ctx, store, logger) })
	}

	if cfg.WatermarkInterval > 0 && cfg.WatermarkRefresh != nil {
		t := time.NewTicker(cfg.WatermarkInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() {
			if err := cfg.WatermarkRefresh(ctx); err != nil {
				logger.Warn("Poll watermark refresh failed", "error", err)
			}
		})
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// purgeLeases drops worker leases whose events reached a terminal
// status. The scheduler never touches those rows again, so they only
// accumulate.
func purgeLeases(ctx context.Context, store Store, logger *slog.Logger) int64 {
	n, err := store.PurgeTerminalLeases(ctx)
	if err != nil {
		logger.Warn("Lease purge failed", "error", err)
		return 0
	}
	if n > 0 {
		logger.Info("Purged terminal worker leases", "count", n)
	}
	return n
}

// sweepConsistency looks for settled ledger entries with no winner rows
// under their payout_ref. Winners are derived state, so a gap means a
// derivation was interrupted; the sweep logs the candidates rather than
// repairing them, leaving the fix to a commissioner-triggered rederive.
func sweepConsistency(ctx context.Context, store Store, logger *slog.Logger) int {
	games, err := store.ListGames(ctx)
	if err != nil {
		logger.Warn("Consistency sweep failed to list games", "error", err)
		return 0
	}

	missing := 0
	for _, game := range games {
		pool, err := store.GetPool(ctx, game.PoolID)
		if errors.Is(err, ledger.ErrNotFound) {
			logger.Warn("Game references missing pool", "game_id", game.ID, "pool_id", game.PoolID)
			continue
		}
		if err != nil {
			logger.Warn("Consistency sweep failed to load pool", "pool_id", game.PoolID, "error", err)
			continue
		}
		// Unlocked pools have no digits and legitimately no winners;
		// quarter pools derive from quarter scores, not the ledger.
		if !pool.Locked || !pool.Mode.LedgerDriven() {
			continue
		}

		changes, err := store.ListChanges(ctx, game.ID)
		if err != nil {
			logger.Warn("Consistency sweep failed to list changes", "game_id", game.ID, "error", err)
			continue
		}
		if len(changes) == 0 {
			continue
		}
		winners, err := store.ListWinners(ctx, game.ID)
		if err != nil {
			logger.Warn("Consistency sweep failed to list winners", "game_id", game.ID, "error", err)
			continue
		}
		covered := make(map[int]bool, len(winners))
		for _, w := range winners {
			covered[w.PayoutRef] = true
		}
		for _, c := range changes {
			if !covered[c.Order] {
				missing++
				logger.Warn("Ledger entry has no winner rows",
					"game_id", game.ID,
					"change_order", c.Order)
			}
		}
	}
	if missing > 0 {
		logger.Info("Consistency sweep found gaps", "missing", missing)
	}
	return missing
}
