package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridpools/scorewire/internal/event"
	"github.com/gridpools/scorewire/internal/ledger"
	"github.com/gridpools/scorewire/internal/lock"
	"github.com/gridpools/scorewire/internal/memstore"
	"github.com/gridpools/scorewire/internal/poller"
	"github.com/gridpools/scorewire/internal/provider"
	"github.com/gridpools/scorewire/internal/squares"
)

// --------------------------------------------------------------------------
// demo command
// --------------------------------------------------------------------------

// demoAdapter replays a fixed script of snapshots, one per fetch.
type demoAdapter struct {
	mu    sync.Mutex
	steps []provider.Snapshot
	next  int
}

func (a *demoAdapter) Fetch(context.Context, event.Event) (provider.Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap := a.steps[a.next]
	if a.next < len(a.steps)-1 {
		a.next++
	}
	return snap, nil
}

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted game through the full pipeline in memory",
		Long: `Runs the scheduler, ledger, and winner derivation end to end against
the in-memory store with a scripted score feed. No database or network
is needed. Useful for demos and for eyeballing pipeline behavior.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context())
		},
	}
}

func runDemo(ctx context.Context) error {
	store := memstore.New()

	ref := "demo-nfl-phi-dal"
	ev, err := store.CreateEvent(ctx, event.Event{
		Sport: "nfl", Label: "DAL @ PHI", Type: event.TypeTeamGame,
		Provider: event.ProviderExternal, ExternalRef: &ref,
		StartTime: time.Now().Add(30 * time.Minute),
	})
	if err != nil {
		return err
	}

	pool, err := store.CreatePool(ctx, squares.Pool{
		Label: "demo grid", Sport: "nfl",
		Mode: squares.ModeHybrid, ReverseScoring: true,
	})
	if err != nil {
		return err
	}
	claims := []squares.Square{
		{PoolID: pool.ID, Row: 7, Col: 0, ClaimedBy: "Dana"},
		{PoolID: pool.ID, Row: 0, Col: 7, ClaimedBy: "Riley"},
		{PoolID: pool.ID, Row: 4, Col: 3, ClaimedBy: "Sam"},
	}
	for _, sq := range claims {
		if _, err := store.ClaimSquare(ctx, sq); err != nil {
			return err
		}
	}
	if err := pool.Lock(squares.RandomDigits(), squares.RandomDigits(), time.Now()); err != nil {
		return err
	}
	if err := store.UpdatePool(ctx, pool); err != nil {
		return err
	}

	game, err := store.CreateGame(ctx, ledger.Game{
		PoolID: pool.ID, EventID: &ev.ID, HomeTeam: "PHI", AwayTeam: "DAL",
	})
	if err != nil {
		return err
	}

	fmt.Printf("Event %d: %s (%s)\n", ev.ID, ev.Label, ev.Sport)
	fmt.Printf("Pool %d: %s, mode=%s, reverse=%v\n", pool.ID, pool.Label, pool.Mode, pool.ReverseScoring)
	fmt.Printf("  row digits (home): %v\n", pool.RowDigits.Slice())
	fmt.Printf("  col digits (away): %v\n\n", pool.ColDigits.Slice())

	snap := func(status event.Status, home, away, period int, halftime bool) provider.Snapshot {
		return provider.Snapshot{
			Status: status, HomeTeam: "PHI", AwayTeam: "DAL",
			HomeScore: home, AwayScore: away, Period: period, Halftime: halftime,
		}
	}
	adapter := &demoAdapter{steps: []provider.Snapshot{
		snap(event.StatusScheduled, 0, 0, 0, false),
		snap(event.StatusInProgress, 0, 0, 1, false),
		snap(event.StatusInProgress, 7, 0, 1, false),
		snap(event.StatusInProgress, 7, 3, 2, false),
		snap(event.StatusInProgress, 7, 3, 2, true),
		snap(event.StatusInProgress, 14, 3, 3, false),
		snap(event.StatusInProgress, 14, 10, 4, false),
		snap(event.StatusInProgress, 17, 10, 4, false),
		snap(event.StatusFinal, 17, 10, 4, false),
	}}

	sched := poller.NewScheduler(store, store,
		ledger.NewService(store, logger), adapter, lock.NewMemory(),
		poller.Config{Workers: 1}, logger)

	for i := range adapter.steps {
		if i > 0 {
			// Age the lease so the event is due immediately instead of
			// waiting out the real poll interval.
			l, ok, err := store.GetLease(ctx, ev.ID)
			if err != nil || !ok {
				return fmt.Errorf("lease missing for event %d: %w", ev.ID, err)
			}
			l.LastPollAt = l.LastPollAt.Add(-time.Hour)
			l.ExpiresAt = l.ExpiresAt.Add(-time.Hour)
			if err := store.PutLease(ctx, l); err != nil {
				return err
			}
		}
		res := sched.Tick(ctx)
		if res.Failed > 0 || len(res.Errors) > 0 {
			return fmt.Errorf("tick %d failed: %s %v", i+1, res.Summary(), res.Errors)
		}
	}

	changes, err := store.ListChanges(ctx, game.ID)
	if err != nil {
		return err
	}
	fmt.Println("Score-change ledger:")
	for _, c := range changes {
		markers := ""
		if len(c.Markers) > 0 {
			names := make([]string, len(c.Markers))
			for i, m := range c.Markers {
				names[i] = string(m)
			}
			markers = "  [" + strings.Join(names, ", ") + "]"
		}
		fmt.Printf("  #%d  PHI %2d - DAL %2d%s\n", c.Order, c.HomeScore, c.AwayScore, markers)
	}

	winners, err := store.ListWinners(ctx, game.ID)
	if err != nil {
		return err
	}
	fmt.Printf("\nWinners (%d rows):\n", len(winners))
	for _, w := range winners {
		fmt.Printf("  ref %d  %-28s cell (%d,%d)  digits %d/%d  %s\n",
			w.PayoutRef, w.Type.Tag(pool.Mode), w.Row, w.Col,
			pool.RowDigits[w.Row], pool.ColDigits[w.Col], w.Label)
	}

	final, err := store.GetGame(ctx, game.ID)
	if err != nil {
		return err
	}
	fmt.Printf("\nFinal: PHI %d - DAL %d (%s)\n", final.HomeScore, final.AwayScore, final.Status)
	return nil
}
