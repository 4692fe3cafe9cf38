package maintenance

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gridpools/scorewire/internal/event"
	"github.com/gridpools/scorewire/internal/ledger"
	"github.com/gridpools/scorewire/internal/memstore"
	"github.com/gridpools/scorewire/internal/poller"
	"github.com/gridpools/scorewire/internal/squares"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPurgeLeases(t *testing.T) {
	ctx := t.Context()
	store := memstore.New()

	live, err := store.CreateEvent(ctx, event.Event{
		Sport: "nfl", Type: event.TypeTeamGame, Provider: event.ProviderExternal,
		StartTime: time.Now(), Status: event.StatusInProgress,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	done, err := store.CreateEvent(ctx, event.Event{
		Sport: "nfl", Type: event.TypeTeamGame, Provider: event.ProviderExternal,
		StartTime: time.Now(), Status: event.StatusInProgress,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	for _, id := range []int64{live.ID, done.ID} {
		if err := store.PutLease(ctx, poller.Lease{
			EventID: id, WorkerID: "worker-a",
			AcquiredAt: time.Now(), ExpiresAt: time.Now(),
		}); err != nil {
			t.Fatalf("PutLease: %v", err)
		}
	}
	if err := store.UpdateEventStatus(ctx, done.ID, event.StatusFinal); err != nil {
		t.Fatalf("UpdateEventStatus: %v", err)
	}

	if n := purgeLeases(ctx, store, discardLogger()); n != 1 {
		t.Errorf("purgeLeases() = %d, want 1", n)
	}
	if _, held, err := store.GetLease(ctx, live.ID); err != nil || !held {
		t.Errorf("live event lease gone (held=%v, err=%v), want kept", held, err)
	}
}

func TestSweepConsistency(t *testing.T) {
	ctx := t.Context()
	store := memstore.New()
	svc := ledger.NewService(store, discardLogger())

	digits, err := squares.ParseDigits([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	if err != nil {
		t.Fatalf("ParseDigits: %v", err)
	}
	pool, err := store.CreatePool(ctx, squares.Pool{Label: "Pool", Sport: "nfl", Mode: squares.ModeScoreChange})
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	if err := pool.Lock(digits, digits, time.Now()); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := store.UpdatePool(ctx, pool); err != nil {
		t.Fatalf("UpdatePool: %v", err)
	}
	game, err := store.CreateGame(ctx, ledger.Game{PoolID: pool.ID, HomeTeam: "PHI", AwayTeam: "DAL"})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	if _, err := svc.Append(ctx, game.ID, 0, 0); err != nil {
		t.Fatalf("Append 0-0: %v", err)
	}
	if _, err := svc.Append(ctx, game.ID, 7, 0); err != nil {
		t.Fatalf("Append 7-0: %v", err)
	}

	// A freshly derived ledger has full winner coverage.
	if n := sweepConsistency(ctx, store, discardLogger()); n != 0 {
		t.Errorf("sweepConsistency() = %d on healthy ledger, want 0", n)
	}

	// Strip entry 2's winners to simulate an interrupted derivation.
	if _, err := store.DeleteWinnersAbove(ctx, game.ID, 1); err != nil {
		t.Fatalf("DeleteWinnersAbove: %v", err)
	}
	if n := sweepConsistency(ctx, store, discardLogger()); n != 1 {
		t.Errorf("sweepConsistency() = %d after stripping winners, want 1", n)
	}
}

func TestSweepSkipsUnlockedAndQuarterPools(t *testing.T) {
	ctx := t.Context()
	store := memstore.New()

	unlocked, err := store.CreatePool(ctx, squares.Pool{Label: "Unlocked", Sport: "nfl", Mode: squares.ModeScoreChange})
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	if _, err := store.CreateGame(ctx, ledger.Game{PoolID: unlocked.ID}); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	digits, err := squares.ParseDigits([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	if err != nil {
		t.Fatalf("ParseDigits: %v", err)
	}
	quarter, err := store.CreatePool(ctx, squares.Pool{Label: "Quarter", Sport: "nfl", Mode: squares.ModeQuarter})
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	if err := quarter.Lock(digits, digits, time.Now()); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := store.UpdatePool(ctx, quarter); err != nil {
		t.Fatalf("UpdatePool: %v", err)
	}
	if _, err := store.CreateGame(ctx, ledger.Game{PoolID: quarter.ID}); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	if n := sweepConsistency(ctx, store, discardLogger()); n != 0 {
		t.Errorf("sweepConsistency() = %d, want 0 for unlocked and quarter pools", n)
	}
}
