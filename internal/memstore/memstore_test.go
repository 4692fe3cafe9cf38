package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gridpools/scorewire/internal/event"
	"github.com/gridpools/scorewire/internal/ledger"
	"github.com/gridpools/scorewire/internal/poller"
	"github.com/gridpools/scorewire/internal/squares"
)

func identityDigits() squares.Digits {
	return squares.Digits{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
}

func TestEvents_CreateListOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	base := time.Date(2025, 11, 2, 18, 0, 0, 0, time.UTC)
	late, _ := s.CreateEvent(ctx, event.Event{Label: "late", Type: event.TypeTeamGame, Provider: event.ProviderManual, StartTime: base.Add(2 * time.Hour)})
	early, _ := s.CreateEvent(ctx, event.Event{Label: "early", Type: event.TypeTeamGame, Provider: event.ProviderManual, StartTime: base})

	if late.ID == early.ID || late.ID == 0 {
		t.Fatalf("ids = %d, %d, want distinct non-zero", late.ID, early.ID)
	}
	if early.Status != event.StatusScheduled {
		t.Errorf("default status = %q, want scheduled", early.Status)
	}

	evs, err := s.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(evs) != 2 || evs[0].Label != "early" || evs[1].Label != "late" {
		t.Errorf("ListEvents() order = %v", evs)
	}
}

func TestEvents_MetadataIsolated(t *testing.T) {
	ctx := context.Background()
	s := New()

	meta := map[string]string{"week": "10"}
	created, err := s.CreateEvent(ctx, event.Event{Type: event.TypeTeamGame, Provider: event.ProviderManual, Metadata: meta})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}

	// Mutating the caller's map after the fact must not leak in.
	meta["week"] = "11"
	got, err := s.GetEvent(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetEvent() error = %v", err)
	}
	if got.Metadata["week"] != "10" {
		t.Errorf(`Metadata["week"] = %q, want "10"`, got.Metadata["week"])
	}

	// Nor must mutating a returned copy.
	got.Metadata["week"] = "12"
	again, _ := s.GetEvent(ctx, created.ID)
	if again.Metadata["week"] != "10" {
		t.Errorf(`Metadata["week"] after read mutation = %q, want "10"`, again.Metadata["week"])
	}
}

func TestListPollable_FiltersManualAndTerminal(t *testing.T) {
	ctx := context.Background()
	s := New()
	ref := "g1"

	ext, _ := s.CreateEvent(ctx, event.Event{Type: event.TypeTeamGame, Provider: event.ProviderExternal, ExternalRef: &ref})
	s.CreateEvent(ctx, event.Event{Type: event.TypeTeamGame, Provider: event.ProviderManual})
	done, _ := s.CreateEvent(ctx, event.Event{Type: event.TypeTeamGame, Provider: event.ProviderExternal, ExternalRef: &ref})
	if err := s.UpdateEventStatus(ctx, done.ID, event.StatusFinal); err != nil {
		t.Fatalf("UpdateEventStatus() error = %v", err)
	}

	evs, err := s.ListPollable(ctx)
	if err != nil {
		t.Fatalf("ListPollable() error = %v", err)
	}
	if len(evs) != 1 || evs[0].ID != ext.ID {
		t.Errorf("ListPollable() = %v, want only event %d", evs, ext.ID)
	}
}

func TestClaimSquare_Conflicts(t *testing.T) {
	ctx := context.Background()
	s := New()
	pool, _ := s.CreatePool(ctx, squares.Pool{Label: "office", Mode: squares.ModeScoreChange})

	if _, err := s.ClaimSquare(ctx, squares.Square{PoolID: pool.ID, Row: 3, Col: 4, ClaimedBy: "Dana"}); err != nil {
		t.Fatalf("ClaimSquare() error = %v", err)
	}
	if _, err := s.ClaimSquare(ctx, squares.Square{PoolID: pool.ID, Row: 3, Col: 4, ClaimedBy: "Riley"}); !errors.Is(err, squares.ErrSquareTaken) {
		t.Errorf("second claim error = %v, want ErrSquareTaken", err)
	}

	if err := pool.Lock(identityDigits(), identityDigits(), time.Now()); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if err := s.UpdatePool(ctx, pool); err != nil {
		t.Fatalf("UpdatePool() error = %v", err)
	}
	if _, err := s.ClaimSquare(ctx, squares.Square{PoolID: pool.ID, Row: 5, Col: 5, ClaimedBy: "Sam"}); !errors.Is(err, squares.ErrPoolLocked) {
		t.Errorf("claim after lock error = %v, want ErrPoolLocked", err)
	}

	sq, err := s.GetSquare(ctx, pool.ID, 3, 4)
	if err != nil || sq.ClaimedBy != "Dana" {
		t.Errorf("GetSquare() = %+v, %v", sq, err)
	}
	if _, err := s.GetSquare(ctx, pool.ID, 9, 9); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("unclaimed cell error = %v, want ErrNotFound", err)
	}
}

func TestAppendChange_OrderConflict(t *testing.T) {
	ctx := context.Background()
	s := New()
	pool, _ := s.CreatePool(ctx, squares.Pool{Mode: squares.ModeScoreChange})
	game, _ := s.CreateGame(ctx, ledger.Game{PoolID: pool.ID, HomeTeam: "PHI", AwayTeam: "DAL"})

	game.HomeScore = 7
	if _, err := s.AppendChange(ctx, ledger.ScoreChange{GameID: game.ID, HomeScore: 7, Order: 1}, game); err != nil {
		t.Fatalf("AppendChange() error = %v", err)
	}
	_, err := s.AppendChange(ctx, ledger.ScoreChange{GameID: game.ID, HomeScore: 3, Order: 1}, game)
	if !errors.Is(err, ledger.ErrChangeConflict) {
		t.Errorf("duplicate order error = %v, want ErrChangeConflict", err)
	}

	got, err := s.GetGame(ctx, game.ID)
	if err != nil || got.HomeScore != 7 {
		t.Errorf("game mirror = %+v, %v", got, err)
	}
}

func TestTruncateChanges_KeepsQuarterFamilyWinners(t *testing.T) {
	ctx := context.Background()
	s := New()
	pool, _ := s.CreatePool(ctx, squares.Pool{Mode: squares.ModeHybrid})
	game, _ := s.CreateGame(ctx, ledger.Game{PoolID: pool.ID})

	for order := 1; order <= 3; order++ {
		g := game
		g.HomeScore = order * 7
		if _, err := s.AppendChange(ctx, ledger.ScoreChange{GameID: game.ID, HomeScore: order * 7, Order: order}, g); err != nil {
			t.Fatalf("AppendChange(%d) error = %v", order, err)
		}
		s.ReplaceWinners(ctx, game.ID, order, []squares.Winner{{ID: "w", GameID: game.ID, PayoutRef: order}})
	}
	s.ReplaceWinners(ctx, game.ID, squares.QuarterPayoutRef, []squares.Winner{{ID: "q", GameID: game.ID, PayoutRef: squares.QuarterPayoutRef}})

	game.HomeScore = 7
	if err := s.TruncateChanges(ctx, game.ID, 2, game); err != nil {
		t.Fatalf("TruncateChanges() error = %v", err)
	}

	cs, _ := s.ListChanges(ctx, game.ID)
	if len(cs) != 1 || cs[0].Order != 1 {
		t.Errorf("changes = %+v, want only order 1", cs)
	}
	ws, _ := s.ListWinners(ctx, game.ID)
	if len(ws) != 2 {
		t.Fatalf("winners = %+v, want quarter family plus order 1", ws)
	}
	for _, w := range ws {
		if w.PayoutRef >= 2 {
			t.Errorf("winner with payout_ref %d survived truncation", w.PayoutRef)
		}
	}
}

func TestPurgeTerminalLeases(t *testing.T) {
	ctx := context.Background()
	s := New()
	ref := "g1"

	live, _ := s.CreateEvent(ctx, event.Event{Type: event.TypeTeamGame, Provider: event.ProviderExternal, ExternalRef: &ref, Status: event.StatusInProgress})
	done, _ := s.CreateEvent(ctx, event.Event{Type: event.TypeTeamGame, Provider: event.ProviderExternal, ExternalRef: &ref, Status: event.StatusInProgress})
	s.UpdateEventStatus(ctx, done.ID, event.StatusFinal)

	now := time.Now()
	for _, id := range []int64{live.ID, done.ID} {
		s.PutLease(ctx, poller.Lease{EventID: id, WorkerID: "w1", AcquiredAt: now, ExpiresAt: now})
	}

	purged, err := s.PurgeTerminalLeases(ctx)
	if err != nil {
		t.Fatalf("PurgeTerminalLeases() error = %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
	if _, ok, _ := s.GetLease(ctx, live.ID); !ok {
		t.Error("live event's lease was purged")
	}
	if _, ok, _ := s.GetLease(ctx, done.ID); ok {
		t.Error("final event's lease survived")
	}
}

func TestTrackedGames_JoinsPoolMode(t *testing.T) {
	ctx := context.Background()
	s := New()
	ref := "g1"
	ev, _ := s.CreateEvent(ctx, event.Event{Type: event.TypeTeamGame, Provider: event.ProviderExternal, ExternalRef: &ref})
	pool, _ := s.CreatePool(ctx, squares.Pool{Mode: squares.ModeHybrid})
	game, _ := s.CreateGame(ctx, ledger.Game{PoolID: pool.ID, EventID: &ev.ID})
	s.CreateGame(ctx, ledger.Game{PoolID: pool.ID}) // not linked to the event

	g := game
	g.HomeScore = 7
	s.AppendChange(ctx, ledger.ScoreChange{GameID: game.ID, HomeScore: 7, Order: 1, Markers: []squares.Checkpoint{squares.CheckpointQ1}}, g)

	tracked, err := s.TrackedGames(ctx, ev.ID)
	if err != nil {
		t.Fatalf("TrackedGames() error = %v", err)
	}
	if len(tracked) != 1 {
		t.Fatalf("tracked = %+v, want one game", tracked)
	}
	tg := tracked[0]
	if tg.Game.ID != game.ID || tg.Mode != squares.ModeHybrid || tg.MarkedThrough != squares.CheckpointQ1 {
		t.Errorf("tracked = %+v", tg)
	}
}
