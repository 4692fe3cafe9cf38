package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridpools/scorewire/internal/event"
	"github.com/gridpools/scorewire/internal/ledger"
	"github.com/gridpools/scorewire/internal/lock"
	"github.com/gridpools/scorewire/internal/provider"
	"github.com/gridpools/scorewire/internal/squares"
)

// Config sets scheduler timing. Zero values take the defaults below.
type Config struct {
	TickInterval time.Duration
	LeaseTTL     time.Duration
	Lookahead    time.Duration
	Workers      int
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = 15 * time.Second
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = 60 * time.Second
	}
	if c.Lookahead <= 0 {
		c.Lookahead = 2 * time.Hour
	}
	if c.Workers < 1 {
		c.Workers = 4
	}
	return c
}

// Scheduler runs the poll loop for one worker instance.
type Scheduler struct {
	events   EventStore
	leases   LeaseStore
	ledger   *ledger.Service
	adapter  provider.Adapter
	locker   lock.TryLocker
	cfg      Config
	workerID string
	logger   *slog.Logger
	clock    func() time.Time
}

// NewScheduler creates a scheduler with a fresh worker identity.
func NewScheduler(events EventStore, leases LeaseStore, ledgerSvc *ledger.Service, adapter provider.Adapter, locker lock.TryLocker, cfg Config, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		events:   events,
		leases:   leases,
		ledger:   ledgerSvc,
		adapter:  adapter,
		locker:   locker,
		cfg:      cfg.withDefaults(),
		workerID: uuid.NewString(),
		logger:   logger,
		clock:    time.Now,
	}
}

// WorkerID returns this instance's lease identity.
func (s *Scheduler) WorkerID() string { return s.workerID }

// Run ticks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Poll scheduler started",
		"worker_id", s.workerID, "tick", s.cfg.TickInterval.String(), "lease_ttl", s.cfg.LeaseTTL.String())

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Poll scheduler stopped", "worker_id", s.workerID)
			return
		case <-ticker.C:
			result := s.Tick(ctx)
			if result.Polled > 0 || result.Failed > 0 || len(result.Errors) > 0 {
				s.logger.Info("Poll tick complete", "summary", result.Summary())
			}
		}
	}
}

// Tick runs one scheduling pass: select candidates, poll the due ones
// through a worker pool, report totals.
func (s *Scheduler) Tick(ctx context.Context) TickResult {
	start := time.Now()
	var result TickResult

	pollable, err := s.events.ListPollable(ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("list pollable events: %s", err))
		result.Duration = time.Since(start)
		return result
	}

	now := s.clock()
	var candidates []event.Event
	for _, ev := range pollable {
		if Eligible(ev, now, s.cfg.Lookahead) {
			candidates = append(candidates, ev)
		}
	}
	result.Candidates = len(candidates)
	if len(candidates) == 0 {
		result.Duration = time.Since(start)
		return result
	}

	// Worker pool: one channel of events, N workers.
	workers := s.cfg.Workers
	if workers > len(candidates) {
		workers = len(candidates)
	}
	ch := make(chan event.Event, len(candidates))
	for _, ev := range candidates {
		ch <- ev
	}
	close(ch)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range ch {
				outcome := s.pollEvent(ctx, ev)
				mu.Lock()
				result.merge(ev.ID, outcome)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	result.Duration = time.Since(start)
	return result
}

// pollEvent handles one candidate: cadence check, lock-then-lease
// handshake, provider fetch, and ledger sync. The cluster lock covers
// only the lease bookkeeping; the fetch runs outside it under lease
// protection.
func (s *Scheduler) pollEvent(ctx context.Context, ev event.Event) eventOutcome {
	now := s.clock()

	lease, found, err := s.leases.GetLease(ctx, ev.ID)
	if err != nil {
		return eventOutcome{kind: outcomeFailed, err: fmt.Errorf("get lease: %w", err)}
	}
	if found && lease.ActiveAt(now) {
		return eventOutcome{kind: outcomeLeased}
	}

	halftime := false
	if st, err := s.events.GetState(ctx, ev.ID); err == nil {
		halftime = st.Halftime
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return eventOutcome{kind: outcomeFailed, err: fmt.Errorf("get state: %w", err)}
	}
	if found && !lease.LastPollAt.IsZero() {
		if now.Sub(lease.LastPollAt) < PollInterval(ev, halftime, now) {
			return eventOutcome{kind: outcomeNotDue}
		}
	}

	if outcome, ok := s.claimLease(ctx, ev, now); !ok {
		return outcome
	}

	snap, err := s.adapter.Fetch(ctx, ev)
	if err != nil {
		// Leave the lease to expire; the next attempt waits out the TTL.
		s.logger.Warn("Provider fetch failed", "event_id", ev.ID, "error", err)
		return eventOutcome{kind: outcomeFailed, err: err}
	}

	outcome := s.apply(ctx, ev, snap)
	if outcome.kind != outcomePolled {
		return outcome
	}
	if err := s.leases.FinalizeLease(ctx, ev.ID, s.workerID, s.clock()); err != nil {
		return eventOutcome{kind: outcomeFailed, err: fmt.Errorf("finalize lease: %w", err)}
	}
	return outcome
}

// claimLease wins the cluster lock, re-checks the lease under it, and
// writes our claim. Returns ok=false with the skip outcome when the
// event is contended.
func (s *Scheduler) claimLease(ctx context.Context, ev event.Event, now time.Time) (eventOutcome, bool) {
	release, ok, err := s.locker.TryAcquire(ctx, fmt.Sprintf("poll:event:%d", ev.ID))
	if err != nil {
		return eventOutcome{kind: outcomeFailed, err: fmt.Errorf("try lock: %w", err)}, false
	}
	if !ok {
		return eventOutcome{kind: outcomeLocked}, false
	}
	defer release()

	cur, found, err := s.leases.GetLease(ctx, ev.ID)
	if err != nil {
		return eventOutcome{kind: outcomeFailed, err: fmt.Errorf("recheck lease: %w", err)}, false
	}
	if found && cur.ActiveAt(now) {
		return eventOutcome{kind: outcomeLeased}, false
	}

	lease := Lease{
		EventID:    ev.ID,
		WorkerID:   s.workerID,
		AcquiredAt: now,
		ExpiresAt:  now.Add(s.cfg.LeaseTTL),
	}
	if found {
		lease.LastPollAt = cur.LastPollAt
	}
	if err := s.leases.PutLease(ctx, lease); err != nil {
		return eventOutcome{kind: outcomeFailed, err: fmt.Errorf("put lease: %w", err)}, false
	}
	return eventOutcome{}, true
}

// apply writes the snapshot into event state, advances event status,
// and syncs pool-linked games.
func (s *Scheduler) apply(ctx context.Context, ev event.Event, snap provider.Snapshot) eventOutcome {
	now := s.clock()
	st := event.State{
		EventID:            ev.ID,
		LastProviderUpdate: now,
		UpdatedAt:          now,
	}
	switch ev.Type {
	case event.TypeTournament:
		st.CurrentRound = snap.CurrentRound
		st.RoundStatus = snap.RoundStatus
		st.Leaderboard = snap.Leaderboard
	default:
		st.HomeTeam = snap.HomeTeam
		st.AwayTeam = snap.AwayTeam
		st.HomeScore = snap.HomeScore
		st.AwayScore = snap.AwayScore
		st.Period = snap.Period
		st.Clock = snap.Clock
		st.Halftime = snap.Halftime
	}
	if err := s.events.UpsertState(ctx, st); err != nil {
		return eventOutcome{kind: outcomeFailed, err: fmt.Errorf("upsert state: %w", err)}
	}

	outcome := eventOutcome{kind: outcomePolled}
	if snap.Status != ev.Status && event.CanTransition(ev.Status, snap.Status) {
		if err := s.events.UpdateEventStatus(ctx, ev.ID, snap.Status); err != nil {
			return eventOutcome{kind: outcomeFailed, err: fmt.Errorf("update status: %w", err)}
		}
		s.logger.Info("Event status changed",
			"event_id", ev.ID, "from", string(ev.Status), "to", string(snap.Status))
		outcome.statusChanged = true
	}

	if ev.Type == event.TypeTeamGame {
		appends, err := s.syncGames(ctx, ev, snap)
		outcome.appends = appends
		if err != nil {
			return eventOutcome{kind: outcomeFailed, appends: appends, err: err}
		}
	}
	return outcome
}

// syncGames pushes the snapshot into every non-final tracked game.
// Per-game validation and concurrency failures are absorbed: they mean
// our view went stale mid-poll, and the next cycle re-reads.
func (s *Scheduler) syncGames(ctx context.Context, ev event.Event, snap provider.Snapshot) (int, error) {
	games, err := s.events.TrackedGames(ctx, ev.ID)
	if err != nil {
		return 0, fmt.Errorf("tracked games: %w", err)
	}

	appends := 0
	for _, tg := range games {
		if tg.Game.Status == ledger.GameFinal {
			continue
		}
		switch {
		case tg.Mode == squares.ModeQuarter:
			if snap.Quarters == nil {
				continue
			}
			final := snap.Status == event.StatusFinal
			if _, err := s.ledger.SetQuarterScores(ctx, tg.Game.ID, *snap.Quarters, final); err != nil {
				if !absorbable(err) {
					return appends, fmt.Errorf("quarter write-through game %d: %w", tg.Game.ID, err)
				}
				s.logger.Warn("Quarter write-through rejected",
					"game_id", tg.Game.ID, "error", err)
			}
		case tg.Mode.LedgerDriven():
			n := s.syncLedger(ctx, tg, snap)
			appends += n
		}
	}
	return appends, nil
}

// syncLedger appends the score delta and claims newly passed quarter
// boundaries for one ledger-driven game.
func (s *Scheduler) syncLedger(ctx context.Context, tg TrackedGame, snap provider.Snapshot) int {
	game := tg.Game
	appends := 0

	if snap.HomeScore < game.HomeScore || snap.AwayScore < game.AwayScore {
		// Provider corrections move scores backwards; that needs a
		// commissioner, not an automated append.
		s.logger.Warn("Provider score below recorded score",
			"game_id", game.ID, "recorded", fmt.Sprintf("%d-%d", game.HomeScore, game.AwayScore),
			"provider", fmt.Sprintf("%d-%d", snap.HomeScore, snap.AwayScore))
		return 0
	}

	// One entry per side. When both sides advanced between polls the
	// home step lands first, then the away step; each is a valid
	// single-side entry.
	var steps []ledger.ScorePair
	if snap.HomeScore > game.HomeScore {
		steps = append(steps, ledger.ScorePair{Home: snap.HomeScore, Away: game.AwayScore})
	}
	if snap.AwayScore > game.AwayScore {
		steps = append(steps, ledger.ScorePair{Home: snap.HomeScore, Away: snap.AwayScore})
	}
	if len(steps) == 0 && game.Status == ledger.GameScheduled && snap.Status == event.StatusInProgress {
		// Kickoff with no points yet: record 0-0 so the game shows as
		// started.
		steps = append(steps, ledger.ScorePair{Home: snap.HomeScore, Away: snap.AwayScore})
	}

	for _, step := range steps {
		if _, err := s.ledger.Append(ctx, game.ID, step.Home, step.Away); err != nil {
			if absorbable(err) {
				s.logger.Warn("Ledger append skipped",
					"game_id", game.ID, "score", fmt.Sprintf("%d-%d", step.Home, step.Away), "error", err)
				return appends
			}
			s.logger.Error("Ledger append failed", "game_id", game.ID, "error", err)
			return appends
		}
		appends++
	}

	target := snapshotReached(snap)
	for _, cp := range squares.Checkpoints() {
		if cp.Order() <= tg.MarkedThrough.Order() || cp.Order() > target.Order() {
			continue
		}
		if tg.Mode == squares.ModeScoreChange && cp != squares.CheckpointFinal {
			continue
		}
		if _, err := s.ledger.MarkQuarter(ctx, game.ID, cp); err != nil {
			if absorbable(err) {
				s.logger.Warn("Quarter mark skipped",
					"game_id", game.ID, "checkpoint", string(cp), "error", err)
			} else {
				s.logger.Error("Quarter mark failed", "game_id", game.ID, "error", err)
			}
			break
		}
	}
	return appends
}

// snapshotReached maps provider period/status fields to the furthest
// quarter boundary the game has passed.
func snapshotReached(snap provider.Snapshot) squares.Checkpoint {
	switch {
	case snap.Status == event.StatusFinal:
		return squares.CheckpointFinal
	case snap.Period >= 4:
		return squares.CheckpointQ3
	case snap.Halftime || snap.Period >= 3:
		return squares.CheckpointHalftime
	case snap.Period >= 2:
		return squares.CheckpointQ1
	}
	return squares.CheckpointNone
}

// absorbable reports whether a ledger error is an expected race or
// stale-view rejection rather than an infrastructure failure.
func absorbable(err error) bool {
	var ve *ledger.ValidationError
	return errors.As(err, &ve) || errors.Is(err, ledger.ErrChangeConflict)
}
