// Package poller drives live score ingestion. On every tick the
// scheduler selects pollable events, wins a short cluster lock per
// event to take a time-boxed worker lease, fetches a provider snapshot
// outside the lock, and feeds the result through the ledger service.
// Multiple scheduler instances can run against the same database; the
// lock-then-lease handshake keeps any event from being polled twice in
// one window.
package poller

import (
	"context"
	"time"

	"github.com/gridpools/scorewire/internal/event"
	"github.com/gridpools/scorewire/internal/ledger"
	"github.com/gridpools/scorewire/internal/squares"
)

// Lease records one worker's claim on an event. While ExpiresAt is in
// the future the claim is active and other workers skip the event. A
// finished poll finalizes the lease by moving ExpiresAt back to now and
// stamping LastPollAt, so the same row also carries the cadence clock.
// A worker that dies mid-poll simply leaves the lease to expire.
type Lease struct {
	EventID    int64
	WorkerID   string
	AcquiredAt time.Time
	ExpiresAt  time.Time
	LastPollAt time.Time
}

// ActiveAt reports whether the lease still excludes other workers.
func (l Lease) ActiveAt(now time.Time) bool {
	return now.Before(l.ExpiresAt)
}

// TrackedGame is a pool-linked game the poller writes scores into,
// joined with the pool fields the sync logic needs. MarkedThrough is
// the furthest quarter boundary recorded in the game's ledger.
type TrackedGame struct {
	Game          ledger.Game
	Mode          squares.ScoringMode
	MarkedThrough squares.Checkpoint
}

// EventStore is the event-side persistence the scheduler reads and
// writes.
type EventStore interface {
	// ListPollable returns external, non-terminal events.
	ListPollable(ctx context.Context) ([]event.Event, error)
	// GetState returns ledger.ErrNotFound for a never-polled event.
	GetState(ctx context.Context, eventID int64) (event.State, error)
	UpsertState(ctx context.Context, st event.State) error
	UpdateEventStatus(ctx context.Context, eventID int64, status event.Status) error
	// TrackedGames returns the event's pool-linked games.
	TrackedGames(ctx context.Context, eventID int64) ([]TrackedGame, error)
}

// LeaseStore persists worker leases.
type LeaseStore interface {
	GetLease(ctx context.Context, eventID int64) (Lease, bool, error)
	PutLease(ctx context.Context, lease Lease) error
	// FinalizeLease stamps LastPollAt and expires the lease in place.
	FinalizeLease(ctx context.Context, eventID int64, workerID string, at time.Time) error
}
