// Package provider defines the boundary to upstream score feeds. The
// scheduler only sees Adapter and Snapshot; transport, authentication,
// and payload shape live in the per-feed subpackages.
package provider

import (
	"context"
	"errors"

	"github.com/gridpools/scorewire/internal/event"
	"github.com/gridpools/scorewire/internal/ledger"
)

// ErrUnavailable wraps any fetch failure. All provider errors are
// treated alike: log, leave the lease to expire, try again next cycle.
var ErrUnavailable = errors.New("score provider unavailable")

// Snapshot is one observation of an event's live state, already
// normalized to our vocabulary. Team-game fields and tournament fields
// are populated according to the event's type. Quarters is only set
// when the feed itemizes boundary scores; most feeds do not.
type Snapshot struct {
	Status event.Status

	HomeTeam  string
	AwayTeam  string
	HomeScore int
	AwayScore int
	Period    int
	Clock     string
	Halftime  bool
	Quarters  *ledger.QuarterScores

	CurrentRound int
	RoundStatus  string
	Leaderboard  []event.LeaderboardEntry
}

// Adapter fetches the current snapshot for one event.
type Adapter interface {
	Fetch(ctx context.Context, ev event.Event) (Snapshot, error)
}
