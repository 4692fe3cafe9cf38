// Package ledger owns the score-change history of tracked games and the
// winner records derived from it. All score mutation, whether typed in
// by a commissioner or produced by the poller, passes through Service;
// it enforces entry ordering, quarter-marker progression, and the
// payout-reference bookkeeping that keeps winner rows replaceable.
package ledger

import (
	"fmt"
	"time"

	"github.com/gridpools/scorewire/internal/squares"
)

// --------------------------------------------------------------------------
// Games
// --------------------------------------------------------------------------

// GameStatus is the lifecycle state of a tracked game.
type GameStatus string

const (
	GameScheduled  GameStatus = "scheduled"
	GameInProgress GameStatus = "in_progress"
	GameFinal      GameStatus = "final"
)

// Game ties a pool to the two-sided game it pays out on. HomeScore and
// AwayScore mirror the latest ledger entry (or the latest saved quarter
// pair for quarter pools) so reads never need to walk the ledger.
// EventID links the game to a polled event; nil means manual scoring.
type Game struct {
	ID        int64
	PoolID    int64
	EventID   *int64
	HomeTeam  string
	AwayTeam  string
	HomeScore int
	AwayScore int
	Status    GameStatus
	Quarters  QuarterScores
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScorePair is one observed (home, away) score.
type ScorePair struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// QuarterScores holds the cumulative score saved at each quarter
// boundary of a quarter-mode game. Nil means not yet saved.
type QuarterScores struct {
	Q1    *ScorePair `json:"q1,omitempty"`
	Half  *ScorePair `json:"halftime,omitempty"`
	Q3    *ScorePair `json:"q3,omitempty"`
	Final *ScorePair `json:"final,omitempty"`
}

// At returns the saved pair for a checkpoint, nil if absent.
func (q QuarterScores) At(cp squares.Checkpoint) *ScorePair {
	switch cp {
	case squares.CheckpointQ1:
		return q.Q1
	case squares.CheckpointHalftime:
		return q.Half
	case squares.CheckpointQ3:
		return q.Q3
	case squares.CheckpointFinal:
		return q.Final
	}
	return nil
}

// Latest returns the saved pair of the highest filled checkpoint, nil
// when no checkpoint has been saved yet.
func (q QuarterScores) Latest() *ScorePair {
	cps := squares.Checkpoints()
	for i := len(cps) - 1; i >= 0; i-- {
		if p := q.At(cps[i]); p != nil {
			return p
		}
	}
	return nil
}

// Validate checks that saved pairs are non-negative and that scores are
// cumulative: each side must be non-decreasing across the filled
// checkpoints in game order. Gaps are allowed; a commissioner may fill
// boundaries in any order during entry.
func (q QuarterScores) Validate() error {
	prev := ScorePair{}
	prevCp := squares.Checkpoint("")
	for _, cp := range squares.Checkpoints() {
		p := q.At(cp)
		if p == nil {
			continue
		}
		if p.Home < 0 || p.Away < 0 {
			return fmt.Errorf("%s score is negative", cp)
		}
		if p.Home < prev.Home || p.Away < prev.Away {
			return fmt.Errorf("%s score %d-%d is lower than %s score %d-%d",
				cp, p.Home, p.Away, prevCp, prev.Home, prev.Away)
		}
		prev, prevCp = *p, cp
	}
	return nil
}

// --------------------------------------------------------------------------
// Score changes
// --------------------------------------------------------------------------

// ScoreChange is one ledger entry: the cumulative score after a single
// scoring play. Order is the entry's 1-based position in the game's
// ledger and is dense: deleting entry k removes every later entry too,
// so order numbers are never reused out of sequence. Markers lists the
// quarter boundaries attached to this entry, in the order they were
// marked.
type ScoreChange struct {
	ID        int64
	GameID    int64
	HomeScore int
	AwayScore int
	Order     int
	Markers   []squares.Checkpoint
	CreatedAt time.Time
}

// Pair returns the entry's score as a ScorePair.
func (c ScoreChange) Pair() ScorePair {
	return ScorePair{Home: c.HomeScore, Away: c.AwayScore}
}

// HasMarker reports whether the entry carries the given boundary.
func (c ScoreChange) HasMarker(cp squares.Checkpoint) bool {
	for _, m := range c.Markers {
		if m == cp {
			return true
		}
	}
	return false
}

// LatestMarker returns the furthest boundary attached to the entry, or
// CheckpointNone when unmarked. An entry can carry several markers when
// a whole quarter passes without scoring.
func (c ScoreChange) LatestMarker() squares.Checkpoint {
	latest := squares.CheckpointNone
	for _, m := range c.Markers {
		if m.Order() > latest.Order() {
			latest = m
		}
	}
	return latest
}
