// Package squares models squares pools: the 10x10 grid, its digit
// permutations, claimed squares, and the digit-match rule that turns a
// score observation into winning cells. Everything here is pure; the
// ledger wraps it with persistence and ordering rules.
package squares

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// --------------------------------------------------------------------------
// Scoring modes
// --------------------------------------------------------------------------

// ScoringMode selects how a pool pays out over the course of a game.
type ScoringMode string

const (
	// ModeQuarter pays on saved quarter scores only.
	ModeQuarter ScoringMode = "quarter"
	// ModeScoreChange pays on every ledger entry.
	ModeScoreChange ScoringMode = "score_change"
	// ModeHybrid pays on every ledger entry and tags quarter boundaries.
	ModeHybrid ScoringMode = "hybrid"
)

// ParseScoringMode validates a wire string as a scoring mode.
func ParseScoringMode(s string) (ScoringMode, error) {
	switch ScoringMode(s) {
	case ModeQuarter, ModeScoreChange, ModeHybrid:
		return ScoringMode(s), nil
	}
	return "", fmt.Errorf("unknown scoring mode %q", s)
}

// LedgerDriven reports whether the mode derives winners from score-change
// ledger entries (as opposed to saved quarter scores).
func (m ScoringMode) LedgerDriven() bool {
	return m == ModeScoreChange || m == ModeHybrid
}

// --------------------------------------------------------------------------
// Checkpoints
// --------------------------------------------------------------------------

// Checkpoint names a quarter boundary of a team game. The zero value
// CheckpointNone marks a plain score change with no boundary attached.
type Checkpoint string

const (
	CheckpointNone     Checkpoint = ""
	CheckpointQ1       Checkpoint = "q1"
	CheckpointHalftime Checkpoint = "halftime"
	CheckpointQ3       Checkpoint = "q3"
	CheckpointFinal    Checkpoint = "final"
)

// Checkpoints returns the four boundaries in game order.
func Checkpoints() [4]Checkpoint {
	return [4]Checkpoint{CheckpointQ1, CheckpointHalftime, CheckpointQ3, CheckpointFinal}
}

// ParseCheckpoint validates a wire string as a checkpoint.
func ParseCheckpoint(s string) (Checkpoint, error) {
	switch Checkpoint(s) {
	case CheckpointQ1, CheckpointHalftime, CheckpointQ3, CheckpointFinal:
		return Checkpoint(s), nil
	}
	return "", fmt.Errorf("unknown checkpoint %q", s)
}

// Order returns the checkpoint's position in the game (1..4), or 0 for
// CheckpointNone.
func (c Checkpoint) Order() int {
	switch c {
	case CheckpointQ1:
		return 1
	case CheckpointHalftime:
		return 2
	case CheckpointQ3:
		return 3
	case CheckpointFinal:
		return 4
	}
	return 0
}

// Follows reports whether c is the immediate successor of prev.
// CheckpointQ1 follows CheckpointNone.
func (c Checkpoint) Follows(prev Checkpoint) bool {
	return c.Order() == prev.Order()+1
}

// --------------------------------------------------------------------------
// Digit permutations
// --------------------------------------------------------------------------

// Digits is one axis of a locked grid: a permutation of 0-9 where
// Digits[i] is the score digit assigned to grid index i.
type Digits [10]int

// RandomDigits returns a uniformly random digit permutation.
func RandomDigits() Digits {
	var d Digits
	for i, v := range rand.Perm(10) {
		d[i] = v
	}
	return d
}

// ParseDigits validates a stored digit list as a full permutation.
func ParseDigits(vals []int) (Digits, error) {
	var d Digits
	if len(vals) != 10 {
		return d, fmt.Errorf("digit axis has %d entries, want 10", len(vals))
	}
	var seen [10]bool
	for i, v := range vals {
		if v < 0 || v > 9 {
			return d, fmt.Errorf("digit %d out of range", v)
		}
		if seen[v] {
			return d, fmt.Errorf("digit %d repeated", v)
		}
		seen[v] = true
		d[i] = v
	}
	return d, nil
}

// IndexOf returns the grid index carrying the given digit. Digits is
// always a permutation, so exactly one index matches.
func (d Digits) IndexOf(digit int) int {
	for i, v := range d {
		if v == digit {
			return i
		}
	}
	return -1
}

// Slice returns the permutation as a plain slice for storage.
func (d Digits) Slice() []int {
	out := make([]int, 10)
	copy(out, d[:])
	return out
}

// --------------------------------------------------------------------------
// Pools and squares
// --------------------------------------------------------------------------

// Pool is a squares pool. RowDigits and ColDigits are meaningful only
// once Locked is set; before lock the grid has no digit assignment and
// no winners can be derived.
type Pool struct {
	ID             int64
	Label          string
	Sport          string
	Mode           ScoringMode
	ReverseScoring bool
	Locked         bool
	RowDigits      Digits
	ColDigits      Digits
	LockedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ErrPoolLocked is returned when locking an already locked pool.
var ErrPoolLocked = errors.New("pool already locked")

// ErrPoolUnlocked is returned when deriving winners before digits exist.
var ErrPoolUnlocked = errors.New("pool digits not assigned")

// ErrSquareTaken is returned when claiming a cell someone already holds.
var ErrSquareTaken = errors.New("square already claimed")

// Lock assigns digit permutations to both axes and freezes the grid.
func (p *Pool) Lock(rows, cols Digits, at time.Time) error {
	if p.Locked {
		return ErrPoolLocked
	}
	p.Locked = true
	p.RowDigits = rows
	p.ColDigits = cols
	p.LockedAt = &at
	return nil
}

// Square is a claimed cell of a pool's grid. Unclaimed cells have no
// record. Row and Col are grid indexes, not score digits.
type Square struct {
	ID        int64
	PoolID    int64
	Row       int
	Col       int
	ClaimedBy string
	CreatedAt time.Time
}
