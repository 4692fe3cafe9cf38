package squares

import (
	"fmt"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Win types
// --------------------------------------------------------------------------

// Direction says which digit orientation a winner matched.
type Direction string

const (
	// DirectionForward matches (home digit, away digit) to (row, col).
	DirectionForward Direction = "forward"
	// DirectionReverse matches the transposed pair (away digit, home digit).
	DirectionReverse Direction = "reverse"
)

// WinType identifies what a winner row was paid for. Checkpoint is
// CheckpointNone for a plain score-change winner and names the boundary
// for checkpoint winners. Display strings such as "hybrid_q1" are a
// serialization concern; see Tag and ParseTag.
type WinType struct {
	Checkpoint Checkpoint
	Direction  Direction
}

// reverseSuffix marks transposed-pair winners in serialized tags.
const reverseSuffix = "_reverse"

// Tag renders the win type as its wire string. The pool's scoring mode
// decides the vocabulary: quarter pools tag checkpoints bare ("q1",
// "final"), score-change pools tag entries "score_change" and the
// terminal entry "score_change_final", and hybrid pools prefix claimed
// checkpoints ("hybrid_halftime"). Reverse winners append "_reverse".
func (w WinType) Tag(mode ScoringMode) string {
	var base string
	switch {
	case w.Checkpoint == CheckpointNone:
		base = "score_change"
	case mode == ModeQuarter:
		base = string(w.Checkpoint)
	case mode == ModeScoreChange:
		// Only the final retag occurs in this mode.
		base = "score_change_" + string(w.Checkpoint)
	default:
		base = "hybrid_" + string(w.Checkpoint)
	}
	if w.Direction == DirectionReverse {
		base += reverseSuffix
	}
	return base
}

// ParseTag decodes a stored win-type string. The scoring mode is not
// recovered; it lives on the pool.
func ParseTag(s string) (WinType, error) {
	w := WinType{Direction: DirectionForward}
	base := s
	if strings.HasSuffix(base, reverseSuffix) {
		w.Direction = DirectionReverse
		base = strings.TrimSuffix(base, reverseSuffix)
	}
	switch base {
	case "score_change":
		return w, nil
	case "score_change_final":
		w.Checkpoint = CheckpointFinal
		return w, nil
	}
	base = strings.TrimPrefix(base, "hybrid_")
	cp, err := ParseCheckpoint(base)
	if err != nil {
		return WinType{}, fmt.Errorf("win type %q: %w", s, err)
	}
	w.Checkpoint = cp
	return w, nil
}

// --------------------------------------------------------------------------
// Winners
// --------------------------------------------------------------------------

// QuarterPayoutRef is the payout reference shared by all winners derived
// from saved quarter scores. Ledger-derived winners use the originating
// entry's change order instead, so the two families never collide.
const QuarterPayoutRef = 0

// Winner is a recorded payout. SquareID is nil when the winning cell was
// never claimed; Row and Col always identify the cell. PayoutRef groups
// the winners replaced together when their source observation changes.
type Winner struct {
	ID        string
	GameID    int64
	SquareID  *int64
	Row       int
	Col       int
	Type      WinType
	PayoutRef int
	Label     string
	CreatedAt time.Time
}
