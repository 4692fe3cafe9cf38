package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gridpools/scorewire/internal/squares"
)

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

// ErrNotFound is returned by stores when a requested record does not
// exist. Shared across the persistence layer.
var ErrNotFound = errors.New("record not found")

// ErrChangeConflict is returned when two writers race to append the
// same change order. The loser's observation is stale; callers drop it
// and re-read on their next cycle rather than retrying blind.
var ErrChangeConflict = errors.New("concurrent ledger append")

// ValidationError rejects a mutation that contradicts recorded state.
// The message is written for the commissioner who typed the entry.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

// Store is the persistence the ledger service runs against. Methods
// taking a Game write the updated game row in the same transaction as
// the primary mutation so the mirror can never drift from the ledger.
type Store interface {
	GetGame(ctx context.Context, gameID int64) (Game, error)
	GetPool(ctx context.Context, poolID int64) (squares.Pool, error)
	UpdateGame(ctx context.Context, game Game) error

	// ListChanges returns the game's ledger in ascending change order.
	ListChanges(ctx context.Context, gameID int64) ([]ScoreChange, error)
	// LatestChange returns ErrNotFound for an empty ledger.
	LatestChange(ctx context.Context, gameID int64) (ScoreChange, error)
	// AppendChange inserts the entry and writes the game mirror
	// atomically. A duplicate (game, order) pair fails the whole write
	// with ErrChangeConflict.
	AppendChange(ctx context.Context, change ScoreChange, game Game) (ScoreChange, error)
	// SetMarkers persists the entry's marker list and the game row.
	SetMarkers(ctx context.Context, change ScoreChange, game Game) error
	// TruncateChanges removes entries with order >= fromOrder, winner
	// rows with payout_ref >= fromOrder, and writes the game row, all
	// atomically.
	TruncateChanges(ctx context.Context, gameID int64, fromOrder int, game Game) error

	// ReplaceWinners swaps the full winner set recorded under one
	// payout reference.
	ReplaceWinners(ctx context.Context, gameID int64, payoutRef int, winners []squares.Winner) error
	// DeleteWinnersAbove removes winner rows with payout_ref > ref.
	DeleteWinnersAbove(ctx context.Context, gameID int64, ref int) (int64, error)
	ListWinners(ctx context.Context, gameID int64) ([]squares.Winner, error)

	// GetSquare returns ErrNotFound for an unclaimed cell.
	GetSquare(ctx context.Context, poolID int64, row, col int) (squares.Square, error)
}

// --------------------------------------------------------------------------
// Service
// --------------------------------------------------------------------------

// unclaimedLabel is recorded on winners whose cell nobody claimed.
const unclaimedLabel = "Unclaimed"

// Service applies score mutations to games and keeps winner rows in
// sync with the observations that produced them.
type Service struct {
	store  Store
	logger *slog.Logger
	clock  func() time.Time
	newID  func() string
}

// NewService creates a ledger service with default dependencies.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		clock:  time.Now,
		newID:  uuid.NewString,
	}
}

// Append records a new cumulative score for the game and derives the
// entry's winners. The first entry may repeat 0-0 to mark the game as
// started; every other entry must move exactly one side's score upward.
func (s *Service) Append(ctx context.Context, gameID int64, home, away int) (ScoreChange, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return ScoreChange{}, fmt.Errorf("get game %d: %w", gameID, err)
	}
	if game.Status == GameFinal {
		return ScoreChange{}, validationf("game is final; delete the final entry before appending")
	}
	pool, err := s.store.GetPool(ctx, game.PoolID)
	if err != nil {
		return ScoreChange{}, fmt.Errorf("get pool %d: %w", game.PoolID, err)
	}
	if home < 0 || away < 0 {
		return ScoreChange{}, validationf("scores must be non-negative")
	}

	prev := ScorePair{}
	order := 1
	first := true
	if latest, err := s.store.LatestChange(ctx, gameID); err == nil {
		prev = latest.Pair()
		order = latest.Order + 1
		first = false
	} else if !errors.Is(err, ErrNotFound) {
		return ScoreChange{}, fmt.Errorf("latest change: %w", err)
	}

	if home < prev.Home || away < prev.Away {
		return ScoreChange{}, validationf("scores cannot decrease: previous entry is %d-%d", prev.Home, prev.Away)
	}
	dh, da := home-prev.Home, away-prev.Away
	if dh > 0 && da > 0 {
		return ScoreChange{}, validationf("one entry per scoring play: only one side may change, got +%d/+%d", dh, da)
	}
	if dh == 0 && da == 0 && !first {
		return ScoreChange{}, validationf("score is unchanged from the previous entry (%d-%d)", prev.Home, prev.Away)
	}

	now := s.clock()
	change := ScoreChange{
		GameID:    gameID,
		HomeScore: home,
		AwayScore: away,
		Order:     order,
		CreatedAt: now,
	}
	game.HomeScore, game.AwayScore = home, away
	if game.Status == GameScheduled {
		game.Status = GameInProgress
	}
	game.UpdatedAt = now

	change, err = s.store.AppendChange(ctx, change, game)
	if err != nil {
		return ScoreChange{}, fmt.Errorf("append change: %w", err)
	}

	if pool.Locked && pool.Mode.LedgerDriven() {
		winners, err := s.deriveWinners(ctx, pool, gameID, change.Pair(), squares.CheckpointNone, change.Order)
		if err != nil {
			return ScoreChange{}, err
		}
		if err := s.store.ReplaceWinners(ctx, gameID, change.Order, winners); err != nil {
			return ScoreChange{}, fmt.Errorf("record winners: %w", err)
		}
	}

	s.logger.Info("Ledger entry appended",
		"game_id", gameID, "order", change.Order, "score", fmt.Sprintf("%d-%d", home, away))
	return change, nil
}

// MarkQuarter attaches a quarter boundary to the game's latest ledger
// entry and re-tags that entry's winners under the checkpoint win type.
// Boundaries must be claimed in game order; marking final also ends the
// game. Hybrid pools take all four boundaries, score-change pools only
// final; quarter pools are driven by saved quarter scores instead.
func (s *Service) MarkQuarter(ctx context.Context, gameID int64, cp squares.Checkpoint) (ScoreChange, error) {
	if cp.Order() == 0 {
		return ScoreChange{}, validationf("unknown checkpoint")
	}
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return ScoreChange{}, fmt.Errorf("get game %d: %w", gameID, err)
	}
	if game.Status == GameFinal {
		return ScoreChange{}, validationf("game is final; no further boundaries can be marked")
	}
	pool, err := s.store.GetPool(ctx, game.PoolID)
	if err != nil {
		return ScoreChange{}, fmt.Errorf("get pool %d: %w", game.PoolID, err)
	}
	switch pool.Mode {
	case squares.ModeQuarter:
		return ScoreChange{}, validationf("quarter pools take saved quarter scores, not ledger markers")
	case squares.ModeScoreChange:
		if cp != squares.CheckpointFinal {
			return ScoreChange{}, validationf("score-change pools only mark final")
		}
	}

	changes, err := s.store.ListChanges(ctx, gameID)
	if err != nil {
		return ScoreChange{}, fmt.Errorf("list changes: %w", err)
	}
	if len(changes) == 0 {
		return ScoreChange{}, validationf("no ledger entries to mark")
	}
	reached := squares.CheckpointNone
	for _, c := range changes {
		if m := c.LatestMarker(); m.Order() > reached.Order() {
			reached = m
		}
	}
	if pool.Mode == squares.ModeHybrid && !cp.Follows(reached) {
		if reached == squares.CheckpointFinal || cp.Order() <= reached.Order() {
			return ScoreChange{}, validationf("%s is already marked", cp)
		}
		expected := squares.Checkpoints()[reached.Order()]
		return ScoreChange{}, validationf("boundaries are marked in order: expected %s next, got %s", expected, cp)
	}

	now := s.clock()
	latest := changes[len(changes)-1]
	latest.Markers = append(latest.Markers, cp)
	if cp == squares.CheckpointFinal {
		game.Status = GameFinal
	}
	game.UpdatedAt = now
	if err := s.store.SetMarkers(ctx, latest, game); err != nil {
		return ScoreChange{}, fmt.Errorf("set markers: %w", err)
	}

	if pool.Locked {
		winners, err := s.deriveWinners(ctx, pool, gameID, latest.Pair(), cp, latest.Order)
		if err != nil {
			return ScoreChange{}, err
		}
		if err := s.store.ReplaceWinners(ctx, gameID, latest.Order, winners); err != nil {
			return ScoreChange{}, fmt.Errorf("record winners: %w", err)
		}
	}

	s.logger.Info("Quarter boundary marked",
		"game_id", gameID, "checkpoint", string(cp), "order", latest.Order)
	return latest, nil
}

// Delete removes the ledger entry with the given order and everything
// after it: later entries depend on the deleted score, so the ledger is
// truncated rather than spliced. Winner rows paid from the removed
// entries go with them, the game mirror rewinds to the last surviving
// entry, and a game finalized by a deleted marker reopens.
func (s *Service) Delete(ctx context.Context, gameID int64, order int) error {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("get game %d: %w", gameID, err)
	}
	changes, err := s.store.ListChanges(ctx, gameID)
	if err != nil {
		return fmt.Errorf("list changes: %w", err)
	}
	idx := -1
	for i, c := range changes {
		if c.Order == order {
			idx = i
			break
		}
	}
	if idx < 0 {
		return validationf("no ledger entry with order %d", order)
	}

	survivors := changes[:idx]
	finalDeleted := false
	for _, c := range changes[idx:] {
		if c.HasMarker(squares.CheckpointFinal) {
			finalDeleted = true
		}
	}

	if len(survivors) > 0 {
		last := survivors[len(survivors)-1]
		game.HomeScore, game.AwayScore = last.HomeScore, last.AwayScore
		if finalDeleted {
			game.Status = GameInProgress
		}
	} else {
		game.HomeScore, game.AwayScore = 0, 0
		game.Status = GameScheduled
	}
	game.UpdatedAt = s.clock()

	if err := s.store.TruncateChanges(ctx, gameID, order, game); err != nil {
		return fmt.Errorf("truncate changes: %w", err)
	}

	s.logger.Info("Ledger truncated",
		"game_id", gameID, "from_order", order, "removed", len(changes)-idx)
	return nil
}

// SetQuarterScores saves the cumulative score at each filled quarter
// boundary of a quarter-mode game and recomputes the full quarter
// winner set. Scores can be edited freely until final is set; final
// requires a final-score pair and closes the game.
func (s *Service) SetQuarterScores(ctx context.Context, gameID int64, qs QuarterScores, final bool) (Game, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return Game{}, fmt.Errorf("get game %d: %w", gameID, err)
	}
	pool, err := s.store.GetPool(ctx, game.PoolID)
	if err != nil {
		return Game{}, fmt.Errorf("get pool %d: %w", game.PoolID, err)
	}
	if pool.Mode != squares.ModeQuarter {
		return Game{}, validationf("quarter scores apply to quarter pools; this pool pays per score change")
	}
	if game.Status == GameFinal {
		return Game{}, validationf("game is final; quarter scores are closed")
	}
	if err := qs.Validate(); err != nil {
		return Game{}, &ValidationError{Msg: err.Error()}
	}
	if final && qs.Final == nil {
		return Game{}, validationf("finalizing requires a final score")
	}

	game.Quarters = qs
	if latest := qs.Latest(); latest != nil {
		game.HomeScore, game.AwayScore = latest.Home, latest.Away
		if game.Status == GameScheduled {
			game.Status = GameInProgress
		}
	}
	if final {
		game.Status = GameFinal
	}
	game.UpdatedAt = s.clock()
	if err := s.store.UpdateGame(ctx, game); err != nil {
		return Game{}, fmt.Errorf("update game: %w", err)
	}

	if pool.Locked {
		if err := s.replaceQuarterWinners(ctx, pool, game); err != nil {
			return Game{}, err
		}
	}

	s.logger.Info("Quarter scores saved",
		"game_id", gameID, "final", final)
	return game, nil
}

// Rederive rebuilds every winner row of the game from recorded state:
// ledger entries and their markers for ledger-driven pools, saved
// quarter scores for quarter pools. Used after a pool locks and as the
// repair path when winner rows are suspect.
func (s *Service) Rederive(ctx context.Context, gameID int64) error {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("get game %d: %w", gameID, err)
	}
	pool, err := s.store.GetPool(ctx, game.PoolID)
	if err != nil {
		return fmt.Errorf("get pool %d: %w", game.PoolID, err)
	}
	if !pool.Locked {
		return validationf("pool digits not assigned; lock the pool first")
	}

	if pool.Mode == squares.ModeQuarter {
		if err := s.replaceQuarterWinners(ctx, pool, game); err != nil {
			return err
		}
		s.logger.Info("Winners rederived", "game_id", gameID, "mode", string(pool.Mode))
		return nil
	}

	changes, err := s.store.ListChanges(ctx, gameID)
	if err != nil {
		return fmt.Errorf("list changes: %w", err)
	}
	maxOrder := 0
	for _, c := range changes {
		winners, err := s.deriveWinners(ctx, pool, gameID, c.Pair(), c.LatestMarker(), c.Order)
		if err != nil {
			return err
		}
		if err := s.store.ReplaceWinners(ctx, gameID, c.Order, winners); err != nil {
			return fmt.Errorf("replace winners for order %d: %w", c.Order, err)
		}
		maxOrder = c.Order
	}
	orphans, err := s.store.DeleteWinnersAbove(ctx, gameID, maxOrder)
	if err != nil {
		return fmt.Errorf("delete orphaned winners: %w", err)
	}
	if orphans > 0 {
		s.logger.Warn("Removed winner rows with no backing ledger entry",
			"game_id", gameID, "count", orphans)
	}

	s.logger.Info("Winners rederived",
		"game_id", gameID, "mode", string(pool.Mode), "entries", len(changes))
	return nil
}

// --------------------------------------------------------------------------
// Derivation helpers
// --------------------------------------------------------------------------

// deriveWinners maps one score observation's cells to winner rows,
// resolving each cell against the pool's claimed squares.
func (s *Service) deriveWinners(ctx context.Context, pool squares.Pool, gameID int64, pair ScorePair, cp squares.Checkpoint, payoutRef int) ([]squares.Winner, error) {
	cells, err := pool.Cells(pair.Home, pair.Away)
	if err != nil {
		return nil, fmt.Errorf("derive cells: %w", err)
	}
	now := s.clock()
	winners := make([]squares.Winner, 0, len(cells))
	for _, cell := range cells {
		w := squares.Winner{
			ID:        s.newID(),
			GameID:    gameID,
			Row:       cell.Row,
			Col:       cell.Col,
			Type:      squares.WinType{Checkpoint: cp, Direction: cell.Direction},
			PayoutRef: payoutRef,
			Label:     unclaimedLabel,
			CreatedAt: now,
		}
		sq, err := s.store.GetSquare(ctx, pool.ID, cell.Row, cell.Col)
		switch {
		case err == nil:
			w.SquareID = &sq.ID
			w.Label = sq.ClaimedBy
		case !errors.Is(err, ErrNotFound):
			return nil, fmt.Errorf("resolve square (%d,%d): %w", cell.Row, cell.Col, err)
		}
		winners = append(winners, w)
	}
	return winners, nil
}

// replaceQuarterWinners rebuilds the quarter-family winner set from the
// game's saved quarter scores in one idempotent swap.
func (s *Service) replaceQuarterWinners(ctx context.Context, pool squares.Pool, game Game) error {
	var winners []squares.Winner
	for _, cp := range squares.Checkpoints() {
		pair := game.Quarters.At(cp)
		if pair == nil {
			continue
		}
		ws, err := s.deriveWinners(ctx, pool, game.ID, *pair, cp, squares.QuarterPayoutRef)
		if err != nil {
			return err
		}
		winners = append(winners, ws...)
	}
	if err := s.store.ReplaceWinners(ctx, game.ID, squares.QuarterPayoutRef, winners); err != nil {
		return fmt.Errorf("replace quarter winners: %w", err)
	}
	return nil
}
