package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/gridpools/scorewire/internal/ledger"
	"github.com/gridpools/scorewire/internal/squares"
)

// --------------------------------------------------------------------------
// Pools and squares
// --------------------------------------------------------------------------

// CreatePool assigns an id and stores the pool.
func (s *Store) CreatePool(_ context.Context, p squares.Pool) (squares.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPoolID++
	p.ID = s.nextPoolID
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.pools[p.ID] = p
	return p, nil
}

func (s *Store) GetPool(_ context.Context, id int64) (squares.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pools[id]
	if !ok {
		return squares.Pool{}, ledger.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListPools(_ context.Context) ([]squares.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]squares.Pool, 0, len(s.pools))
	for _, p := range s.pools {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdatePool(_ context.Context, p squares.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pools[p.ID]; !ok {
		return ledger.ErrNotFound
	}
	p.UpdatedAt = time.Now()
	s.pools[p.ID] = p
	return nil
}

// ClaimSquare records a claim on one cell. The pool must exist and be
// unlocked, and the cell must be free.
func (s *Store) ClaimSquare(_ context.Context, sq squares.Square) (squares.Square, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, ok := s.pools[sq.PoolID]
	if !ok {
		return squares.Square{}, ledger.ErrNotFound
	}
	if pool.Locked {
		return squares.Square{}, squares.ErrPoolLocked
	}
	key := cellKey{poolID: sq.PoolID, row: sq.Row, col: sq.Col}
	if _, taken := s.cells[key]; taken {
		return squares.Square{}, squares.ErrSquareTaken
	}

	s.nextSquareID++
	sq.ID = s.nextSquareID
	sq.CreatedAt = time.Now()
	s.cells[key] = sq
	return sq, nil
}

func (s *Store) GetSquare(_ context.Context, poolID int64, row, col int) (squares.Square, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sq, ok := s.cells[cellKey{poolID: poolID, row: row, col: col}]
	if !ok {
		return squares.Square{}, ledger.ErrNotFound
	}
	return sq, nil
}

// ListSquares returns the pool's claimed cells in row, column order.
func (s *Store) ListSquares(_ context.Context, poolID int64) ([]squares.Square, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []squares.Square
	for key, sq := range s.cells {
		if key.poolID == poolID {
			out = append(out, sq)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out, nil
}

// --------------------------------------------------------------------------
// Games
// --------------------------------------------------------------------------

// CreateGame assigns an id and stores the game.
func (s *Store) CreateGame(_ context.Context, g ledger.Game) (ledger.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pools[g.PoolID]; !ok {
		return ledger.Game{}, ledger.ErrNotFound
	}
	s.nextGameID++
	g.ID = s.nextGameID
	if g.Status == "" {
		g.Status = ledger.GameScheduled
	}
	now := time.Now()
	g.CreatedAt, g.UpdatedAt = now, now
	s.games[g.ID] = copyGame(g)
	return g, nil
}

func (s *Store) GetGame(_ context.Context, id int64) (ledger.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[id]
	if !ok {
		return ledger.Game{}, ledger.ErrNotFound
	}
	return copyGame(g), nil
}

func (s *Store) UpdateGame(_ context.Context, game ledger.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[game.ID]; !ok {
		return ledger.ErrNotFound
	}
	s.games[game.ID] = copyGame(game)
	return nil
}

// ListGames returns every game ordered by id.
func (s *Store) ListGames(_ context.Context) ([]ledger.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ledger.Game, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, copyGame(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GamesForPool returns the pool's games ordered by id.
func (s *Store) GamesForPool(_ context.Context, poolID int64) ([]ledger.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ledger.Game
	for _, g := range s.games {
		if g.PoolID == poolID {
			out = append(out, copyGame(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func copyGame(g ledger.Game) ledger.Game {
	g.Quarters = ledger.QuarterScores{
		Q1:    copyPair(g.Quarters.Q1),
		Half:  copyPair(g.Quarters.Half),
		Q3:    copyPair(g.Quarters.Q3),
		Final: copyPair(g.Quarters.Final),
	}
	return g
}

func copyPair(p *ledger.ScorePair) *ledger.ScorePair {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// --------------------------------------------------------------------------
// Score changes
// --------------------------------------------------------------------------

func (s *Store) ListChanges(_ context.Context, gameID int64) ([]ledger.ScoreChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cs := s.changes[gameID]
	out := make([]ledger.ScoreChange, len(cs))
	for i, c := range cs {
		out[i] = copyChange(c)
	}
	return out, nil
}

func (s *Store) LatestChange(_ context.Context, gameID int64) (ledger.ScoreChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cs := s.changes[gameID]
	if len(cs) == 0 {
		return ledger.ScoreChange{}, ledger.ErrNotFound
	}
	return copyChange(cs[len(cs)-1]), nil
}

func (s *Store) AppendChange(_ context.Context, change ledger.ScoreChange, game ledger.Game) (ledger.ScoreChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[game.ID]; !ok {
		return ledger.ScoreChange{}, ledger.ErrNotFound
	}
	for _, c := range s.changes[change.GameID] {
		if c.Order == change.Order {
			return ledger.ScoreChange{}, ledger.ErrChangeConflict
		}
	}

	s.nextChangeID++
	change.ID = s.nextChangeID
	s.changes[change.GameID] = append(s.changes[change.GameID], copyChange(change))
	s.games[game.ID] = copyGame(game)
	return change, nil
}

func (s *Store) SetMarkers(_ context.Context, change ledger.ScoreChange, game ledger.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs := s.changes[change.GameID]
	found := false
	for i, c := range cs {
		if c.ID == change.ID {
			cs[i] = copyChange(change)
			found = true
			break
		}
	}
	if !found {
		return ledger.ErrNotFound
	}
	s.games[game.ID] = copyGame(game)
	return nil
}

func (s *Store) TruncateChanges(_ context.Context, gameID int64, fromOrder int, game ledger.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []ledger.ScoreChange
	for _, c := range s.changes[gameID] {
		if c.Order < fromOrder {
			kept = append(kept, c)
		}
	}
	s.changes[gameID] = kept

	var keptWinners []squares.Winner
	for _, w := range s.winners[gameID] {
		if w.PayoutRef < fromOrder {
			keptWinners = append(keptWinners, w)
		}
	}
	s.winners[gameID] = keptWinners

	s.games[game.ID] = copyGame(game)
	return nil
}

func copyChange(c ledger.ScoreChange) ledger.ScoreChange {
	if len(c.Markers) > 0 {
		m := make([]squares.Checkpoint, len(c.Markers))
		copy(m, c.Markers)
		c.Markers = m
	}
	return c
}

// --------------------------------------------------------------------------
// Winners
// --------------------------------------------------------------------------

func (s *Store) ReplaceWinners(_ context.Context, gameID int64, payoutRef int, winners []squares.Winner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []squares.Winner
	for _, w := range s.winners[gameID] {
		if w.PayoutRef != payoutRef {
			kept = append(kept, w)
		}
	}
	s.winners[gameID] = append(kept, winners...)
	return nil
}

func (s *Store) DeleteWinnersAbove(_ context.Context, gameID int64, ref int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []squares.Winner
	var removed int64
	for _, w := range s.winners[gameID] {
		if w.PayoutRef > ref {
			removed++
			continue
		}
		kept = append(kept, w)
	}
	s.winners[gameID] = kept
	return removed, nil
}

// ListWinners returns the game's winners ordered by payout reference.
func (s *Store) ListWinners(_ context.Context, gameID int64) ([]squares.Winner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]squares.Winner, len(s.winners[gameID]))
	copy(out, s.winners[gameID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].PayoutRef < out[j].PayoutRef })
	return out, nil
}
