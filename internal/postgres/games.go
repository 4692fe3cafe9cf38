package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gridpools/scorewire/internal/ledger"
	"github.com/gridpools/scorewire/internal/squares"
)

// --------------------------------------------------------------------------
// Games
// --------------------------------------------------------------------------

func scanGame(row pgx.Row) (ledger.Game, error) {
	var g ledger.Game
	err := row.Scan(&g.ID, &g.PoolID, &g.EventID, &g.HomeTeam, &g.AwayTeam,
		&g.HomeScore, &g.AwayScore, &g.Status, &g.Quarters, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

// CreateGame inserts the game and returns it with id and timestamps.
func (s *Store) CreateGame(ctx context.Context, g ledger.Game) (ledger.Game, error) {
	if g.Status == "" {
		g.Status = ledger.GameScheduled
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO games (pool_id, event_id, home_team, away_team, home_score, away_score, status, quarter_scores)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		g.PoolID, g.EventID, g.HomeTeam, g.AwayTeam, g.HomeScore, g.AwayScore, g.Status, g.Quarters,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if foreignKeyViolation(err) {
			return ledger.Game{}, ledger.ErrNotFound
		}
		return ledger.Game{}, fmt.Errorf("insert game: %w", err)
	}
	return g, nil
}

func (s *Store) GetGame(ctx context.Context, id int64) (ledger.Game, error) {
	g, err := scanGame(s.db.QueryRow(ctx, "game_by_id", id))
	if err != nil {
		return ledger.Game{}, notFound(err)
	}
	return g, nil
}

// updateGame writes the full game row on the pool or inside an open
// transaction.
func updateGame(ctx context.Context, ex execer, g ledger.Game) error {
	ct, err := ex.Exec(ctx, `
		UPDATE games SET
			home_team = $2, away_team = $3, home_score = $4, away_score = $5,
			status = $6, quarter_scores = $7, updated_at = $8
		WHERE id = $1`,
		g.ID, g.HomeTeam, g.AwayTeam, g.HomeScore, g.AwayScore, g.Status, g.Quarters, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateGame(ctx context.Context, game ledger.Game) error {
	return updateGame(ctx, s.db, game)
}

// ListGames returns every game ordered by id.
func (s *Store) ListGames(ctx context.Context) ([]ledger.Game, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, pool_id, event_id, home_team, away_team, home_score, away_score, status, quarter_scores, created_at, updated_at
		FROM games ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()
	return collectGames(rows)
}

// GamesForPool returns the pool's games ordered by id.
func (s *Store) GamesForPool(ctx context.Context, poolID int64) ([]ledger.Game, error) {
	rows, err := s.db.Query(ctx, "games_by_pool", poolID)
	if err != nil {
		return nil, fmt.Errorf("list pool games: %w", err)
	}
	defer rows.Close()
	return collectGames(rows)
}

func collectGames(rows pgx.Rows) ([]ledger.Game, error) {
	var games []ledger.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// --------------------------------------------------------------------------
// Score changes
// --------------------------------------------------------------------------

func scanChange(row pgx.Row) (ledger.ScoreChange, error) {
	var c ledger.ScoreChange
	var markers []string
	err := row.Scan(&c.ID, &c.GameID, &c.HomeScore, &c.AwayScore, &c.Order, &markers, &c.CreatedAt)
	if err != nil {
		return ledger.ScoreChange{}, err
	}
	c.Markers = markersFromSQL(markers)
	return c, nil
}

func (s *Store) ListChanges(ctx context.Context, gameID int64) ([]ledger.ScoreChange, error) {
	rows, err := s.db.Query(ctx, "list_changes", gameID)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	defer rows.Close()

	var changes []ledger.ScoreChange
	for rows.Next() {
		c, err := scanChange(rows)
		if err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

func (s *Store) LatestChange(ctx context.Context, gameID int64) (ledger.ScoreChange, error) {
	c, err := scanChange(s.db.QueryRow(ctx, "latest_change", gameID))
	if err != nil {
		return ledger.ScoreChange{}, notFound(err)
	}
	return c, nil
}

// AppendChange inserts the ledger entry and writes the game mirror in
// one transaction. A duplicate (game, order) pair from a racing writer
// fails the whole write with ErrChangeConflict.
func (s *Store) AppendChange(ctx context.Context, change ledger.ScoreChange, game ledger.Game) (ledger.ScoreChange, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return ledger.ScoreChange{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO score_changes (game_id, home_score, away_score, change_order, markers, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		change.GameID, change.HomeScore, change.AwayScore, change.Order,
		markersToSQL(change.Markers), change.CreatedAt,
	).Scan(&change.ID)
	if err != nil {
		if uniqueViolation(err) {
			return ledger.ScoreChange{}, ledger.ErrChangeConflict
		}
		return ledger.ScoreChange{}, fmt.Errorf("insert change: %w", err)
	}

	if err := updateGame(ctx, tx, game); err != nil {
		return ledger.ScoreChange{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ledger.ScoreChange{}, fmt.Errorf("commit: %w", err)
	}
	return change, nil
}

// SetMarkers persists the entry's marker list and the game row in one
// transaction.
func (s *Store) SetMarkers(ctx context.Context, change ledger.ScoreChange, game ledger.Game) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx,
		"UPDATE score_changes SET markers = $2 WHERE id = $1",
		change.ID, markersToSQL(change.Markers))
	if err != nil {
		return fmt.Errorf("update markers: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}

	if err := updateGame(ctx, tx, game); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// TruncateChanges removes ledger entries with order >= fromOrder, the
// winner rows paid from them, and writes the rewound game row, all in
// one transaction. The quarter winner family (payout_ref 0) survives.
func (s *Store) TruncateChanges(ctx context.Context, gameID int64, fromOrder int, game ledger.Game) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"DELETE FROM score_changes WHERE game_id = $1 AND change_order >= $2",
		gameID, fromOrder); err != nil {
		return fmt.Errorf("delete changes: %w", err)
	}
	if _, err := tx.Exec(ctx,
		"DELETE FROM winners WHERE game_id = $1 AND payout_ref >= $2",
		gameID, fromOrder); err != nil {
		return fmt.Errorf("delete winners: %w", err)
	}

	if err := updateGame(ctx, tx, game); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Winners
// --------------------------------------------------------------------------

// ReplaceWinners swaps the winner set recorded under one payout
// reference in a single transaction.
func (s *Store) ReplaceWinners(ctx context.Context, gameID int64, payoutRef int, winners []squares.Winner) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"DELETE FROM winners WHERE game_id = $1 AND payout_ref = $2",
		gameID, payoutRef); err != nil {
		return fmt.Errorf("delete winners: %w", err)
	}
	for _, w := range winners {
		if _, err := tx.Exec(ctx, `
			INSERT INTO winners (id, game_id, square_id, row_index, col_index, win_checkpoint, win_direction, payout_ref, label, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			w.ID, w.GameID, w.SquareID, w.Row, w.Col,
			w.Type.Checkpoint, w.Type.Direction, w.PayoutRef, w.Label, w.CreatedAt); err != nil {
			return fmt.Errorf("insert winner: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) DeleteWinnersAbove(ctx context.Context, gameID int64, ref int) (int64, error) {
	ct, err := s.db.Exec(ctx,
		"DELETE FROM winners WHERE game_id = $1 AND payout_ref > $2", gameID, ref)
	if err != nil {
		return 0, fmt.Errorf("delete winners above %d: %w", ref, err)
	}
	return ct.RowsAffected(), nil
}

// ListWinners returns the game's winners ordered by payout reference.
func (s *Store) ListWinners(ctx context.Context, gameID int64) ([]squares.Winner, error) {
	rows, err := s.db.Query(ctx, "game_winners", gameID)
	if err != nil {
		return nil, fmt.Errorf("list winners: %w", err)
	}
	defer rows.Close()

	var winners []squares.Winner
	for rows.Next() {
		var w squares.Winner
		if err := rows.Scan(&w.ID, &w.GameID, &w.SquareID, &w.Row, &w.Col,
			&w.Type.Checkpoint, &w.Type.Direction, &w.PayoutRef, &w.Label, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan winner: %w", err)
		}
		winners = append(winners, w)
	}
	return winners, rows.Err()
}
