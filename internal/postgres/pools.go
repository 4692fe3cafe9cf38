package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gridpools/scorewire/internal/ledger"
	"github.com/gridpools/scorewire/internal/squares"
)

// --------------------------------------------------------------------------
// Pools
// --------------------------------------------------------------------------

func scanPool(row pgx.Row) (squares.Pool, error) {
	var p squares.Pool
	var rowDigits, colDigits []int64
	err := row.Scan(&p.ID, &p.Label, &p.Sport, &p.Mode, &p.ReverseScoring,
		&p.Locked, &rowDigits, &colDigits, &p.LockedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return squares.Pool{}, err
	}
	if p.Locked {
		if p.RowDigits, err = digitsFromSQL(rowDigits); err != nil {
			return squares.Pool{}, fmt.Errorf("pool %d row digits: %w", p.ID, err)
		}
		if p.ColDigits, err = digitsFromSQL(colDigits); err != nil {
			return squares.Pool{}, fmt.Errorf("pool %d col digits: %w", p.ID, err)
		}
	}
	return p, nil
}

// CreatePool inserts the pool and returns it with id and timestamps.
func (s *Store) CreatePool(ctx context.Context, p squares.Pool) (squares.Pool, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO pools (label, sport, mode, reverse_scoring, locked, row_digits, col_digits, locked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		p.Label, p.Sport, p.Mode, p.ReverseScoring, p.Locked,
		digitsParam(p.RowDigits, p.Locked), digitsParam(p.ColDigits, p.Locked), p.LockedAt,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return squares.Pool{}, fmt.Errorf("insert pool: %w", err)
	}
	return p, nil
}

func (s *Store) GetPool(ctx context.Context, id int64) (squares.Pool, error) {
	p, err := scanPool(s.db.QueryRow(ctx, "pool_by_id", id))
	if err != nil {
		return squares.Pool{}, notFound(err)
	}
	return p, nil
}

// ListPools returns all pools ordered by id.
func (s *Store) ListPools(ctx context.Context) ([]squares.Pool, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, label, sport, mode, reverse_scoring, locked, row_digits, col_digits, locked_at, created_at, updated_at
		FROM pools ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}
	defer rows.Close()

	var pools []squares.Pool
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pool: %w", err)
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}

func (s *Store) UpdatePool(ctx context.Context, p squares.Pool) error {
	ct, err := s.db.Exec(ctx, `
		UPDATE pools SET
			label = $2, sport = $3, mode = $4, reverse_scoring = $5,
			locked = $6, row_digits = $7, col_digits = $8, locked_at = $9,
			updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.Label, p.Sport, p.Mode, p.ReverseScoring,
		p.Locked, digitsParam(p.RowDigits, p.Locked), digitsParam(p.ColDigits, p.Locked), p.LockedAt)
	if err != nil {
		return fmt.Errorf("update pool: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// --------------------------------------------------------------------------
// Squares
// --------------------------------------------------------------------------

// ClaimSquare records a claim on one cell. The pool must exist and be
// unlocked, and the cell must be free.
func (s *Store) ClaimSquare(ctx context.Context, sq squares.Square) (squares.Square, error) {
	var locked bool
	err := s.db.QueryRow(ctx, "SELECT locked FROM pools WHERE id = $1", sq.PoolID).Scan(&locked)
	if err != nil {
		return squares.Square{}, notFound(err)
	}
	if locked {
		return squares.Square{}, squares.ErrPoolLocked
	}

	err = s.db.QueryRow(ctx, `
		INSERT INTO pool_squares (pool_id, row_index, col_index, claimed_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		sq.PoolID, sq.Row, sq.Col, sq.ClaimedBy,
	).Scan(&sq.ID, &sq.CreatedAt)
	if err != nil {
		if uniqueViolation(err) {
			return squares.Square{}, squares.ErrSquareTaken
		}
		return squares.Square{}, fmt.Errorf("insert square: %w", err)
	}
	return sq, nil
}

func (s *Store) GetSquare(ctx context.Context, poolID int64, row, col int) (squares.Square, error) {
	var sq squares.Square
	err := s.db.QueryRow(ctx, "square_by_cell", poolID, row, col).Scan(
		&sq.ID, &sq.PoolID, &sq.Row, &sq.Col, &sq.ClaimedBy, &sq.CreatedAt)
	if err != nil {
		return squares.Square{}, notFound(err)
	}
	return sq, nil
}

// ListSquares returns the pool's claimed cells in row, column order.
func (s *Store) ListSquares(ctx context.Context, poolID int64) ([]squares.Square, error) {
	rows, err := s.db.Query(ctx, "pool_squares", poolID)
	if err != nil {
		return nil, fmt.Errorf("list squares: %w", err)
	}
	defer rows.Close()

	var out []squares.Square
	for rows.Next() {
		var sq squares.Square
		if err := rows.Scan(&sq.ID, &sq.PoolID, &sq.Row, &sq.Col, &sq.ClaimedBy, &sq.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan square: %w", err)
		}
		out = append(out, sq)
	}
	return out, rows.Err()
}
