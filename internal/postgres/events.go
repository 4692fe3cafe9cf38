package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gridpools/scorewire/internal/event"
	"github.com/gridpools/scorewire/internal/ledger"
	"github.com/gridpools/scorewire/internal/poller"
	"github.com/gridpools/scorewire/internal/squares"
)

// --------------------------------------------------------------------------
// Events
// --------------------------------------------------------------------------

func scanEvent(row pgx.Row) (event.Event, error) {
	var ev event.Event
	err := row.Scan(&ev.ID, &ev.Sport, &ev.Label, &ev.Type, &ev.Provider,
		&ev.ExternalRef, &ev.StartTime, &ev.Status, &ev.Metadata, &ev.CreatedAt, &ev.UpdatedAt)
	return ev, err
}

// CreateEvent inserts the event and returns it with id and timestamps.
func (s *Store) CreateEvent(ctx context.Context, ev event.Event) (event.Event, error) {
	if ev.Status == "" {
		ev.Status = event.StatusScheduled
	}
	if ev.Metadata == nil {
		ev.Metadata = map[string]string{}
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO events (sport, label, event_type, provider, external_ref, start_time, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		ev.Sport, ev.Label, ev.Type, ev.Provider, ev.ExternalRef, ev.StartTime, ev.Status, ev.Metadata,
	).Scan(&ev.ID, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return event.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return ev, nil
}

func (s *Store) GetEvent(ctx context.Context, id int64) (event.Event, error) {
	ev, err := scanEvent(s.db.QueryRow(ctx, "event_by_id", id))
	if err != nil {
		return event.Event{}, notFound(err)
	}
	return ev, nil
}

// ListEvents returns all events ordered by start time, then id.
func (s *Store) ListEvents(ctx context.Context) ([]event.Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, sport, label, event_type, provider, external_ref, start_time, status, metadata, created_at, updated_at
		FROM events ORDER BY start_time, id`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *Store) ListPollable(ctx context.Context) ([]event.Event, error) {
	rows, err := s.db.Query(ctx, "pollable_events")
	if err != nil {
		return nil, fmt.Errorf("list pollable events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *Store) UpdateEventStatus(ctx context.Context, eventID int64, status event.Status) error {
	ct, err := s.db.Exec(ctx,
		"UPDATE events SET status = $2, updated_at = NOW() WHERE id = $1", eventID, status)
	if err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// --------------------------------------------------------------------------
// Event state
// --------------------------------------------------------------------------

func (s *Store) GetState(ctx context.Context, eventID int64) (event.State, error) {
	var st event.State
	err := s.db.QueryRow(ctx, "event_state", eventID).Scan(
		&st.EventID, &st.HomeTeam, &st.AwayTeam, &st.HomeScore, &st.AwayScore,
		&st.Period, &st.Clock, &st.Halftime,
		&st.CurrentRound, &st.RoundStatus, &st.Leaderboard,
		&st.LastProviderUpdate, &st.UpdatedAt)
	if err != nil {
		return event.State{}, notFound(err)
	}
	return st, nil
}

func (s *Store) UpsertState(ctx context.Context, st event.State) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO event_states (
			event_id, home_team, away_team, home_score, away_score,
			period, game_clock, halftime, current_round, round_status,
			leaderboard, last_provider_update, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (event_id) DO UPDATE SET
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			period = EXCLUDED.period,
			game_clock = EXCLUDED.game_clock,
			halftime = EXCLUDED.halftime,
			current_round = EXCLUDED.current_round,
			round_status = EXCLUDED.round_status,
			leaderboard = EXCLUDED.leaderboard,
			last_provider_update = EXCLUDED.last_provider_update,
			updated_at = EXCLUDED.updated_at`,
		st.EventID, st.HomeTeam, st.AwayTeam, st.HomeScore, st.AwayScore,
		st.Period, st.Clock, st.Halftime, st.CurrentRound, st.RoundStatus,
		st.Leaderboard, st.LastProviderUpdate, st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert event state: %w", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Worker leases
// --------------------------------------------------------------------------

func (s *Store) GetLease(ctx context.Context, eventID int64) (poller.Lease, bool, error) {
	var l poller.Lease
	err := s.db.QueryRow(ctx, "worker_lease", eventID).Scan(
		&l.EventID, &l.WorkerID, &l.AcquiredAt, &l.ExpiresAt, &l.LastPollAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return poller.Lease{}, false, nil
	}
	if err != nil {
		return poller.Lease{}, false, fmt.Errorf("get lease: %w", err)
	}
	return l, true, nil
}

func (s *Store) PutLease(ctx context.Context, lease poller.Lease) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO worker_leases (event_id, worker_id, acquired_at, expires_at, last_poll_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO UPDATE SET
			worker_id = EXCLUDED.worker_id,
			acquired_at = EXCLUDED.acquired_at,
			expires_at = EXCLUDED.expires_at,
			last_poll_at = EXCLUDED.last_poll_at`,
		lease.EventID, lease.WorkerID, lease.AcquiredAt, lease.ExpiresAt, lease.LastPollAt)
	if err != nil {
		return fmt.Errorf("put lease: %w", err)
	}
	return nil
}

func (s *Store) FinalizeLease(ctx context.Context, eventID int64, workerID string, at time.Time) error {
	ct, err := s.db.Exec(ctx, `
		UPDATE worker_leases SET last_poll_at = $3, expires_at = $3
		WHERE event_id = $1 AND worker_id = $2`, eventID, workerID, at)
	if err != nil {
		return fmt.Errorf("finalize lease: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("lease for event %d not held by worker %s", eventID, workerID)
	}
	return nil
}

// PurgeTerminalLeases drops lease rows whose event reached a terminal
// status and returns how many were removed.
func (s *Store) PurgeTerminalLeases(ctx context.Context) (int64, error) {
	ct, err := s.db.Exec(ctx, `
		DELETE FROM worker_leases wl USING events e
		WHERE e.id = wl.event_id AND e.status IN ('final', 'cancelled')`)
	if err != nil {
		return 0, fmt.Errorf("purge leases: %w", err)
	}
	return ct.RowsAffected(), nil
}

// --------------------------------------------------------------------------
// Tracked games
// --------------------------------------------------------------------------

// TrackedGames joins the event's games with their pool's scoring mode
// and the furthest marked boundary.
func (s *Store) TrackedGames(ctx context.Context, eventID int64) ([]poller.TrackedGame, error) {
	rows, err := s.db.Query(ctx, "tracked_games", eventID)
	if err != nil {
		return nil, fmt.Errorf("tracked games: %w", err)
	}
	defer rows.Close()

	var tracked []poller.TrackedGame
	for rows.Next() {
		var tg poller.TrackedGame
		g := &tg.Game
		if err := rows.Scan(&g.ID, &g.PoolID, &g.EventID, &g.HomeTeam, &g.AwayTeam,
			&g.HomeScore, &g.AwayScore, &g.Status, &g.Quarters,
			&g.CreatedAt, &g.UpdatedAt, &tg.Mode); err != nil {
			return nil, fmt.Errorf("scan tracked game: %w", err)
		}
		tracked = append(tracked, tg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tracked {
		marked, err := s.markedThrough(ctx, tracked[i].Game.ID)
		if err != nil {
			return nil, err
		}
		tracked[i].MarkedThrough = marked
	}
	return tracked, nil
}

// markedThrough scans the game's marker arrays for the furthest claimed
// boundary.
func (s *Store) markedThrough(ctx context.Context, gameID int64) (squares.Checkpoint, error) {
	rows, err := s.db.Query(ctx, "game_markers", gameID)
	if err != nil {
		return squares.CheckpointNone, fmt.Errorf("game markers: %w", err)
	}
	defer rows.Close()

	marked := squares.CheckpointNone
	for rows.Next() {
		var raw []string
		if err := rows.Scan(&raw); err != nil {
			return squares.CheckpointNone, fmt.Errorf("scan markers: %w", err)
		}
		for _, m := range markersFromSQL(raw) {
			if m.Order() > marked.Order() {
				marked = m
			}
		}
	}
	return marked, rows.Err()
}
