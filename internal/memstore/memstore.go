// Package memstore implements the persistence interfaces in process
// memory. It backs the demo sandbox and package tests; production
// deployments use internal/postgres instead.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/gridpools/scorewire/internal/event"
	"github.com/gridpools/scorewire/internal/ledger"
	"github.com/gridpools/scorewire/internal/poller"
	"github.com/gridpools/scorewire/internal/squares"
)

type cellKey struct {
	poolID   int64
	row, col int
}

// Store holds every table in maps guarded by one mutex. Mutations copy
// on write and reads copy on the way out, so callers never share slices
// or maps with the store.
type Store struct {
	mu sync.RWMutex

	events  map[int64]event.Event
	states  map[int64]event.State
	leases  map[int64]poller.Lease
	pools   map[int64]squares.Pool
	cells   map[cellKey]squares.Square
	games   map[int64]ledger.Game
	changes map[int64][]ledger.ScoreChange
	winners map[int64][]squares.Winner

	nextEventID  int64
	nextPoolID   int64
	nextSquareID int64
	nextGameID   int64
	nextChangeID int64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		events:  make(map[int64]event.Event),
		states:  make(map[int64]event.State),
		leases:  make(map[int64]poller.Lease),
		pools:   make(map[int64]squares.Pool),
		cells:   make(map[cellKey]squares.Square),
		games:   make(map[int64]ledger.Game),
		changes: make(map[int64][]ledger.ScoreChange),
		winners: make(map[int64][]squares.Winner),
	}
}

// HealthCheck always succeeds; there is no backing connection.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// --------------------------------------------------------------------------
// Events
// --------------------------------------------------------------------------

// CreateEvent assigns an id and stores the event.
func (s *Store) CreateEvent(_ context.Context, ev event.Event) (event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextEventID++
	ev.ID = s.nextEventID
	if ev.Status == "" {
		ev.Status = event.StatusScheduled
	}
	ev.Metadata = maps.Clone(ev.Metadata)
	now := time.Now()
	ev.CreatedAt, ev.UpdatedAt = now, now
	s.events[ev.ID] = ev
	return copyEvent(ev), nil
}

func (s *Store) GetEvent(_ context.Context, id int64) (event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.events[id]
	if !ok {
		return event.Event{}, ledger.ErrNotFound
	}
	return copyEvent(ev), nil
}

// ListEvents returns all events ordered by start time, then id.
func (s *Store) ListEvents(_ context.Context) ([]event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]event.Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, copyEvent(ev))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListPollable(_ context.Context) ([]event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []event.Event
	for _, ev := range s.events {
		if ev.Pollable() {
			out = append(out, copyEvent(ev))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateEventStatus(_ context.Context, eventID int64, status event.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[eventID]
	if !ok {
		return ledger.ErrNotFound
	}
	ev.Status = status
	ev.UpdatedAt = time.Now()
	s.events[eventID] = ev
	return nil
}

// --------------------------------------------------------------------------
// Event state
// --------------------------------------------------------------------------

func (s *Store) GetState(_ context.Context, eventID int64) (event.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[eventID]
	if !ok {
		return event.State{}, ledger.ErrNotFound
	}
	return copyState(st), nil
}

func (s *Store) UpsertState(_ context.Context, st event.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[st.EventID] = copyState(st)
	return nil
}

func copyEvent(ev event.Event) event.Event {
	ev.Metadata = maps.Clone(ev.Metadata)
	return ev
}

func copyState(st event.State) event.State {
	if len(st.Leaderboard) > 0 {
		lb := make([]event.LeaderboardEntry, len(st.Leaderboard))
		copy(lb, st.Leaderboard)
		st.Leaderboard = lb
	}
	return st
}

// --------------------------------------------------------------------------
// Worker leases
// --------------------------------------------------------------------------

func (s *Store) GetLease(_ context.Context, eventID int64) (poller.Lease, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.leases[eventID]
	return l, ok, nil
}

func (s *Store) PutLease(_ context.Context, lease poller.Lease) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.leases[lease.EventID] = lease
	return nil
}

func (s *Store) FinalizeLease(_ context.Context, eventID int64, workerID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.leases[eventID]
	if !ok || l.WorkerID != workerID {
		return fmt.Errorf("lease for event %d not held by worker %s", eventID, workerID)
	}
	l.LastPollAt = at
	l.ExpiresAt = at
	s.leases[eventID] = l
	return nil
}

// PurgeTerminalLeases drops lease rows whose event reached a terminal
// status and returns how many were removed.
func (s *Store) PurgeTerminalLeases(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for id := range s.leases {
		ev, ok := s.events[id]
		if !ok || ev.Status.Terminal() {
			delete(s.leases, id)
			purged++
		}
	}
	return purged, nil
}

// TrackedGames joins the event's games with their pool's scoring mode
// and the furthest marked boundary.
func (s *Store) TrackedGames(_ context.Context, eventID int64) ([]poller.TrackedGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []poller.TrackedGame
	for _, g := range s.games {
		if g.EventID == nil || *g.EventID != eventID {
			continue
		}
		pool, ok := s.pools[g.PoolID]
		if !ok {
			return nil, fmt.Errorf("game %d references missing pool %d", g.ID, g.PoolID)
		}
		marked := squares.CheckpointNone
		for _, c := range s.changes[g.ID] {
			if m := c.LatestMarker(); m.Order() > marked.Order() {
				marked = m
			}
		}
		out = append(out, poller.TrackedGame{Game: g, Mode: pool.Mode, MarkedThrough: marked})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Game.ID < out[j].Game.ID })
	return out, nil
}
