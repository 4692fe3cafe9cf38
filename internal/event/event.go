// Package event defines the sporting events the poller tracks and the
// live state snapshots recorded against them. An Event is the unit of
// polling; its State is a pure mirror of whatever the score provider
// last reported and carries no derived pool data.
package event

import (
	"fmt"
	"time"
)

// --------------------------------------------------------------------------
// Enumerations
// --------------------------------------------------------------------------

// Type classifies the shape of an event's live data.
type Type string

const (
	// TypeTeamGame is a two-sided scored game (NFL, NBA, ...).
	TypeTeamGame Type = "team_game"
	// TypeTournament is a field-of-competitors event (golf, racing).
	TypeTournament Type = "tournament"
)

// ParseType validates a wire string as an event type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeTeamGame, TypeTournament:
		return Type(s), nil
	}
	return "", fmt.Errorf("unknown event type %q", s)
}

// Provider identifies where an event's scores come from.
type Provider string

const (
	// ProviderExternal events are polled from the upstream score feed.
	ProviderExternal Provider = "external"
	// ProviderManual events are scored by hand and never polled.
	ProviderManual Provider = "manual"
)

// ParseProvider validates a wire string as a provider.
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderExternal, ProviderManual:
		return Provider(s), nil
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// Status is the lifecycle state of an event.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusFinal      Status = "final"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus validates a wire string as an event status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusScheduled, StatusInProgress, StatusFinal, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown event status %q", s)
}

// Terminal reports whether the status ends an event's polling lifecycle.
func (s Status) Terminal() bool {
	return s == StatusFinal || s == StatusCancelled
}

// statusRank orders the forward lifecycle chain. Cancelled sits outside
// the chain and is handled separately.
func statusRank(s Status) int {
	switch s {
	case StatusScheduled:
		return 0
	case StatusInProgress:
		return 1
	case StatusFinal:
		return 2
	}
	return -1
}

// CanTransition reports whether moving from one status to another is a
// legal lifecycle step. Forward moves along scheduled -> in_progress ->
// final are allowed, including skips (a provider may report final for an
// event we never saw live). Cancellation is allowed from any non-terminal
// status. Nothing leaves a terminal status.
func CanTransition(from, to Status) bool {
	if from.Terminal() || from == to {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return statusRank(to) > statusRank(from)
}

// --------------------------------------------------------------------------
// Records
// --------------------------------------------------------------------------

// Event is a pollable sporting event. ExternalRef is the provider's
// identifier and is only set for external events. Metadata is carried
// through storage and the API untouched; nothing here interprets it.
type Event struct {
	ID          int64
	Sport       string
	Label       string
	Type        Type
	Provider    Provider
	ExternalRef *string
	StartTime   time.Time
	Status      Status
	Metadata    map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Pollable reports whether the scheduler should consider the event at
// all: external provider and non-terminal status.
func (e Event) Pollable() bool {
	return e.Provider == ProviderExternal && !e.Status.Terminal()
}

// State is the latest provider snapshot for an event. Team-game fields
// and tournament fields are both present; only the set matching the
// event's type is populated.
type State struct {
	EventID   int64
	HomeTeam  string
	AwayTeam  string
	HomeScore int
	AwayScore int
	Period    int
	Clock     string
	Halftime  bool

	CurrentRound int
	RoundStatus  string
	Leaderboard  []LeaderboardEntry

	LastProviderUpdate time.Time
	UpdatedAt          time.Time
}

// LeaderboardEntry is one competitor line of a tournament snapshot.
// Score and Thru stay strings: providers report values like "-12" and
// "F" that carry no arithmetic meaning here.
type LeaderboardEntry struct {
	Position   int    `json:"position"`
	Competitor string `json:"competitor"`
	Score      string `json:"score"`
	Thru       string `json:"thru,omitempty"`
}
